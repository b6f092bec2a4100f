package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/seccat-audit/pkg/engine"
)

func TestUnreachableBackendIsAMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisClient(rdb, 0)
	defer c.Close()

	ctx := context.Background()
	c.Put(ctx, "R1:abc", engine.Verdict{PUID: "R1", Status: "Yes"})
	if _, ok := c.Get(ctx, "R1:abc"); ok {
		t.Fatal("unreachable cache must report a miss")
	}
	if c.Ping(ctx) == nil {
		t.Error("expected ping to fail")
	}
	if c.ttl != DefaultTTL {
		t.Errorf("expected default ttl, got %v", c.ttl)
	}
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	if _, err := NewRedis("http://localhost", time.Hour); err == nil {
		t.Fatal("expected error for non-redis scheme")
	}
	c, err := NewRedis("redis://localhost:6379/2", time.Hour)
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer c.Close()
	if c.ttl != time.Hour {
		t.Errorf("unexpected ttl %v", c.ttl)
	}
}

func TestKeyIsNamespaced(t *testing.T) {
	if got := Key("R1:00ff"); got != "seccat:verdict:R1:00ff" {
		t.Errorf("unexpected key %q", got)
	}
}

var _ engine.Cache = (*Redis)(nil)
