package adk

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeProvider struct {
	primaryErr   error
	secondaryErr error
	primary      []Request
	secondary    []Request
}

func (f *fakeProvider) Primary(ctx context.Context, r Request) (string, error) {
	f.primary = append(f.primary, r)
	if f.primaryErr != nil {
		return "", f.primaryErr
	}
	return "primary", nil
}

func (f *fakeProvider) Secondary(ctx context.Context, r Request) (string, error) {
	f.secondary = append(f.secondary, r)
	if f.secondaryErr != nil {
		return "", f.secondaryErr
	}
	return "secondary", nil
}

func (f *fakeProvider) ListModels(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestIsReasoningModel(t *testing.T) {
	cases := map[string]bool{
		"o3-mini":            true,
		"O1":                 true,
		"gpt-5":              true,
		"o3-mini-2025-01-31": true,
		"gpt-4o-mini":        false,
		"gpt-4o":             false,
		"gemini-1.5-flash":   false,
		"o3-mini-latest":     false,
		"":                   false,
	}
	for model, want := range cases {
		if got := IsReasoningModel(model); got != want {
			t.Errorf("IsReasoningModel(%q) = %v, want %v", model, got, want)
		}
	}
}

func TestAgentStandardModelSendsTemperature(t *testing.T) {
	p := &fakeProvider{}
	a := NewAgent(p, "gpt-4o-mini")

	out, err := a.Ask(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if out != "primary" {
		t.Errorf("expected primary output, got %q", out)
	}
	if len(p.primary) != 1 || p.primary[0].Temperature == nil {
		t.Fatalf("expected one primary call with temperature, got %+v", p.primary)
	}
	if *p.primary[0].Temperature != DefaultTemperature {
		t.Errorf("expected temperature %v, got %v", DefaultTemperature, *p.primary[0].Temperature)
	}
	if p.primary[0].System == "" {
		t.Error("expected embedded system prompt to be sent")
	}
}

func TestAgentStandardModelFallsBackOnce(t *testing.T) {
	p := &fakeProvider{primaryErr: &StatusError{Code: 404, Body: "unknown endpoint"}}
	a := NewAgent(p, "gpt-4o-mini")

	out, err := a.Ask(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if out != "secondary" {
		t.Errorf("expected secondary output, got %q", out)
	}
	if len(p.secondary) != 1 {
		t.Errorf("expected exactly one secondary call, got %d", len(p.secondary))
	}
}

func TestAgentStandardModelBothPathsFail(t *testing.T) {
	p := &fakeProvider{
		primaryErr:   &StatusError{Code: 500, Body: "boom"},
		secondaryErr: context.DeadlineExceeded,
	}
	a := NewAgent(p, "gpt-4o-mini")

	_, err := a.Ask(context.Background(), "hello")
	var sce *ServiceCallError
	if !errors.As(err, &sce) {
		t.Fatalf("expected ServiceCallError, got %v", err)
	}
	if sce.Kind != KindTimeout {
		t.Errorf("expected kind %q, got %q", KindTimeout, sce.Kind)
	}
	if len(p.primary) != 1 || len(p.secondary) != 1 {
		t.Errorf("expected 1 primary and 1 secondary call, got %d/%d", len(p.primary), len(p.secondary))
	}
}

func TestAgentReasoningModelOmitsTemperatureAndSecondary(t *testing.T) {
	p := &fakeProvider{primaryErr: &StatusError{Code: 400, Body: "bad request"}}
	a := NewAgent(p, "o3-mini", WithReasoningEffort("low"), WithMaxOutputTokens(800))

	_, err := a.Ask(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error from reasoning model primary failure")
	}
	if len(p.secondary) != 0 {
		t.Errorf("reasoning models must not use the secondary path, got %d calls", len(p.secondary))
	}
	if len(p.primary) != 1 {
		t.Fatalf("expected one primary call, got %d", len(p.primary))
	}
	r := p.primary[0]
	if r.Temperature != nil {
		t.Errorf("expected no temperature, got %v", *r.Temperature)
	}
	if r.ReasoningEffort != "low" || r.MaxOutputTokens != 800 {
		t.Errorf("options not forwarded: %+v", r)
	}
	if KindOf(err) != KindHTTPStatus {
		t.Errorf("expected kind %q, got %q", KindHTTPStatus, KindOf(err))
	}
}

func TestNewProviderWithoutKey(t *testing.T) {
	_, err := NewProvider(context.Background(), "openai", "", "")
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	_, err = NewProvider(context.Background(), "watson", "key", "")
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable for unknown provider, got %v", err)
	}
}

type deadlineProvider struct {
	primaryDeadline   time.Time
	secondaryDeadline time.Time
	secondaryErr      error
}

func (d *deadlineProvider) Primary(ctx context.Context, r Request) (string, error) {
	d.primaryDeadline, _ = ctx.Deadline()
	<-ctx.Done()
	return "", ctx.Err()
}

func (d *deadlineProvider) Secondary(ctx context.Context, r Request) (string, error) {
	d.secondaryDeadline, _ = ctx.Deadline()
	d.secondaryErr = ctx.Err()
	return "secondary", nil
}

func (d *deadlineProvider) ListModels(ctx context.Context) ([]string, error) { return nil, nil }

func TestAgentEachCallGetsItsOwnDeadline(t *testing.T) {
	p := &deadlineProvider{}
	a := NewAgent(p, "gpt-4o-mini", WithCallTimeout(30*time.Millisecond))

	out, err := a.Ask(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if out != "secondary" {
		t.Errorf("expected secondary output, got %q", out)
	}
	if p.secondaryErr != nil {
		t.Errorf("secondary context already done: %v", p.secondaryErr)
	}
	if !p.secondaryDeadline.After(p.primaryDeadline) {
		t.Errorf("secondary deadline %v should be after primary deadline %v", p.secondaryDeadline, p.primaryDeadline)
	}
}

func TestAgentCancelledParentSkipsSecondary(t *testing.T) {
	p := &fakeProvider{primaryErr: context.Canceled}
	a := NewAgent(p, "gpt-4o-mini")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Ask(ctx, "hello"); err == nil {
		t.Fatal("expected error")
	}
	if len(p.secondary) != 0 {
		t.Errorf("cancelled run must not try the secondary path, got %d calls", len(p.secondary))
	}
}

func TestClassifyUsesStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&StatusError{Code: 429, Body: "slow down"}, KindRateLimit},
		{&StatusError{Code: 400, Body: "max_tokens must be below 4290"}, KindHTTPStatus},
		{&StatusError{Code: 503, Body: "rate_limit backend"}, KindHTTPStatus},
		{errors.New("dial tcp: connection refused (429)"), KindTransport},
		{context.DeadlineExceeded, KindTimeout},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.want {
			t.Errorf("KindOf(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}
