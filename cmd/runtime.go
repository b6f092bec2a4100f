package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/user/seccat-audit/pkg/adk"
	"github.com/user/seccat-audit/pkg/cache"
	"github.com/user/seccat-audit/pkg/config"
	"github.com/user/seccat-audit/pkg/engine"
)

// buildEngine wires the verdict engine from configuration. When no provider
// can be built the engine runs without a model. The returned func releases
// the provider client and the cache connection.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine.VerdictEngine, func()) {
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	opts := []engine.Option{
		engine.WithWorkers(cfg.Audit.Workers),
		engine.WithRateLimit(cfg.Audit.RequestsPerSecond, 1),
	}

	providerName := cfg.SelectedProvider
	modelName := cfg.SelectedModel
	if modelName == "" {
		modelName = adk.DefaultModel(providerName)
		cfg.SelectedModel = modelName
	}

	provider, err := adk.NewProvider(ctx, providerName, cfg.GetAPIKey(providerName), modelName)
	if err != nil {
		if errors.Is(err, adk.ErrServiceUnavailable) {
			adk.Infof("%v; every requirement will get the default verdict", err)
		} else {
			adk.Warnf("provider: %v", err)
		}
		return engine.NewVerdictEngine(nil, opts...), cleanup
	}
	if closer, ok := provider.(interface{ Close() }); ok {
		closers = append(closers, closer.Close)
	}

	agentOpts := []adk.AgentOption{adk.WithCallTimeout(cfg.Audit.CallTimeout)}
	if cfg.ReasoningEffort != "" {
		agentOpts = append(agentOpts, adk.WithReasoningEffort(cfg.ReasoningEffort))
	}
	if cfg.MaxOutputTokens > 0 {
		agentOpts = append(agentOpts, adk.WithMaxOutputTokens(cfg.MaxOutputTokens))
	}
	if cfg.Temperature != nil {
		agentOpts = append(agentOpts, adk.WithTemperature(*cfg.Temperature))
	}
	agent := adk.NewAgent(provider, modelName, agentOpts...)
	adk.Infof("using %s model %s (reasoning=%v)", providerName, modelName, adk.IsReasoningModel(modelName))

	if cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedis(cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			adk.Warnf("verdict cache disabled: %v", err)
		} else {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := rc.Ping(pingCtx)
			cancel()
			if err != nil {
				adk.Warnf("verdict cache unreachable, continuing without it: %v", err)
				rc.Close()
			} else {
				opts = append(opts, engine.WithCache(rc))
				closers = append(closers, func() { rc.Close() })
			}
		}
	}

	return engine.NewVerdictEngine(agent, opts...), cleanup
}
