package adk

import (
	"context"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultTemperature is sent to non-reasoning models on the primary path.
	DefaultTemperature = 0.2
	// DefaultCallTimeout bounds one provider call.
	DefaultCallTimeout = 90 * time.Second
)

// Request is a single system+user exchange with the model.
type Request struct {
	Model           string
	System          string
	User            string
	Temperature     *float64 // nil means "do not send"
	ReasoningEffort string
	MaxOutputTokens int
}

// LLMProvider defines the interface for different AI models.
// Primary is the full-featured call path; Secondary is a simpler
// request/response shape used only as a fallback.
type LLMProvider interface {
	Primary(ctx context.Context, req Request) (string, error)
	Secondary(ctx context.Context, req Request) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// reasoningModels reject the temperature parameter and have no usable alias
// on the secondary path.
var reasoningModels = map[string]struct{}{
	"o1":         {},
	"o1-mini":    {},
	"o1-preview": {},
	"o3":         {},
	"o3-mini":    {},
	"o3-pro":     {},
	"o4-mini":    {},
	"gpt-5":      {},
	"gpt-5-mini": {},
	"gpt-5-nano": {},
	"gpt-5.1":    {},
}

var snapshotSuffix = regexp.MustCompile(`-\d{4}-\d{2}-\d{2}$`)

// IsReasoningModel reports whether model belongs to the reasoning class.
// Dated snapshots ("o3-mini-2025-01-31") resolve to their base id.
func IsReasoningModel(model string) bool {
	id := strings.ToLower(strings.TrimSpace(model))
	id = strings.TrimPrefix(id, "models/")
	if _, ok := reasoningModels[id]; ok {
		return true
	}
	_, ok := reasoningModels[snapshotSuffix.ReplaceAllString(id, "")]
	return ok
}

// Agent applies the model-class invocation policy on top of a provider.
type Agent struct {
	llm             LLMProvider
	model           string
	systemPrompt    string
	reasoningEffort string
	maxOutputTokens int
	temperature     float64
	callTimeout     time.Duration
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

func WithReasoningEffort(effort string) AgentOption {
	return func(a *Agent) { a.reasoningEffort = effort }
}

func WithMaxOutputTokens(n int) AgentOption {
	return func(a *Agent) { a.maxOutputTokens = n }
}

func WithTemperature(t float64) AgentOption {
	return func(a *Agent) { a.temperature = t }
}

// WithCallTimeout bounds each provider call separately.
func WithCallTimeout(d time.Duration) AgentOption {
	return func(a *Agent) {
		if d > 0 {
			a.callTimeout = d
		}
	}
}

// NewAgent creates a new agent with the given LLM provider
func NewAgent(llm LLMProvider, model string, opts ...AgentOption) *Agent {
	a := &Agent{
		llm:          llm,
		model:        model,
		systemPrompt: GetSystemPrompt(),
		temperature:  DefaultTemperature,
		callTimeout:  DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetSystemPrompt overrides the embedded system prompt.
func (a *Agent) SetSystemPrompt(prompt string) {
	a.systemPrompt = prompt
}

// Model returns the configured model identifier.
func (a *Agent) Model() string {
	return a.model
}

// Ask sends one user message and returns the raw model text.
//
// Reasoning-class models get a single primary call without temperature. All
// other models get temperature on the primary call and exactly one secondary
// attempt if the primary fails.
func (a *Agent) Ask(ctx context.Context, user string) (string, error) {
	req := Request{
		Model:           a.model,
		System:          a.systemPrompt,
		User:            user,
		ReasoningEffort: a.reasoningEffort,
		MaxOutputTokens: a.maxOutputTokens,
	}

	if IsReasoningModel(a.model) {
		out, err := a.call(ctx, a.llm.Primary, req)
		if err != nil {
			return "", CallError(err)
		}
		return out, nil
	}

	temp := a.temperature
	req.Temperature = &temp
	out, err := a.call(ctx, a.llm.Primary, req)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return "", CallError(err)
	}
	Debugf("primary call failed for %s: %v; trying secondary path", a.model, err)

	out, err = a.call(ctx, a.llm.Secondary, req)
	if err != nil {
		return "", CallError(err)
	}
	return out, nil
}

func (a *Agent) call(ctx context.Context, fn func(context.Context, Request) (string, error), req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()
	return fn(callCtx, req)
}
