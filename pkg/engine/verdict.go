package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/user/seccat-audit/pkg/adk"
	"github.com/user/seccat-audit/pkg/evidence"
)

// Nominal verdict vocabulary. Values returned by the service are not
// validated against it.
const (
	StatusYes          = "Yes"
	StatusNo           = "No"
	StatusNA           = "N_a"
	StatusInsufficient = "Insufficient_Evidence"

	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityUnknown  = "unknown"

	rationaleNoService = "No AI available or insufficient inputs."
)

var (
	knownStatuses = map[string]struct{}{
		"yes": {}, "no": {}, "n_a": {}, "n/a": {}, "na": {}, "insufficient_evidence": {},
	}
	knownSeverities = map[string]struct{}{
		SeverityCritical: {}, SeverityHigh: {}, SeverityMedium: {}, SeverityLow: {}, SeverityUnknown: {},
	}
)

// Verdict is the compliance judgment for one requirement.
type Verdict struct {
	PUID       string   `json:"puid"`
	Text       string   `json:"text"`
	Status     string   `json:"status"`
	Severity   string   `json:"severity"`
	Rationale  string   `json:"rationale"`
	References []string `json:"references"`
	Tags       []string `json:"tags"`
}

// Asker is the capability the engine needs from the language model layer.
// *adk.Agent implements it.
type Asker interface {
	Ask(ctx context.Context, user string) (string, error)
	Model() string
}

// Cache stores service verdicts between runs. Implementations must be safe
// for concurrent use; a miss or a backend failure both report ok=false.
type Cache interface {
	Get(ctx context.Context, key string) (Verdict, bool)
	Put(ctx context.Context, key string, v Verdict)
}

// VerdictEngine resolves a verdict per requirement.
type VerdictEngine struct {
	asker   Asker
	cache   Cache
	limiter *rate.Limiter
	workers int
}

// Option configures a VerdictEngine.
type Option func(*VerdictEngine)

// WithWorkers bounds the number of concurrent evaluations.
func WithWorkers(n int) Option {
	return func(e *VerdictEngine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithRateLimit shares one token bucket across all service calls.
// rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(e *VerdictEngine) {
		if rps <= 0 {
			e.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCache enables the verdict cache.
func WithCache(c Cache) Option {
	return func(e *VerdictEngine) { e.cache = c }
}

// NewVerdictEngine builds an engine. A nil asker selects the unavailable
// mode, in which every requirement gets the deterministic default verdict.
func NewVerdictEngine(asker Asker, opts ...Option) *VerdictEngine {
	e := &VerdictEngine{
		asker:   asker,
		workers: 4,
		limiter: rate.NewLimiter(rate.Every(30*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Available reports whether a language model service is configured.
func (e *VerdictEngine) Available() bool {
	return e.asker != nil
}

// EvaluateAll returns one verdict per requirement, in input order.
func (e *VerdictEngine) EvaluateAll(ctx context.Context, reqs []Requirement, bundle *evidence.Bundle) []Verdict {
	verdicts := make([]Verdict, len(reqs))
	prompt := bundle.ForPrompt()

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := range reqs {
		i := i
		g.Go(func() error {
			verdicts[i] = e.evaluate(ctx, reqs[i], prompt)
			adk.Debugf("verdict %d/%d %s: %s", i+1, len(reqs), verdicts[i].PUID, verdicts[i].Status)
			return nil
		})
	}
	_ = g.Wait()
	return verdicts
}

// Evaluate resolves a single requirement. It never fails.
func (e *VerdictEngine) Evaluate(ctx context.Context, req Requirement, bundle *evidence.Bundle) Verdict {
	return e.evaluate(ctx, req, bundle.ForPrompt())
}

func (e *VerdictEngine) evaluate(ctx context.Context, req Requirement, ev evidence.PromptEvidence) Verdict {
	if e.asker == nil {
		return DefaultVerdict(req, nil)
	}

	user := BuildUserMessage(req, ev)
	key := cacheKey(e.asker.Model(), req, user)
	if e.cache != nil {
		if v, ok := e.cache.Get(ctx, key); ok {
			v.PUID = req.ID
			v.Text = req.Text
			return v
		}
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return DefaultVerdict(req, adk.CallError(err))
		}
	}

	// Per-call deadlines are applied by the asker, one per provider call.
	text, err := e.asker.Ask(ctx, user)
	if err != nil {
		adk.Warnf("requirement %s: %v", req.ID, err)
		return DefaultVerdict(req, err)
	}

	v, err := ParseVerdict(text, req)
	if err != nil {
		adk.Warnf("requirement %s: %v", req.ID, err)
		return DefaultVerdict(req, err)
	}
	if e.cache != nil {
		e.cache.Put(ctx, key, v)
	}
	return v
}

// DefaultVerdict is the deterministic fallback. A nil cause means no service
// was configured; otherwise the rationale names the failure kind.
func DefaultVerdict(req Requirement, cause error) Verdict {
	rationale := rationaleNoService
	if cause != nil {
		rationale = "AI error: " + adk.KindOf(cause)
	}
	return Verdict{
		PUID:       req.ID,
		Text:       req.Text,
		Status:     StatusInsufficient,
		Severity:   SeverityUnknown,
		Rationale:  rationale,
		References: []string{},
		Tags:       []string{},
	}
}

type rawVerdict struct {
	PUID       interface{} `json:"puid"`
	Status     interface{} `json:"status"`
	Severity   interface{} `json:"severity"`
	Rationale  interface{} `json:"rationale"`
	References interface{} `json:"references"`
	Tags       interface{} `json:"tags"`
}

// ParseVerdict decodes a model response into a verdict for req. The
// requirement id always replaces the puid the model returned.
func ParseVerdict(text string, req Requirement) (Verdict, error) {
	cleaned := CleanResponse(text)
	if !strings.HasPrefix(cleaned, "{") {
		return Verdict{}, &adk.ServiceCallError{Kind: adk.KindParse, Err: errors.New("decode verdict: response is not a JSON object")}
	}
	var raw rawVerdict
	dec := json.NewDecoder(strings.NewReader(cleaned))
	if err := dec.Decode(&raw); err != nil {
		return Verdict{}, &adk.ServiceCallError{Kind: adk.KindParse, Err: fmt.Errorf("decode verdict: %w", err)}
	}
	if dec.More() {
		return Verdict{}, &adk.ServiceCallError{Kind: adk.KindParse, Err: errors.New("decode verdict: trailing data after JSON object")}
	}

	v := Verdict{
		PUID:       req.ID,
		Text:       req.Text,
		Status:     stringField(raw.Status),
		Severity:   stringField(raw.Severity),
		Rationale:  stringField(raw.Rationale),
		References: stringList(raw.References),
		Tags:       uniqueStrings(stringList(raw.Tags)),
	}
	if v.Status == "" {
		v.Status = StatusInsufficient
	}
	if v.Severity == "" {
		v.Severity = SeverityUnknown
	}
	if _, ok := knownStatuses[strings.ToLower(v.Status)]; !ok {
		adk.Warnf("requirement %s: unrecognized status %q kept as-is", req.ID, v.Status)
	}
	if _, ok := knownSeverities[strings.ToLower(v.Severity)]; !ok {
		adk.Warnf("requirement %s: unrecognized severity %q kept as-is", req.ID, v.Severity)
	}
	return v, nil
}

// CleanResponse strips surrounding whitespace, backticks and a leading
// "json" language tag from a model response.
func CleanResponse(text string) string {
	s := strings.Trim(text, " \t\r\n`")
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = strings.TrimLeft(s[4:], " \t\r\n")
	}
	return s
}

func stringField(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func stringList(v interface{}) []string {
	out := []string{}
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			if s := stringField(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
