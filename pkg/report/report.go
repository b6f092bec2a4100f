package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/user/seccat-audit/pkg/engine"
	"github.com/user/seccat-audit/pkg/evidence"
)

const (
	FindingsFile  = "audit-findings.json"
	SummaryFile   = "audit-summary.md"
	ChecklistFile = "audit-checklist.md"
)

// Report is the persisted outcome of one audit run.
type Report struct {
	Application string           `json:"app"`
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Model       string           `json:"model,omitempty"`
	Verdicts    []engine.Verdict `json:"findings"`
	Stats       Stats            `json:"stats"`
	Notes       []string         `json:"notes"`
}

// New builds a report over verdicts. bundle may be nil, in which case no
// evidence notes are added.
func New(app string, verdicts []engine.Verdict, bundle *evidence.Bundle) *Report {
	if verdicts == nil {
		verdicts = []engine.Verdict{}
	}
	return &Report{
		Application: app,
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Verdicts:    verdicts,
		Stats:       Aggregate(verdicts),
		Notes:       evidenceNotes(bundle),
	}
}

func evidenceNotes(b *evidence.Bundle) []string {
	if b == nil {
		return []string{}
	}
	dynamic := "no"
	if b.Mobile.Dynamic {
		dynamic = "yes"
	}
	sample := len(b.SAST)
	if sample > evidence.PromptSASTLimit {
		sample = evidence.PromptSASTLimit
	}
	return []string{
		"Mobile dynamic analysis present: " + dynamic,
		"Code patterns: " + compactJSON(b.CodePatterns),
		fmt.Sprintf("Vulnerability scan summary keys: %v", summaryKeys(b.VulnScan, 5)),
		"Mobile severities: " + compactJSON(b.Mobile.SeverityCounts()),
		fmt.Sprintf("SAST findings (sample): %d of %d", sample, len(b.SAST)),
		"Evidence fingerprint: " + b.Fingerprint(),
	}
}

func summaryKeys(doc map[string]interface{}, n int) []string {
	summary, _ := doc["summary"].(map[string]interface{})
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func compactJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Load reads a report previously written by WriteFiles.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &r, nil
}

// WriteFiles writes the findings JSON, the markdown summary and the
// checklist table into dir, creating it if needed.
func (r *Report) WriteFiles(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, FindingsFile), data, 0644); err != nil {
		return err
	}

	summary, err := r.Summary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, SummaryFile), []byte(summary), 0644); err != nil {
		return err
	}

	checklist, err := r.Checklist()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ChecklistFile), []byte(checklist), 0644)
}
