package evidence

import (
	"encoding/json"
	"fmt"

	"github.com/OneOfOne/xxhash"
	"golang.org/x/sync/errgroup"

	"github.com/user/seccat-audit/pkg/scanner"
)

// PromptSASTLimit is how many SAST findings are handed to each evaluation.
const PromptSASTLimit = 50

// Bundle is the evidence shared read-only by every verdict evaluation.
type Bundle struct {
	VulnScan     map[string]interface{} `json:"vuln_scan"`
	Mobile       MobileSummary          `json:"mobile"`
	SAST         []Finding              `json:"sast"`
	CodePatterns map[string]int         `json:"code_patterns"`
}

// Options controls where evidence is collected from.
type Options struct {
	ReportsDir   string
	SourceRoot   string
	MaxScanBytes int64
}

// Collect runs the three summarizers and the pattern scan concurrently.
// It never fails; absent evidence yields empty structures.
func Collect(opts Options) *Bundle {
	b := &Bundle{}
	var g errgroup.Group
	g.Go(func() error {
		b.VulnScan = SummarizeVulnScan(opts.ReportsDir)
		return nil
	})
	g.Go(func() error {
		b.Mobile = SummarizeMobile(opts.ReportsDir)
		return nil
	})
	g.Go(func() error {
		b.SAST = SummarizeSAST(opts.ReportsDir)
		return nil
	})
	g.Go(func() error {
		if opts.SourceRoot == "" {
			b.CodePatterns = scanner.Scan(".", opts.MaxScanBytes)
			return nil
		}
		b.CodePatterns = scanner.Scan(opts.SourceRoot, opts.MaxScanBytes)
		return nil
	})
	_ = g.Wait()
	return b
}

// PromptEvidence is the slice of the bundle given to a single evaluation.
type PromptEvidence struct {
	VulnScan interface{}    `json:"vuln_scan"`
	Mobile   MobilePrompt   `json:"mobile"`
	SAST     []Finding      `json:"sast"`
	Code     map[string]int `json:"code"`
}

// MobilePrompt is the reduced mobile summary used in prompts.
type MobilePrompt struct {
	Static  map[string]int `json:"static"`
	Dynamic bool           `json:"dynamic"`
}

// ForPrompt returns the per-evaluation view of the bundle. A nil bundle is
// treated as empty.
func (b *Bundle) ForPrompt() PromptEvidence {
	if b == nil {
		b = &Bundle{}
	}
	var vuln interface{} = map[string]interface{}{}
	if s, ok := b.VulnScan["summary"]; ok && truthy(s) {
		vuln = s
	} else if b.VulnScan != nil {
		vuln = b.VulnScan
	}
	sast := b.SAST
	if len(sast) > PromptSASTLimit {
		sast = sast[:PromptSASTLimit]
	}
	if sast == nil {
		sast = []Finding{}
	}
	code := b.CodePatterns
	if code == nil {
		code = map[string]int{}
	}
	return PromptEvidence{
		VulnScan: vuln,
		Mobile:   MobilePrompt{Static: b.Mobile.SeverityCounts(), Dynamic: b.Mobile.Dynamic},
		SAST:     sast,
		Code:     code,
	}
}

// Fingerprint is a stable hash of the prompt view of the bundle.
func (b *Bundle) Fingerprint() string {
	data, err := json.Marshal(b.ForPrompt())
	if err != nil {
		return ""
	}
	h := xxhash.New64()
	h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64())
}
