package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/OneOfOne/xxhash"

	"github.com/user/seccat-audit/pkg/evidence"
)

const (
	// MaxEvidenceChars caps each serialized evidence field in the prompt.
	MaxEvidenceChars = 3500
	// PromptSASTSample is how many SAST findings are quoted in the prompt.
	PromptSASTSample = 20
)

// BuildUserMessage renders the per-requirement request context.
func BuildUserMessage(req Requirement, ev evidence.PromptEvidence) string {
	sast := ev.SAST
	if len(sast) > PromptSASTSample {
		sast = sast[:PromptSASTSample]
	}

	var sb strings.Builder
	sb.WriteString("REQUIREMENT:\n")
	sb.WriteString(fmt.Sprintf("ID: %s\n", req.ID))
	sb.WriteString(fmt.Sprintf("Text: %s\n\n", req.Text))
	sb.WriteString("CONTEXT:\n")
	sb.WriteString(fmt.Sprintf("- Vulnerability scan summary: %s\n", capped(ev.VulnScan)))
	sb.WriteString(fmt.Sprintf("- Mobile analysis summary: %s\n", capped(ev.Mobile)))
	sb.WriteString(fmt.Sprintf("- SAST sample: %s\n", capped(sast)))
	sb.WriteString(fmt.Sprintf("- Code patterns: %s\n\n", marshal(ev.Code)))
	sb.WriteString(`INSTRUCTIONS:
1) Decide status (Yes/No/N_a/Insufficient_Evidence).
2) 1-2 sentences of rationale.
3) Assign an approximate severity (critical/high/medium/low/unknown).
4) List 1..3 references (free text: indicators or file).
5) tags (e.g. ['ssl','webview','hardcoded'])
6) JSON only, no comments.`)
	return sb.String()
}

func marshal(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func capped(v interface{}) string {
	s := marshal(v)
	if r := []rune(s); len(r) > MaxEvidenceChars {
		return string(r[:MaxEvidenceChars])
	}
	return s
}

func cacheKey(model string, req Requirement, user string) string {
	h := xxhash.New64()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(req.ID))
	h.Write([]byte{0})
	h.Write([]byte(user))
	return fmt.Sprintf("%s:%016x", req.ID, h.Sum64())
}
