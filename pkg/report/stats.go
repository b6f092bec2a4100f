package report

import (
	"strings"

	"github.com/user/seccat-audit/pkg/engine"
)

// Stats is the status histogram of a verdict set.
type Stats struct {
	Total        int `json:"total"`
	Yes          int `json:"yes"`
	No           int `json:"no"`
	NA           int `json:"na"`
	Insufficient int `json:"ins"`
}

// Class buckets a raw status string. Anything outside the known vocabulary
// counts as insufficient.
func Class(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "yes":
		return "yes"
	case "no":
		return "no"
	case "n_a", "n/a", "na":
		return "na"
	}
	return "ins"
}

// Aggregate recomputes the histogram from scratch.
func Aggregate(verdicts []engine.Verdict) Stats {
	s := Stats{Total: len(verdicts)}
	for _, v := range verdicts {
		switch Class(v.Status) {
		case "yes":
			s.Yes++
		case "no":
			s.No++
		case "na":
			s.NA++
		default:
			s.Insufficient++
		}
	}
	return s
}
