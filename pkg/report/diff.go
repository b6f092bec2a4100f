package report

import (
	"fmt"
	"strings"
)

// Change is a requirement whose status moved between two runs.
type Change struct {
	PUID string
	From string
	To   string
}

// Regression reports whether the requirement newly failed.
func (c Change) Regression() bool {
	return Class(c.To) == "no" && Class(c.From) != "no"
}

// Diff compares a run against a baseline run, keyed by PUID.
type Diff struct {
	Added     []string
	Removed   []string
	Changed   []Change
	Unchanged int
}

// Regressions counts changes that moved to No.
func (d Diff) Regressions() int {
	n := 0
	for _, c := range d.Changed {
		if c.Regression() {
			n++
		}
	}
	return n
}

// Compare diffs r against baseline. Status classes are compared, so
// "N_a" and "n/a" are the same outcome.
func (r *Report) Compare(baseline *Report) Diff {
	prev := make(map[string]string, len(baseline.Verdicts))
	for _, v := range baseline.Verdicts {
		prev[v.PUID] = v.Status
	}

	var d Diff
	seen := make(map[string]bool, len(r.Verdicts))
	for _, v := range r.Verdicts {
		seen[v.PUID] = true
		from, ok := prev[v.PUID]
		switch {
		case !ok:
			d.Added = append(d.Added, v.PUID)
		case Class(from) != Class(v.Status):
			d.Changed = append(d.Changed, Change{PUID: v.PUID, From: from, To: v.Status})
		default:
			d.Unchanged++
		}
	}
	for _, v := range baseline.Verdicts {
		if !seen[v.PUID] {
			d.Removed = append(d.Removed, v.PUID)
		}
	}
	return d
}

// String renders the diff for the terminal.
func (d Diff) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("CHANGED: %d (%d regressions)\n", len(d.Changed), d.Regressions()))
	for _, c := range d.Changed {
		marker := "~"
		if c.Regression() {
			marker = "!"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s: %s -> %s\n", marker, c.PUID, c.From, c.To))
	}
	sb.WriteString(fmt.Sprintf("ADDED: %d\n", len(d.Added)))
	for _, id := range d.Added {
		sb.WriteString(fmt.Sprintf("  [+] %s\n", id))
	}
	sb.WriteString(fmt.Sprintf("REMOVED: %d\n", len(d.Removed)))
	for _, id := range d.Removed {
		sb.WriteString(fmt.Sprintf("  [-] %s\n", id))
	}
	sb.WriteString(fmt.Sprintf("UNCHANGED: %d\n", d.Unchanged))
	return sb.String()
}
