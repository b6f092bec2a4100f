package evidence

import "strings"

var (
	MobileStaticPatterns = []string{
		"*mobsf*static*.json",
		"*mobsf*results*.json",
		"*mobsf*report*.json",
		"*report_json*.json",
	}
	MobileDynamicPatterns = []string{"*mobsf*dynamic*.json"}

	severityBuckets = []string{"CRITICAL", "HIGH", "MEDIUM", "LOW", "INFO"}
)

// StaticSummary is the severity histogram of a static mobile analysis report.
type StaticSummary struct {
	SeverityCounts map[string]int `json:"severity_counts"`
	HasStatic      bool           `json:"has_static"`
}

// MobileSummary combines the static histogram with dynamic report presence.
type MobileSummary struct {
	Static  *StaticSummary `json:"static,omitempty"`
	Dynamic bool           `json:"dynamic"`
}

// SeverityCounts returns the static histogram, or an empty map when no static
// report was found.
func (m MobileSummary) SeverityCounts() map[string]int {
	if m.Static == nil {
		return map[string]int{}
	}
	return m.Static.SeverityCounts
}

// SummarizeMobile locates the first static and dynamic mobile-analysis reports.
func SummarizeMobile(root string) MobileSummary {
	var out MobileSummary

	if cand := FindFiles(root, MobileStaticPatterns); len(cand) > 0 {
		// Any non-empty document marks the static report present; only a
		// top-level object contributes severity counts.
		if doc := loadJSON(cand[0]); truthy(doc) {
			out.Static = &StaticSummary{SeverityCounts: countSeverities(asMap(doc)), HasStatic: true}
		}
	}
	if cand := FindFiles(root, MobileDynamicPatterns); len(cand) > 0 {
		out.Dynamic = truthy(loadJSON(cand[0]))
	}
	return out
}

func countSeverities(doc map[string]interface{}) map[string]int {
	counts := make(map[string]int, len(severityBuckets))
	for _, b := range severityBuckets {
		counts[b] = 0
	}
	for _, v := range doc {
		items, ok := v.([]interface{})
		if !ok {
			continue
		}
		for _, it := range items {
			item := asMap(it)
			if item == nil {
				continue
			}
			sev := strings.ToUpper(firstString(item, "severity", "Severity"))
			if _, ok := counts[sev]; ok {
				counts[sev]++
			}
		}
	}
	return counts
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case map[string]interface{}:
		return len(t) > 0
	case []interface{}:
		return len(t) > 0
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	}
	return true
}
