package evidence

import "path/filepath"

// VulnScanPatterns are tried in order; the first match wins.
var VulnScanPatterns = []string{"agent_payload.json", "trivy.json"}

// SummarizeVulnScan returns the vulnerability-scanner summary found under root.
// A document that already carries "summary" is returned verbatim; a raw
// scanner document with "Results" is wrapped; anything else yields an empty map.
func SummarizeVulnScan(root string) map[string]interface{} {
	cand := FindFiles(root, VulnScanPatterns)
	if len(cand) == 0 {
		return map[string]interface{}{}
	}
	doc := asMap(loadJSON(cand[0]))
	if doc == nil {
		return map[string]interface{}{}
	}
	if _, ok := doc["summary"]; ok {
		return doc
	}
	if results, ok := doc["Results"]; ok {
		return map[string]interface{}{
			"findings": results,
			"summary":  map[string]interface{}{"source": filepath.Base(cand[0])},
		}
	}
	return map[string]interface{}{}
}
