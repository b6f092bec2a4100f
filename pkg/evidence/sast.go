package evidence

const (
	// MaxFindings caps the concatenated SAST findings of a run.
	MaxFindings = 5000
	// MaxFindingsPerGenericFile caps entries taken from one generic SAST array.
	MaxFindingsPerGenericFile = 1000

	defaultSARIFTool  = "sarif-tool"
	defaultSARIFLevel = "warning"
	genericSASTTool   = "sast-json"
)

var (
	SARIFPatterns       = []string{"*.sarif"}
	GenericSASTPatterns = []string{"sast*.json", "*codeql*results*.json"}
)

// SummarizeSAST collects findings from every SARIF 2.1.0 file and every
// generic SAST JSON array under root, in discovery order, capped at MaxFindings.
func SummarizeSAST(root string) []Finding {
	findings := make([]Finding, 0)
	for _, path := range FindFiles(root, SARIFPatterns) {
		findings = append(findings, parseSARIF(path)...)
	}
	for _, path := range FindFiles(root, GenericSASTPatterns) {
		findings = append(findings, parseGenericSAST(path)...)
	}
	if len(findings) > MaxFindings {
		findings = findings[:MaxFindings]
	}
	return findings
}

func parseSARIF(path string) []Finding {
	doc := asMap(loadJSON(path))
	runs, _ := doc["runs"].([]interface{})

	var out []Finding
	for _, r := range runs {
		run := asMap(r)
		if run == nil {
			continue
		}
		tool := firstString(asMap(asMap(run["tool"])["driver"]), "name")
		if tool == "" {
			tool = defaultSARIFTool
		}
		results, _ := run["results"].([]interface{})
		for _, res := range results {
			result := asMap(res)
			if result == nil {
				continue
			}
			level := firstString(result, "level")
			if level == "" {
				level = firstString(asMap(result["properties"]), "severity")
			}
			if level == "" {
				level = defaultSARIFLevel
			}
			rule := firstString(result, "ruleId")
			if rule == "" {
				rule = firstString(asMap(result["rule"]), "id")
			}
			out = append(out, Finding{
				Tool:    tool,
				Level:   level,
				Rule:    rule,
				Message: firstString(asMap(result["message"]), "text"),
			})
		}
	}
	return out
}

func parseGenericSAST(path string) []Finding {
	items, ok := loadJSON(path).([]interface{})
	if !ok {
		return nil
	}
	if len(items) > MaxFindingsPerGenericFile {
		items = items[:MaxFindingsPerGenericFile]
	}
	var out []Finding
	for _, it := range items {
		item := asMap(it)
		if item == nil {
			continue
		}
		out = append(out, Finding{
			Tool:    genericSASTTool,
			Level:   asString(item["severity"]),
			Rule:    asString(item["ruleId"]),
			Message: asString(item["message"]),
		})
	}
	return out
}
