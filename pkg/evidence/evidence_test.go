package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectEmptyReports(t *testing.T) {
	b := Collect(Options{ReportsDir: t.TempDir(), SourceRoot: t.TempDir()})

	if len(b.VulnScan) != 0 {
		t.Errorf("expected empty vuln summary, got %v", b.VulnScan)
	}
	if b.Mobile.Static != nil || b.Mobile.Dynamic {
		t.Errorf("expected empty mobile summary, got %+v", b.Mobile)
	}
	if len(b.SAST) != 0 {
		t.Errorf("expected no SAST findings, got %d", len(b.SAST))
	}
	p := b.ForPrompt()
	if _, err := json.Marshal(p); err != nil {
		t.Fatalf("prompt evidence must serialize: %v", err)
	}
	if b.Fingerprint() == "" {
		t.Error("expected a fingerprint")
	}
}

func TestCollectMissingReportsDir(t *testing.T) {
	b := Collect(Options{ReportsDir: filepath.Join(t.TempDir(), "nope"), SourceRoot: t.TempDir()})
	if b.SAST == nil || len(b.SAST) != 0 {
		t.Errorf("expected empty non-nil SAST slice, got %v", b.SAST)
	}
}

func TestVulnScanPrefersPatternOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "trivy.json"), `{"Results":[{"Target":"app"}]}`)
	writeFile(t, filepath.Join(root, "z", "agent_payload.json"), `{"summary":{"critical":2}}`)

	got := SummarizeVulnScan(root)
	summary, ok := got["summary"].(map[string]interface{})
	if !ok || summary["critical"] != float64(2) {
		t.Errorf("expected agent payload summary verbatim, got %v", got)
	}
}

func TestVulnScanWrapsResults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "trivy.json"), `{"Results":[{"Target":"app"}]}`)

	got := SummarizeVulnScan(root)
	if _, ok := got["findings"].([]interface{}); !ok {
		t.Fatalf("expected findings list, got %v", got)
	}
	summary := got["summary"].(map[string]interface{})
	if summary["source"] != "trivy.json" {
		t.Errorf("expected source trivy.json, got %v", summary["source"])
	}
}

func TestVulnScanUnknownShape(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "trivy.json"), `[1,2,3]`)
	if got := SummarizeVulnScan(root); len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
}

func TestSummarizeMobile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app_mobsf_static.json"), `{
		"code_analysis": [{"severity":"high"},{"Severity":"HIGH"},{"severity":"info"},{"severity":"bogus"},"text"],
		"manifest": [{"severity":"Critical"}],
		"title": "report"
	}`)
	writeFile(t, filepath.Join(root, "app_mobsf_dynamic.json"), `{"ok":true}`)

	got := SummarizeMobile(root)
	if got.Static == nil || !got.Static.HasStatic {
		t.Fatalf("expected static summary, got %+v", got)
	}
	want := map[string]int{"CRITICAL": 1, "HIGH": 2, "MEDIUM": 0, "LOW": 0, "INFO": 1}
	for k, v := range want {
		if got.Static.SeverityCounts[k] != v {
			t.Errorf("%s: expected %d, got %d", k, v, got.Static.SeverityCounts[k])
		}
	}
	if !got.Dynamic {
		t.Error("expected dynamic flag")
	}
}

func TestMobileStaticArrayRootCountsAsPresent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "mobsf_report.json"), `[{"severity":"high"}]`)

	got := SummarizeMobile(root)
	if got.Static == nil || !got.Static.HasStatic {
		t.Fatalf("expected static summary, got %+v", got)
	}
	for k, v := range got.Static.SeverityCounts {
		if v != 0 {
			t.Errorf("%s: expected 0 for a non-object report, got %d", k, v)
		}
	}
	if len(got.Static.SeverityCounts) != 5 {
		t.Errorf("expected all five buckets, got %v", got.Static.SeverityCounts)
	}
}

func TestMobileEmptyStaticReportIgnored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "mobsf_static.json"), `{}`)

	if got := SummarizeMobile(root); got.Static != nil {
		t.Errorf("empty report must not count as static evidence, got %+v", got.Static)
	}
}

func TestSARIFDefaults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "scan.sarif"), `{
		"version": "2.1.0",
		"runs": [
			{"tool":{"driver":{"name":"semgrep"}},
			 "results":[
				{"ruleId":"r1","message":{"text":"m1"}},
				{"rule":{"id":"r2"},"message":{"text":"m2"}},
				{"ruleId":"r3","properties":{"severity":"high"}},
				{"ruleId":"r4","level":"error"}
			 ]},
			{"results":[{"ruleId":"r5"}]}
		]
	}`)

	got := SummarizeSAST(root)
	if len(got) != 5 {
		t.Fatalf("expected 5 findings, got %d", len(got))
	}
	if got[0].Level != "warning" || got[1].Level != "warning" || got[4].Level != "warning" {
		t.Errorf("results without level must default to warning: %+v", got)
	}
	if got[2].Level != "high" || got[3].Level != "error" {
		t.Errorf("unexpected levels: %+v", got)
	}
	if got[1].Rule != "r2" {
		t.Errorf("expected rule.id fallback, got %q", got[1].Rule)
	}
	if got[0].Tool != "semgrep" || got[4].Tool != "sarif-tool" {
		t.Errorf("unexpected tools: %q %q", got[0].Tool, got[4].Tool)
	}
}

func TestGenericSASTCaps(t *testing.T) {
	root := t.TempDir()
	var items []string
	for i := 0; i < 1200; i++ {
		items = append(items, fmt.Sprintf(`{"severity":"low","ruleId":"r%d","message":"m"}`, i))
	}
	big := "[" + strings.Join(items, ",") + "]"
	for i := 0; i < 6; i++ {
		writeFile(t, filepath.Join(root, fmt.Sprintf("sast-%d.json", i)), big)
	}
	writeFile(t, filepath.Join(root, "sast-object.json"), `{"not":"a list"}`)

	got := SummarizeSAST(root)
	if len(got) != MaxFindings {
		t.Fatalf("expected %d findings, got %d", MaxFindings, len(got))
	}
	if got[0].Tool != "sast-json" || got[999].Rule != "r999" || got[1000].Rule != "r0" {
		t.Errorf("unexpected ordering or per-file cap: %+v %+v", got[999], got[1000])
	}
}

func TestForPromptSlices(t *testing.T) {
	b := &Bundle{
		VulnScan: map[string]interface{}{"summary": map[string]interface{}{"high": 1}, "extra": true},
		SAST:     make([]Finding, 80),
	}
	p := b.ForPrompt()
	if len(p.SAST) != PromptSASTLimit {
		t.Errorf("expected %d findings, got %d", PromptSASTLimit, len(p.SAST))
	}
	if m, ok := p.VulnScan.(map[string]interface{}); !ok || m["high"] != 1 {
		t.Errorf("expected summary only, got %v", p.VulnScan)
	}
	if p.Mobile.Static == nil {
		t.Error("expected non-nil static map")
	}
}
