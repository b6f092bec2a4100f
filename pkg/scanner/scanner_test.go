package scanner

import (
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

func TestScanCountsPresencePerFile(t *testing.T) {
	root := t.TempDir()
	webview := strings.Repeat("webView.getSettings().setJavaScriptEnabled(true);\n", 3)
	writeFile(t, filepath.Join(root, "app", "MainActivity.java"), webview)

	counts := Scan(root, DefaultMaxBytes)
	if counts["webview_js"] != 1 {
		t.Errorf("expected webview_js=1, got %d", counts["webview_js"])
	}
	for _, name := range Signatures() {
		if _, ok := counts[name]; !ok {
			t.Errorf("missing signature %s in result", name)
		}
	}
}

func TestScanAllSignatures(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Net.kt"), `
val verifier = ALLOW_ALL_HOSTNAME_VERIFIER
webView.addJavascriptInterface(bridge, "Android")
val api_key = "abcdefghijklmnop"
val url = "HTTP://example.com/api"
`)
	writeFile(t, filepath.Join(root, "AndroidManifest.xml"), `<activity android:exported="true" />`)
	writeFile(t, filepath.Join(root, "Trust.java"), "public boolean verify() {\n  return true; }")

	counts := Scan(root, DefaultMaxBytes)
	want := map[string]int{
		"ssl_allow_all":     2,
		"add_js_interface":  1,
		"hardcoded_key":     1,
		"plaintext_http":    1,
		"exported_activity": 1,
		"webview_js":        0,
	}
	for name, n := range want {
		if counts[name] != n {
			t.Errorf("%s: expected %d, got %d", name, n, counts[name])
		}
	}
}

func TestScanIgnoresOtherExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.txt"), "setJavaScriptEnabled(true)")
	writeFile(t, filepath.Join(root, ".git", "config.json"), "setJavaScriptEnabled(true)")

	counts := Scan(root, DefaultMaxBytes)
	if counts["webview_js"] != 0 {
		t.Errorf("expected no matches, got %d", counts["webview_js"])
	}
}

func TestScanStopsAtByteBudget(t *testing.T) {
	root := t.TempDir()
	line := "setJavaScriptEnabled(true)\n"
	// WalkDir visits in lexical order.
	writeFile(t, filepath.Join(root, "a.java"), line)
	writeFile(t, filepath.Join(root, "b.java"), line)
	writeFile(t, filepath.Join(root, "c.java"), line)

	counts := Scan(root, int64(2*len(line)+1))
	if counts["webview_js"] != 2 {
		t.Errorf("expected 2 files scanned before budget, got %d", counts["webview_js"])
	}
}

func TestScanToleratesInvalidUTF8(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bin.xml"), "\xff\xfe<a android:exported=\"true\"/>\xc3")

	counts := Scan(root, DefaultMaxBytes)
	if counts["exported_activity"] != 1 {
		t.Errorf("expected exported_activity=1, got %d", counts["exported_activity"])
	}
}

func TestScanMissingRoot(t *testing.T) {
	counts := Scan(filepath.Join(t.TempDir(), "missing"), DefaultMaxBytes)
	if len(counts) != len(Signatures()) {
		t.Fatalf("expected zeroed map, got %v", counts)
	}
	if got := Flagged(counts); len(got) != 0 {
		t.Errorf("expected nothing flagged, got %v", got)
	}
}
