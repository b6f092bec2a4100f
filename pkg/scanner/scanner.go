// Package scanner counts literal security-relevant code signatures in a source tree.
package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxBytes is the byte budget used when none is configured.
const DefaultMaxBytes = 2_000_000

var errBudgetExceeded = errors.New("scan byte budget exceeded")

var codeExtensions = map[string]struct{}{
	".kt":         {},
	".java":       {},
	".xml":        {},
	".gradle":     {},
	".kts":        {},
	".properties": {},
	".json":       {},
	".yml":        {},
	".yaml":       {},
}

var skippedDirs = map[string]struct{}{
	".git": {},
	".hg":  {},
	".svn": {},
}

// Signature is a named pattern. Matching is case-insensitive and multiline.
type Signature struct {
	Name    string
	Pattern *regexp.Regexp
}

var signatures = []Signature{
	{"ssl_allow_all", regexp.MustCompile(`(?im)ALLOW_ALL_HOSTNAME_VERIFIER|TrustAll|InsecureTrustManager|verify\(\)\s*\{\s*return\s+true`)},
	{"webview_js", regexp.MustCompile(`(?im)setJavaScriptEnabled\s*\(\s*true\s*\)`)},
	{"add_js_interface", regexp.MustCompile(`(?im)addJavascriptInterface\s*\(`)},
	{"hardcoded_key", regexp.MustCompile(`(?im)(api[_-]?key|secret|token)\s*[:=]\s*['"][A-Za-z0-9_\-]{12,}`)},
	{"exported_activity", regexp.MustCompile(`(?im)android:exported="true"`)},
	{"plaintext_http", regexp.MustCompile(`(?im)http://[A-Za-z0-9.\-]`)},
}

// Signatures returns the signature names in table order.
func Signatures() []string {
	names := make([]string, len(signatures))
	for i, s := range signatures {
		names[i] = s.Name
	}
	return names
}

// Scan walks root and returns, per signature, the number of files that
// contain it at least once. Reading stops once the running byte counter
// exceeds maxBytes; the file that crosses the budget is not scanned.
func Scan(root string, maxBytes int64) map[string]int {
	totals := make(map[string]int, len(signatures))
	for _, s := range signatures {
		totals[s.Name] = 0
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	var size int64
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if _, skip := skippedDirs[d.Name()]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := codeExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		size += int64(len(data))
		if size > maxBytes {
			return errBudgetExceeded
		}

		text := strings.ToValidUTF8(string(data), "")
		for _, s := range signatures {
			if s.Pattern.MatchString(text) {
				totals[s.Name]++
			}
		}
		return nil
	})
	return totals
}

// Flagged returns the names of signatures with a non-zero count, sorted.
func Flagged(counts map[string]int) []string {
	var out []string
	for name, n := range counts {
		if n > 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
