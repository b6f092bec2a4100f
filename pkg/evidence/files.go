// Package evidence summarizes scanner report artifacts into a shared,
// read-only bundle. Every summarizer is best effort: missing or malformed
// reports produce empty results, never errors.
package evidence

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FindFiles returns the regular files under root whose base name matches any
// of the glob patterns, at any depth. Results are grouped by pattern order
// and deduplicated, keeping the first occurrence.
func FindFiles(root string, patterns []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, pat := range patterns {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			ok, _ := filepath.Match(pat, d.Name())
			if !ok {
				return nil
			}
			key := path
			if abs, err := filepath.Abs(path); err == nil {
				key = abs
			}
			if _, dup := seen[key]; dup {
				return nil
			}
			seen[key] = struct{}{}
			out = append(out, path)
			return nil
		})
	}
	return out
}

// loadJSON parses path as JSON, retrying with invalid UTF-8 stripped. It
// returns nil when the file is missing or unparseable.
func loadJSON(path string) interface{} {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err == nil {
		return v
	}
	cleaned := strings.ToValidUTF8(string(data), "")
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return nil
	}
	return v
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64, bool:
		b, _ := json.Marshal(s)
		return string(b)
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// firstString returns the first non-empty string value among keys.
func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := asString(m[k]); s != "" {
			return s
		}
	}
	return ""
}
