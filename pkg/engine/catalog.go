package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrFormat is returned when the checklist root cannot be parsed at all.
var ErrFormat = errors.New("checklist is not valid structured data")

// MaxFallbackTextLen bounds the text synthesized from scalar fields.
const MaxFallbackTextLen = 2000

var (
	idKeys   = []string{"PUID", "puid", "id", "ID"}
	textKeys = []string{
		"Requirement description",
		"Requirement",
		"requirement",
		"controles",
		"description",
		"Description",
		"text",
		"Text",
	}
)

// Requirement is a single normalized checklist entry.
type Requirement struct {
	ID   string                 `json:"id"`
	Text string                 `json:"text"`
	Raw  map[string]interface{} `json:"raw"`
}

// LoadRequirements reads a checklist file. JSON and YAML are accepted.
func LoadRequirements(path string) ([]Requirement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checklist %s: %w", path, err)
	}
	root, err := decodeDocument(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}
	return ParseRequirements(root), nil
}

// ParseRequirements normalizes an already-decoded checklist document.
func ParseRequirements(root interface{}) []Requirement {
	entries := unwrapEntries(root)
	out := make([]Requirement, 0, len(entries))
	for i, e := range entries {
		d, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		id := firstValue(d, idKeys)
		if id == "" {
			id = fmt.Sprintf("REQ-%04d", i+1)
		}
		text := firstValue(d, textKeys)
		if strings.TrimSpace(text) == "" {
			text = scalarText(d)
		}
		out = append(out, Requirement{
			ID:   strings.TrimSpace(id),
			Text: strings.TrimSpace(text),
			Raw:  d,
		})
	}
	return out
}

// Truncate keeps the first max requirements when max > 0.
func Truncate(reqs []Requirement, max int) []Requirement {
	if max > 0 && len(reqs) > max {
		return reqs[:max]
	}
	return reqs
}

func decodeDocument(data []byte, ext string) (interface{}, error) {
	var root interface{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, err
		}
		return normalizeYAML(root), nil
	}
	if err := json.Unmarshal(data, &root); err == nil {
		return root, nil
	}
	// Not JSON; YAML is a superset so give it a chance before giving up.
	var alt interface{}
	if err := yaml.Unmarshal(data, &alt); err != nil {
		return nil, err
	}
	if _, isString := alt.(string); isString || alt == nil {
		return nil, errors.New("document is neither a list nor a mapping")
	}
	return normalizeYAML(alt), nil
}

// normalizeYAML converts yaml.v3 output to the shapes encoding/json produces.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []interface{}:
		for i := range t {
			t[i] = normalizeYAML(t[i])
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	}
	return v
}

// unwrapEntries tries the known shapes in priority order: a bare list, an
// object with "requirements", then any object with exactly one list-valued key.
func unwrapEntries(root interface{}) []interface{} {
	switch t := root.(type) {
	case []interface{}:
		return t
	case map[string]interface{}:
		if list, ok := t["requirements"].([]interface{}); ok {
			return list
		}
		if len(t) == 1 {
			for _, v := range t {
				if list, ok := v.([]interface{}); ok {
					return list
				}
			}
		}
	}
	return nil
}

func firstValue(d map[string]interface{}, keys []string) string {
	for _, k := range keys {
		if s := scalarString(d[k]); s != "" {
			return s
		}
	}
	return ""
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
	}
	return ""
}

// scalarText joins all string and numeric field values in key order and
// truncates the result to MaxFallbackTextLen characters.
func scalarText(d map[string]interface{}) string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch t := d[k].(type) {
		case string:
			parts = append(parts, t)
		case float64:
			parts = append(parts, strconv.FormatFloat(t, 'f', -1, 64))
		}
	}
	text := []rune(strings.Join(parts, " "))
	if len(text) > MaxFallbackTextLen {
		text = text[:MaxFallbackTextLen]
	}
	return string(text)
}
