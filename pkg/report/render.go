package report

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Model output is untrusted; the strict policy drops every tag.
var policy = bluemonday.StrictPolicy()

var templates = template.Must(template.New("report").Funcs(template.FuncMap{
	"clean": clean,
	"cell":  cell,
	"mark":  mark,
	"join":  strings.Join,
}).ParseFS(templateFS, "templates/*.tmpl"))

func clean(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}

// cell makes s safe inside a single markdown table cell.
func cell(s string) string {
	s = clean(s)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func mark(status, class string) string {
	if Class(status) == class {
		return "X"
	}
	return ""
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %v", name, err)
	}
	return buf.String(), nil
}

// Summary renders the markdown run summary.
func (r *Report) Summary() (string, error) {
	return render("summary.md.tmpl", r)
}

// Checklist renders the per-requirement Yes/No/N/a table.
func (r *Report) Checklist() (string, error) {
	return render("checklist.md.tmpl", r)
}
