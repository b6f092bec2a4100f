package cmd

import "testing"

func TestParseAdHocRequirement(t *testing.T) {
	cases := []struct {
		in, id, text string
	}{
		{"NET-01: Use TLS for all traffic", "NET-01", "Use TLS for all traffic"},
		{"Use TLS: always", "ASK-007", "Use TLS: always"},
		{": no id", "ASK-007", ": no id"},
		{"Store secrets in the keystore", "ASK-007", "Store secrets in the keystore"},
	}
	for _, c := range cases {
		req := parseAdHocRequirement(c.in, 7)
		if req.ID != c.id || req.Text != c.text {
			t.Errorf("parseAdHocRequirement(%q) = %q/%q, want %q/%q", c.in, req.ID, req.Text, c.id, c.text)
		}
	}
}
