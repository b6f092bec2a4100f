package evidence

// Finding is a normalized static-analysis finding from SARIF or generic SAST JSON.
type Finding struct {
	Tool    string `json:"tool"`
	Level   string `json:"level"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}
