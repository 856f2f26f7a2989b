package result

// Error represents a validation or synthesis error.
type Error struct {
	Type       string `json:"type"`
	Severity   string `json:"severity"`
	Path       string `json:"path,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Warning represents an anti-pattern or other non-fatal finding.
type Warning struct {
	Type       string `json:"type"`
	Severity   string `json:"severity"`
	Path       string `json:"path,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// SynthResult is the result of synthesizing a manifest.
type SynthResult struct {
	Success  bool              `json:"success"`
	Files    map[string][]byte `json:"-"` // filename -> content
	Errors   []Error           `json:"errors,omitempty"`
	Warnings []Warning         `json:"warnings,omitempty"`
}

// Fail records err and marks the result unsuccessful.
func (r *SynthResult) Fail(err Error) {
	r.Success = false
	r.Errors = append(r.Errors, err)
}
