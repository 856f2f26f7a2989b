package manifest

import (
	"fmt"
	"strings"

	"github.com/json-to-terraform/constructs/internal/property"
)

// ValidationError represents a single validation failure (schema/structure level).
type ValidationError struct {
	Type       string `json:"type"`
	Severity   string `json:"severity"` // error
	Path       string `json:"path,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// Validate checks required fields and structure of the manifest.
// Kind-specific validation is done by handlers.
func Validate(m *Manifest) []ValidationError {
	if m == nil {
		return []ValidationError{{Type: "schema_error", Severity: "error", Message: "manifest is nil"}}
	}

	var errs []ValidationError
	if m.Version == "" {
		errs = append(errs, ValidationError{
			Type: "schema_error", Severity: "error",
			Message: "version is required", Suggestion: "Set version (e.g. \"1\")",
		})
	}
	if len(m.Constructs) == 0 {
		errs = append(errs, ValidationError{
			Type: "schema_error", Severity: "error",
			Message: "manifest declares no constructs", Suggestion: "Add at least one entry under constructs",
		})
	}
	return append(errs, validateScope("", m.Constructs)...)
}

func validateScope(prefix string, cs []Construct) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(cs))
	for i := range cs {
		c := &cs[i]
		path := c.ID
		if prefix != "" {
			path = prefix + "/" + c.ID
		}
		switch {
		case c.ID == "":
			errs = append(errs, ValidationError{
				Type: "schema_error", Severity: "error", Path: prefix,
				Message:    fmt.Sprintf("construct at index %d (line %d) has empty id", i, c.Line),
				Suggestion: "Set id",
			})
		case strings.Contains(c.ID, "/"):
			errs = append(errs, ValidationError{
				Type: "schema_error", Severity: "error", Path: path,
				Message: "construct id must not contain '/'", Suggestion: "Nest constructs with children instead",
			})
		case seen[c.ID]:
			errs = append(errs, ValidationError{
				Type: "schema_error", Severity: "error", Path: path,
				Message: "duplicate construct id: " + c.ID, Suggestion: "Use unique ids among siblings",
			})
		default:
			seen[c.ID] = true
		}
		if c.Kind == "" {
			errs = append(errs, ValidationError{
				Type: "schema_error", Severity: "error", Path: path,
				Message: "kind is required", Suggestion: "Set kind (e.g. bucket, resource, group)",
			})
		}
		for _, o := range c.Overrides {
			if _, err := property.ParsePath(o.Path); err != nil {
				errs = append(errs, ValidationError{
					Type: "override_error", Severity: "error", Path: path,
					Message: err.Error(), Suggestion: "Use dotted keys with [n] for sequence indexes",
				})
			}
		}
		for _, p := range c.DeletionOverrides {
			if _, err := property.ParsePath(p); err != nil {
				errs = append(errs, ValidationError{
					Type: "override_error", Severity: "error", Path: path,
					Message: err.Error(), Suggestion: "Use dotted keys with [n] for sequence indexes",
				})
			}
		}
		errs = append(errs, validateScope(path, c.Children)...)
	}
	return errs
}
