package app

import (
	"log/slog"

	"github.com/json-to-terraform/constructs/internal/property"
	"github.com/json-to-terraform/constructs/internal/render"
	"github.com/json-to-terraform/constructs/internal/synth"
)

// Options configures the synthesis pipeline.
type Options struct {
	// Separator joins construct ids into logical ids.
	Separator string
	// IndexPolicy decides how overrides past the end of a sequence are handled.
	IndexPolicy property.IndexPolicy
	// Formats lists the files to render; empty renders JSON only.
	Formats []render.Format
	// Logger receives progress and warnings; nil uses logger.Default.
	Logger *slog.Logger
}

// DefaultOptions returns default pipeline options.
func DefaultOptions() Options {
	return Options{
		Separator:   synth.DefaultSeparator,
		IndexPolicy: property.Reject,
		Formats:     []render.Format{render.JSON},
	}
}
