// Package render serializes synthesized documents.
package render

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/json-to-terraform/constructs/internal/synth"
)

// Format is an output format.
type Format string

const (
	JSON      Format = "json"
	YAML      Format = "yaml"
	HCLFormat Format = "hcl"
)

// Formats lists the supported formats.
var Formats = []Format{JSON, YAML, HCLFormat}

// FileName returns the file a format is written to.
func (f Format) FileName() string {
	switch f {
	case JSON:
		return "template.json"
	case YAML:
		return "template.yaml"
	case HCLFormat:
		return "main.tf"
	default:
		return ""
	}
}

// ParseFormats parses a list of format names, dropping duplicates.
func ParseFormats(names []string) ([]Format, error) {
	out := make([]Format, 0, len(names))
	for _, n := range names {
		f := Format(strings.ToLower(strings.TrimSpace(n)))
		if !slices.Contains(Formats, f) {
			return nil, fmt.Errorf("unknown format %q (want json, yaml or hcl)", n)
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// JSONBytes renders the document as indented JSON with a trailing newline.
func JSONBytes(doc *synth.Document) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// YAMLBytes renders the document as YAML, keeping key order.
func YAMLBytes(doc *synth.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render renders doc in one format.
func Render(doc *synth.Document, f Format) ([]byte, error) {
	switch f {
	case JSON:
		return JSONBytes(doc)
	case YAML:
		return YAMLBytes(doc)
	case HCLFormat:
		return HCL(doc)
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}
