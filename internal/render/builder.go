package render

import (
	"github.com/json-to-terraform/constructs/internal/synth"
)

// Builder collects rendered files for the final output.
type Builder struct {
	formats []Format
	files   map[string][]byte
	order   []string
}

// NewBuilder returns a builder that renders the given formats.
func NewBuilder(formats ...Format) *Builder {
	if len(formats) == 0 {
		formats = []Format{JSON}
	}
	return &Builder{formats: formats, files: make(map[string][]byte)}
}

// AddFile sets the content of a named file. Empty content is ignored.
func (b *Builder) AddFile(name string, content []byte) {
	if len(content) == 0 {
		return
	}
	if _, ok := b.files[name]; !ok {
		b.order = append(b.order, name)
	}
	b.files[name] = content
}

// AddDocument renders doc in every configured format.
func (b *Builder) AddDocument(doc *synth.Document) error {
	for _, f := range b.formats {
		out, err := Render(doc, f)
		if err != nil {
			return err
		}
		b.AddFile(f.FileName(), out)
	}
	return nil
}

// Names returns the file names in the order they were added.
func (b *Builder) Names() []string {
	return append([]string(nil), b.order...)
}

// Build returns a map of filename -> content.
func (b *Builder) Build() map[string][]byte {
	out := make(map[string][]byte, len(b.files))
	for k, v := range b.files {
		out[k] = v
	}
	return out
}
