// Package manifest reads app descriptions: a tree of constructs written in YAML (or
// JSON) that the app package turns into a construct tree.
package manifest

import (
	"fmt"
	"iter"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/json-to-terraform/constructs/internal/property"
)

// Manifest is the root structure of an app description.
type Manifest struct {
	Version     string      `yaml:"version"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Constructs  []Construct `yaml:"constructs"`
}

// Construct describes one construct and its children.
type Construct struct {
	ID                string      `yaml:"id"`
	Kind              string      `yaml:"kind"`
	Type              string      `yaml:"type"`
	Target            string      `yaml:"target"`
	ExternalID        string      `yaml:"external_id"`
	DeletionOverrides []string    `yaml:"deletion_overrides"`
	DependsOn         []string    `yaml:"depends_on"`
	Grants            []Grant     `yaml:"grants"`
	Children          []Construct `yaml:"children"`

	// Properties, Options and Overrides keep the order they were written in.
	Properties *property.Bag `yaml:"-"`
	Options    *property.Bag `yaml:"-"`
	Overrides  []Override    `yaml:"-"`

	Line int `yaml:"-"`
}

// Override is a raw property override. Delete marks a deletion override.
type Override struct {
	Path   string
	Value  any
	Delete bool
}

// Grant gives a grantee permission to perform actions on a wrapper's resource.
type Grant struct {
	Grantee string   `yaml:"grantee"`
	Actions []string `yaml:"actions"`
}

// UnmarshalYAML decodes the plain fields and walks the node for the ordered ones.
func (c *Construct) UnmarshalYAML(value *yaml.Node) error {
	type construct Construct
	var plain construct
	if err := value.Decode(&plain); err != nil {
		return err
	}
	plain.Line = value.Line
	plain.Properties = property.NewBag()
	plain.Options = property.NewBag()

	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i].Value, value.Content[i+1]
		var err error
		switch key {
		case "properties":
			plain.Properties, err = bagValue(val)
		case "options":
			plain.Options, err = bagValue(val)
		case "overrides":
			plain.Overrides, err = overridesValue(val)
		}
		if err != nil {
			return oops.Code("MANIFEST_SYNTAX").
				With("line", val.Line).
				With("field", key).
				Wrapf(err, "construct %q: %s", plain.ID, key)
		}
	}
	*c = Construct(plain)
	return nil
}

func bagValue(n *yaml.Node) (*property.Bag, error) {
	v, err := NodeValue(n)
	if err != nil {
		return nil, err
	}
	switch b := v.(type) {
	case nil:
		return property.NewBag(), nil
	case *property.Bag:
		return b, nil
	default:
		return nil, fmt.Errorf("line %d: expected a mapping, got %T", n.Line, v)
	}
}

// overridesValue accepts a mapping of path -> value, or a sequence of
// {path, value} / {path, delete: true} entries.
func overridesValue(n *yaml.Node) ([]Override, error) {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.MappingNode:
		out := make([]Override, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := NodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out = append(out, Override{Path: n.Content[i].Value, Value: v})
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]Override, 0, len(n.Content))
		for _, item := range n.Content {
			var entry struct {
				Path   string    `yaml:"path"`
				Value  yaml.Node `yaml:"value"`
				Delete bool      `yaml:"delete"`
			}
			if err := item.Decode(&entry); err != nil {
				return nil, err
			}
			if entry.Path == "" {
				return nil, fmt.Errorf("line %d: override needs a path", item.Line)
			}
			o := Override{Path: entry.Path, Delete: entry.Delete}
			if !entry.Delete && entry.Value.Kind != 0 {
				v, err := NodeValue(&entry.Value)
				if err != nil {
					return nil, err
				}
				o.Value = v
			}
			out = append(out, o)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("line %d: overrides must be a mapping or a sequence", n.Line)
	}
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// NodeValue converts a YAML node into the bag value model, keeping mapping order.
func NodeValue(n *yaml.Node) (any, error) {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return NodeValue(n.Content[0])
	case yaml.MappingNode:
		b := property.NewBag()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := NodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			b.Put(n.Content[i].Value, v)
		}
		return b, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := NodeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return property.Normalize(v), nil
	default:
		return nil, nil
	}
}

// Parse decodes a manifest from YAML or JSON.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, oops.Code("MANIFEST_SYNTAX").Wrapf(err, "parse manifest")
	}
	return &m, nil
}

// ParseFile reads and decodes the manifest at path.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code("MANIFEST_READ").With("path", path).Wrapf(err, "read manifest")
	}
	m, err := Parse(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return m, nil
}

// Walk yields every construct depth-first with its path (ids joined by "/").
func (m *Manifest) Walk() iter.Seq2[string, *Construct] {
	return func(yield func(string, *Construct) bool) {
		walk("", m.Constructs, yield)
	}
}

func walk(prefix string, cs []Construct, yield func(string, *Construct) bool) bool {
	for i := range cs {
		c := &cs[i]
		path := c.ID
		if prefix != "" {
			path = prefix + "/" + c.ID
		}
		if !yield(path, c) || !walk(path, c.Children, yield) {
			return false
		}
	}
	return true
}

// Decode decodes the construct's properties into out, a pointer to a struct whose
// fields carry `mapstructure` tags.
func (c *Construct) Decode(out any) error {
	props := map[string]any{}
	if c.Properties != nil {
		props = c.Properties.ToMap()
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(props); err != nil {
		return oops.Code("INVALID_PROPERTIES").
			With("construct", c.ID).
			With("kind", c.Kind).
			Wrapf(err, "decode %s properties", c.Kind)
	}
	return nil
}
