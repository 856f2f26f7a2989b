// Package property implements the ordered property document that backs every resource:
// a Bag maps string keys to scalars, nested Bags, or sequences ([]any).
package property

import (
	"bytes"
	"iter"
	"reflect"

	json "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Bag is an insertion-ordered mapping. The zero value is an empty bag ready to use.
type Bag struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewBag returns an empty bag.
func NewBag() *Bag {
	return &Bag{m: orderedmap.New[string, any]()}
}

// BagOf builds a bag from alternating key/value arguments, keeping argument order.
func BagOf(kv ...any) *Bag {
	b := NewBag()
	for i := 0; i+1 < len(kv); i += 2 {
		k, _ := kv[i].(string)
		b.Put(k, kv[i+1])
	}
	return b
}

func (b *Bag) om() *orderedmap.OrderedMap[string, any] {
	if b.m == nil {
		b.m = orderedmap.New[string, any]()
	}
	return b.m
}

// Len returns the number of top-level keys.
func (b *Bag) Len() int {
	if b == nil || b.m == nil {
		return 0
	}
	return b.m.Len()
}

// Keys returns the top-level keys in insertion order.
func (b *Bag) Keys() []string {
	keys := make([]string, 0, b.Len())
	for k := range b.All() {
		keys = append(keys, k)
	}
	return keys
}

// All iterates the top-level entries in insertion order.
func (b *Bag) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if b == nil || b.m == nil {
			return
		}
		for pair := b.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Value returns the top-level value stored under key.
func (b *Bag) Value(key string) (any, bool) {
	if b == nil || b.m == nil {
		return nil, false
	}
	return b.m.Get(key)
}

// Put stores a normalised value under key. An existing key keeps its position.
func (b *Bag) Put(key string, v any) {
	b.om().Set(key, Normalize(v))
}

// Remove deletes key and reports whether it was present.
func (b *Bag) Remove(key string) bool {
	if b == nil || b.m == nil {
		return false
	}
	_, ok := b.m.Delete(key)
	return ok
}

// Clone returns a deep copy. Tokens are shared; they are immutable.
func (b *Bag) Clone() *Bag {
	out := NewBag()
	for k, v := range b.All() {
		out.m.Set(k, CloneValue(v))
	}
	return out
}

// Equal reports whether both bags hold the same keys in the same order with equal values.
func (b *Bag) Equal(other *Bag) bool {
	return valuesEqual(b, other)
}

// ToMap converts the bag to plain Go maps and slices. Key order is lost.
func (b *Bag) ToMap() map[string]any {
	out := make(map[string]any, b.Len())
	for k, v := range b.All() {
		out[k] = plain(v)
	}
	return out
}

func plain(v any) any {
	switch x := v.(type) {
	case *Bag:
		return x.ToMap()
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = plain(x[i])
		}
		return out
	default:
		return v
	}
}

// CloneValue deep-copies bags and sequences.
func CloneValue(v any) any {
	switch x := v.(type) {
	case *Bag:
		return x.Clone()
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = CloneValue(x[i])
		}
		return out
	default:
		return v
	}
}

func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case *Bag:
		y, ok := b.(*Bag)
		if !ok || x.Len() != y.Len() {
			return false
		}
		next, stop := iter.Pull2(y.All())
		defer stop()
		for k, v := range x.All() {
			k2, v2, ok := next()
			if !ok || k != k2 || !valuesEqual(v, v2) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !valuesEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// MarshalJSON writes keys in insertion order.
func (b *Bag) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for k, v := range b.All() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML returns an ordered mapping node.
func (b *Bag) MarshalYAML() (any, error) {
	return YAMLNode(b)
}

// YAMLNode converts a value into a yaml.v3 node tree, keeping bag order.
func YAMLNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case *Bag:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for k, val := range x.All() {
			child, err := YAMLNode(val)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				child)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, val := range x {
			child, err := YAMLNode(val)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	default:
		n := &yaml.Node{}
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return n, nil
	}
}
