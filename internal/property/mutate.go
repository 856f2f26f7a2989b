package property

import "fmt"

// IndexPolicy decides what happens when a write addresses a sequence index beyond
// the current length (index == length always appends).
type IndexPolicy uint8

const (
	// Reject fails with ErrIndexOutOfRange.
	Reject IndexPolicy = iota
	// Pad extends the sequence with nulls up to the index.
	Pad
)

func (p IndexPolicy) String() string {
	switch p {
	case Reject:
		return "reject"
	case Pad:
		return "pad"
	default:
		return fmt.Sprintf("IndexPolicy(%d)", uint8(p))
	}
}

// ParseIndexPolicy parses "reject" or "pad".
func ParseIndexPolicy(s string) (IndexPolicy, error) {
	switch s {
	case "", "reject":
		return Reject, nil
	case "pad":
		return Pad, nil
	default:
		return Reject, fmt.Errorf("unknown index policy %q (want reject or pad)", s)
	}
}

// SetOption configures Bag.Set.
type SetOption func(*setConfig)

type setConfig struct {
	policy IndexPolicy
}

// WithIndexPolicy selects how out-of-range sequence writes are handled.
func WithIndexPolicy(p IndexPolicy) SetOption {
	return func(c *setConfig) { c.policy = p }
}

// Get returns the value at path. ok is false when nothing is stored there, which keeps
// absence distinguishable from a stored null.
func (b *Bag) Get(p Path) (any, bool) {
	var cur any = b
	for _, seg := range p {
		switch c := cur.(type) {
		case *Bag:
			if seg.Kind == IndexSegment {
				return nil, false
			}
			v, ok := c.Value(seg.key())
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			if !seg.isIndex() || seg.Index >= len(c) {
				return nil, false
			}
			cur = c[seg.Index]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Set stores value at path, creating missing intermediate mappings and sequences. The
// terminal value is replaced whatever its previous type.
func (b *Bag) Set(p Path, value any, opts ...SetOption) error {
	if len(p) == 0 {
		return invalidPath("", "empty path")
	}
	var cfg setConfig
	for _, o := range opts {
		o(&cfg)
	}
	_, err := setIn(b, p, 0, Normalize(value), cfg)
	return err
}

// Delete removes the entry at path. Sequence elements after a deleted index shift down
// by one. Deleting a path that does not exist is a no-op.
func (b *Bag) Delete(p Path) error {
	if len(p) == 0 {
		return invalidPath("", "empty path")
	}
	_, err := deleteIn(b, p, 0)
	return err
}

func newContainer(next Segment) any {
	if next.Kind == IndexSegment {
		return []any{}
	}
	return NewBag()
}

func setIn(container any, p Path, i int, value any, cfg setConfig) (any, error) {
	seg := p[i]
	last := i == len(p)-1
	switch c := container.(type) {
	case *Bag:
		if seg.Kind == IndexSegment {
			return nil, mismatch(p, i, "mapping")
		}
		key := seg.key()
		if last {
			c.om().Set(key, value)
			return c, nil
		}
		child, ok := c.Value(key)
		if !ok || child == nil {
			child = newContainer(p[i+1])
		}
		updated, err := setIn(child, p, i+1, value, cfg)
		if err != nil {
			return nil, err
		}
		c.om().Set(key, updated)
		return c, nil
	case []any:
		if !seg.isIndex() {
			return nil, mismatch(p, i, "sequence")
		}
		idx := seg.Index
		if idx > len(c) {
			if cfg.policy != Pad {
				return nil, outOfRange(p, i, idx, len(c))
			}
			for len(c) < idx {
				c = append(c, nil)
			}
		}
		if idx == len(c) {
			c = append(c, nil)
		}
		if last {
			c[idx] = value
			return c, nil
		}
		child := c[idx]
		if child == nil {
			child = newContainer(p[i+1])
		}
		updated, err := setIn(child, p, i+1, value, cfg)
		if err != nil {
			return nil, err
		}
		c[idx] = updated
		return c, nil
	default:
		return nil, mismatch(p, i, "scalar")
	}
}

func deleteIn(container any, p Path, i int) (any, error) {
	seg := p[i]
	last := i == len(p)-1
	switch c := container.(type) {
	case *Bag:
		if seg.Kind == IndexSegment {
			return nil, mismatch(p, i, "mapping")
		}
		key := seg.key()
		if last {
			c.Remove(key)
			return c, nil
		}
		child, ok := c.Value(key)
		if !ok || child == nil {
			return c, nil
		}
		updated, err := deleteIn(child, p, i+1)
		if err != nil {
			return nil, err
		}
		c.om().Set(key, updated)
		return c, nil
	case []any:
		if !seg.isIndex() {
			return nil, mismatch(p, i, "sequence")
		}
		idx := seg.Index
		if idx >= len(c) {
			return c, nil
		}
		if last {
			out := make([]any, 0, len(c)-1)
			out = append(out, c[:idx]...)
			return append(out, c[idx+1:]...), nil
		}
		if c[idx] == nil {
			return c, nil
		}
		updated, err := deleteIn(c[idx], p, i+1)
		if err != nil {
			return nil, err
		}
		c[idx] = updated
		return c, nil
	default:
		return nil, mismatch(p, i, "scalar")
	}
}
