// Package override applies raw, path-addressed patches to a property bag. Overrides are
// logged per resource and replayed at synthesis after typed properties are resolved,
// so a later override at the same path always wins.
package override

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/oops"

	"github.com/json-to-terraform/constructs/internal/property"
)

// Op is the kind of patch.
type Op uint8

const (
	// Set writes a value, creating intermediate containers.
	Set Op = iota
	// Delete removes a key or sequence element.
	Delete
)

func (o Op) String() string {
	switch o {
	case Set:
		return "set"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// Override is one logged patch. Raw holds the unparsed path when the override was
// recorded from a string, so syntax errors surface when the log is applied.
type Override struct {
	Path  property.Path
	Raw   string
	Op    Op
	Value any
}

// SetAt returns a SET override for an already parsed path.
func SetAt(p property.Path, v any) Override {
	return Override{Path: p, Raw: p.String(), Op: Set, Value: property.Normalize(v)}
}

// DeleteAt returns a DELETE override for an already parsed path.
func DeleteAt(p property.Path) Override {
	return Override{Path: p, Raw: p.String(), Op: Delete}
}

// Log is an ordered list of overrides.
type Log []Override

// AddSet records a SET of v at the dotted path raw.
func (l *Log) AddSet(raw string, v any) {
	p, _ := property.ParsePath(raw)
	*l = append(*l, Override{Path: p, Raw: raw, Op: Set, Value: property.Normalize(v)})
}

// AddDelete records a DELETE at the dotted path raw.
func (l *Log) AddDelete(raw string) {
	p, _ := property.ParsePath(raw)
	*l = append(*l, Override{Path: p, Raw: raw, Op: Delete})
}

func (o Override) path() (property.Path, error) {
	if o.Path != nil {
		return o.Path, nil
	}
	return property.ParsePath(o.Raw)
}

// Apply executes a single override against bag.
func Apply(bag *property.Bag, o Override, policy property.IndexPolicy) error {
	p, err := o.path()
	if err != nil {
		return err
	}
	switch o.Op {
	case Set:
		return bag.Set(p, property.CloneValue(o.Value), property.WithIndexPolicy(policy))
	case Delete:
		return bag.Delete(p)
	default:
		return oops.Code("UNKNOWN_OVERRIDE_OP").With("op", o.Op).Errorf("unknown override op %s", o.Op)
	}
}

// ApplyAll replays the log in insertion order. Each run of consecutive deletions is
// resolved against the bag as it was before the run: the run executes deepest and
// highest index first, so no deletion shifts a position another one names, and a path
// named twice is deleted once. The first failing override aborts the replay.
func ApplyAll(bag *property.Bag, log Log, policy property.IndexPolicy) error {
	for i := 0; i < len(log); {
		if log[i].Op != Delete {
			if err := apply(bag, log[i], i, policy); err != nil {
				return err
			}
			i++
			continue
		}
		j := i
		for j < len(log) && log[j].Op == Delete {
			j++
		}
		for _, k := range batchDeletes(log[i:j]) {
			if err := apply(bag, log[i+k], i+k, policy); err != nil {
				return err
			}
		}
		i = j
	}
	return nil
}

func apply(bag *property.Bag, o Override, pos int, policy property.IndexPolicy) error {
	if err := Apply(bag, o, policy); err != nil {
		return oops.With("override", pos).With("op", o.Op.String()).With("path", o.Raw).Wrap(err)
	}
	return nil
}

// batchDeletes returns the execution order (indexes into run) for a run of deletions:
// unparsable paths first, then paths in descending segment order with exact duplicates
// dropped.
func batchDeletes(run Log) []int {
	type parsed struct {
		pos  int
		path property.Path
	}
	var (
		out   []int
		valid []parsed
	)
	for k, o := range run {
		p, err := o.path()
		if err != nil {
			out = append(out, k)
			continue
		}
		valid = append(valid, parsed{pos: k, path: p})
	}
	slices.SortStableFunc(valid, func(a, b parsed) int {
		return comparePaths(b.path, a.path)
	})
	for i, v := range valid {
		if i > 0 && comparePaths(valid[i-1].path, v.path) == 0 {
			continue
		}
		out = append(out, v.pos)
	}
	return out
}

// comparePaths orders paths segment by segment, indexes numerically; a path sorts
// after its own prefixes.
func comparePaths(a, b property.Path) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		sa, sb := a[i], b[i]
		ia := sa.Kind != property.KeySegment
		ib := sb.Kind != property.KeySegment
		switch {
		case ia && ib:
			if c := cmp.Compare(sa.Index, sb.Index); c != 0 {
				return c
			}
		case ia != ib:
			if ia {
				return 1
			}
			return -1
		default:
			if c := strings.Compare(sa.Key, sb.Key); c != 0 {
				return c
			}
		}
	}
	return cmp.Compare(len(a), len(b))
}
