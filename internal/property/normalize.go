package property

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Token is a value whose rendered form is only known at synthesis time, such as a
// reference to another resource's logical id.
type Token interface {
	Resolve(r Resolver) (any, error)
}

// Resolver answers the questions tokens ask during synthesis.
type Resolver interface {
	// LogicalID returns the logical id of the resource construct at the given tree path.
	LogicalID(path string) (string, error)
}

// Normalize converts arbitrary Go values into the bag value model: nil, bool, string,
// int64, float64, *Bag, []any, or a Token. Go maps become bags with sorted keys so the
// result is deterministic; structs are decoded field by field.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil, bool, string, int64, float64, *Bag, Token:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		return fromUint(uint64(x))
	case uint64:
		return fromUint(x)
	case float32:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = Normalize(x[i])
		}
		return out
	case map[string]any:
		return bagFromMap(x)
	}
	return normalizeReflect(reflect.ValueOf(v))
}

func fromUint(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

func bagFromMap(m map[string]any) *Bag {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b := NewBag()
	for _, k := range keys {
		b.Put(k, m[k])
	}
	return b
}

func normalizeReflect(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fromUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
		}
		return bagFromMap(m)
	case reflect.Struct:
		var m map[string]any
		if err := mapstructure.Decode(rv.Interface(), &m); err != nil {
			return fmt.Sprint(rv.Interface())
		}
		return bagFromMap(m)
	default:
		return fmt.Sprint(rv.Interface())
	}
}

// ResolveTokens replaces every token inside v with its resolved value.
func ResolveTokens(v any, r Resolver) (any, error) {
	switch x := v.(type) {
	case Token:
		resolved, err := x.Resolve(r)
		if err != nil {
			return nil, err
		}
		return ResolveTokens(Normalize(resolved), r)
	case *Bag:
		for k, val := range x.All() {
			out, err := ResolveTokens(val, r)
			if err != nil {
				return nil, err
			}
			x.om().Set(k, out)
		}
		return x, nil
	case []any:
		for i := range x {
			out, err := ResolveTokens(x[i], r)
			if err != nil {
				return nil, err
			}
			x[i] = out
		}
		return x, nil
	default:
		return v, nil
	}
}
