package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/iancoleman/strcase"
	"github.com/samber/oops"
	"github.com/zclconf/go-cty/cty"

	"github.com/json-to-terraform/constructs/internal/property"
	"github.com/json-to-terraform/constructs/internal/resource"
	"github.com/json-to-terraform/constructs/internal/synth"
)

// ErrNameCollision is returned when two logical ids of the same type sanitize to one
// HCL block address.
var ErrNameCollision = errors.New("hcl block name collision")

// SanitizeName converts a logical id to an HCL-safe block name (e.g. W2-Grant1 -> W2_Grant1).
func SanitizeName(id string) string {
	var b strings.Builder
	for i, r := range id {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9' || r == '-':
			if i == 0 {
				b.WriteByte('_')
			}
			if r == '-' {
				r = '_'
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// SanitizeType converts a type tag to an HCL resource type (X::Storage::Bucket -> x_storage_bucket).
func SanitizeType(typ string) string {
	return strcase.ToSnake(strings.ReplaceAll(typ, "::", "_"))
}

// ResourceBlock creates a resource "type" "name" { } block; body can be filled by the caller.
func ResourceBlock(resourceType, name string) *hclwrite.Block {
	return hclwrite.NewBlock("resource", []string{resourceType, name})
}

// HCL renders the document as one resource block per entry. Properties become a single
// "properties" object attribute, options become snake_case attributes, and references
// become traversals to the referenced block.
func HCL(doc *synth.Document) ([]byte, error) {
	addrs := make(map[string]string, len(doc.Resources))
	owners := make(map[string]string, len(doc.Resources))
	for _, e := range doc.Resources {
		addr := SanitizeType(e.Type) + "." + SanitizeName(e.LogicalID)
		if prev, dup := owners[addr]; dup {
			return nil, oops.Code("HCL_NAME_COLLISION").
				With("address", addr).
				With("logical_ids", []string{prev, e.LogicalID}).
				Wrapf(ErrNameCollision, "%q and %q both render as %s", prev, e.LogicalID, addr)
		}
		owners[addr] = e.LogicalID
		addrs[e.LogicalID] = addr
	}
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	if doc.Description != "" {
		locals := body.AppendNewBlock("locals", nil)
		locals.Body().SetAttributeValue("description", cty.StringVal(doc.Description))
		body.AppendNewline()
	}

	for i, e := range doc.Resources {
		if i > 0 {
			body.AppendNewline()
		}
		block := ResourceBlock(SanitizeType(e.Type), SanitizeName(e.LogicalID))
		bb := block.Body()
		bb.SetAttributeValue("type", cty.StringVal(e.Type))
		props, err := valueTokens(e.Properties, addrs)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", e.LogicalID, err)
		}
		bb.SetAttributeRaw("properties", props)
		for k, v := range e.Options.All() {
			if k == resource.OptionDependsOn {
				continue
			}
			toks, err := valueTokens(v, addrs)
			if err != nil {
				return nil, fmt.Errorf("resource %s option %s: %w", e.LogicalID, k, err)
			}
			bb.SetAttributeRaw(strcase.ToSnake(k), toks)
		}
		if deps, ok := e.Options.Value(resource.OptionDependsOn); ok {
			var tokens []hclwrite.Tokens
			for _, d := range deps.([]any) {
				tokens = append(tokens, hclwrite.TokensForTraversal(refTraversal(addrs[d.(string)], "")))
			}
			bb.SetAttributeRaw("depends_on", hclwrite.TokensForTuple(tokens))
		}
		body.AppendBlock(block)
	}
	return f.Bytes(), nil
}

func valueTokens(v any, addrs map[string]string) (hclwrite.Tokens, error) {
	switch x := v.(type) {
	case nil:
		return hclwrite.TokensForValue(cty.NullVal(cty.DynamicPseudoType)), nil
	case bool:
		return hclwrite.TokensForValue(cty.BoolVal(x)), nil
	case string:
		return hclwrite.TokensForValue(cty.StringVal(x)), nil
	case int64:
		return hclwrite.TokensForValue(cty.NumberIntVal(x)), nil
	case float64:
		return hclwrite.TokensForValue(cty.NumberFloatVal(x)), nil
	case []any:
		items := make([]hclwrite.Tokens, len(x))
		for i := range x {
			t, err := valueTokens(x[i], addrs)
			if err != nil {
				return nil, err
			}
			items[i] = t
		}
		return hclwrite.TokensForTuple(items), nil
	case *property.Bag:
		if t, ok := referenceTokens(x, addrs); ok {
			return t, nil
		}
		attrs := make([]hclwrite.ObjectAttrTokens, 0, x.Len())
		for k, val := range x.All() {
			t, err := valueTokens(val, addrs)
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, hclwrite.ObjectAttrTokens{Name: keyTokens(k), Value: t})
		}
		return hclwrite.TokensForObject(attrs), nil
	default:
		return nil, fmt.Errorf("cannot render %T as HCL", v)
	}
}

func keyTokens(k string) hclwrite.Tokens {
	if hclsyntax.ValidIdentifier(k) {
		return hclwrite.TokensForIdentifier(k)
	}
	return hclwrite.TokensForValue(cty.StringVal(k))
}

// referenceTokens renders resolved {"Ref": id} and {"Fn::GetAtt": [id, attr]} values
// pointing at resources of the document as traversals.
func referenceTokens(b *property.Bag, addrs map[string]string) (hclwrite.Tokens, bool) {
	if b.Len() != 1 {
		return nil, false
	}
	if id, ok := b.Value("Ref"); ok {
		s, _ := id.(string)
		if addr, known := addrs[s]; known {
			return hclwrite.TokensForTraversal(refTraversal(addr, "id")), true
		}
		return nil, false
	}
	if args, ok := b.Value("Fn::GetAtt"); ok {
		pair, _ := args.([]any)
		if len(pair) != 2 {
			return nil, false
		}
		s, _ := pair[0].(string)
		attr, _ := pair[1].(string)
		addr, known := addrs[s]
		if !known || !hclsyntax.ValidIdentifier(strcase.ToSnake(attr)) {
			return nil, false
		}
		return hclwrite.TokensForTraversal(refTraversal(addr, strcase.ToSnake(attr))), true
	}
	return nil, false
}

// refTraversal builds hcl.Traversal for a resource address and attribute (e.g. x_storage_bucket.W1.arn).
func refTraversal(addr, attr string) hcl.Traversal {
	var t hcl.Traversal
	for i, part := range strings.Split(addr, ".") {
		if i == 0 {
			t = append(t, hcl.TraverseRoot{Name: part})
		} else {
			t = append(t, hcl.TraverseAttr{Name: part})
		}
	}
	if attr != "" {
		t = append(t, hcl.TraverseAttr{Name: attr})
	}
	return t
}
