package resource

import (
	"github.com/json-to-terraform/constructs/internal/property"
)

// Reference is a token that renders as {"Ref": id} or {"Fn::GetAtt": [id, attr]} once
// the target's logical id is known.
type Reference struct {
	Target    string
	Attribute string
}

// Ref returns a token referring to r.
func (r *Resource) Ref() Reference {
	return Reference{Target: r.node.Path()}
}

// GetAtt returns a token referring to an attribute of r.
func (r *Resource) GetAtt(attr string) Reference {
	return Reference{Target: r.node.Path(), Attribute: attr}
}

// Resolve implements property.Token.
func (ref Reference) Resolve(res property.Resolver) (any, error) {
	id, err := res.LogicalID(ref.Target)
	if err != nil {
		return nil, err
	}
	if ref.Attribute == "" {
		return property.BagOf("Ref", id), nil
	}
	return property.BagOf("Fn::GetAtt", []any{id, ref.Attribute}), nil
}
