// Package customresource models resources whose lifecycle is delegated to an external
// handler. The engine only references the handler; it never runs it.
package customresource

import (
	"context"
	"errors"
	"regexp"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/samber/oops"

	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/property"
	"github.com/json-to-terraform/constructs/internal/resource"
)

// DefaultType is the type tag used when no custom type name is given.
const DefaultType = "AWS::CloudFormation::CustomResource"

// ServiceTokenProperty is the property that points at the handler.
const ServiceTokenProperty = "ServiceToken"

var (
	// ErrMissingServiceToken is returned when Props carries no handler reference.
	ErrMissingServiceToken = errors.New("custom resource needs a service token")
	// ErrInvalidResourceType is returned for custom type names the template format rejects.
	ErrInvalidResourceType = errors.New("invalid custom resource type")
)

var resourceTypeRE = regexp.MustCompile(`^[A-Za-z0-9_@-]{1,60}$`)

// Event is what a handler receives for one lifecycle transition.
type Event struct {
	RequestType           cfn.RequestType
	ResourceProperties    map[string]any
	OldResourceProperties map[string]any
	PhysicalResourceID    string
}

// Response is what a handler returns.
type Response struct {
	PhysicalResourceID string
	Data               map[string]any
}

// Handler implements the lifecycle of a custom resource.
type Handler interface {
	Handle(ctx context.Context, ev Event) (Response, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event) (Response, error)

func (f HandlerFunc) Handle(ctx context.Context, ev Event) (Response, error) { return f(ctx, ev) }

// Props configures New.
type Props struct {
	// ServiceToken references the handler: a literal ARN or a token such as GetAtt.
	ServiceToken any
	// ResourceType names the resource "Custom::<ResourceType>". Empty uses DefaultType.
	ResourceType string
	// Properties are passed to the handler next to ServiceToken.
	Properties *property.Bag
}

// New adds a custom resource to scope.
func New(scope *construct.Node, id string, p Props) (*resource.Resource, error) {
	if p.ServiceToken == nil || p.ServiceToken == "" {
		return nil, oops.Code("MISSING_SERVICE_TOKEN").With("id", id).Wrap(ErrMissingServiceToken)
	}
	typ := DefaultType
	if p.ResourceType != "" {
		if !resourceTypeRE.MatchString(p.ResourceType) {
			return nil, oops.Code("INVALID_RESOURCE_TYPE").
				With("id", id).
				With("resource_type", p.ResourceType).
				Wrapf(ErrInvalidResourceType, "custom resource type %q", p.ResourceType)
		}
		typ = "Custom::" + p.ResourceType
	}

	props := property.BagOf(ServiceTokenProperty, p.ServiceToken)
	for k, v := range p.Properties.All() {
		if k == ServiceTokenProperty {
			continue
		}
		props.Put(k, property.CloneValue(v))
	}
	return resource.New(scope, id, typ, resource.WithProperties(props))
}

// LambdaFunction adapts h to the aws-lambda-go custom resource contract. Failures are
// reported as returned; there is no retry.
func LambdaFunction(h Handler) cfn.CustomResourceFunction {
	return func(ctx context.Context, ev cfn.Event) (string, map[string]interface{}, error) {
		resp, err := h.Handle(ctx, Event{
			RequestType:           ev.RequestType,
			ResourceProperties:    ev.ResourceProperties,
			OldResourceProperties: ev.OldResourceProperties,
			PhysicalResourceID:    ev.PhysicalResourceID,
		})
		if err != nil {
			return ev.PhysicalResourceID, nil, err
		}
		id := resp.PhysicalResourceID
		if id == "" {
			id = ev.PhysicalResourceID
		}
		return id, resp.Data, nil
	}
}
