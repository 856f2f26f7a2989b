package customresource

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/property"
	"github.com/json-to-terraform/constructs/internal/resource"
)

func TestNew(t *testing.T) {
	root := construct.NewRoot("App")
	fn, err := resource.New(root, "Provider", "X::Compute::Function")
	require.NoError(t, err)

	r, err := New(root, "Seed", Props{
		ServiceToken: fn.GetAtt("Arn"),
		ResourceType: "DatabaseSeed",
		Properties:   property.BagOf("Table", "users", "ServiceToken", "ignored"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Custom::DatabaseSeed", r.Type())
	assert.Equal(t, []string{"ServiceToken", "Table"}, r.Properties().Keys())

	token, _ := r.Property("ServiceToken")
	assert.Equal(t, resource.Reference{Target: "App/Provider", Attribute: "Arn"}, token)

	plain, err := New(root, "Plain", Props{ServiceToken: "arn:x:function/handler"})
	require.NoError(t, err)
	assert.Equal(t, DefaultType, plain.Type())
}

func TestNew_Errors(t *testing.T) {
	root := construct.NewRoot("App")
	_, err := New(root, "A", Props{})
	assert.ErrorIs(t, err, ErrMissingServiceToken)

	_, err = New(root, "B", Props{ServiceToken: "arn", ResourceType: "bad type!"})
	assert.ErrorIs(t, err, ErrInvalidResourceType)
	assert.Empty(t, root.Children())
}

func TestLambdaFunction(t *testing.T) {
	var got Event
	fn := LambdaFunction(HandlerFunc(func(_ context.Context, ev Event) (Response, error) {
		got = ev
		if ev.RequestType == cfn.RequestDelete {
			return Response{}, nil
		}
		return Response{PhysicalResourceID: "seed-1", Data: map[string]any{"Rows": 3}}, nil
	}))

	id, data, err := fn(context.Background(), cfn.Event{
		RequestType:        cfn.RequestCreate,
		ResourceProperties: map[string]interface{}{"Table": "users"},
	})
	require.NoError(t, err)
	assert.Equal(t, "seed-1", id)
	assert.Equal(t, map[string]any{"Rows": 3}, data)
	assert.Equal(t, "users", got.ResourceProperties["Table"])

	id, _, err = fn(context.Background(), cfn.Event{RequestType: cfn.RequestDelete, PhysicalResourceID: "seed-1"})
	require.NoError(t, err)
	assert.Equal(t, "seed-1", id, "physical id is kept when the handler returns none")

	failing := LambdaFunction(HandlerFunc(func(context.Context, Event) (Response, error) {
		return Response{}, errors.New("boom")
	}))
	_, _, err = failing(context.Background(), cfn.Event{RequestType: cfn.RequestUpdate, PhysicalResourceID: "p"})
	assert.EqualError(t, err, "boom")
}
