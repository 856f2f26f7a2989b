package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/result"
)

type stubHandler struct{ kind string }

func (s stubHandler) Kind() string { return s.kind }

func (stubHandler) Validate(*manifest.Construct) ([]result.Error, []result.Warning) { return nil, nil }

func (stubHandler) Build(scope Scope, c *manifest.Construct) (*construct.Node, error) {
	return construct.New(scope.Node, c.ID)
}

func TestRegistry(t *testing.T) {
	r := New()
	r.Register("queue", stubHandler{"queue"})
	r.Register("bucket", stubHandler{"bucket"})

	h, ok := r.Get("bucket")
	require.True(t, ok)
	assert.Equal(t, "bucket", h.Kind())

	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"bucket", "queue"}, r.ListSupportedKinds())

	n, err := h.Build(Scope{Node: construct.NewRoot("App")}, &manifest.Construct{ID: "B"})
	require.NoError(t, err)
	assert.Equal(t, "App/B", n.Path())
}
