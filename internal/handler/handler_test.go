package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/registry"
	"github.com/json-to-terraform/constructs/internal/resource"
	"github.com/json-to-terraform/constructs/internal/result"
	"github.com/json-to-terraform/constructs/internal/wrapper"
)

// fixture builds constructs in order the way the app does, with paths relative to an
// anonymous root.
type fixture struct {
	root  *construct.Node
	nodes map[string]*construct.Node
}

func newFixture() *fixture {
	return &fixture{root: construct.NewRoot(""), nodes: map[string]*construct.Node{}}
}

func (f *fixture) scope() Scope {
	return Scope{Node: f.root, Lookup: func(p string) (*construct.Node, bool) {
		n, ok := f.nodes[p]
		return n, ok
	}}
}

func (f *fixture) build(t *testing.T, src string) (*construct.Node, []result.Error, []result.Warning) {
	t.Helper()
	m, err := manifest.Parse([]byte("constructs:\n" + src))
	require.NoError(t, err)
	require.Len(t, m.Constructs, 1)
	c := &m.Constructs[0]

	h, ok := registry.Default.Get(c.Kind)
	require.True(t, ok, c.Kind)
	errs, warns := h.Validate(c)
	if len(errs) > 0 {
		return nil, errs, warns
	}
	n, err := h.Build(f.scope(), c)
	require.NoError(t, err)
	f.nodes[c.ID] = n
	return n, nil, warns
}

func messages(errs []result.Error) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Message)
	}
	return out
}

func TestRegisteredKinds(t *testing.T) {
	assert.Equal(t,
		[]string{"bucket", "custom_resource", "function", "group", "lookup", "queue", "reference", "resource"},
		registry.Default.ListSupportedKinds())
}

func TestBucket(t *testing.T) {
	f := newFixture()
	n, errs, warns := f.build(t, `
  - id: Assets
    kind: bucket
    properties: {bucket_name: assets, versioned: true, encryption: AES256, tags: {team: web, env: prod}}
    options: {DeletionPolicy: Retain}
    overrides: {BucketName: renamed}
    deletion_overrides: [PublicAccessBlockConfiguration.IgnorePublicAcls]
    grants: [{grantee: reader, actions: ["s3:GetObject"]}]
`)
	require.Empty(t, errs)
	assert.Empty(t, warns)

	r, ok := wrapper.DefaultResource(n)
	require.True(t, ok)
	assert.Equal(t, BucketType, r.Type())
	assert.Equal(t,
		[]string{"BucketName", "VersioningConfiguration", "BucketEncryption", "PublicAccessBlockConfiguration", "Tags"},
		r.Properties().Keys())

	tags, _ := r.Property("Tags")
	require.Len(t, tags, 2)
	first, _ := r.Property("Tags[0].Key")
	assert.Equal(t, "env", first)

	v, _ := r.Option(resource.OptionDeletionPolicy)
	assert.Equal(t, "Retain", v)
	assert.Len(t, r.Overrides(), 2)

	_, ok = n.Child("Grant1")
	assert.True(t, ok)
}

func TestBucket_Validation(t *testing.T) {
	f := newFixture()
	_, errs, _ := f.build(t, `
  - id: A
    kind: bucket
    properties: {encryption: rot13}
    grants: [{grantee: x}]
`)
	assert.Equal(t, []string{
		"unsupported encryption: rot13",
		"grant 0 needs a grantee and at least one action",
	}, messages(errs))

	_, errs, _ = f.build(t, `
  - id: B
    kind: bucket
    properties: {colour: red}
`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "colour")

	_, errs, warns := f.build(t, `
  - id: C
    kind: bucket
    properties: {block_public_access: false}
`)
	assert.Empty(t, errs)
	require.Len(t, warns, 1)
	assert.Equal(t, "best_practice", warns[0].Type)
}

func TestFunction(t *testing.T) {
	f := newFixture()
	n, errs, warns := f.build(t, `
  - id: Handler
    kind: function
    properties: {runtime: python3.12, handler: index.handler, environment: {STAGE: prod}}
`)
	require.Empty(t, errs)
	require.Len(t, warns, 1, "missing role")

	r, _ := wrapper.DefaultResource(n)
	assert.Equal(t, FunctionType, r.Type())
	mem, _ := r.Property("MemorySize")
	assert.Equal(t, int64(128), mem)
	timeout, _ := r.Property("Timeout")
	assert.Equal(t, int64(3), timeout)
	stage, _ := r.Property("Environment.Variables.STAGE")
	assert.Equal(t, "prod", stage)

	_, errs, _ = f.build(t, `
  - id: Bad
    kind: function
    properties: {memory_size: 64, timeout: 901}
`)
	assert.Equal(t, []string{
		"runtime is required",
		"handler is required",
		"memory_size 64 is out of range",
		"timeout 901 is out of range",
	}, messages(errs))
}

func TestQueue(t *testing.T) {
	f := newFixture()
	_, errs, _ := f.build(t, `
  - id: DLQ
    kind: queue
`)
	require.Empty(t, errs)

	n, errs, _ := f.build(t, `
  - id: Jobs
    kind: queue
    properties: {queue_name: jobs.fifo, fifo: true, visibility_timeout: 60, dead_letter_target: DLQ}
`)
	require.Empty(t, errs)
	r, _ := wrapper.DefaultResource(n)
	target, _ := r.Property("RedrivePolicy.DeadLetterTargetArn")
	assert.Equal(t, resource.Reference{Target: "DLQ/Resource", Attribute: "Arn"}, target)
	count, _ := r.Property("RedrivePolicy.MaxReceiveCount")
	assert.Equal(t, int64(3), count)

	_, errs, _ = f.build(t, `
  - id: Bad
    kind: queue
    properties: {queue_name: jobs, fifo: true, max_receive_count: 2}
`)
	assert.Equal(t, []string{
		"fifo queue names must end in .fifo",
		"max_receive_count needs dead_letter_target",
	}, messages(errs))
}

func TestResourceAndReference(t *testing.T) {
	f := newFixture()
	raw, errs, _ := f.build(t, `
  - id: Raw
    kind: resource
    type: X::Custom::Thing
    properties: {some_key: 1}
`)
	require.Empty(t, errs)
	r, ok := resource.Of(raw)
	require.True(t, ok)
	assert.Equal(t, []string{"some_key"}, r.Properties().Keys(), "raw keys are not re-cased")

	ref, errs, warns := f.build(t, `
  - id: View
    kind: reference
    target: Raw
    properties: {some_key: 2}
`)
	require.Empty(t, errs)
	require.Len(t, warns, 1)
	w, ok := wrapper.Of(ref)
	require.True(t, ok)
	assert.Same(t, r, w.Resource())
	v, _ := r.Property("some_key")
	assert.Equal(t, int64(1), v)

	_, errs, _ = f.build(t, `
  - id: Bad
    kind: reference
    overrides: {A: 1}
`)
	assert.Equal(t, []string{
		"target is required",
		"a reference cannot change the referenced resource",
	}, messages(errs))

	_, errs, _ = f.build(t, `
  - id: NoType
    kind: resource
`)
	assert.Equal(t, []string{"type is required"}, messages(errs))
}

func TestReference_UnknownTarget(t *testing.T) {
	f := newFixture()
	m, err := manifest.Parse([]byte("constructs: [{id: V, kind: reference, target: Later}]"))
	require.NoError(t, err)
	h, _ := registry.Default.Get("reference")
	_, err = h.Build(f.scope(), &m.Constructs[0])
	assert.ErrorContains(t, err, "not declared before")
}

func TestLookup(t *testing.T) {
	f := newFixture()
	n, errs, _ := f.build(t, `
  - id: Shared
    kind: lookup
    type: X::Storage::Bucket
    external_id: arn:x:bucket/shared
    grants: [{grantee: reader, actions: ["s3:GetObject"]}]
`)
	require.Empty(t, errs)
	w, _ := wrapper.Of(n)
	assert.Equal(t, "arn:x:bucket/shared", w.Provenance().ExternalID)
	_, ok := n.Child("Grant1")
	assert.True(t, ok)

	_, errs, _ = f.build(t, `
  - id: Bad
    kind: lookup
`)
	assert.Equal(t, []string{"type is required", "external_id is required"}, messages(errs))
}

func TestCustomResource(t *testing.T) {
	f := newFixture()
	_, errs, _ := f.build(t, `
  - id: Provider
    kind: function
    properties: {runtime: go1.x, handler: main, role: arn:x:role/p}
`)
	require.Empty(t, errs)

	n, errs, _ := f.build(t, `
  - id: Seed
    kind: custom_resource
    properties: {provider: Provider, resource_type: Seed, Table: users}
`)
	require.Empty(t, errs)
	r, ok := resource.Of(n)
	require.True(t, ok)
	assert.Equal(t, "Custom::Seed", r.Type())
	assert.Equal(t, []string{"ServiceToken", "Table"}, r.Properties().Keys())
	token, _ := r.Property("ServiceToken")
	assert.Equal(t, resource.Reference{Target: "Provider/Resource", Attribute: "Arn"}, token)

	_, errs, _ = f.build(t, `
  - id: Bad
    kind: custom_resource
`)
	assert.Equal(t, []string{"service_token or provider is required"}, messages(errs))

	_, errs, _ = f.build(t, `
  - id: Both
    kind: custom_resource
    properties: {provider: Provider, service_token: arn}
`)
	assert.Equal(t, []string{"service_token and provider are mutually exclusive"}, messages(errs))
}

func TestGroup(t *testing.T) {
	f := newFixture()
	n, errs, warns := f.build(t, `
  - id: Net
    kind: group
`)
	require.Empty(t, errs)
	assert.Empty(t, warns)
	assert.Nil(t, n.Element())

	_, _, warns = f.build(t, `
  - id: Noisy
    kind: group
    properties: {a: 1}
`)
	assert.Len(t, warns, 1)
}
