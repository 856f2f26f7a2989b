package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/json-to-terraform/constructs/internal/property"
)

const sample = `
version: "1"
name: demo
description: Demo app
constructs:
  - id: Assets
    kind: bucket
    properties:
      versioned: true
      bucket_name: assets
    options:
      DeletionPolicy: Retain
    overrides:
      Zeta.Inner: 1
      Alpha: [a, b]
    deletion_overrides: ["Tags.0"]
    grants:
      - grantee: reader
        actions: [s3:GetObject]
  - id: Net
    kind: group
    children:
      - id: Queue
        kind: queue
        depends_on: [Assets]
      - id: Raw
        kind: resource
        type: X::Custom::Thing
        overrides:
          - path: Foo
            value: {b: 1, a: 2}
          - path: Bar
            delete: true
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "1", m.Version)
	assert.Equal(t, "demo", m.Name)
	require.Len(t, m.Constructs, 2)

	assets := m.Constructs[0]
	assert.Equal(t, "bucket", assets.Kind)
	assert.Equal(t, []string{"versioned", "bucket_name"}, assets.Properties.Keys(), "written order survives")
	assert.True(t, property.BagOf("DeletionPolicy", "Retain").Equal(assets.Options))
	require.Len(t, assets.Overrides, 2)
	assert.Equal(t, "Zeta.Inner", assets.Overrides[0].Path)
	assert.Equal(t, int64(1), assets.Overrides[0].Value)
	assert.Equal(t, []any{"a", "b"}, assets.Overrides[1].Value)
	assert.Equal(t, []string{"Tags.0"}, assets.DeletionOverrides)
	assert.Equal(t, []Grant{{Grantee: "reader", Actions: []string{"s3:GetObject"}}}, assets.Grants)

	raw := m.Constructs[1].Children[1]
	assert.Equal(t, "X::Custom::Thing", raw.Type)
	require.Len(t, raw.Overrides, 2)
	foo, ok := raw.Overrides[0].Value.(*property.Bag)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, foo.Keys())
	assert.True(t, raw.Overrides[1].Delete)
	assert.Empty(t, raw.Properties.Keys())
}

func TestParse_JSON(t *testing.T) {
	m, err := Parse([]byte(`{"version":"1","constructs":[{"id":"R","kind":"resource","type":"T","properties":{"Z":1,"A":{"y":true,"x":null}}}]}`))
	require.NoError(t, err)
	props := m.Constructs[0].Properties
	assert.Equal(t, []string{"Z", "A"}, props.Keys())
	v, ok := props.Get(property.MustParsePath("A.x"))
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("constructs: [\n"))
	assert.Error(t, err)

	_, err = Parse([]byte(`constructs: [{id: A, kind: bucket, properties: [1, 2]}]`))
	assert.Error(t, err)

	_, err = Parse([]byte(`constructs: [{id: A, kind: bucket, overrides: "x"}]`))
	assert.Error(t, err)

	_, err = Parse([]byte(`constructs: [{id: A, kind: bucket, overrides: [{value: 1}]}]`))
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	m, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, m.Constructs, 2)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWalk(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)

	var paths []string
	for p := range m.Walk() {
		paths = append(paths, p)
	}
	assert.Equal(t, []string{"Assets", "Net", "Net/Queue", "Net/Raw"}, paths)

	paths = nil
	for p := range m.Walk() {
		paths = append(paths, p)
		if p == "Net" {
			break
		}
	}
	assert.Equal(t, []string{"Assets", "Net"}, paths)
}

func TestValidate(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Empty(t, Validate(m))

	bad, err := Parse([]byte(`
constructs:
  - id: A
    kind: bucket
    overrides: {"A..B": 1}
    deletion_overrides: ["X["]
  - id: A
    kind: bucket
  - id: ""
    kind: group
  - id: B/C
  - id: D
    kind: group
    children:
      - id: E
`))
	require.NoError(t, err)
	errs := Validate(bad)

	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	assert.Contains(t, msgs, "version is required")
	assert.Contains(t, msgs, "A: duplicate construct id: A")
	assert.Contains(t, msgs, "B/C: construct id must not contain '/'")
	assert.Contains(t, msgs, "B/C: kind is required")
	assert.Contains(t, msgs, "D/E: kind is required")

	var overrideErrs int
	for _, e := range errs {
		if e.Type == "override_error" {
			overrideErrs++
		}
	}
	assert.Equal(t, 2, overrideErrs)

	assert.Len(t, Validate(nil), 1)
}

type bucketProps struct {
	BucketName string   `mapstructure:"bucket_name"`
	Versioned  bool     `mapstructure:"versioned"`
	Tags       []string `mapstructure:"tags"`
}

func TestConstruct_Decode(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)

	var p bucketProps
	require.NoError(t, m.Constructs[0].Decode(&p))
	assert.Equal(t, bucketProps{BucketName: "assets", Versioned: true}, p)

	c := Construct{ID: "X", Kind: "bucket", Properties: property.BagOf("unknown", 1)}
	assert.Error(t, c.Decode(&p))
}
