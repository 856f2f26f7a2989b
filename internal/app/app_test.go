package app

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	_ "github.com/json-to-terraform/constructs/internal/handler" // register kinds
	"github.com/json-to-terraform/constructs/internal/logger"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/property"
	"github.com/json-to-terraform/constructs/internal/render"
)

const demo = `
version: "1"
name: demo
description: Demo app
constructs:
  - id: Storage
    kind: group
    children:
      - id: Assets
        kind: bucket
        properties: {bucket_name: assets, versioned: true}
        overrides: {VersioningConfiguration.Status: Suspended}
      - id: AssetsView
        kind: reference
        target: Storage/Assets
        grants: [{grantee: reader, actions: ["s3:GetObject"]}]
  - id: Worker
    kind: function
    properties: {runtime: go1.x, handler: main, role: arn:x:role/worker}
    depends_on: [Storage/Assets]
`

func newApp(t *testing.T, opts Options) (*App, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts.Logger = logger.New(&buf, slog.LevelDebug, logger.FormatJSON)
	return New(opts), &buf
}

func parse(t *testing.T, src string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(src))
	require.NoError(t, err)
	return m
}

func TestSynthesize_Demo(t *testing.T) {
	a, logs := newApp(t, DefaultOptions())
	res, err := a.Synthesize(parse(t, demo))
	require.NoError(t, err)
	require.True(t, res.Success, "%+v", res.Errors)

	out := res.Files["template.json"]
	require.NotEmpty(t, out)
	assert.Equal(t, "Demo app", gjson.GetBytes(out, "Description").String())
	assert.Equal(t, "Suspended", gjson.GetBytes(out, "Resources.Storage-Assets.Properties.VersioningConfiguration.Status").String())
	assert.Equal(t, "X::IAM::Policy", gjson.GetBytes(out, "Resources.Storage-AssetsView-Grant1.Type").String())
	assert.JSONEq(t, `["Storage-Assets"]`, gjson.GetBytes(out, "Resources.Worker.DependsOn").Raw)
	assert.False(t, gjson.GetBytes(out, "Resources.Storage-AssetsView").Exists(), "references render nothing")
	assert.Len(t, gjson.GetBytes(out, "Resources").Map(), 3)

	assert.Contains(t, logs.String(), `"msg":"synthesized"`)
}

func TestSynthesize_FormatsAndSeparator(t *testing.T) {
	opts := DefaultOptions()
	opts.Formats = []render.Format{render.JSON, render.YAML, render.HCLFormat}
	opts.Separator = "_"
	a, _ := newApp(t, opts)

	res, err := a.Synthesize(parse(t, demo))
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Len(t, res.Files, 3)
	assert.True(t, gjson.GetBytes(res.Files["template.json"], "Resources.Storage_Assets").Exists())
	assert.Contains(t, string(res.Files["main.tf"]), `resource "x_storage_bucket" "Storage_Assets"`)
	assert.Contains(t, string(res.Files["template.yaml"]), "Storage_Assets:")
}

func TestSynthesize_Deterministic(t *testing.T) {
	a, _ := newApp(t, DefaultOptions())
	first, err := a.Synthesize(parse(t, demo))
	require.NoError(t, err)
	second, err := a.Synthesize(parse(t, demo))
	require.NoError(t, err)
	assert.Equal(t, first.Files, second.Files)
}

func TestSynthesize_ManifestErrors(t *testing.T) {
	a, _ := newApp(t, DefaultOptions())
	res, err := a.Synthesize(parse(t, `constructs: [{id: A, kind: bucket}, {id: A, kind: bucket}]`))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Len(t, res.Errors, 2)
	assert.Nil(t, res.Files)
}

func TestSynthesize_UnknownKindAndValidation(t *testing.T) {
	a, _ := newApp(t, DefaultOptions())
	res, err := a.Synthesize(parse(t, `
version: "1"
constructs:
  - id: X
    kind: database
  - id: G
    kind: group
    children:
      - id: F
        kind: function
`))
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, "X", res.Errors[0].Path)
	assert.Contains(t, res.Errors[0].Suggestion, "bucket")
	assert.Equal(t, "G/F", res.Errors[1].Path)
	assert.Equal(t, "runtime is required", res.Errors[1].Message)
}

func TestSynthesize_ReferenceMustBeDeclaredEarlier(t *testing.T) {
	a, _ := newApp(t, DefaultOptions())
	res, err := a.Synthesize(parse(t, `
version: "1"
constructs:
  - id: View
    kind: reference
    target: Assets
  - id: Assets
    kind: bucket
`))
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "build_error", res.Errors[0].Type)
	assert.Equal(t, "UNKNOWN_TARGET", res.Errors[0].Code)
}

func TestSynthesize_DependsOnForwardAndErrors(t *testing.T) {
	a, _ := newApp(t, DefaultOptions())
	res, err := a.Synthesize(parse(t, `
version: "1"
constructs:
  - id: First
    kind: queue
    depends_on: [Second]
  - id: Second
    kind: queue
`))
	require.NoError(t, err)
	require.True(t, res.Success, "%+v", res.Errors)
	assert.JSONEq(t, `["Second"]`, gjson.GetBytes(res.Files["template.json"], "Resources.First.DependsOn").Raw)

	res, err = a.Synthesize(parse(t, `
version: "1"
constructs:
  - id: G
    kind: group
    depends_on: [Q]
  - id: Q
    kind: queue
    depends_on: [Missing]
`))
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "NO_RESOURCE", res.Errors[0].Code)
	assert.Equal(t, "UNKNOWN_TARGET", res.Errors[1].Code)
}

func TestSynthesize_SynthesisErrors(t *testing.T) {
	a, logs := newApp(t, DefaultOptions())
	res, err := a.Synthesize(parse(t, `
version: "1"
constructs:
  - id: A
    kind: queue
    depends_on: [B]
  - id: B
    kind: queue
    depends_on: [A]
`))
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "synthesis_error", res.Errors[0].Type)
	assert.Equal(t, "DEPENDENCY_CYCLE", res.Errors[0].Code)
	assert.Contains(t, logs.String(), "synthesis failed")
}

func TestSynthesize_IndexPolicy(t *testing.T) {
	src := `
version: "1"
constructs:
  - id: R
    kind: resource
    type: T
    properties: {Tags: [a]}
    overrides: {"Tags[2]": c}
`
	a, _ := newApp(t, DefaultOptions())
	res, err := a.Synthesize(parse(t, src))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "INDEX_OUT_OF_RANGE", res.Errors[0].Code)
	assert.Equal(t, "R", res.Errors[0].Path)

	opts := DefaultOptions()
	opts.IndexPolicy = property.Pad
	a, _ = newApp(t, opts)
	res, err = a.Synthesize(parse(t, src))
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.JSONEq(t, `["a",null,"c"]`, gjson.GetBytes(res.Files["template.json"], "Resources.R.Properties.Tags").Raw)
}

func TestSynthesize_AntiPatternWarning(t *testing.T) {
	a, logs := newApp(t, DefaultOptions())
	res, err := a.Synthesize(parse(t, `
version: "1"
constructs:
  - id: Assets
    kind: bucket
  - id: V1
    kind: reference
    target: Assets
  - id: V2
    kind: reference
    target: Assets
`))
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "anti_pattern", res.Warnings[0].Type)
	assert.Equal(t, "V2", res.Warnings[0].Path)
	assert.Contains(t, logs.String(), `"level":"WARN"`)
}
