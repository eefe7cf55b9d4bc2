package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleWorkflow = `
name: sample
instances:
  - id: loader
    type: Loader
  - id: combine
    type: Combine
setup:
  - id: loaded
    instance: loader
    op: load
body:
  - id: combined
    instance: combine
    op: combine
    inputs:
      x: {from: {step: loaded, index: 0}}
      seed: {seed: true}
      label: plain
      opts: {value: {mode: fast}}
      extra: {mode: slow}
`

func TestWorkflow_DecodeYAML(t *testing.T) {
	var wf domain.Workflow
	require.NoError(t, yaml.Unmarshal([]byte(sampleWorkflow), &wf))

	assert.Equal(t, "sample", wf.Name)
	assert.Equal(t, 1, wf.RunCount())

	inst, ok := wf.Instance("combine")
	require.True(t, ok)
	assert.Equal(t, "Combine", inst.Type)

	inputs := wf.Body[0].Inputs
	want := map[string]domain.Input{
		"x":     domain.From("loaded", 0),
		"seed":  domain.RandomSeed(),
		"label": domain.Literal("plain"),
		"opts":  domain.Literal(map[string]any{"mode": "fast"}),
		"extra": domain.Literal(map[string]any{"mode": "slow"}),
	}
	if diff := cmp.Diff(want, inputs, cmp.AllowUnexported(domain.Input{})); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkflow_DecodeJSON(t *testing.T) {
	doc := `{"name":"j","instances":[{"id":"a","type":"A"}],
		"body":[{"id":"s","instance":"a","op":"run","inputs":{"n":{"from":{"step":"p","index":2}},"v":null}}]}`

	var wf domain.Workflow
	require.NoError(t, json.Unmarshal([]byte(doc), &wf))

	in := wf.Body[0].Inputs["n"]
	require.NotNil(t, in.From)
	assert.Equal(t, 2, in.From.Index)
	assert.Equal(t, 1, in.Sources())

	nullInput := wf.Body[0].Inputs["v"]
	assert.True(t, nullInput.IsLiteral())
	assert.Nil(t, nullInput.Value)
}

func TestInput_RoundTripYAML(t *testing.T) {
	inputs := map[string]domain.Input{
		"a": domain.Literal(3),
		"b": domain.From("x", 1),
		"c": domain.RandomSeed(),
		"d": domain.Literal(map[string]any{"k": "v"}),
	}
	out, err := yaml.Marshal(inputs)
	require.NoError(t, err)

	var back map[string]domain.Input
	require.NoError(t, yaml.Unmarshal(out, &back))
	if diff := cmp.Diff(inputs, back, cmp.AllowUnexported(domain.Input{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestInput_Sources(t *testing.T) {
	assert.Equal(t, 0, domain.Input{}.Sources())
	assert.Equal(t, 2, domain.Input{Seed: true, From: &domain.Ref{Step: "x"}}.Sources())
}
