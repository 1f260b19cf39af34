package lts

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSystem(t *testing.T) {
	f, err := os.Open("testdata/two_components.yaml")
	require.NoError(t, err)
	defer f.Close()

	bundles, err := DecodeSystem(f)
	require.NoError(t, err)
	require.Len(t, bundles, 2)

	a0 := bundles[0]
	assert.Equal(t, 0, a0.Component())
	assert.Equal(t, 4, a0.GetNumStates())
	assert.Equal(t, 2, a0.GetNumTransitions())
	assert.Equal(t, 1, a0.GetNumSilent())

	a1 := bundles[1]
	assert.Equal(t, 1, a1.Component())
	for _, h := range a1.States() {
		for _, tr := range a1.Out(h) {
			assert.Equal(t, 1, a1.Transition(tr).Owner)
			assert.Equal(t, "sd", a1.Transition(tr).Scenario)
		}
	}
	assert.Equal(t, End, a1.State(a1.scenarioEnd(a1.scenarios[0])).Type)
}

func TestBundleSpec_BuildErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "unknown state type",
			doc: `
components:
  - scenarios:
      - id: sd
        states: [{id: 0, type: waiting}]
`,
		},
		{
			name: "unknown field",
			doc: `
components:
  - scenarios:
      - id: sd
        colour: blue
`,
		},
		{
			name: "duplicate state",
			doc: `
components:
  - scenarios:
      - id: sd
        states: [{id: 0, type: initial}, {id: 0, type: end}]
`,
		},
		{
			name: "transition to unknown state",
			doc: `
components:
  - scenarios:
      - id: sd
        states: [{id: 0, type: initial}]
        transitions: [{from: 0, to: 1, probability: 1}]
`,
		},
		{
			name: "unknown end state",
			doc: `
components:
  - scenarios:
      - id: sd
        states: [{id: 0, type: initial}]
        end: 3
`,
		},
		{
			name: "silent transition to unknown scenario",
			doc: `
components:
  - scenarios:
      - id: sd
        states: [{id: 0, type: initial}]
    silent:
      - {from: {scenario: sd, state: 0}, to: {scenario: other, state: 0}, probability: 1}
`,
		},
		{
			name: "probability out of range",
			doc: `
components:
  - scenarios:
      - id: sd
        states: [{id: 0, type: initial}, {id: 1, type: end}]
        transitions: [{from: 0, to: 1, probability: 2}]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSystem(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestStateType_YAML(t *testing.T) {
	v, err := Final.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "final", v)
}
