package mapper

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDefinitions = `
mappers:
  - id: credit-score
    type: numerical
    falsity_point: 300
    indeterminacy_point: 575
    truth_point: 850
    clamp_to_range: true
  - id: kyc-status
    type: categorical
    mappings:
      VERIFIED: {T: 1, I: 0, F: 0}
      PENDING: {T: 0, I: 1, F: 0}
    default_judgment: {T: 0, I: 0.5, F: 0.5}
  - id: sanctions-hit
    type: boolean
    true_map: {T: 0, I: 0, F: 1}
    false_map: {T: 0.95, I: 0.05, F: 0}
`

func TestLoadDefinitions(t *testing.T) {
	mappers, err := LoadDefinitions(strings.NewReader(sampleDefinitions), WithClock(fixedClock))
	require.NoError(t, err)
	require.Len(t, mappers, 3)

	assert.Equal(t, "credit-score", mappers[0].ID())
	assert.Equal(t, TypeNumerical, mappers[0].Type())
	assert.Equal(t, TypeCategorical, mappers[1].Type())
	assert.Equal(t, TypeBoolean, mappers[2].Type())

	j, err := mappers[0].Apply(850)
	require.NoError(t, err)
	assert.Equal(t, 1.0, j.T())
	assert.Equal(t, "2024-01-01T00:00:00Z", j.Last().Timestamp)

	j, err = mappers[1].Apply("SUSPENDED")
	require.NoError(t, err)
	assert.Equal(t, 0.5, j.F())
}

func TestLoadDefinitions_Empty(t *testing.T) {
	mappers, err := LoadDefinitions(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, mappers)
}

func TestLoadDefinitions_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"unknown type": `
mappers:
  - id: x
    type: fuzzy`,
		"numerical missing point": `
mappers:
  - id: x
    type: numerical
    falsity_point: 0
    truth_point: 10`,
		"degree above one": `
mappers:
  - id: x
    type: boolean
    true_map: {T: 2, I: 0, F: 0}
    false_map: {T: 0, I: 0, F: 1}`,
		"unknown field": `
mappers:
  - id: x
    type: boolean
    true_map: {T: 1, I: 0, F: 0}
    false_map: {T: 0, I: 0, F: 1}
    colour: red`,
		"missing id": `
mappers:
  - type: categorical
    mappings: {a: {T: 1, I: 0, F: 0}}`,
		"not yaml": `mappers: [`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadDefinitions(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestLoadDefinitions_SemanticViolations(t *testing.T) {
	// Schema-valid but the anchors are not monotone.
	doc := `
mappers:
  - id: x
    type: numerical
    falsity_point: 0
    indeterminacy_point: 10
    truth_point: 5`
	_, err := LoadDefinitions(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrConfig)

	dup := `
mappers:
  - id: x
    type: boolean
    true_map: {T: 1, I: 0, F: 0}
    false_map: {T: 0, I: 0, F: 1}
  - id: x
    type: boolean
    true_map: {T: 1, I: 0, F: 0}
    false_map: {T: 0, I: 0, F: 1}`
	_, err = LoadDefinitions(strings.NewReader(dup))
	assert.ErrorIs(t, err, ErrDuplicateMapper)
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDefinitions), 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"credit-score", "kyc-status", "sanctions-hit"}, reg.List())

	j, err := reg.Apply("sanctions-hit", false)
	require.NoError(t, err)
	assert.Equal(t, 0.95, j.T())

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
