package conform

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draxork/opentrustprotocol-go/pkg/identity"
	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
)

const testOperator = "otp-cawa-v1.1"

func mustJudgment(t *testing.T, tv, iv, fv float64, source string) *judgment.Judgment {
	t.Helper()
	j, err := judgment.New(tv, iv, fv, []judgment.ProvenanceEntry{
		{SourceID: source, Timestamp: "2024-01-01T00:00:00Z"},
	})
	require.NoError(t, err)
	return j
}

// sealedFusion builds what a fusion operator emits: the concatenated chains,
// a trailing operator entry, and the seal over inputs.
func sealedFusion(t *testing.T, inputs []*judgment.Judgment, weights []float64, op string) *judgment.Judgment {
	t.Helper()
	var chain []judgment.ProvenanceEntry
	for _, in := range inputs {
		chain = append(chain, in.Provenance()...)
	}
	chain = append(chain, judgment.ProvenanceEntry{SourceID: op, Timestamp: "2024-01-02T00:00:00Z"})
	fused, err := judgment.New(0.7, 0.2, 0.05, chain)
	require.NoError(t, err)

	seal, err := Generate(inputs, weights, op)
	require.NoError(t, err)
	fused, err = Attach(fused, seal)
	require.NoError(t, err)
	return fused
}

func TestGenerate_Golden(t *testing.T) {
	a := mustJudgment(t, 0.8, 0.2, 0.0, "a")
	b := mustJudgment(t, 0.6, 0.3, 0.1, "b")

	input, err := CanonicalInput([]*judgment.Judgment{a, b}, []float64{0.6, 0.4}, testOperator)
	require.NoError(t, err)
	assert.Equal(t,
		`[{"judgment":{"F":0,"I":0.2,"T":0.8,"provenance_chain":[{"source_id":"a","timestamp":"2024-01-01T00:00:00Z"}]},"weight":0.6},`+
			`{"judgment":{"F":0.1,"I":0.3,"T":0.6,"provenance_chain":[{"source_id":"b","timestamp":"2024-01-01T00:00:00Z"}]},"weight":0.4}]`+
			`::otp-cawa-v1.1`,
		input)

	seal, err := Generate([]*judgment.Judgment{a, b}, []float64{0.6, 0.4}, testOperator)
	require.NoError(t, err)
	assert.Equal(t, "545942070ab281cc3d419823cef6a3054eebcc10f4cd42561c538693f76bcdc0", seal)
}

func TestGenerate_OrderIndependent(t *testing.T) {
	a := mustJudgment(t, 0.8, 0.2, 0.0, "a")
	b := mustJudgment(t, 0.6, 0.3, 0.1, "b")

	s1, err := Generate([]*judgment.Judgment{a, b}, []float64{0.6, 0.4}, testOperator)
	require.NoError(t, err)
	s2, err := Generate([]*judgment.Judgment{b, a}, []float64{0.4, 0.6}, testOperator)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}

func TestGenerate_StableTieBreak(t *testing.T) {
	x := mustJudgment(t, 0.8, 0.2, 0.0, "same")
	y := mustJudgment(t, 0.1, 0.2, 0.3, "same")

	s1, err := Generate([]*judgment.Judgment{x, y}, []float64{1, 1}, testOperator)
	require.NoError(t, err)
	s2, err := Generate([]*judgment.Judgment{y, x}, []float64{1, 1}, testOperator)
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2, "equal keys keep caller order")
}

func TestGenerate_SealExcludedFromHash(t *testing.T) {
	a := mustJudgment(t, 0.8, 0.2, 0.0, "a")
	stamped, err := Attach(a, "previous-seal")
	require.NoError(t, err)

	s1, _ := Generate([]*judgment.Judgment{a}, []float64{1}, testOperator)
	s2, _ := Generate([]*judgment.Judgment{stamped}, []float64{1}, testOperator)
	assert.Equal(t, s1, s2)

	withID, err := identity.EnsureIDAt(a, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	s3, _ := Generate([]*judgment.Judgment{withID}, []float64{1}, testOperator)
	assert.NotEqual(t, s1, s3, "judgment ids of inputs are committed to")
}

func TestGenerate_Errors(t *testing.T) {
	a := mustJudgment(t, 0.8, 0.2, 0.0, "a")
	tests := []struct {
		name    string
		js      []*judgment.Judgment
		weights []float64
		op      string
	}{
		{"empty", nil, nil, testOperator},
		{"length mismatch", []*judgment.Judgment{a}, []float64{1, 2}, testOperator},
		{"empty operator", []*judgment.Judgment{a}, []float64{1}, ""},
		{"nil judgment", []*judgment.Judgment{nil}, []float64{1}, testOperator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.js, tt.weights, tt.op)
			require.ErrorIs(t, err, ErrConformance)
			var cerr *ConformanceError
			require.ErrorAs(t, err, &cerr)
		})
	}
}

func TestVerifyWithInputs_RoundTrip(t *testing.T) {
	a := mustJudgment(t, 0.8, 0.2, 0.0, "a")
	b := mustJudgment(t, 0.6, 0.3, 0.1, "b")
	inputs := []*judgment.Judgment{a, b}
	weights := []float64{0.6, 0.4}

	fused := sealedFusion(t, inputs, weights, testOperator)
	assert.Regexp(t, `^[0-9a-f]{64}$`, fused.Last().ConformanceSeal)

	ok, err := VerifyWithInputs(fused, inputs, weights)
	require.NoError(t, err)
	assert.True(t, ok)

	// Still verifies once an id entry has been appended.
	withID, err := identity.EnsureIDAt(fused, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	ok, err = VerifyWithInputs(withID, inputs, weights)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyWithInputs_DetectsTampering(t *testing.T) {
	a := mustJudgment(t, 0.8, 0.2, 0.0, "a")
	b := mustJudgment(t, 0.6, 0.3, 0.1, "b")
	c := mustJudgment(t, 0.1, 0.1, 0.1, "c")
	inputs := []*judgment.Judgment{a, b}
	weights := []float64{0.6, 0.4}
	fused := sealedFusion(t, inputs, weights, testOperator)

	cases := map[string]struct {
		inputs  []*judgment.Judgment
		weights []float64
	}{
		"degree changed":    {[]*judgment.Judgment{mustJudgment(t, 0.79, 0.2, 0.0, "a"), b}, weights},
		"provenance change": {[]*judgment.Judgment{mustJudgment(t, 0.8, 0.2, 0.0, "a2"), b}, weights},
		"weight changed":    {inputs, []float64{0.5, 0.5}},
		"judgment added":    {[]*judgment.Judgment{a, b, c}, []float64{0.6, 0.4, 0.1}},
		"judgment swapped":  {[]*judgment.Judgment{a, c}, weights},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ok, err := VerifyWithInputs(fused, tc.inputs, tc.weights)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	// A forged seal on the fused judgment itself.
	last := fused.Last()
	last.ConformanceSeal = strings.Repeat("0", 64)
	forged, err := fused.ReplaceLast(last)
	require.NoError(t, err)
	ok, err := VerifyWithInputs(forged, inputs, weights)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyWithInputs_WrongOperator(t *testing.T) {
	a := mustJudgment(t, 0.8, 0.2, 0.0, "a")
	inputs := []*judgment.Judgment{a}
	fused := sealedFusion(t, inputs, []float64{1}, "otp-optimistic-v1.1")

	seal, err := Generate(inputs, []float64{1}, testOperator)
	require.NoError(t, err)
	assert.NotEqual(t, seal, fused.Last().ConformanceSeal)

	ok, err := VerifyWithInputs(fused, inputs, []float64{1})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyWithInputs_Unsealed(t *testing.T) {
	a := mustJudgment(t, 0.8, 0.2, 0.0, "a")
	_, err := VerifyWithInputs(a, []*judgment.Judgment{a}, []float64{1})
	require.ErrorIs(t, err, ErrConformance)

	_, err = VerifyWithInputs(nil, []*judgment.Judgment{a}, []float64{1})
	require.ErrorIs(t, err, ErrConformance)
}

func TestVerifyWithInputs_SentinelNeverVerifies(t *testing.T) {
	a := mustJudgment(t, 0.8, 0.2, 0.0, "a")
	fused, err := a.Append(judgment.ProvenanceEntry{SourceID: testOperator, Timestamp: "t"})
	require.NoError(t, err)
	fused, err = Attach(fused, SealUnavailable)
	require.NoError(t, err)

	ok, err := VerifyWithInputs(fused, []*judgment.Judgment{a}, []float64{1})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_Unsupported(t *testing.T) {
	a := mustJudgment(t, 0.8, 0.2, 0.0, "a")
	ok, err := Verify(a)
	assert.False(t, ok)
	require.ErrorIs(t, err, ErrConformance)
}

func TestAttach_Errors(t *testing.T) {
	_, err := Attach(nil, "x")
	require.ErrorIs(t, err, ErrConformance)

	a := mustJudgment(t, 0.8, 0.2, 0.0, "a")
	_, err = Attach(a, "")
	require.ErrorIs(t, err, ErrConformance)
}
