package judgment

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draxork/opentrustprotocol-go/pkg/canonicalize"
)

func entry(source string) ProvenanceEntry {
	return ProvenanceEntry{SourceID: source, Timestamp: "2024-01-01T00:00:00Z"}
}

func TestNew_Valid(t *testing.T) {
	j, err := New(0.8, 0.2, 0.0, []ProvenanceEntry{entry("sensor-1")})
	require.NoError(t, err)
	assert.Equal(t, 0.8, j.T())
	assert.Equal(t, 0.2, j.I())
	assert.Equal(t, 0.0, j.F())
	assert.InDelta(t, 1.0, j.Sum(), 1e-12)
	assert.Equal(t, 1, j.Len())
	assert.Equal(t, "sensor-1", j.Last().SourceID)
}

func TestNew_Invalid(t *testing.T) {
	ok := []ProvenanceEntry{entry("s")}
	tests := []struct {
		name    string
		t, i, f float64
		chain   []ProvenanceEntry
		field   string
	}{
		{"negative T", -0.1, 0.2, 0.1, ok, "T"},
		{"T above one", 1.1, 0, 0, ok, "T"},
		{"I above one", 0, 1.5, 0, ok, "I"},
		{"negative F", 0, 0, -0.0001, ok, "F"},
		{"NaN", math.NaN(), 0, 0, ok, "T"},
		{"Inf", 0, math.Inf(1), 0, ok, "I"},
		{"conservation", 0.5, 0.4, 0.2, ok, "T+I+F"},
		{"empty chain", 0.5, 0.2, 0.1, nil, "provenance_chain"},
		{"missing source", 0.5, 0.2, 0.1, []ProvenanceEntry{{Timestamp: "2024-01-01T00:00:00Z"}}, "provenance_chain[0]"},
		{"missing timestamp", 0.5, 0.2, 0.1, []ProvenanceEntry{entry("a"), {SourceID: "b"}}, "provenance_chain[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := New(tt.t, tt.i, tt.f, tt.chain)
			require.Error(t, err)
			require.Nil(t, j)
			require.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestNew_ConservationTolerance(t *testing.T) {
	_, err := New(0.7, 0.2, 0.1+1e-12, []ProvenanceEntry{entry("s")})
	require.NoError(t, err, "drift below tolerance is accepted")

	_, err = New(0.7, 0.2, 0.1+1e-6, []ProvenanceEntry{entry("s")})
	require.Error(t, err)
}

func TestNew_MetadataMustBeJSON(t *testing.T) {
	e := entry("s")
	e.Metadata = map[string]any{"ch": make(chan int)}
	_, err := New(0.1, 0.1, 0.1, []ProvenanceEntry{e})
	require.ErrorIs(t, err, ErrValidation)
}

func TestJudgment_ProvenanceIsolation(t *testing.T) {
	meta := map[string]any{"nested": map[string]any{"k": "v"}}
	chain := []ProvenanceEntry{{SourceID: "s", Timestamp: "2024-01-01T00:00:00Z", Metadata: meta}}

	j, err := New(0.5, 0.3, 0.1, chain)
	require.NoError(t, err)

	// Mutating the caller's inputs is not observable.
	chain[0].SourceID = "tampered"
	meta["nested"].(map[string]any)["k"] = "tampered"
	assert.Equal(t, "s", j.Last().SourceID)
	assert.Equal(t, "v", j.Last().Metadata["nested"].(map[string]any)["k"])

	// Neither is mutating what the accessors return.
	got := j.Provenance()
	got[0].Metadata["nested"].(map[string]any)["k"] = "tampered"
	assert.Equal(t, "v", j.Entry(0).Metadata["nested"].(map[string]any)["k"])
}

func TestJudgment_Append(t *testing.T) {
	j, err := New(0.5, 0.3, 0.1, []ProvenanceEntry{entry("a")})
	require.NoError(t, err)

	j2, err := j.Append(entry("b"))
	require.NoError(t, err)
	assert.Equal(t, 1, j.Len(), "original is unchanged")
	assert.Equal(t, 2, j2.Len())
	assert.Equal(t, "b", j2.Last().SourceID)

	_, err = j.Append(ProvenanceEntry{SourceID: "c"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestJudgment_ReplaceLast(t *testing.T) {
	j, err := New(0.5, 0.3, 0.1, []ProvenanceEntry{entry("a"), entry("b")})
	require.NoError(t, err)

	stamped := j.Last()
	stamped.ConformanceSeal = "abc"
	j2, err := j.ReplaceLast(stamped)
	require.NoError(t, err)
	assert.Equal(t, "abc", j2.Last().ConformanceSeal)
	assert.Empty(t, j.Last().ConformanceSeal)
	assert.Equal(t, "a", j2.Entry(0).SourceID)
}

func TestJudgment_Equal(t *testing.T) {
	a, _ := New(0.5, 0.3, 0.1, []ProvenanceEntry{entry("a")})
	b, _ := New(0.5, 0.3, 0.1, []ProvenanceEntry{entry("a")})
	c, _ := New(0.5, 0.3, 0.1, []ProvenanceEntry{entry("c")})
	d, _ := New(0.5, 0.3, 0.2, []ProvenanceEntry{entry("a")})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
	assert.False(t, a.Equal(nil))
}

func TestJudgment_Canonical(t *testing.T) {
	e := entry("fusion")
	e.Description = "fused"
	e.Metadata = map[string]any{"k": 1}
	e.JudgmentID = "id-1"
	e.ConformanceSeal = "seal-1"
	e.Extra = map[string]any{"vendor": "x"}

	j, err := New(0.5, 0.3, 0.1, []ProvenanceEntry{entry("a"), e})
	require.NoError(t, err)

	sealForm := j.Canonical(ForSeal)
	require.Len(t, sealForm.Provenance, 2)
	assert.Equal(t, "id-1", sealForm.Provenance[1].JudgmentID)

	idForm := j.Canonical(ForIdentity)
	assert.Empty(t, idForm.Provenance[1].JudgmentID)

	b, err := json.Marshal(sealForm)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "seal-1")
	assert.NotContains(t, string(b), "vendor")
	assert.NotContains(t, string(b), `"description":""`, "empty optional fields are omitted")
}

func TestJudgment_CanonicalOmitsEmptyMetadata(t *testing.T) {
	const want = `{"F":0,"I":0.2,"T":0.8,"provenance_chain":[{"source_id":"a","timestamp":"2024-01-01T00:00:00Z"}]}`

	for name, doc := range map[string]string{
		"absent": `{"T":0.8,"I":0.2,"F":0,"provenance_chain":[{"source_id":"a","timestamp":"2024-01-01T00:00:00Z"}]}`,
		"empty":  `{"T":0.8,"I":0.2,"F":0,"provenance_chain":[{"source_id":"a","timestamp":"2024-01-01T00:00:00Z","metadata":{}}]}`,
		"null":   `{"T":0.8,"I":0.2,"F":0,"provenance_chain":[{"source_id":"a","timestamp":"2024-01-01T00:00:00Z","metadata":null,"description":""}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			j, err := Parse([]byte(doc))
			require.NoError(t, err)
			b, err := canonicalize.JCS(j.Canonical(ForIdentity))
			require.NoError(t, err)
			assert.Equal(t, want, string(b))
		})
	}
}

func TestJudgment_JSONRoundTrip(t *testing.T) {
	e := entry("fusion")
	e.JudgmentID = "abc"
	e.ConformanceSeal = "def"
	e.Extra = map[string]any{"vendor_field": "kept"}
	j, err := New(0.6, 0.3, 0.1, []ProvenanceEntry{entry("a"), e})
	require.NoError(t, err)

	data, err := json.Marshal(j)
	require.NoError(t, err)

	var back Judgment
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, j.Equal(&back))
	assert.Equal(t, "kept", back.Last().Extra["vendor_field"])
	assert.Equal(t, "def", back.Last().ConformanceSeal)
}

func TestParse_Revalidates(t *testing.T) {
	_, err := Parse([]byte(`{"T":0.9,"I":0.9,"F":0,"provenance_chain":[{"source_id":"a","timestamp":"t"}]}`))
	require.ErrorIs(t, err, ErrValidation)

	_, err = Parse([]byte(`{"T":0.1,"I":0.1,"provenance_chain":[{"source_id":"a","timestamp":"t"}]}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "F", verr.Field)

	_, err = Parse([]byte(`{"T":0.1,"I":0.1,"F":0.1,"provenance_chain":[]}`))
	require.ErrorIs(t, err, ErrValidation)

	_, err = Parse([]byte(`not json`))
	require.Error(t, err)
}

func TestParseList(t *testing.T) {
	list, err := ParseList([]byte(`[
		{"T":0.8,"I":0.2,"F":0,"provenance_chain":[{"source_id":"a","timestamp":"t1"}]},
		{"T":0.6,"I":0.3,"F":0.1,"provenance_chain":[{"source_id":"b","timestamp":"t2","metadata":{"n":2}}]}
	]`))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, float64(2), list[1].Last().Metadata["n"])

	_, err = ParseList([]byte(`[{"T":2,"I":0,"F":0,"provenance_chain":[{"source_id":"a","timestamp":"t"}]}]`))
	require.ErrorIs(t, err, ErrValidation)
}

func TestTimestamp_UTC(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	ts := Timestamp(time.Date(2024, 5, 1, 13, 0, 0, 500, loc))
	assert.Equal(t, "2024-05-01T12:00:00.0000005Z", ts)
}
