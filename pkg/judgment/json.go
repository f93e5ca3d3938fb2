package judgment

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireJudgment is the persistence/transport shape.
type wireJudgment struct {
	T          *float64          `json:"T"`
	I          *float64          `json:"I"`
	F          *float64          `json:"F"`
	Provenance []ProvenanceEntry `json:"provenance_chain"`
}

// MarshalJSON writes {"T","I","F","provenance_chain"}.
func (j *Judgment) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireJudgment{T: &j.t, I: &j.i, F: &j.f, Provenance: j.provenance})
}

// UnmarshalJSON decodes and revalidates. On error the receiver is unchanged.
func (j *Judgment) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*j = *parsed
	return nil
}

// Parse decodes a judgment from JSON through New, so every invariant is rechecked.
func Parse(data []byte) (*Judgment, error) {
	var w wireJudgment
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode judgment: %w", err)
	}
	for _, d := range []struct {
		name string
		v    *float64
	}{{"T", w.T}, {"I", w.I}, {"F", w.F}} {
		if d.v == nil {
			return nil, Invalid(d.name, "missing")
		}
	}
	return New(*w.T, *w.I, *w.F, w.Provenance)
}

// ParseList decodes a JSON array of judgments.
func ParseList(data []byte) ([]*Judgment, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &raws); err != nil {
		return nil, fmt.Errorf("decode judgment list: %w", err)
	}
	out := make([]*Judgment, 0, len(raws))
	for idx, raw := range raws {
		j, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("judgment %d: %w", idx, err)
		}
		out = append(out, j)
	}
	return out, nil
}
