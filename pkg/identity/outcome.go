package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
)

// ErrInvalidOutcome is returned for any rejected outcome. It is not a
// *judgment.ValidationError.
var ErrInvalidOutcome = errors.New("invalid outcome judgment")

// OutcomeType classifies what actually happened.
type OutcomeType string

const (
	OutcomeSuccess OutcomeType = "success"
	OutcomeFailure OutcomeType = "failure"
	OutcomePartial OutcomeType = "partial"
)

// Valid reports whether o is one of the known outcome types.
func (o OutcomeType) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure, OutcomePartial:
		return true
	}
	return false
}

// OutcomeJudgment is an observed real-world result linked to an earlier
// judgment. It is immutable and never fused.
type OutcomeJudgment struct {
	judgmentID        string
	linksToJudgmentID string
	t, i, f           float64
	outcomeType       OutcomeType
	oracleSource      string
	provenance        []judgment.ProvenanceEntry
}

func (o *OutcomeJudgment) JudgmentID() string        { return o.judgmentID }
func (o *OutcomeJudgment) LinksToJudgmentID() string { return o.linksToJudgmentID }
func (o *OutcomeJudgment) T() float64                { return o.t }
func (o *OutcomeJudgment) I() float64                { return o.i }
func (o *OutcomeJudgment) F() float64                { return o.f }
func (o *OutcomeJudgment) OutcomeType() OutcomeType  { return o.outcomeType }
func (o *OutcomeJudgment) OracleSource() string      { return o.oracleSource }

// Provenance returns a copy of the outcome's chain.
func (o *OutcomeJudgment) Provenance() []judgment.ProvenanceEntry {
	// Rebuilding through judgment.New deep-copies the entries.
	j, err := judgment.New(o.t, o.i, o.f, o.provenance)
	if err != nil {
		return nil
	}
	return j.Provenance()
}

// CreateOutcomeJudgment is CreateOutcomeJudgmentAt with the current time.
func CreateOutcomeJudgment(linksToID string, t, i, f float64, outcomeType OutcomeType, oracleSource string, extra ...judgment.ProvenanceEntry) (*OutcomeJudgment, error) {
	return CreateOutcomeJudgmentAt(time.Now(), linksToID, t, i, f, outcomeType, oracleSource, extra...)
}

// CreateOutcomeJudgmentAt validates the degrees, appends one oracle entry to
// extra and derives the outcome's own id from the resulting chain.
func CreateOutcomeJudgmentAt(now time.Time, linksToID string, t, i, f float64, outcomeType OutcomeType, oracleSource string, extra ...judgment.ProvenanceEntry) (*OutcomeJudgment, error) {
	for _, d := range []struct {
		name string
		v    float64
	}{{"T", t}, {"I", i}, {"F", f}} {
		if math.IsNaN(d.v) || d.v < 0 || d.v > 1 {
			return nil, fmt.Errorf("%w: %s must be within [0, 1], got %g", ErrInvalidOutcome, d.name, d.v)
		}
	}
	if sum := t + i + f; sum > 1.0+judgment.Tolerance {
		return nil, fmt.Errorf("%w: conservation constraint violated: T+I+F=%g > 1.0", ErrInvalidOutcome, sum)
	}
	if linksToID == "" {
		return nil, fmt.Errorf("%w: links_to_judgment_id is required", ErrInvalidOutcome)
	}
	if !outcomeType.Valid() {
		return nil, fmt.Errorf("%w: unknown outcome type %q", ErrInvalidOutcome, outcomeType)
	}
	if oracleSource == "" {
		return nil, fmt.Errorf("%w: oracle source is required", ErrInvalidOutcome)
	}

	chain := make([]judgment.ProvenanceEntry, 0, len(extra)+1)
	chain = append(chain, extra...)
	chain = append(chain, judgment.ProvenanceEntry{
		SourceID:    oracleSource,
		Timestamp:   judgment.Timestamp(now),
		Description: fmt.Sprintf("Outcome recorded by oracle: %s", outcomeType),
		Metadata: map[string]any{
			"outcome_type":         string(outcomeType),
			"links_to_judgment_id": linksToID,
		},
	})

	tmp, err := judgment.New(t, i, f, chain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutcome, err)
	}
	id, err := GenerateID(tmp)
	if err != nil {
		return nil, fmt.Errorf("outcome id: %w", err)
	}

	return &OutcomeJudgment{
		judgmentID:        id,
		linksToJudgmentID: linksToID,
		t:                 t,
		i:                 i,
		f:                 f,
		outcomeType:       outcomeType,
		oracleSource:      oracleSource,
		provenance:        tmp.Provenance(),
	}, nil
}

type wireOutcome struct {
	JudgmentID        string                     `json:"judgment_id"`
	LinksToJudgmentID string                     `json:"links_to_judgment_id"`
	T                 float64                    `json:"T"`
	I                 float64                    `json:"I"`
	F                 float64                    `json:"F"`
	OutcomeType       OutcomeType                `json:"outcome_type"`
	OracleSource      string                     `json:"oracle_source"`
	Provenance        []judgment.ProvenanceEntry `json:"provenance_chain"`
}

// MarshalJSON writes the outcome with snake_case field names.
func (o *OutcomeJudgment) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireOutcome{
		JudgmentID:        o.judgmentID,
		LinksToJudgmentID: o.linksToJudgmentID,
		T:                 o.t,
		I:                 o.i,
		F:                 o.f,
		OutcomeType:       o.outcomeType,
		OracleSource:      o.oracleSource,
		Provenance:        o.provenance,
	})
}

// ParseOutcome decodes an outcome and checks that its stored id matches its content.
func ParseOutcome(data []byte) (*OutcomeJudgment, error) {
	var w wireOutcome
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode outcome: %w", err)
	}
	if !w.OutcomeType.Valid() {
		return nil, fmt.Errorf("%w: unknown outcome type %q", ErrInvalidOutcome, w.OutcomeType)
	}
	tmp, err := judgment.New(w.T, w.I, w.F, w.Provenance)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutcome, err)
	}
	id, err := GenerateID(tmp)
	if err != nil {
		return nil, err
	}
	if id != w.JudgmentID {
		return nil, fmt.Errorf("%w: judgment_id %s does not match content (%s)", ErrInvalidOutcome, w.JudgmentID, id)
	}
	return &OutcomeJudgment{
		judgmentID:        w.JudgmentID,
		linksToJudgmentID: w.LinksToJudgmentID,
		t:                 w.T,
		i:                 w.I,
		f:                 w.F,
		outcomeType:       w.OutcomeType,
		oracleSource:      w.OracleSource,
		provenance:        tmp.Provenance(),
	}, nil
}
