// Package judgment implements the neutrosophic judgment value type: a
// truth/indeterminacy/falsity triple with an append-only provenance chain.
//
// A *Judgment is immutable. Every constructor validates the full invariant set
// and either returns a valid judgment or a *ValidationError, never both.
// Derived judgments (mapper outputs, fusion results) are new values whose
// chain extends their ancestors' chains.
package judgment

import (
	"encoding/json"
	"fmt"
	"math"
)

// Tolerance absorbs floating point drift in the conservation check.
const Tolerance = 1e-9

// Judgment is an immutable (T, I, F) triple plus provenance.
type Judgment struct {
	t, i, f    float64
	provenance []ProvenanceEntry
}

// New validates and builds a judgment. The chain is deep-copied, so later
// changes to the caller's slice or maps are not observable.
func New(t, i, f float64, chain []ProvenanceEntry) (*Judgment, error) {
	if err := checkDegree("T", t); err != nil {
		return nil, err
	}
	if err := checkDegree("I", i); err != nil {
		return nil, err
	}
	if err := checkDegree("F", f); err != nil {
		return nil, err
	}
	if sum := t + i + f; sum > 1.0+Tolerance {
		return nil, Invalid("T+I+F", "conservation constraint violated: %g > 1.0", sum)
	}
	if len(chain) == 0 {
		return nil, Invalid("provenance_chain", "must contain at least one entry")
	}

	entries := make([]ProvenanceEntry, len(chain))
	for idx, e := range chain {
		n, err := e.normalize(idx)
		if err != nil {
			return nil, err
		}
		entries[idx] = n
	}

	return &Judgment{t: t, i: i, f: f, provenance: entries}, nil
}

func checkDegree(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Invalid(name, "must be a finite number")
	}
	if v < 0 || v > 1 {
		return Invalid(name, "must be within [0, 1], got %g", v)
	}
	return nil
}

// T is the degree of truth.
func (j *Judgment) T() float64 { return j.t }

// I is the degree of indeterminacy.
func (j *Judgment) I() float64 { return j.i }

// F is the degree of falsity.
func (j *Judgment) F() float64 { return j.f }

// Sum is T+I+F. 1-Sum is the unassigned mass.
func (j *Judgment) Sum() float64 { return j.t + j.i + j.f }

// Len is the number of provenance entries.
func (j *Judgment) Len() int { return len(j.provenance) }

// Provenance returns a deep copy of the chain, oldest entry first.
func (j *Judgment) Provenance() []ProvenanceEntry {
	out := make([]ProvenanceEntry, len(j.provenance))
	for idx, e := range j.provenance {
		out[idx] = e.clone()
	}
	return out
}

// Entry returns a copy of the entry at idx.
func (j *Judgment) Entry(idx int) ProvenanceEntry {
	return j.provenance[idx].clone()
}

// Last returns a copy of the newest provenance entry.
func (j *Judgment) Last() ProvenanceEntry {
	return j.provenance[len(j.provenance)-1].clone()
}

// Append returns a new judgment with the same degrees and e added to the end
// of the chain.
func (j *Judgment) Append(e ProvenanceEntry) (*Judgment, error) {
	chain := make([]ProvenanceEntry, 0, len(j.provenance)+1)
	chain = append(chain, j.provenance...)
	chain = append(chain, e)
	return New(j.t, j.i, j.f, chain)
}

// ReplaceLast returns a new judgment whose final entry is replaced by e. It is
// used to stamp the trailing entry a component has just appended itself.
func (j *Judgment) ReplaceLast(e ProvenanceEntry) (*Judgment, error) {
	chain := make([]ProvenanceEntry, len(j.provenance))
	copy(chain, j.provenance)
	chain[len(chain)-1] = e
	return New(j.t, j.i, j.f, chain)
}

// Equal reports structural equality: same degrees and the same provenance
// content, including seals, ids and extra fields.
func (j *Judgment) Equal(other *Judgment) bool {
	if j == nil || other == nil {
		return j == other
	}
	if j.t != other.t || j.i != other.i || j.f != other.f || len(j.provenance) != len(other.provenance) {
		return false
	}
	a, errA := json.Marshal(j)
	b, errB := json.Marshal(other)
	if errA != nil || errB != nil {
		return false
	}
	return string(a) == string(b)
}

// String is a compact human-readable form.
func (j *Judgment) String() string {
	return fmt.Sprintf("Judgment(T=%.4f, I=%.4f, F=%.4f, provenance=%d)", j.t, j.i, j.f, len(j.provenance))
}
