// Package conform implements conformance seals: SHA-256 fingerprints proving
// that a fused judgment was derived from declared inputs, weights and operator.
//
// A seal is recomputed, never decoded. Verification therefore always needs
// the original inputs and weights; the fused judgment alone is not enough.
package conform

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/draxork/opentrustprotocol-go/pkg/canonicalize"
	"github.com/draxork/opentrustprotocol-go/pkg/identity"
	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
)

// Separator joins the canonical pair array and the operator id before hashing.
const Separator = "::"

// SealUnavailable is stamped by fusion when seal generation fails. It never
// verifies.
const SealUnavailable = "SEAL_GENERATION_FAILED"

// ErrConformance is matched by every *ConformanceError via errors.Is.
var ErrConformance = errors.New("conformance check failed")

// ConformanceError reports bad seal inputs or a fused judgment that cannot be verified.
type ConformanceError struct {
	Reason string
}

func (e *ConformanceError) Error() string { return "conformance: " + e.Reason }

// Is reports ErrConformance as a match.
func (e *ConformanceError) Is(target error) bool { return target == ErrConformance }

func conformanceErr(format string, args ...any) error {
	return &ConformanceError{Reason: fmt.Sprintf(format, args...)}
}

// sealPair is one element of the hashed array.
type sealPair struct {
	Judgment judgment.Canonical `json:"judgment"`
	Weight   float64            `json:"weight"`
}

// CanonicalInput returns the exact string a seal hashes:
// JCS(sorted pairs) + "::" + operatorID.
func CanonicalInput(judgments []*judgment.Judgment, weights []float64, operatorID string) (string, error) {
	if len(judgments) == 0 {
		return "", conformanceErr("judgments must not be empty")
	}
	if len(judgments) != len(weights) {
		return "", conformanceErr("judgments (%d) and weights (%d) length mismatch", len(judgments), len(weights))
	}
	if operatorID == "" {
		return "", conformanceErr("operator id must not be empty")
	}

	type keyed struct {
		key  string
		pair sealPair
	}
	pairs := make([]keyed, len(judgments))
	for idx, j := range judgments {
		if j == nil {
			return "", conformanceErr("judgment %d is nil", idx)
		}
		if w := weights[idx]; math.IsNaN(w) || math.IsInf(w, 0) {
			return "", conformanceErr("weight %d is not a finite number", idx)
		}
		pairs[idx] = keyed{
			key:  j.Last().SourceID,
			pair: sealPair{Judgment: j.Canonical(judgment.ForSeal), Weight: weights[idx]},
		}
	}

	// Ordering by last source id makes the seal independent of argument order;
	// equal keys keep their input order.
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].key < pairs[b].key })

	sorted := make([]sealPair, len(pairs))
	for idx, p := range pairs {
		sorted[idx] = p.pair
	}

	canonical, err := canonicalize.JCSString(sorted)
	if err != nil {
		return "", conformanceErr("canonicalization failed: %v", err)
	}
	return canonical + Separator + operatorID, nil
}

// Generate computes the seal for a fusion of judgments with weights under operatorID.
// The result is 64 lowercase hex characters.
func Generate(judgments []*judgment.Judgment, weights []float64, operatorID string) (string, error) {
	input, err := CanonicalInput(judgments, weights, operatorID)
	if err != nil {
		return "", err
	}
	return canonicalize.HashString(input), nil
}

// Attach returns a copy of fused whose last entry carries seal.
func Attach(fused *judgment.Judgment, seal string) (*judgment.Judgment, error) {
	if fused == nil {
		return nil, conformanceErr("fused judgment is nil")
	}
	if seal == "" {
		return nil, conformanceErr("seal must not be empty")
	}
	last := fused.Last()
	last.ConformanceSeal = seal
	return fused.ReplaceLast(last)
}

// SealedEntry returns the provenance entry holding the seal: the last entry,
// looking past trailing identity entries appended after sealing.
func SealedEntry(fused *judgment.Judgment) (judgment.ProvenanceEntry, error) {
	if fused == nil || fused.Len() == 0 {
		return judgment.ProvenanceEntry{}, conformanceErr("fused judgment has no provenance")
	}
	idx := fused.Len() - 1
	for idx > 0 && identity.IsIdentityEntry(fused.Entry(idx)) {
		idx--
	}
	e := fused.Entry(idx)
	if e.ConformanceSeal == "" {
		return judgment.ProvenanceEntry{}, conformanceErr("last provenance entry %q carries no conformance_seal", e.SourceID)
	}
	return e, nil
}

// VerifyWithInputs regenerates the seal from inputs and weights, taking the
// operator id from the sealed entry's source_id, and compares it to the stored one.
func VerifyWithInputs(fused *judgment.Judgment, inputs []*judgment.Judgment, weights []float64) (bool, error) {
	e, err := SealedEntry(fused)
	if err != nil {
		return false, err
	}
	regenerated, err := Generate(inputs, weights, e.SourceID)
	if err != nil {
		return false, err
	}
	return regenerated == e.ConformanceSeal, nil
}

// Verify is not supported: a seal is a function of the original inputs, which
// cannot be recovered from the fused judgment. Use VerifyWithInputs.
func Verify(_ *judgment.Judgment) (bool, error) {
	return false, conformanceErr("verification requires the original inputs and weights; use VerifyWithInputs")
}
