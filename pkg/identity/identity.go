// Package identity derives content-addressed ids for judgments and records
// real-world outcomes linked to them.
//
// An id is the SHA-256 of a judgment's canonical form with every
// judgment_id and conformance_seal stripped, so assigning an id never changes it.
package identity

import (
	"time"

	"github.com/draxork/opentrustprotocol-go/pkg/canonicalize"
	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
)

// GeneratorSourceID tags the provenance entry that carries an assigned id.
const GeneratorSourceID = "otp-judgment-id-generator"

// Algorithm is recorded in the id entry metadata.
const Algorithm = "sha256-jcs-rfc8785"

// GenerateID returns the 64-hex-character id of j.
func GenerateID(j *judgment.Judgment) (string, error) {
	if j == nil {
		return "", judgment.Invalid("judgment", "must not be nil")
	}
	return canonicalize.CanonicalHash(j.Canonical(judgment.ForIdentity))
}

// FindID returns j's own id: the judgment_id on the final entry. Ids found
// earlier in the chain belong to ancestors that were fused or relayed into j
// and are not reported, so a judgment whose chain holds an ancestor id
// followed by any other entry has no id of its own yet.
func FindID(j *judgment.Judgment) (string, bool) {
	if j == nil || j.Len() == 0 {
		return "", false
	}
	id := j.Last().JudgmentID
	return id, id != ""
}

// IsIdentityEntry reports whether e was appended by EnsureID.
func IsIdentityEntry(e judgment.ProvenanceEntry) bool {
	return e.SourceID == GeneratorSourceID && e.JudgmentID != ""
}

// EnsureID is EnsureIDAt with the current time.
func EnsureID(j *judgment.Judgment) (*judgment.Judgment, error) {
	return EnsureIDAt(j, time.Now())
}

// EnsureIDAt returns j unchanged when its final entry already carries an id.
// Otherwise it appends an id entry stamped with now and returns the new
// judgment. Ids on earlier entries are ignored, not reused: fusing or
// relaying an addressed judgment yields a new judgment with its own id.
func EnsureIDAt(j *judgment.Judgment, now time.Time) (*judgment.Judgment, error) {
	if j == nil {
		return nil, judgment.Invalid("judgment", "must not be nil")
	}
	if _, ok := FindID(j); ok {
		return j, nil
	}

	id, err := GenerateID(j)
	if err != nil {
		return nil, err
	}
	return j.Append(judgment.ProvenanceEntry{
		SourceID:    GeneratorSourceID,
		Timestamp:   judgment.Timestamp(now),
		Description: "Judgment ID assigned",
		JudgmentID:  id,
		Metadata: map[string]any{
			"id_algorithm": Algorithm,
		},
	})
}
