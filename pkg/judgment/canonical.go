package judgment

// CanonicalMode selects which extended provenance fields survive canonicalization.
type CanonicalMode int

const (
	// ForSeal keeps judgment_id so that a seal commits to the identity of
	// already-addressed inputs.
	ForSeal CanonicalMode = iota
	// ForIdentity drops judgment_id so that an id never hashes itself.
	ForIdentity
)

// Canonical is the hashable shape of a judgment. conformance_seal and unknown
// extra fields are never part of it.
type Canonical struct {
	T          float64          `json:"T"`
	I          float64          `json:"I"`
	F          float64          `json:"F"`
	Provenance []CanonicalEntry `json:"provenance_chain"`
}

// CanonicalEntry is a provenance entry reduced to its defined fields.
// An empty description or metadata map is omitted, so an absent field and an
// empty one hash the same.
type CanonicalEntry struct {
	SourceID    string         `json:"source_id"`
	Timestamp   string         `json:"timestamp"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	JudgmentID  string         `json:"judgment_id,omitempty"`
}

// Canonical returns the canonical form for the given mode. Entry order is the
// chain order.
func (j *Judgment) Canonical(mode CanonicalMode) Canonical {
	entries := make([]CanonicalEntry, len(j.provenance))
	for idx, e := range j.provenance {
		ce := CanonicalEntry{
			SourceID:    e.SourceID,
			Timestamp:   e.Timestamp,
			Description: e.Description,
			Metadata:    copyMap(e.Metadata),
		}
		if mode == ForSeal {
			ce.JudgmentID = e.JudgmentID
		}
		entries[idx] = ce
	}
	return Canonical{T: j.t, I: j.i, F: j.f, Provenance: entries}
}
