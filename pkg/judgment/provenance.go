package judgment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Recognised provenance fields. Anything else round-trips through Extra.
const (
	fieldSourceID        = "source_id"
	fieldTimestamp       = "timestamp"
	fieldDescription     = "description"
	fieldMetadata        = "metadata"
	fieldJudgmentID      = "judgment_id"
	fieldConformanceSeal = "conformance_seal"
)

// ProvenanceEntry records one source or operation in a judgment's history.
//
// JudgmentID and ConformanceSeal are only ever set on the trailing entry a
// component appends; earlier entries are never rewritten.
type ProvenanceEntry struct {
	SourceID        string
	Timestamp       string
	Description     string
	Metadata        map[string]any
	JudgmentID      string
	ConformanceSeal string

	// Extra holds fields written by other implementations that this one does
	// not interpret. They are preserved on JSON round-trips but never hashed.
	Extra map[string]any
}

// Timestamp renders t the way every component stamps provenance entries.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// MarshalJSON flattens Extra next to the recognised fields.
func (e ProvenanceEntry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 6+len(e.Extra))
	for k, v := range e.Extra {
		out[k] = v
	}
	out[fieldSourceID] = e.SourceID
	out[fieldTimestamp] = e.Timestamp
	if e.Description != "" {
		out[fieldDescription] = e.Description
	}
	if len(e.Metadata) > 0 {
		out[fieldMetadata] = e.Metadata
	}
	if e.JudgmentID != "" {
		out[fieldJudgmentID] = e.JudgmentID
	}
	if e.ConformanceSeal != "" {
		out[fieldConformanceSeal] = e.ConformanceSeal
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts any object; unknown keys land in Extra.
func (e *ProvenanceEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("provenance entry: %w", err)
	}

	var decoded ProvenanceEntry
	for k, v := range raw {
		var err error
		switch k {
		case fieldSourceID:
			err = json.Unmarshal(v, &decoded.SourceID)
		case fieldTimestamp:
			err = json.Unmarshal(v, &decoded.Timestamp)
		case fieldDescription:
			err = unmarshalOptionalString(v, &decoded.Description)
		case fieldMetadata:
			if !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				err = json.Unmarshal(v, &decoded.Metadata)
			}
		case fieldJudgmentID:
			err = unmarshalOptionalString(v, &decoded.JudgmentID)
		case fieldConformanceSeal:
			err = unmarshalOptionalString(v, &decoded.ConformanceSeal)
		default:
			var anyValue any
			err = json.Unmarshal(v, &anyValue)
			if decoded.Extra == nil {
				decoded.Extra = make(map[string]any)
			}
			decoded.Extra[k] = anyValue
		}
		if err != nil {
			return fmt.Errorf("provenance entry field %q: %w", k, err)
		}
	}
	*e = decoded
	return nil
}

func unmarshalOptionalString(data []byte, dst *string) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// clone returns a copy whose maps share nothing with e.
func (e ProvenanceEntry) clone() ProvenanceEntry {
	c := e
	c.Metadata = copyMap(e.Metadata)
	c.Extra = copyMap(e.Extra)
	return c
}

// normalize validates e and rewrites its loose maps through JSON so that they
// hold only JSON-native values (string, float64, bool, nil, []any, map[string]any).
func (e ProvenanceEntry) normalize(index int) (ProvenanceEntry, error) {
	field := fmt.Sprintf("provenance_chain[%d]", index)
	if e.SourceID == "" {
		return ProvenanceEntry{}, Invalid(field, "source_id is required")
	}
	if e.Timestamp == "" {
		return ProvenanceEntry{}, Invalid(field, "timestamp is required")
	}

	out := e
	var err error
	if out.Metadata, err = normalizeMap(e.Metadata); err != nil {
		return ProvenanceEntry{}, Invalid(field+".metadata", "not JSON-representable: %v", err)
	}
	if out.Extra, err = normalizeMap(e.Extra); err != nil {
		return ProvenanceEntry{}, Invalid(field, "extra fields not JSON-representable: %v", err)
	}
	return out, nil
}

func normalizeMap(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = copyValue(elem)
		}
		return out
	default:
		return v
	}
}
