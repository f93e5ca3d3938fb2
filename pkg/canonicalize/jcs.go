// Package canonicalize provides RFC 8785 (JSON Canonicalization Scheme) compliant
// serialization for deterministic hashing of judgments, seals and identities.
//
// Every seal and judgment id is computed over bytes produced here, so any change
// to the output of JCS is a wire-format break for independent implementations.
package canonicalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// JCS returns the RFC 8785 canonical JSON representation of v.
//
// Key features:
// 1. Object keys are sorted by their UTF-16 code units.
// 2. Numbers use the ECMAScript shortest round-trip form (1.0 -> 1, 1e-7 -> 1e-7).
// 3. Strings use minimal escaping; HTML characters are not escaped.
// 4. No insignificant whitespace.
//
// Struct json tags are honoured because v is first marshalled with encoding/json.
func JCS(v any) ([]byte, error) {
	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jcs: pre-marshal failed: %w", err)
	}

	out, err := jcs.Transform(intermediate)
	if err != nil {
		return nil, fmt.Errorf("jcs: transform failed: %w", err)
	}
	return out, nil
}

// CanonicalHash returns the SHA-256 hex digest of the canonical JSON representation of v.
func CanonicalHash(v any) (string, error) {
	b, err := JCS(v)
	if err != nil {
		return "", err
	}
	return HashBytes(b), nil
}

// HashBytes computes the SHA-256 hash of raw bytes and returns 64 lowercase hex characters.
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashString hashes the UTF-8 bytes of s.
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// JCSString returns the JCS canonical form as a string.
func JCSString(v any) (string, error) {
	data, err := JCS(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
