package ir

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Canonicalize returns the canonical JSON serialization of the schema
// (spec.md §3 invariant 1). encoding/json already renders map keys in
// sorted order, which is what makes every map-valued field of Schema,
// Table, Enum etc. deterministic without any extra bookkeeping; ordered
// slices (Column lists, enum values, index column lists) are expected to
// already be in their meaningful order by the time they reach here — the
// parser and introspector are responsible for that, not this function.
func Canonicalize(s *Schema) ([]byte, error) {
	return json.Marshal(s)
}

// Fingerprint is the SHA-256 of the canonical serialization, in lowercase
// hex (spec.md §3, §6).
func Fingerprint(s *Schema) (string, error) {
	data, err := Canonicalize(s)
	if err != nil {
		return "", fmt.Errorf("canonicalize schema: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}
