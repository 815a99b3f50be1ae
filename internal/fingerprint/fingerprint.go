// Package fingerprint derives short content digests for submissions so that
// operators can spot the same form being sent twice.
package fingerprint

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
	"github.com/zeebo/blake3"
)

// Length is the number of hex characters in a fingerprint.
const Length = 16

// Canonical returns the RFC 8785 form of v's JSON encoding.
func Canonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return out, nil
}

// Of hashes the canonical JSON of v with BLAKE3. Two values with the same
// JSON fields produce the same fingerprint regardless of field order.
func Of(v any) (string, error) {
	canonical, err := Canonical(v)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(canonical)
	return hex.EncodeToString(sum[:Length/2]), nil
}
