// Package id generates opaque record identifiers.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a random UUIDv4 encoded as 26 lowercase base32 characters
// without padding, safe for URLs and file names.
func NewID() (string, error) {
	raw, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(raw[:])), nil
}

// Parse decodes an identifier produced by NewID back into its UUID.
func Parse(value string) (uuid.UUID, error) {
	decoded, err := encoding.DecodeString(strings.ToUpper(strings.TrimSpace(value)))
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("decode id: %w", err)
	}
	parsed, err := uuid.FromBytes(decoded)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("parse id: %w", err)
	}
	return parsed, nil
}
