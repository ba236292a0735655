// Package id generates opaque identifiers for persisted records and cookies.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a lowercase, unpadded base32 rendering of a random UUIDv4.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(value[:])), nil
}

// Valid reports whether raw has the shape produced by NewID.
func Valid(raw string) bool {
	if len(raw) != 26 {
		return false
	}
	decoded, err := encoding.DecodeString(strings.ToUpper(raw))
	if err != nil {
		return false
	}
	return len(decoded) == 16
}
