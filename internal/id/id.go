// Package id generates identifiers for genre wiki entities.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for generated IDs.
const (
	PrefixGenre = "genre"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "genre-V1StGXR8_Z5jdHi6B-myT")
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// NewGenreID returns a fresh genre id.
func NewGenreID() (string, error) {
	return Generate(PrefixGenre)
}

// NewHistoryID returns a time-ordered UUIDv7 for an audit row, so ids of
// rows written later sort after earlier ones.
func NewHistoryID() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate history id: %w", err)
	}
	return u.String(), nil
}
