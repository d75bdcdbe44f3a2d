// Package search provides full-text lookup of genres using Bleve. Names,
// alternate names and descriptions are searchable; type, NSFW and relevance
// act as filters.
package search

import (
	"strings"

	"github.com/genrewiki/genrewiki-server/internal/domain"
)

// GenreDocument is the indexed form of a genre.
//
// AKAs are flattened across tiers: tier matters for display, not for
// whether a search should find the genre.
type GenreDocument struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Subtitle    string           `json:"subtitle,omitempty"`
	Type        domain.GenreType `json:"type"`
	AKAs        []string         `json:"akas,omitempty"`
	Description string           `json:"description,omitempty"`
	Parents     []string         `json:"parents,omitempty"`
	NSFW        bool             `json:"nsfw"`
	Relevance   int              `json:"relevance"`

	// Timestamps for sorting
	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// This ensures field names match the Bleve index mapping.
func (d *GenreDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"name":       d.Name,
		"type":       string(d.Type),
		"nsfw":       d.NSFW,
		"relevance":  d.Relevance,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	// Optional fields - only add if non-empty
	if d.Subtitle != "" {
		m["subtitle"] = d.Subtitle
	}
	if len(d.AKAs) > 0 {
		m["akas"] = d.AKAs
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Parents) > 0 {
		m["parents"] = d.Parents
	}

	return m
}

// GenreToDocument converts a domain Genre to a GenreDocument.
func GenreToDocument(g *domain.Genre) *GenreDocument {
	var description []string
	for _, text := range []string{g.ShortDescription, g.LongDescription} {
		if text != "" {
			description = append(description, text)
		}
	}

	return &GenreDocument{
		ID:          g.ID,
		Name:        g.Name,
		Subtitle:    g.Subtitle,
		Type:        g.Type,
		AKAs:        g.AKAs.All(),
		Description: strings.Join(description, "\n\n"),
		Parents:     g.Parents,
		NSFW:        g.NSFW,
		Relevance:   g.Relevance,
		CreatedAt:   g.CreatedAt.UnixMilli(),
		UpdatedAt:   g.UpdatedAt.UnixMilli(),
	}
}
