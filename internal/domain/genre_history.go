package domain

import (
	"slices"
	"time"
)

// Operation is the kind of change a history row records.
type Operation string

// History operations.
const (
	OperationCreate Operation = "CREATE"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

// GenreHistory is an immutable snapshot of a genre, written after every
// committed change. Rows are never edited and outlive the genre itself.
type GenreHistory struct {
	ID               string    `json:"id"`
	GenreID          string    `json:"genre_id"`
	Name             string    `json:"name"`
	Subtitle         string    `json:"subtitle,omitempty"`
	Type             GenreType `json:"type"`
	ShortDescription string    `json:"short_description,omitempty"`
	LongDescription  string    `json:"long_description,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	NSFW             bool      `json:"nsfw"`
	Parents          []string  `json:"parents"`
	Influences       []string  `json:"influences"`
	AKAs             GenreAkas `json:"akas"`
	Operation        Operation `json:"operation"`
	AccountID        string    `json:"account_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewGenreHistory snapshots g as it stands for the given operation.
// The ID is assigned by the history store.
func NewGenreHistory(genreID string, g *Genre, op Operation, accountID string, at time.Time) *GenreHistory {
	c := g.Clone()
	return &GenreHistory{
		GenreID:          genreID,
		Name:             c.Name,
		Subtitle:         c.Subtitle,
		Type:             c.Type,
		ShortDescription: c.ShortDescription,
		LongDescription:  c.LongDescription,
		Notes:            c.Notes,
		NSFW:             c.NSFW,
		Parents:          c.Parents,
		Influences:       c.Influences,
		AKAs:             c.AKAs,
		Operation:        op,
		AccountID:        accountID,
		CreatedAt:        at,
	}
}

// IsChangedFrom reports whether g differs from the snapshot in any
// observable field. Parent and influence sets compare unordered; AKA tiers
// compare entry by entry. Relevance is derived and not part of a snapshot.
// A nil snapshot always counts as changed.
func (g *Genre) IsChangedFrom(prior *GenreHistory) bool {
	if prior == nil {
		return true
	}
	return g.Name != prior.Name ||
		g.Subtitle != prior.Subtitle ||
		g.Type != prior.Type ||
		g.ShortDescription != prior.ShortDescription ||
		g.LongDescription != prior.LongDescription ||
		g.Notes != prior.Notes ||
		g.NSFW != prior.NSFW ||
		!sameIDSet(g.Parents, prior.Parents) ||
		!sameIDSet(g.Influences, prior.Influences) ||
		!g.AKAs.Equal(prior.AKAs)
}

// ChangedFields lists the snapshot fields that differ between two history
// rows, in display order.
func (h *GenreHistory) ChangedFields(prev *GenreHistory) []string {
	if prev == nil {
		return nil
	}
	var fields []string
	add := func(name string, changed bool) {
		if changed {
			fields = append(fields, name)
		}
	}
	add("name", h.Name != prev.Name)
	add("subtitle", h.Subtitle != prev.Subtitle)
	add("type", h.Type != prev.Type)
	add("short_description", h.ShortDescription != prev.ShortDescription)
	add("long_description", h.LongDescription != prev.LongDescription)
	add("notes", h.Notes != prev.Notes)
	add("nsfw", h.NSFW != prev.NSFW)
	add("parents", !sameIDSet(h.Parents, prev.Parents))
	add("influences", !sameIDSet(h.Influences, prev.Influences))
	add("akas", !h.AKAs.Equal(prev.AKAs))
	return slices.Clip(fields)
}
