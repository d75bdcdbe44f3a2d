package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Nullable is a patch field that tells apart "absent" (keep the current
// value), explicit null (clear it) and a new value.
type Nullable[T any] struct {
	Present bool
	Valid   bool
	Value   T
}

// Set returns a Nullable carrying v.
func Set[T any](v T) Nullable[T] {
	return Nullable[T]{Present: true, Valid: true, Value: v}
}

// Null returns a Nullable that clears the field.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Present: true}
}

// UnmarshalJSON records presence; a JSON null leaves Valid false.
// It is only called for keys present in the input.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Valid = false
		var zero T
		n.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// MarshalJSON writes null for cleared or absent fields.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// apply resolves the patch against the current value.
func (n Nullable[T]) apply(current T) T {
	if !n.Present {
		return current
	}
	if !n.Valid {
		var zero T
		return zero
	}
	return n.Value
}

// GenreAkasPatch replaces individual AKA tiers. A nil tier is kept; an empty
// non-nil tier clears it.
type GenreAkasPatch struct {
	Primary   *[]string `json:"primary,omitempty"`
	Secondary *[]string `json:"secondary,omitempty"`
	Tertiary  *[]string `json:"tertiary,omitempty"`
}

// GenrePatch is a sparse update of a genre's editable fields. Nil pointers
// mean "keep"; a pointer to an empty slice replaces the set with nothing.
// Relevance is not editable.
type GenrePatch struct {
	Name             *string          `json:"name,omitempty"`
	Subtitle         Nullable[string] `json:"subtitle"`
	Type             *GenreType       `json:"type,omitempty"`
	ShortDescription Nullable[string] `json:"short_description"`
	LongDescription  Nullable[string] `json:"long_description"`
	Notes            Nullable[string] `json:"notes"`
	NSFW             *bool            `json:"nsfw,omitempty"`
	Parents          *[]string        `json:"parents,omitempty"`
	Influences       *[]string        `json:"influences,omitempty"`
	AKAs             *GenreAkasPatch  `json:"akas,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p GenrePatch) IsEmpty() bool {
	return p.Name == nil && !p.Subtitle.Present && p.Type == nil &&
		!p.ShortDescription.Present && !p.LongDescription.Present && !p.Notes.Present &&
		p.NSFW == nil && p.Parents == nil && p.Influences == nil && p.AKAs == nil
}

// WithUpdate merges p over g, stamps UpdatedAt and re-runs the same
// normalization and validation as NewGenre. g itself is left untouched.
func (g *Genre) WithUpdate(p GenrePatch, now time.Time) (*Genre, error) {
	next := g.Clone()

	if p.Name != nil {
		next.Name = *p.Name
	}
	next.Subtitle = p.Subtitle.apply(next.Subtitle)
	if p.Type != nil {
		next.Type = *p.Type
	}
	next.ShortDescription = p.ShortDescription.apply(next.ShortDescription)
	next.LongDescription = p.LongDescription.apply(next.LongDescription)
	next.Notes = p.Notes.apply(next.Notes)
	if p.NSFW != nil {
		next.NSFW = *p.NSFW
	}
	if p.Parents != nil {
		next.Parents = *p.Parents
	}
	if p.Influences != nil {
		next.Influences = *p.Influences
	}
	if p.AKAs != nil {
		if p.AKAs.Primary != nil {
			next.AKAs.Primary = *p.AKAs.Primary
		}
		if p.AKAs.Secondary != nil {
			next.AKAs.Secondary = *p.AKAs.Secondary
		}
		if p.AKAs.Tertiary != nil {
			next.AKAs.Tertiary = *p.AKAs.Tertiary
		}
	}

	next.Touch(now)
	return next.finish()
}
