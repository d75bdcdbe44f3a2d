package domain

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Relevance bounds. A genre with no votes carries RelevanceUnset.
const (
	MinRelevance   = 0
	MaxRelevance   = 7
	RelevanceUnset = 99
)

// GenreType classifies what kind of taxonomy node a genre is.
type GenreType string

// Genre types.
const (
	GenreTypeStyle    GenreType = "STYLE"
	GenreTypeMeta     GenreType = "META"
	GenreTypeTrend    GenreType = "TREND"
	GenreTypeScene    GenreType = "SCENE"
	GenreTypeMovement GenreType = "MOVEMENT"
)

// GenreTypes lists every valid genre type.
var GenreTypes = []GenreType{
	GenreTypeStyle,
	GenreTypeMeta,
	GenreTypeTrend,
	GenreTypeScene,
	GenreTypeMovement,
}

// Valid reports whether t is one of the known genre types.
func (t GenreType) Valid() bool {
	return slices.Contains(GenreTypes, t)
}

// AkaTier ranks an alternate name by how commonly it is used.
type AkaTier string

// AKA tiers, in scan order.
const (
	AkaTierPrimary   AkaTier = "primary"
	AkaTierSecondary AkaTier = "secondary"
	AkaTierTertiary  AkaTier = "tertiary"
)

// AkaTiers lists every tier in scan order.
var AkaTiers = []AkaTier{AkaTierPrimary, AkaTierSecondary, AkaTierTertiary}

// GenreAkas holds the alternate names of a genre, grouped by tier.
// Order within a tier is significant.
type GenreAkas struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
	Tertiary  []string `json:"tertiary"`
}

// Tier returns the names stored in the given tier.
func (a GenreAkas) Tier(tier AkaTier) []string {
	switch tier {
	case AkaTierPrimary:
		return a.Primary
	case AkaTierSecondary:
		return a.Secondary
	case AkaTierTertiary:
		return a.Tertiary
	default:
		return nil
	}
}

// All returns every alternate name, primary first.
func (a GenreAkas) All() []string {
	all := make([]string, 0, len(a.Primary)+len(a.Secondary)+len(a.Tertiary))
	all = append(all, a.Primary...)
	all = append(all, a.Secondary...)
	return append(all, a.Tertiary...)
}

// Equal compares tiers entry by entry, order-sensitively.
func (a GenreAkas) Equal(b GenreAkas) bool {
	return slices.Equal(a.Primary, b.Primary) &&
		slices.Equal(a.Secondary, b.Secondary) &&
		slices.Equal(a.Tertiary, b.Tertiary)
}

func (a GenreAkas) normalized() GenreAkas {
	return GenreAkas{
		Primary:   normalizeList(a.Primary),
		Secondary: normalizeList(a.Secondary),
		Tertiary:  normalizeList(a.Tertiary),
	}
}

// Genre is a node of the music taxonomy.
//
// Parents are hierarchical "is-a" edges (child -> parent); Influences are
// lateral edges. Relevance is derived from votes and is never edited
// directly. Version is maintained by the store for compare-and-swap saves.
type Genre struct {
	Record
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
	Relevance        int       `json:"relevance"`
	Version          int       `json:"version"`
}

// GenreParams are the caller-supplied fields of a new genre.
type GenreParams struct {
	ID               string
	Name             string
	Subtitle         string
	Type             GenreType
	ShortDescription string
	LongDescription  string
	Notes            string
	NSFW             bool
	Parents          []string
	Influences       []string
	AKAs             GenreAkas
}

// NewGenre normalizes params into a genre and validates it.
// The returned genre is unrated and stamped with now.
func NewGenre(p GenreParams, now time.Time) (*Genre, error) {
	g := &Genre{
		Record:           Record{ID: p.ID},
		Name:             p.Name,
		Subtitle:         p.Subtitle,
		Type:             p.Type,
		ShortDescription: p.ShortDescription,
		LongDescription:  p.LongDescription,
		Notes:            p.Notes,
		NSFW:             p.NSFW,
		Parents:          p.Parents,
		Influences:       p.Influences,
		AKAs:             p.AKAs,
		Relevance:        RelevanceUnset,
	}
	g.InitTimestamps(now)
	return g.finish()
}

// finish normalizes g in place and runs the full validation.
func (g *Genre) finish() (*Genre, error) {
	g.normalize()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Genre) normalize() {
	g.Name = normalizeText(g.Name)
	g.Subtitle = normalizeText(g.Subtitle)
	g.ShortDescription = strings.TrimSpace(g.ShortDescription)
	g.LongDescription = strings.TrimSpace(g.LongDescription)
	g.Notes = strings.TrimSpace(g.Notes)
	g.Parents = normalizeIDs(g.Parents)
	g.Influences = normalizeIDs(g.Influences)
	g.AKAs = g.AKAs.normalized()
}

// Validate checks the local invariants of a genre in a fixed order: name,
// type, self-influence, then duplicate alternate names. It returns the first
// violation found. Hierarchy cycles are a property of the whole taxonomy and
// are checked by the genre tree instead.
func (g *Genre) Validate() error {
	if g.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if !g.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "must be one of STYLE, META, TREND, SCENE, MOVEMENT"}
	}
	if g.ID != "" && slices.Contains(g.Influences, g.ID) {
		return &SelfInfluenceError{GenreID: g.ID}
	}
	return checkDuplicateAkas(g.AKAs)
}

// checkDuplicateAkas scans primary, secondary, then tertiary names with one
// shared set; the first occurrence is canonical and any repeat is reported
// with the tier it was found in.
func checkDuplicateAkas(akas GenreAkas) error {
	seen := make(map[string]struct{})
	for _, tier := range AkaTiers {
		for _, aka := range akas.Tier(tier) {
			if _, ok := seen[aka]; ok {
				return &DuplicateAkaError{Aka: aka, Tier: tier}
			}
			seen[aka] = struct{}{}
		}
	}
	return nil
}

// Clone returns a deep copy of g.
func (g *Genre) Clone() *Genre {
	c := *g
	c.Parents = slices.Clone(g.Parents)
	c.Influences = slices.Clone(g.Influences)
	c.AKAs = GenreAkas{
		Primary:   slices.Clone(g.AKAs.Primary),
		Secondary: slices.Clone(g.AKAs.Secondary),
		Tertiary:  slices.Clone(g.AKAs.Tertiary),
	}
	return &c
}

// HasParent reports whether id is one of g's parents.
func (g *Genre) HasParent(id string) bool {
	return slices.Contains(g.Parents, id)
}

// IsRated reports whether the genre has received at least one vote.
func (g *Genre) IsRated() bool {
	return g.Relevance != RelevanceUnset
}

// ParseAkaList splits comma-separated alternate names as entered in a form.
// Entries are trimmed and empty ones dropped; order is preserved.
func ParseAkaList(text string) []string {
	return normalizeList(strings.Split(text, ","))
}

// normalizeText trims s and puts it in Unicode NFC so visually identical
// names compare equal.
func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = normalizeText(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// normalizeIDs trims ids, drops empties and repeats, keeping first-seen order.
func normalizeIDs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, id := range in {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// sameIDSet compares two id lists as unordered sets.
func sameIDSet(a, b []string) bool {
	a, b = normalizeIDs(a), normalizeIDs(b)
	if len(a) != len(b) {
		return false
	}
	for _, id := range a {
		if !slices.Contains(b, id) {
			return false
		}
	}
	return true
}
