package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validParams() GenreParams {
	return GenreParams{
		Name: "Shoegaze",
		Type: GenreTypeStyle,
	}
}

func TestNewGenre_Normalizes(t *testing.T) {
	p := validParams()
	p.Name = "  Shoegaze  "
	p.Subtitle = "\tdream noise "
	p.Notes = "  see also nu-gaze  "
	p.Parents = []string{" genre-a", "", "genre-a", "genre-b"}
	p.AKAs = GenreAkas{
		Primary:   ParseAkaList("  primary one ,  , primary two "),
		Secondary: []string{"  ", "secondary"},
	}

	g, err := NewGenre(p, testNow)
	require.NoError(t, err)

	assert.Equal(t, "Shoegaze", g.Name)
	assert.Equal(t, "dream noise", g.Subtitle)
	assert.Equal(t, "see also nu-gaze", g.Notes)
	assert.Equal(t, []string{"genre-a", "genre-b"}, g.Parents)
	assert.Equal(t, []string{"primary one", "primary two"}, g.AKAs.Primary)
	assert.Equal(t, []string{"secondary"}, g.AKAs.Secondary)
	assert.Empty(t, g.AKAs.Tertiary)
	assert.Equal(t, RelevanceUnset, g.Relevance)
	assert.Equal(t, testNow, g.CreatedAt)
	assert.Equal(t, testNow, g.UpdatedAt)
}

func TestParseAkaList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"whitespace only entries dropped", "  primary one ,  , primary two ", []string{"primary one", "primary two"}},
		{"single", "MBV", []string{"MBV"}},
		{"order preserved", "c, b, a", []string{"c", "b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAkaList(tt.in))
		})
	}
}

func TestNewGenre_ValidationOrder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *GenreParams)
		check  func(t *testing.T, err error)
	}{
		{
			name:   "blank name",
			mutate: func(p *GenreParams) { p.Name = "   " },
			check: func(t *testing.T, err error) {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, "name", vErr.Field)
			},
		},
		{
			name:   "unknown type",
			mutate: func(p *GenreParams) { p.Type = "GENRE" },
			check: func(t *testing.T, err error) {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, "type", vErr.Field)
			},
		},
		{
			name: "self influence",
			mutate: func(p *GenreParams) {
				p.ID = "genre-self"
				p.Influences = []string{"genre-other", "genre-self"}
			},
			check: func(t *testing.T, err error) {
				var siErr *SelfInfluenceError
				require.ErrorAs(t, err, &siErr)
				assert.Equal(t, "genre-self", siErr.GenreID)
			},
		},
		{
			name: "self influence reported before duplicate aka",
			mutate: func(p *GenreParams) {
				p.ID = "genre-self"
				p.Influences = []string{"genre-self"}
				p.AKAs = GenreAkas{Primary: []string{"X", "X"}}
			},
			check: func(t *testing.T, err error) {
				var siErr *SelfInfluenceError
				assert.ErrorAs(t, err, &siErr)
			},
		},
		{
			name:   "duplicate across tiers reports later tier",
			mutate: func(p *GenreParams) { p.AKAs = GenreAkas{Primary: []string{"X"}, Secondary: []string{"X"}} },
			check: func(t *testing.T, err error) {
				var dupErr *DuplicateAkaError
				require.ErrorAs(t, err, &dupErr)
				assert.Equal(t, "X", dupErr.Aka)
				assert.Equal(t, AkaTierSecondary, dupErr.Tier)
			},
		},
		{
			name:   "duplicate within one tier",
			mutate: func(p *GenreParams) { p.AKAs = GenreAkas{Tertiary: []string{"Y", " Y "}} },
			check: func(t *testing.T, err error) {
				var dupErr *DuplicateAkaError
				require.ErrorAs(t, err, &dupErr)
				assert.Equal(t, "Y", dupErr.Aka)
				assert.Equal(t, AkaTierTertiary, dupErr.Tier)
			},
		},
		{
			name: "first repeat wins",
			mutate: func(p *GenreParams) {
				p.AKAs = GenreAkas{
					Primary:   []string{"A", "B"},
					Secondary: []string{"B"},
					Tertiary:  []string{"A"},
				}
			},
			check: func(t *testing.T, err error) {
				var dupErr *DuplicateAkaError
				require.ErrorAs(t, err, &dupErr)
				assert.Equal(t, "B", dupErr.Aka)
				assert.Equal(t, AkaTierSecondary, dupErr.Tier)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			g, err := NewGenre(p, testNow)
			assert.Nil(t, g)
			require.Error(t, err)

			var genreErr GenreError
			require.True(t, errors.As(err, &genreErr), "expected a GenreError, got %T", err)
			tt.check(t, err)
		})
	}
}

func TestNewGenre_NFCNamesCompareEqual(t *testing.T) {
	p := validParams()
	// "é" precomposed and decomposed.
	p.AKAs = GenreAkas{Primary: []string{"caf\u00e9"}, Secondary: []string{"cafe\u0301"}}

	_, err := NewGenre(p, testNow)

	var dupErr *DuplicateAkaError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, AkaTierSecondary, dupErr.Tier)
}

func TestGenre_WithUpdate(t *testing.T) {
	p := validParams()
	p.ID = "genre-1"
	p.Subtitle = "noise pop"
	p.Notes = "keep me"
	p.Parents = []string{"genre-rock"}
	p.AKAs = GenreAkas{Primary: []string{"Dream Pop Adjacent"}}
	g, err := NewGenre(p, testNow)
	require.NoError(t, err)

	later := testNow.Add(time.Hour)
	name := " Nu Gaze "
	emptyParents := []string{}
	tertiary := []string{"nugaze"}

	next, err := g.WithUpdate(GenrePatch{
		Name:     &name,
		Subtitle: Null[string](),
		Parents:  &emptyParents,
		AKAs:     &GenreAkasPatch{Tertiary: &tertiary},
	}, later)
	require.NoError(t, err)

	assert.Equal(t, "Nu Gaze", next.Name)
	assert.Empty(t, next.Subtitle, "explicit null clears")
	assert.Equal(t, "keep me", next.Notes, "absent keeps")
	assert.Empty(t, next.Parents, "empty collection replaces")
	assert.Equal(t, []string{"Dream Pop Adjacent"}, next.AKAs.Primary)
	assert.Equal(t, []string{"nugaze"}, next.AKAs.Tertiary)
	assert.Equal(t, later, next.UpdatedAt)
	assert.Equal(t, testNow, next.CreatedAt)
	assert.Equal(t, "genre-1", next.ID)

	// The receiver is untouched.
	assert.Equal(t, "Shoegaze", g.Name)
	assert.Equal(t, []string{"genre-rock"}, g.Parents)
	assert.Equal(t, testNow, g.UpdatedAt)
}

func TestGenre_WithUpdate_RunsValidation(t *testing.T) {
	p := validParams()
	p.ID = "genre-1"
	g, err := NewGenre(p, testNow)
	require.NoError(t, err)

	influences := []string{"genre-1"}
	_, err = g.WithUpdate(GenrePatch{Influences: &influences}, testNow)
	var siErr *SelfInfluenceError
	assert.ErrorAs(t, err, &siErr)

	primary := []string{"Z"}
	secondary := []string{"Z"}
	_, err = g.WithUpdate(GenrePatch{AKAs: &GenreAkasPatch{Primary: &primary, Secondary: &secondary}}, testNow)
	var dupErr *DuplicateAkaError
	assert.ErrorAs(t, err, &dupErr)
}

func TestGenre_WithUpdate_KeepsRelevance(t *testing.T) {
	g, err := NewGenre(validParams(), testNow)
	require.NoError(t, err)
	g.Relevance = 4

	nsfw := true
	next, err := g.WithUpdate(GenrePatch{NSFW: &nsfw}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 4, next.Relevance)
	assert.True(t, next.NSFW)
}

func TestGenrePatch_UnmarshalJSON(t *testing.T) {
	var patch GenrePatch
	err := json.Unmarshal([]byte(`{"name":"Slowcore","subtitle":null,"notes":"quiet","parents":[]}`), &patch)
	require.NoError(t, err)

	require.NotNil(t, patch.Name)
	assert.Equal(t, "Slowcore", *patch.Name)
	assert.True(t, patch.Subtitle.Present)
	assert.False(t, patch.Subtitle.Valid)
	assert.Equal(t, Set("quiet"), patch.Notes)
	assert.False(t, patch.ShortDescription.Present)
	require.NotNil(t, patch.Parents)
	assert.Empty(t, *patch.Parents)
	assert.Nil(t, patch.Influences)
	assert.False(t, patch.IsEmpty())

	var empty GenrePatch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.True(t, empty.IsEmpty())
}

func TestGenre_IsChangedFrom(t *testing.T) {
	p := validParams()
	p.ID = "genre-1"
	p.Parents = []string{"genre-a", "genre-b"}
	p.Influences = []string{"genre-c"}
	p.AKAs = GenreAkas{Primary: []string{"one", "two"}}
	g, err := NewGenre(p, testNow)
	require.NoError(t, err)

	snapshot := NewGenreHistory(g.ID, g, OperationCreate, "acct-1", testNow)

	assert.True(t, g.IsChangedFrom(nil))
	assert.False(t, g.IsChangedFrom(snapshot))

	reordered := g.Clone()
	reordered.Parents = []string{"genre-b", "genre-a"}
	assert.False(t, reordered.IsChangedFrom(snapshot), "parent order is not significant")

	reorderedAkas := g.Clone()
	reorderedAkas.AKAs.Primary = []string{"two", "one"}
	assert.True(t, reorderedAkas.IsChangedFrom(snapshot), "aka order is significant")

	rated := g.Clone()
	rated.Relevance = 5
	assert.False(t, rated.IsChangedFrom(snapshot), "relevance is not part of a snapshot")

	influenced := g.Clone()
	influenced.Influences = nil
	assert.True(t, influenced.IsChangedFrom(snapshot))

	flagged := g.Clone()
	flagged.NSFW = true
	assert.True(t, flagged.IsChangedFrom(snapshot))
}

func TestNewGenreHistory_IsDetached(t *testing.T) {
	p := validParams()
	p.Parents = []string{"genre-a"}
	g, err := NewGenre(p, testNow)
	require.NoError(t, err)

	h := NewGenreHistory("genre-1", g, OperationUpdate, "acct-1", testNow)
	g.Parents[0] = "genre-z"

	assert.Equal(t, []string{"genre-a"}, h.Parents)
	assert.Equal(t, "genre-1", h.GenreID)
	assert.Equal(t, OperationUpdate, h.Operation)
	assert.Equal(t, "acct-1", h.AccountID)
}

func TestGenreHistory_ChangedFields(t *testing.T) {
	prev := &GenreHistory{Name: "A", Parents: []string{"p1"}, Type: GenreTypeStyle}
	next := &GenreHistory{Name: "B", Parents: []string{"p2"}, Type: GenreTypeStyle, NSFW: true}

	assert.Equal(t, []string{"name", "nsfw", "parents"}, next.ChangedFields(prev))
	assert.Nil(t, next.ChangedFields(nil))
}

func TestGenreErrors_AppError(t *testing.T) {
	cycle := &GenreCycleError{IDs: []string{"a", "b", "a"}, Names: []string{"Rock", "Pop", "Rock"}}
	assert.Equal(t, "Rock → Pop → Rock", cycle.Path())
	assert.Equal(t, 409, cycle.AppError().HTTPStatus())

	assert.Equal(t, 404, (&NotFoundError{GenreID: "x"}).AppError().HTTPStatus())
	assert.Equal(t, 400, (&InvalidGenreRelevanceError{Value: 8}).AppError().HTTPStatus())
	assert.Equal(t, 422, (&NoUpdatesError{GenreID: "x"}).AppError().HTTPStatus())
}

func TestValidRelevance(t *testing.T) {
	for r := MinRelevance; r <= MaxRelevance; r++ {
		assert.True(t, ValidRelevance(r), "relevance %d", r)
	}
	assert.False(t, ValidRelevance(-1))
	assert.False(t, ValidRelevance(8))
	assert.False(t, ValidRelevance(RelevanceUnset))
}
