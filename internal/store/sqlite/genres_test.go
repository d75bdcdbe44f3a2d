package sqlite

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/genrewiki/genrewiki-server/internal/domain"
	"github.com/genrewiki/genrewiki-server/internal/store"
)

// makeTestGenre creates a domain.Genre with sensible defaults for testing.
func makeTestGenre(id, name string, parents ...string) *domain.Genre {
	now := time.Now()
	return &domain.Genre{
		Record: domain.Record{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:       name,
		Type:       domain.GenreTypeStyle,
		Parents:    parents,
		Influences: []string{},
		Relevance:  domain.RelevanceUnset,
	}
}

func TestSaveAndFindGenre(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, g := range []*domain.Genre{
		makeTestGenre("genre-rock", "Rock"),
		makeTestGenre("genre-blues", "Blues"),
	} {
		if err := s.SaveGenre(ctx, g); err != nil {
			t.Fatalf("SaveGenre %s: %v", g.ID, err)
		}
	}

	g := makeTestGenre("genre-prog", "Progressive Rock", "genre-rock", "genre-blues")
	g.Subtitle = "70s"
	g.Type = domain.GenreTypeMovement
	g.ShortDescription = "Ambitious rock."
	g.LongDescription = "Long-form rock with classical ambitions."
	g.Notes = "See also art rock."
	g.NSFW = true
	g.Influences = []string{"genre-blues"}
	g.AKAs = domain.GenreAkas{
		Primary:   []string{"Prog", "Prog Rock"},
		Secondary: []string{"Art Rock"},
	}

	if err := s.SaveGenre(ctx, g); err != nil {
		t.Fatalf("SaveGenre: %v", err)
	}
	if g.Version != 1 {
		t.Errorf("Version after insert: got %d, want 1", g.Version)
	}

	got, err := s.FindGenreByID(ctx, "genre-prog")
	if err != nil {
		t.Fatalf("FindGenreByID: %v", err)
	}

	if got.Name != g.Name || got.Subtitle != g.Subtitle || got.Type != g.Type {
		t.Errorf("identity fields: got %q/%q/%q", got.Name, got.Subtitle, got.Type)
	}
	if got.ShortDescription != g.ShortDescription || got.LongDescription != g.LongDescription || got.Notes != g.Notes {
		t.Errorf("text fields not round-tripped: %+v", got)
	}
	if !got.NSFW {
		t.Error("NSFW: got false, want true")
	}
	if got.Relevance != domain.RelevanceUnset {
		t.Errorf("Relevance: got %d, want %d", got.Relevance, domain.RelevanceUnset)
	}
	if !slices.Equal(got.Parents, []string{"genre-rock", "genre-blues"}) {
		t.Errorf("Parents: got %v", got.Parents)
	}
	if !slices.Equal(got.Influences, []string{"genre-blues"}) {
		t.Errorf("Influences: got %v", got.Influences)
	}
	if !got.AKAs.Equal(g.AKAs) {
		t.Errorf("AKAs: got %+v, want %+v", got.AKAs, g.AKAs)
	}
	if !got.CreatedAt.Equal(g.CreatedAt) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, g.CreatedAt)
	}
}

func TestFindGenreByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindGenreByID(context.Background(), "nonexistent")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveGenre_DuplicateInsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveGenre(ctx, makeTestGenre("genre-1", "Rock")); err != nil {
		t.Fatalf("SaveGenre: %v", err)
	}
	err := s.SaveGenre(ctx, makeTestGenre("genre-1", "Rock again"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestSaveGenre_MissingParentRejected(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveGenre(context.Background(), makeTestGenre("genre-1", "Rock", "ghost"))
	if err == nil {
		t.Fatal("expected foreign key failure for unknown parent")
	}
	if _, err := s.FindGenreByID(context.Background(), "genre-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("partial write left genre behind: %v", err)
	}
}

func TestSaveGenre_CompareAndSwap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveGenre(ctx, makeTestGenre("genre-1", "Rock")); err != nil {
		t.Fatalf("SaveGenre: %v", err)
	}

	first, _ := s.FindGenreByID(ctx, "genre-1")
	second, _ := s.FindGenreByID(ctx, "genre-1")

	first.Name = "Rock & Roll"
	first.AKAs.Primary = []string{"R&R"}
	if err := s.SaveGenre(ctx, first); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("Version: got %d, want 2", first.Version)
	}

	second.Name = "Rock Music"
	if err := s.SaveGenre(ctx, second); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("stale update: expected ErrConflict, got %v", err)
	}

	got, _ := s.FindGenreByID(ctx, "genre-1")
	if got.Name != "Rock & Roll" || got.Version != 2 {
		t.Errorf("stale write leaked: %q v%d", got.Name, got.Version)
	}
	if !slices.Equal(got.AKAs.Primary, []string{"R&R"}) {
		t.Errorf("AKAs not replaced: %v", got.AKAs.Primary)
	}

	gone := makeTestGenre("genre-missing", "Missing")
	gone.Version = 3
	if err := s.SaveGenre(ctx, gone); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update of missing genre: expected ErrNotFound, got %v", err)
	}
}

func TestSaveGenre_UpdateKeepsRelevance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := makeTestGenre("genre-1", "Rock")
	if err := s.SaveGenre(ctx, g); err != nil {
		t.Fatalf("SaveGenre: %v", err)
	}
	if err := s.SetGenreRelevance(ctx, "genre-1", 5); err != nil {
		t.Fatalf("SetGenreRelevance: %v", err)
	}

	// g still carries the stale relevance; saving must not overwrite it.
	g.Name = "Rock Music"
	if err := s.SaveGenre(ctx, g); err != nil {
		t.Fatalf("SaveGenre: %v", err)
	}

	got, _ := s.FindGenreByID(ctx, "genre-1")
	if got.Relevance != 5 {
		t.Errorf("Relevance: got %d, want 5", got.Relevance)
	}
	if got.Version != 2 {
		t.Errorf("relevance writes must not bump version: got v%d", got.Version)
	}

	if err := s.SetGenreRelevance(ctx, "missing", 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindTreeSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, g := range []*domain.Genre{
		makeTestGenre("b", "B"),
		makeTestGenre("a", "A"),
		makeTestGenre("c", "C", "b", "a"),
	} {
		if err := s.SaveGenre(ctx, g); err != nil {
			t.Fatalf("SaveGenre %s: %v", g.ID, err)
		}
	}

	nodes, err := s.FindTreeSnapshot(ctx)
	if err != nil {
		t.Fatalf("FindTreeSnapshot: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(nodes))
	}

	// Insertion order, not id order.
	ids := []string{nodes[0].ID, nodes[1].ID, nodes[2].ID}
	if !slices.Equal(ids, []string{"b", "a", "c"}) {
		t.Errorf("order: got %v", ids)
	}
	if nodes[2].Name != "C" || !slices.Equal(nodes[2].Parents, []string{"b", "a"}) {
		t.Errorf("node c: got %+v", nodes[2])
	}
	if len(nodes[0].Parents) != 0 {
		t.Errorf("node b parents: got %v", nodes[0].Parents)
	}
}

func TestListGenres(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root := makeTestGenre("root", "Root")
	child := makeTestGenre("child", "Child", "root")
	child.AKAs.Tertiary = []string{"Kid"}
	for _, g := range []*domain.Genre{root, child} {
		if err := s.SaveGenre(ctx, g); err != nil {
			t.Fatalf("SaveGenre: %v", err)
		}
	}

	genres, err := s.ListGenres(ctx)
	if err != nil {
		t.Fatalf("ListGenres: %v", err)
	}
	if len(genres) != 2 || genres[0].ID != "root" || genres[1].ID != "child" {
		t.Fatalf("unexpected genres: %+v", genres)
	}
	if !slices.Equal(genres[1].Parents, []string{"root"}) {
		t.Errorf("child parents: got %v", genres[1].Parents)
	}
	if !slices.Equal(genres[1].AKAs.Tertiary, []string{"Kid"}) {
		t.Errorf("child akas: got %+v", genres[1].AKAs)
	}
}

func TestDeleteGenre(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := makeTestGenre("a", "A")
	b := makeTestGenre("b", "B")
	b.Influences = []string{"a"}
	for _, g := range []*domain.Genre{a, b} {
		if err := s.SaveGenre(ctx, g); err != nil {
			t.Fatalf("SaveGenre: %v", err)
		}
	}
	if err := s.UpsertVote(ctx, &domain.GenreRelevanceVote{
		GenreID: "a", AccountID: "acct", Relevance: 3, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("UpsertVote: %v", err)
	}

	if err := s.DeleteGenre(ctx, "a"); err != nil {
		t.Fatalf("DeleteGenre: %v", err)
	}

	if _, err := s.FindGenreByID(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted genre still found: %v", err)
	}
	votes, _ := s.FindVotesByGenreID(ctx, "a")
	if len(votes) != 0 {
		t.Errorf("votes did not cascade: %d left", len(votes))
	}
	got, _ := s.FindGenreByID(ctx, "b")
	if len(got.Influences) != 0 {
		t.Errorf("influence edge did not cascade: %v", got.Influences)
	}

	if err := s.DeleteGenre(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteGenre_StillAParent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, g := range []*domain.Genre{makeTestGenre("p", "P"), makeTestGenre("c", "C", "p")} {
		if err := s.SaveGenre(ctx, g); err != nil {
			t.Fatalf("SaveGenre: %v", err)
		}
	}

	if err := s.DeleteGenre(ctx, "p"); err == nil {
		t.Fatal("expected deleting a referenced parent to fail")
	}
}
