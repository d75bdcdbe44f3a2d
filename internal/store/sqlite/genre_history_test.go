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

func TestCreateAndListHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := makeTestGenre("genre-1", "Shoegaze", "genre-rock")
	g.Subtitle = "UK"
	g.Influences = []string{"genre-dream-pop"}
	g.AKAs = domain.GenreAkas{Primary: []string{"Gaze"}, Tertiary: []string{"Nu Gaze"}}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	created := domain.NewGenreHistory(g.ID, g, domain.OperationCreate, "acct-1", base)
	if err := s.CreateHistory(ctx, created); err != nil {
		t.Fatalf("CreateHistory: %v", err)
	}
	if created.ID == "" {
		t.Fatal("CreateHistory did not assign an ID")
	}

	g.Name = "Shoegazing"
	updated := domain.NewGenreHistory(g.ID, g, domain.OperationUpdate, "acct-2", base.Add(time.Second))
	if err := s.CreateHistory(ctx, updated); err != nil {
		t.Fatalf("CreateHistory: %v", err)
	}

	history, err := s.ListHistoryByGenreID(ctx, "genre-1")
	if err != nil {
		t.Fatalf("ListHistoryByGenreID: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d rows, want 2", len(history))
	}

	first := history[0]
	if first.Operation != domain.OperationCreate || first.AccountID != "acct-1" {
		t.Errorf("first row: got %s by %s", first.Operation, first.AccountID)
	}
	if first.Name != "Shoegaze" || first.Subtitle != "UK" {
		t.Errorf("first row name: got %q %q", first.Name, first.Subtitle)
	}
	if !slices.Equal(first.Parents, []string{"genre-rock"}) || !slices.Equal(first.Influences, []string{"genre-dream-pop"}) {
		t.Errorf("first row edges: %v %v", first.Parents, first.Influences)
	}
	if !first.AKAs.Equal(g.AKAs) {
		t.Errorf("first row akas: got %+v", first.AKAs)
	}
	if !first.CreatedAt.Equal(base) {
		t.Errorf("first row time: got %v", first.CreatedAt)
	}
	if history[1].Name != "Shoegazing" || history[1].Operation != domain.OperationUpdate {
		t.Errorf("second row: got %q %s", history[1].Name, history[1].Operation)
	}
}

func TestFindLatestHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.FindLatestHistoryByGenreID(ctx, "genre-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty history, got %v", err)
	}

	g := makeTestGenre("genre-1", "One")
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Same timestamp: insertion order breaks the tie.
	for _, name := range []string{"One", "Two", "Three"} {
		g.Name = name
		if err := s.CreateHistory(ctx, domain.NewGenreHistory(g.ID, g, domain.OperationUpdate, "acct", at)); err != nil {
			t.Fatalf("CreateHistory: %v", err)
		}
	}

	latest, err := s.FindLatestHistoryByGenreID(ctx, "genre-1")
	if err != nil {
		t.Fatalf("FindLatestHistoryByGenreID: %v", err)
	}
	if latest.Name != "Three" {
		t.Errorf("latest: got %q, want Three", latest.Name)
	}
}

func TestFindLatestHistory_FollowsWriteOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := makeTestGenre("genre-1", "First")
	at := time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC)

	// The second row carries an earlier timestamp, as after a clock step
	// back or when a command that read the clock first commits second.
	g.Name = "First"
	if err := s.CreateHistory(ctx, domain.NewGenreHistory(g.ID, g, domain.OperationCreate, "acct", at)); err != nil {
		t.Fatalf("CreateHistory: %v", err)
	}
	g.Name = "Second"
	if err := s.CreateHistory(ctx, domain.NewGenreHistory(g.ID, g, domain.OperationUpdate, "acct", at.Add(-5*time.Second))); err != nil {
		t.Fatalf("CreateHistory: %v", err)
	}

	latest, err := s.FindLatestHistoryByGenreID(ctx, "genre-1")
	if err != nil {
		t.Fatalf("FindLatestHistoryByGenreID: %v", err)
	}
	if latest.Name != "Second" {
		t.Errorf("latest: got %q, want Second", latest.Name)
	}

	history, err := s.ListHistoryByGenreID(ctx, "genre-1")
	if err != nil {
		t.Fatalf("ListHistoryByGenreID: %v", err)
	}
	if len(history) != 2 || history[0].Name != "First" || history[1].Name != "Second" {
		t.Errorf("history order: got %+v", history)
	}
}

func TestHistory_OutlivesGenre(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := makeTestGenre("genre-1", "Ephemeral")
	if err := s.SaveGenre(ctx, g); err != nil {
		t.Fatalf("SaveGenre: %v", err)
	}
	if err := s.CreateHistory(ctx, domain.NewGenreHistory(g.ID, g, domain.OperationDelete, "acct", time.Now())); err != nil {
		t.Fatalf("CreateHistory: %v", err)
	}
	if err := s.DeleteGenre(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGenre: %v", err)
	}

	history, err := s.ListHistoryByGenreID(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListHistoryByGenreID: %v", err)
	}
	if len(history) != 1 || history[0].Operation != domain.OperationDelete {
		t.Errorf("history after delete: %+v", history)
	}
}

func TestHistory_EmptyEdgesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := makeTestGenre("genre-1", "Bare")
	g.Parents = nil
	g.Influences = nil
	if err := s.CreateHistory(ctx, domain.NewGenreHistory(g.ID, g, domain.OperationCreate, "acct", time.Now())); err != nil {
		t.Fatalf("CreateHistory: %v", err)
	}

	var parents string
	if err := s.db.QueryRow(`SELECT parents FROM genre_history WHERE genre_id = ?`, g.ID).Scan(&parents); err != nil {
		t.Fatalf("query parents column: %v", err)
	}
	if parents != "[]" {
		t.Errorf("parents column: got %s, want []", parents)
	}

	latest, err := s.FindLatestHistoryByGenreID(ctx, g.ID)
	if err != nil {
		t.Fatalf("FindLatestHistoryByGenreID: %v", err)
	}
	if g.IsChangedFrom(latest) {
		t.Error("a snapshot must compare equal to the genre it was taken from")
	}
}
