// Package store defines the persistence boundary of the genre wiki: one
// repository per collaborator and a transaction that spans all of them.
package store

import (
	"context"

	"github.com/genrewiki/genrewiki-server/internal/domain"
	"github.com/genrewiki/genrewiki-server/internal/genre"
)

// GenreRepository persists genres together with their AKA rows and their
// parent and influence edges.
type GenreRepository interface {
	// FindGenreByID returns ErrNotFound when the genre does not exist.
	FindGenreByID(ctx context.Context, id string) (*domain.Genre, error)
	// FindTreeSnapshot returns every genre's id, name and parents in
	// insertion order.
	FindTreeSnapshot(ctx context.Context) ([]genre.Node, error)
	// SaveGenre inserts a genre with Version 0 and otherwise replaces the
	// stored row, AKAs and edges if Version still matches, returning
	// ErrConflict if not. On success g.Version holds the stored version.
	SaveGenre(ctx context.Context, g *domain.Genre) error
	// SetGenreRelevance stores a recomputed relevance without bumping the version.
	SetGenreRelevance(ctx context.Context, id string, relevance int) error
	// DeleteGenre removes the genre; edges and votes cascade.
	DeleteGenre(ctx context.Context, id string) error
	// ListGenres returns every genre in insertion order.
	ListGenres(ctx context.Context) ([]*domain.Genre, error)
}

// HistoryRepository appends and reads immutable genre snapshots.
type HistoryRepository interface {
	// CreateHistory appends h and assigns its ID.
	CreateHistory(ctx context.Context, h *domain.GenreHistory) error
	// FindLatestHistoryByGenreID returns ErrNotFound when the genre has no history.
	FindLatestHistoryByGenreID(ctx context.Context, genreID string) (*domain.GenreHistory, error)
	// ListHistoryByGenreID returns snapshots oldest first.
	ListHistoryByGenreID(ctx context.Context, genreID string) ([]*domain.GenreHistory, error)
}

// VoteRepository stores one relevance vote per account per genre.
type VoteRepository interface {
	// UpsertVote inserts or replaces the vote keyed by (GenreID, AccountID).
	UpsertVote(ctx context.Context, v *domain.GenreRelevanceVote) error
	// DeleteVote removes a vote; a missing vote is not an error.
	DeleteVote(ctx context.Context, genreID, accountID string) error
	// FindVotesByGenreID returns every vote for a genre.
	FindVotesByGenreID(ctx context.Context, genreID string) ([]*domain.GenreRelevanceVote, error)
}

// Repositories groups every repository. Implementations are bound either to
// the database directly or to one open transaction.
type Repositories interface {
	GenreRepository
	HistoryRepository
	VoteRepository
}

// Store is the full persistence layer.
type Store interface {
	Repositories

	// WithTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise; fn's error is returned as is.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	Close() error
}
