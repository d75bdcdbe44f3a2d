package store

import (
	"context"

	"github.com/genrewiki/genrewiki-server/internal/domain"
)

// GenreIndexer keeps a secondary search index in step with committed genre
// changes. It is called after commit; failures never undo a command.
type GenreIndexer interface {
	IndexGenre(ctx context.Context, g *domain.Genre) error
	DeleteGenre(ctx context.Context, genreID string) error
}

// NoopGenreIndexer discards every update.
type NoopGenreIndexer struct{}

// IndexGenre is a no-op.
func (NoopGenreIndexer) IndexGenre(context.Context, *domain.Genre) error { return nil }

// DeleteGenre is a no-op.
func (NoopGenreIndexer) DeleteGenre(context.Context, string) error { return nil }

// NewNoopGenreIndexer creates an indexer that does nothing.
func NewNoopGenreIndexer() GenreIndexer {
	return NoopGenreIndexer{}
}
