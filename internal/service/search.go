package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/genrewiki/genrewiki-server/internal/search"
	"github.com/genrewiki/genrewiki-server/internal/store"
)

// SearchService bridges the genre index with the store: it answers queries
// and rebuilds the index from the authoritative rows.
type SearchService struct {
	index  *search.GenreIndex
	store  store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.GenreIndex, genreStore store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  genreStore,
		logger: logger,
	}
}

// Search runs a full-text genre query.
func (s *SearchService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	return s.index.Search(ctx, params)
}

// Reindex rebuilds the whole index from the store and returns the number of
// genres indexed.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	genres, err := s.store.ListGenres(ctx)
	if err != nil {
		return 0, fmt.Errorf("list genres: %w", err)
	}
	if err := s.index.ReindexAll(ctx, genres); err != nil {
		return 0, fmt.Errorf("reindex genres: %w", err)
	}
	s.logger.Info("search index rebuilt", "genres", len(genres))
	return len(genres), nil
}

// EnsureIndexed rebuilds the index when it is empty but the store is not,
// which happens after a mapping change discards the old index.
func (s *SearchService) EnsureIndexed(ctx context.Context) error {
	count, err := s.index.DocumentCount()
	if err != nil {
		return fmt.Errorf("count indexed genres: %w", err)
	}
	if count > 0 {
		return nil
	}
	_, err = s.Reindex(ctx)
	return err
}
