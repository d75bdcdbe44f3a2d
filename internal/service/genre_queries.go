package service

import (
	"context"
	"slices"
	"strings"

	"github.com/genrewiki/genrewiki-server/internal/domain"
	"github.com/genrewiki/genrewiki-server/internal/genre"
	"github.com/genrewiki/genrewiki-server/internal/search"
)

// GenreSearcher answers full-text genre queries.
type GenreSearcher interface {
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
}

// SetSearcher sets the full-text backend used by SearchGenres. Without one,
// SearchGenres scans the store.
func (s *GenreService) SetSearcher(searcher GenreSearcher) {
	s.searcher = searcher
}

// GetGenre returns a single genre.
func (s *GenreService) GetGenre(ctx context.Context, genreID string) (*domain.Genre, error) {
	g, err := s.store.FindGenreByID(ctx, genreID)
	if err != nil {
		return nil, storeError(err, genreID)
	}
	return g, nil
}

// ListGenres returns every genre in creation order.
func (s *GenreService) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	return s.store.ListGenres(ctx)
}

// ListHistory returns a genre's audit trail, oldest first. It works for
// deleted genres too.
func (s *GenreService) ListHistory(ctx context.Context, genreID string) ([]*domain.GenreHistory, error) {
	return s.store.ListHistoryByGenreID(ctx, genreID)
}

// ListVotes returns every relevance vote cast on a genre.
func (s *GenreService) ListVotes(ctx context.Context, genreID string) ([]*domain.GenreRelevanceVote, error) {
	if _, err := s.GetGenre(ctx, genreID); err != nil {
		return nil, err
	}
	return s.store.FindVotesByGenreID(ctx, genreID)
}

// Tree returns the current hierarchy.
func (s *GenreService) Tree(ctx context.Context) (*genre.Tree, error) {
	return genre.LoadTree(ctx, s.store)
}

// SearchGenres runs a genre search.
func (s *GenreService) SearchGenres(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if s.searcher != nil {
		return s.searcher.Search(ctx, params)
	}

	genres, err := s.store.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	return scanGenres(genres, params), nil
}

// scanGenres is the index-free fallback: a case-insensitive substring match
// on names and alternate names with the same filters as the index.
func scanGenres(genres []*domain.Genre, params search.SearchParams) *search.SearchResult {
	q := strings.ToLower(strings.TrimSpace(params.Query))

	hits := make([]search.SearchHit, 0)
	for _, g := range genres {
		if g.NSFW && !params.IncludeNSFW {
			continue
		}
		if len(params.Types) > 0 && !slices.Contains(params.Types, g.Type) {
			continue
		}
		if params.ParentID != "" && !g.HasParent(params.ParentID) {
			continue
		}
		if params.MinRelevance != nil && (!g.IsRated() || g.Relevance < *params.MinRelevance) {
			continue
		}

		score := matchScore(g, q)
		if score == 0 {
			continue
		}
		hits = append(hits, search.SearchHit{
			ID:        g.ID,
			Score:     score,
			Name:      g.Name,
			Subtitle:  g.Subtitle,
			Type:      g.Type,
			AKAs:      g.AKAs.All(),
			Relevance: g.Relevance,
		})
	}

	// Stable keeps creation order among equal scores.
	slices.SortStableFunc(hits, func(a, b search.SearchHit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	result := &search.SearchResult{Query: params.Query, Total: uint64(len(hits))}

	limit := params.Limit
	if limit <= 0 {
		limit = search.DefaultSearchParams().Limit
	}
	start := min(max(params.Offset, 0), len(hits))
	end := min(start+limit, len(hits))
	result.Hits = hits[start:end]
	return result
}

// matchScore ranks a name match above an alternate-name match. An empty
// query matches everything.
func matchScore(g *domain.Genre, q string) float64 {
	if q == "" {
		return 1
	}
	if strings.Contains(strings.ToLower(g.Name), q) {
		return 3
	}
	for _, aka := range g.AKAs.All() {
		if strings.Contains(strings.ToLower(aka), q) {
			return 2
		}
	}
	if strings.Contains(strings.ToLower(g.Subtitle), q) {
		return 1
	}
	return 0
}
