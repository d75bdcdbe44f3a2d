package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/genrewiki/genrewiki-server/internal/domain"
	"github.com/genrewiki/genrewiki-server/internal/genre"
)

// SeedResult counts what a seed run did.
type SeedResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// SeedDefaultGenres creates the built-in music taxonomy on behalf of
// accountID. See SeedGenres.
func (s *GenreService) SeedDefaultGenres(ctx context.Context, accountID string) (*SeedResult, error) {
	seeds, err := genre.DefaultSeeds()
	if err != nil {
		return nil, err
	}
	return s.SeedGenres(ctx, accountID, seeds)
}

// SeedGenres creates every seed whose name is not taken yet, parents first,
// through CreateGenre so each one gets a CREATE history row. Names match
// case-insensitively; a skipped seed still serves as a parent for later ones.
// The run stops at the first failure; genres created before it stay.
func (s *GenreService) SeedGenres(ctx context.Context, accountID string, seeds []genre.Seed) (*SeedResult, error) {
	entries, err := genre.Flatten(seeds)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ListGenres(ctx)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	byName := make(map[string]string, len(existing)+len(entries))
	for _, g := range existing {
		byName[seedKey(g.Name)] = g.ID
	}

	result := &SeedResult{}
	for _, e := range entries {
		if _, ok := byName[seedKey(e.Name)]; ok {
			result.Skipped++
			continue
		}

		parents := make([]string, 0, len(e.Parents))
		for _, p := range e.Parents {
			parents = append(parents, byName[seedKey(p)])
		}

		typ := e.Type
		if typ == "" {
			typ = domain.GenreTypeStyle
		}

		g, err := s.CreateGenre(ctx, accountID, CreateGenreRequest{
			Name:             e.Name,
			Type:             typ,
			ShortDescription: e.Description,
			Parents:          parents,
			AKAs:             domain.GenreAkas{Primary: e.AKAs},
		})
		if err != nil {
			return result, fmt.Errorf("seed genre %q: %w", e.Name, err)
		}
		byName[seedKey(g.Name)] = g.ID
		result.Created++
	}

	s.logger.Info("genres seeded",
		"account_id", accountID,
		"created", result.Created,
		"skipped", result.Skipped,
	)
	return result, nil
}

func seedKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
