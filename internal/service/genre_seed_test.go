package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genrewiki/genrewiki-server/internal/domain"
	"github.com/genrewiki/genrewiki-server/internal/genre"
)

func findByName(t *testing.T, genres []*domain.Genre, name string) *domain.Genre {
	t.Helper()
	for _, g := range genres {
		if g.Name == name {
			return g
		}
	}
	t.Fatalf("genre %q not found", name)
	return nil
}

func TestSeedDefaultGenres(t *testing.T) {
	svc, s := setupTestGenreService(t)
	ctx := context.Background()

	seeds, err := genre.DefaultSeeds()
	require.NoError(t, err)
	entries, err := genre.Flatten(seeds)
	require.NoError(t, err)

	result, err := svc.SeedDefaultGenres(ctx, testAccount)
	require.NoError(t, err)
	assert.Equal(t, len(entries), result.Created)
	assert.Zero(t, result.Skipped)

	genres, err := s.ListGenres(ctx)
	require.NoError(t, err)
	require.Len(t, genres, len(entries))

	alt := findByName(t, genres, "Alternative Rock")
	gaze := findByName(t, genres, "Shoegaze")
	assert.Equal(t, []string{alt.ID}, gaze.Parents)
	assert.Equal(t, []string{"Shoegazing"}, gaze.AKAs.Primary)

	assert.Equal(t, []domain.Operation{domain.OperationCreate}, historyOps(t, s, gaze.ID))

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	assert.Nil(t, tree.FindCycle())

	// Seeding is idempotent.
	again, err := svc.SeedDefaultGenres(ctx, testAccount)
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Equal(t, len(entries), again.Skipped)
}

func TestSeedGenres_ReusesExistingParents(t *testing.T) {
	svc, s := setupTestGenreService(t)
	ctx := context.Background()

	createTestGenre(t, svc, "rock", "rock")

	result, err := svc.SeedGenres(ctx, testAccount, []genre.Seed{
		{
			Name: "Rock",
			Children: []genre.Seed{
				{Name: "Krautrock", Type: domain.GenreTypeScene},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)

	genres, err := s.ListGenres(ctx)
	require.NoError(t, err)
	kraut := findByName(t, genres, "Krautrock")
	assert.Equal(t, []string{"rock"}, kraut.Parents)
	assert.Equal(t, domain.GenreTypeScene, kraut.Type)
}

func TestSeedGenres_DefaultsType(t *testing.T) {
	svc, s := setupTestGenreService(t)
	ctx := context.Background()

	_, err := svc.SeedGenres(ctx, testAccount, []genre.Seed{{Name: "Drone"}})
	require.NoError(t, err)

	genres, err := s.ListGenres(ctx)
	require.NoError(t, err)
	require.Len(t, genres, 1)
	assert.Equal(t, domain.GenreTypeStyle, genres[0].Type)
}
