package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/genrewiki/genrewiki-server/internal/domain"
	"github.com/genrewiki/genrewiki-server/internal/genre"
	"github.com/genrewiki/genrewiki-server/internal/store"
)

// genreColumns is the ordered list of columns selected in genre queries.
// Must match the scan order in scanGenre.
const genreColumns = `id, created_at, updated_at, name, subtitle, type,
	short_description, long_description, notes, nsfw, relevance, version`

// scanGenre scans a sql.Row (or sql.Rows via its Scan method) into a domain.Genre
// without its AKAs or edges.
func scanGenre(scanner interface{ Scan(dest ...any) error }) (*domain.Genre, error) {
	var g domain.Genre

	var (
		createdAt        string
		updatedAt        string
		subtitle         sql.NullString
		shortDescription sql.NullString
		longDescription  sql.NullString
		notes            sql.NullString
		nsfw             int
	)

	err := scanner.Scan(
		&g.ID,
		&createdAt,
		&updatedAt,
		&g.Name,
		&subtitle,
		&g.Type,
		&shortDescription,
		&longDescription,
		&notes,
		&nsfw,
		&g.Relevance,
		&g.Version,
	)
	if err != nil {
		return nil, err
	}

	g.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	g.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	g.Subtitle = subtitle.String
	g.ShortDescription = shortDescription.String
	g.LongDescription = longDescription.String
	g.Notes = notes.String
	g.NSFW = nsfw != 0
	g.Parents = []string{}
	g.Influences = []string{}
	g.AKAs = domain.GenreAkas{Primary: []string{}, Secondary: []string{}, Tertiary: []string{}}

	return &g, nil
}

// FindGenreByID retrieves a genre with its AKAs and edges.
// Returns store.ErrNotFound if the genre does not exist.
func (r *repos) FindGenreByID(ctx context.Context, id string) (*domain.Genre, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+genreColumns+` FROM genres WHERE id = ?`, id)

	g, err := scanGenre(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan genre %s: %w", id, err)
	}

	byID := map[string]*domain.Genre{g.ID: g}
	if err := r.attachRelations(ctx, byID, `WHERE genre_id = ?`, id); err != nil {
		return nil, err
	}
	return g, nil
}

// ListGenres returns every genre in insertion order.
func (r *repos) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+genreColumns+` FROM genres ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer rows.Close()

	var genres []*domain.Genre
	byID := make(map[string]*domain.Genre)
	for rows.Next() {
		g, err := scanGenre(rows)
		if err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
		byID[g.ID] = g
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachRelations(ctx, byID, ``); err != nil {
		return nil, err
	}
	return genres, nil
}

// attachRelations fills parents, influences and AKAs for the genres in byID.
// where filters the relation tables by genre_id.
func (r *repos) attachRelations(ctx context.Context, byID map[string]*domain.Genre, where string, args ...any) error {
	edges := []struct {
		table  string
		column string
		apply  func(g *domain.Genre, id string)
	}{
		{"genre_parents", "parent_id", func(g *domain.Genre, id string) { g.Parents = append(g.Parents, id) }},
		{"genre_influences", "influence_id", func(g *domain.Genre, id string) { g.Influences = append(g.Influences, id) }},
	}

	for _, e := range edges {
		rows, err := r.q.QueryContext(ctx,
			`SELECT genre_id, `+e.column+` FROM `+e.table+` `+where+` ORDER BY genre_id, position`, args...)
		if err != nil {
			return fmt.Errorf("query %s: %w", e.table, err)
		}
		for rows.Next() {
			var genreID, target string
			if err := rows.Scan(&genreID, &target); err != nil {
				rows.Close()
				return fmt.Errorf("scan %s: %w", e.table, err)
			}
			if g, ok := byID[genreID]; ok {
				e.apply(g, target)
			}
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT genre_id, tier, name FROM genre_akas `+where+` ORDER BY genre_id, tier, position`, args...)
	if err != nil {
		return fmt.Errorf("query genre akas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var genreID, name string
		var tier domain.AkaTier
		if err := rows.Scan(&genreID, &tier, &name); err != nil {
			return fmt.Errorf("scan genre aka: %w", err)
		}
		g, ok := byID[genreID]
		if !ok {
			continue
		}
		switch tier {
		case domain.AkaTierPrimary:
			g.AKAs.Primary = append(g.AKAs.Primary, name)
		case domain.AkaTierSecondary:
			g.AKAs.Secondary = append(g.AKAs.Secondary, name)
		case domain.AkaTierTertiary:
			g.AKAs.Tertiary = append(g.AKAs.Tertiary, name)
		}
	}
	return rows.Err()
}

// FindTreeSnapshot returns every genre's id, name and ordered parents.
func (r *repos) FindTreeSnapshot(ctx context.Context) ([]genre.Node, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query genre nodes: %w", err)
	}
	var nodes []genre.Node
	index := make(map[string]int)
	for rows.Next() {
		var n genre.Node
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan genre node: %w", err)
		}
		index[n.ID] = len(nodes)
		nodes = append(nodes, n)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.q.QueryContext(ctx,
		`SELECT genre_id, parent_id FROM genre_parents ORDER BY genre_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query genre parents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var genreID, parentID string
		if err := rows.Scan(&genreID, &parentID); err != nil {
			return nil, fmt.Errorf("scan genre parent: %w", err)
		}
		if i, ok := index[genreID]; ok {
			nodes[i].Parents = append(nodes[i].Parents, parentID)
		}
	}
	return nodes, rows.Err()
}

// SaveGenre inserts a new genre (Version 0) or replaces an existing one if
// its version still matches. AKAs and edges are rewritten in full.
// Returns store.ErrAlreadyExists, store.ErrNotFound or store.ErrConflict.
func (r *repos) SaveGenre(ctx context.Context, g *domain.Genre) error {
	var next int
	if g.Version == 0 {
		if err := r.insertGenre(ctx, g); err != nil {
			return err
		}
		next = 1
	} else {
		if err := r.updateGenre(ctx, g); err != nil {
			return err
		}
		next = g.Version + 1
	}

	if err := r.replaceRelations(ctx, g); err != nil {
		return err
	}
	g.Version = next
	return nil
}

func (r *repos) insertGenre(ctx context.Context, g *domain.Genre) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO genres (
			id, created_at, updated_at, name, subtitle, type,
			short_description, long_description, notes, nsfw, relevance, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		g.ID,
		formatTime(g.CreatedAt),
		formatTime(g.UpdatedAt),
		g.Name,
		nullString(g.Subtitle),
		string(g.Type),
		nullString(g.ShortDescription),
		nullString(g.LongDescription),
		nullString(g.Notes),
		boolToInt(g.NSFW),
		g.Relevance,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert genre %s: %w", g.ID, err)
	}
	return nil
}

// updateGenre leaves relevance alone: it is derived from votes and only
// written through SetGenreRelevance.
func (r *repos) updateGenre(ctx context.Context, g *domain.Genre) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE genres SET
			updated_at = ?, name = ?, subtitle = ?, type = ?,
			short_description = ?, long_description = ?, notes = ?, nsfw = ?,
			version = version + 1
		WHERE id = ? AND version = ?`,
		formatTime(g.UpdatedAt),
		g.Name,
		nullString(g.Subtitle),
		string(g.Type),
		nullString(g.ShortDescription),
		nullString(g.LongDescription),
		nullString(g.Notes),
		boolToInt(g.NSFW),
		g.ID,
		g.Version,
	)
	if err != nil {
		return fmt.Errorf("update genre %s: %w", g.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	exists, err := r.genreExists(ctx, g.ID)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

func (r *repos) genreExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx, `SELECT 1 FROM genres WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check genre %s: %w", id, err)
	}
	return true, nil
}

func (r *repos) replaceRelations(ctx context.Context, g *domain.Genre) error {
	for _, table := range []string{"genre_parents", "genre_influences", "genre_akas"} {
		if _, err := r.q.ExecContext(ctx, `DELETE FROM `+table+` WHERE genre_id = ?`, g.ID); err != nil {
			return fmt.Errorf("clear %s for %s: %w", table, g.ID, err)
		}
	}

	for i, parentID := range g.Parents {
		if _, err := r.q.ExecContext(ctx,
			`INSERT INTO genre_parents (genre_id, parent_id, position) VALUES (?, ?, ?)`,
			g.ID, parentID, i); err != nil {
			return fmt.Errorf("insert parent %s of %s: %w", parentID, g.ID, err)
		}
	}
	for i, influenceID := range g.Influences {
		if _, err := r.q.ExecContext(ctx,
			`INSERT INTO genre_influences (genre_id, influence_id, position) VALUES (?, ?, ?)`,
			g.ID, influenceID, i); err != nil {
			return fmt.Errorf("insert influence %s of %s: %w", influenceID, g.ID, err)
		}
	}
	for _, tier := range domain.AkaTiers {
		for i, name := range g.AKAs.Tier(tier) {
			if _, err := r.q.ExecContext(ctx,
				`INSERT INTO genre_akas (genre_id, tier, position, name) VALUES (?, ?, ?, ?)`,
				g.ID, string(tier), i, name); err != nil {
				return fmt.Errorf("insert %s aka of %s: %w", tier, g.ID, err)
			}
		}
	}
	return nil
}

// SetGenreRelevance stores a recomputed relevance.
// Returns store.ErrNotFound if the genre does not exist.
func (r *repos) SetGenreRelevance(ctx context.Context, id string, relevance int) error {
	result, err := r.q.ExecContext(ctx, `UPDATE genres SET relevance = ? WHERE id = ?`, relevance, id)
	if err != nil {
		return fmt.Errorf("set relevance of %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteGenre removes a genre. Its own edges, AKAs and votes cascade; it must
// no longer be anyone's parent.
// Returns store.ErrNotFound if the genre does not exist.
func (r *repos) DeleteGenre(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM genres WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete genre %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SaveGenre on the store wraps the multi-table write in its own transaction.
func (s *Store) SaveGenre(ctx context.Context, g *domain.Genre) error {
	return s.WithTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		return tx.SaveGenre(ctx, g)
	})
}
