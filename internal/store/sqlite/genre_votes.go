package sqlite

import (
	"context"
	"fmt"

	"github.com/genrewiki/genrewiki-server/internal/domain"
)

// UpsertVote inserts a vote or replaces the caller's previous one, keeping
// the original created_at.
func (r *repos) UpsertVote(ctx context.Context, v *domain.GenreRelevanceVote) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO genre_relevance_votes (genre_id, account_id, relevance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (genre_id, account_id) DO UPDATE SET
			relevance = excluded.relevance,
			updated_at = excluded.updated_at`,
		v.GenreID,
		v.AccountID,
		v.Relevance,
		formatTime(v.CreatedAt),
		formatTime(v.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert vote on %s by %s: %w", v.GenreID, v.AccountID, err)
	}
	return nil
}

// DeleteVote removes an account's vote. Deleting a vote that does not exist
// is not an error.
func (r *repos) DeleteVote(ctx context.Context, genreID, accountID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM genre_relevance_votes WHERE genre_id = ? AND account_id = ?`,
		genreID, accountID)
	if err != nil {
		return fmt.Errorf("delete vote on %s by %s: %w", genreID, accountID, err)
	}
	return nil
}

// FindVotesByGenreID returns every vote for a genre, oldest first.
func (r *repos) FindVotesByGenreID(ctx context.Context, genreID string) ([]*domain.GenreRelevanceVote, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT genre_id, account_id, relevance, created_at, updated_at
		FROM genre_relevance_votes
		WHERE genre_id = ?
		ORDER BY created_at, account_id`, genreID)
	if err != nil {
		return nil, fmt.Errorf("list votes on %s: %w", genreID, err)
	}
	defer rows.Close()

	var votes []*domain.GenreRelevanceVote
	for rows.Next() {
		var (
			v         domain.GenreRelevanceVote
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&v.GenreID, &v.AccountID, &v.Relevance, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		if v.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if v.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		votes = append(votes, &v)
	}
	return votes, rows.Err()
}
