package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/genrewiki/genrewiki-server/internal/domain"
	"github.com/genrewiki/genrewiki-server/internal/id"
	"github.com/genrewiki/genrewiki-server/internal/store"
)

// historyColumns must match the scan order in scanHistory.
const historyColumns = `id, genre_id, name, subtitle, type, short_description,
	long_description, notes, nsfw, parents, influences, akas, operation,
	account_id, created_at`

// historyOrder sorts rows by write order. History rows are never deleted or
// rewritten, so rowid is append order even when caller clocks disagree.
const historyOrder = `rowid`

func scanHistory(scanner interface{ Scan(dest ...any) error }) (*domain.GenreHistory, error) {
	var h domain.GenreHistory

	var (
		subtitle         sql.NullString
		shortDescription sql.NullString
		longDescription  sql.NullString
		notes            sql.NullString
		nsfw             int
		parentsJSON      string
		influencesJSON   string
		akasJSON         string
		createdAt        string
	)

	err := scanner.Scan(
		&h.ID,
		&h.GenreID,
		&h.Name,
		&subtitle,
		&h.Type,
		&shortDescription,
		&longDescription,
		&notes,
		&nsfw,
		&parentsJSON,
		&influencesJSON,
		&akasJSON,
		&h.Operation,
		&h.AccountID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	h.Subtitle = subtitle.String
	h.ShortDescription = shortDescription.String
	h.LongDescription = longDescription.String
	h.Notes = notes.String
	h.NSFW = nsfw != 0

	if err := json.Unmarshal([]byte(parentsJSON), &h.Parents); err != nil {
		return nil, fmt.Errorf("unmarshal parents: %w", err)
	}
	if err := json.Unmarshal([]byte(influencesJSON), &h.Influences); err != nil {
		return nil, fmt.Errorf("unmarshal influences: %w", err)
	}
	if err := json.Unmarshal([]byte(akasJSON), &h.AKAs); err != nil {
		return nil, fmt.Errorf("unmarshal akas: %w", err)
	}

	h.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// CreateHistory appends a snapshot and assigns its ID.
func (r *repos) CreateHistory(ctx context.Context, h *domain.GenreHistory) error {
	if h.ID == "" {
		historyID, err := id.NewHistoryID()
		if err != nil {
			return err
		}
		h.ID = historyID
	}

	parentsJSON, err := marshalIDs(h.Parents)
	if err != nil {
		return err
	}
	influencesJSON, err := marshalIDs(h.Influences)
	if err != nil {
		return err
	}
	akasJSON, err := json.Marshal(h.AKAs)
	if err != nil {
		return fmt.Errorf("marshal akas: %w", err)
	}

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO genre_history (
			id, genre_id, name, subtitle, type, short_description,
			long_description, notes, nsfw, parents, influences, akas,
			operation, account_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID,
		h.GenreID,
		h.Name,
		nullString(h.Subtitle),
		string(h.Type),
		nullString(h.ShortDescription),
		nullString(h.LongDescription),
		nullString(h.Notes),
		boolToInt(h.NSFW),
		parentsJSON,
		influencesJSON,
		string(akasJSON),
		string(h.Operation),
		h.AccountID,
		formatTime(h.CreatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert history for %s: %w", h.GenreID, err)
	}
	return nil
}

// marshalIDs encodes an id list, writing [] rather than null for empty lists.
func marshalIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal ids: %w", err)
	}
	return string(b), nil
}

// FindLatestHistoryByGenreID returns the last snapshot written for a genre.
// Returns store.ErrNotFound if the genre has no history.
func (r *repos) FindLatestHistoryByGenreID(ctx context.Context, genreID string) (*domain.GenreHistory, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+historyColumns+` FROM genre_history
		WHERE genre_id = ?
		ORDER BY rowid DESC
		LIMIT 1`, genreID)

	h, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan latest history of %s: %w", genreID, err)
	}
	return h, nil
}

// ListHistoryByGenreID returns every snapshot of a genre, oldest first.
func (r *repos) ListHistoryByGenreID(ctx context.Context, genreID string) ([]*domain.GenreHistory, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+historyColumns+` FROM genre_history
		WHERE genre_id = ?
		ORDER BY `+historyOrder, genreID)
	if err != nil {
		return nil, fmt.Errorf("list history of %s: %w", genreID, err)
	}
	defer rows.Close()

	var history []*domain.GenreHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
