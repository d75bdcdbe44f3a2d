package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/genrewiki/genrewiki-server/internal/domain"
	"github.com/genrewiki/genrewiki-server/internal/genre"
	"github.com/genrewiki/genrewiki-server/internal/id"
	"github.com/genrewiki/genrewiki-server/internal/store"
	"github.com/genrewiki/genrewiki-server/internal/validation"
)

// GenreService runs the genre commands. Each command is one store
// transaction that loads what it needs, checks every invariant against the
// candidate state, and only then writes genre rows and audit history.
//
// Business failures are always a domain.GenreError; anything else is an
// infrastructure error.
type GenreService struct {
	store     store.Store
	indexer   store.GenreIndexer
	searcher  GenreSearcher
	logger    *slog.Logger
	validator *validation.Validator
	now       func() time.Time
}

// NewGenreService creates a new genre service.
func NewGenreService(genreStore store.Store, logger *slog.Logger) *GenreService {
	return &GenreService{
		store:     genreStore,
		indexer:   store.NewNoopGenreIndexer(),
		logger:    logger,
		validator: validation.New(),
		now:       time.Now,
	}
}

// SetIndexer sets the index kept current after each committed command.
func (s *GenreService) SetIndexer(indexer store.GenreIndexer) {
	if indexer == nil {
		indexer = store.NewNoopGenreIndexer()
	}
	s.indexer = indexer
}

// CreateGenreRequest contains fields for creating a genre.
type CreateGenreRequest struct {
	// ID is optional; a new id is generated when empty.
	ID               string           `json:"id,omitempty"`
	Name             string           `json:"name"`
	Subtitle         string           `json:"subtitle,omitempty"`
	Type             domain.GenreType `json:"type"`
	ShortDescription string           `json:"short_description,omitempty"`
	LongDescription  string           `json:"long_description,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	NSFW             bool             `json:"nsfw"`
	Parents          []string         `json:"parents"`
	Influences       []string         `json:"influences"`
	AKAs             domain.GenreAkas `json:"akas"`
	// Relevance is the creator's own vote. Nil or RelevanceUnset casts none.
	Relevance *int `json:"relevance,omitempty"`
}

// genreShape bounds the size of a genre's fields.
type genreShape struct {
	ID               string   `json:"id" validate:"max=64"`
	Name             string   `json:"name" validate:"max=200"`
	Subtitle         string   `json:"subtitle" validate:"max=200"`
	ShortDescription string   `json:"short_description" validate:"max=500"`
	LongDescription  string   `json:"long_description" validate:"max=50000"`
	Notes            string   `json:"notes" validate:"max=50000"`
	Parents          []string `json:"parents" validate:"max=64"`
	Influences       []string `json:"influences" validate:"max=64"`
	PrimaryAKAs      []string `json:"akas.primary" validate:"max=100,dive,max=200"`
	SecondaryAKAs    []string `json:"akas.secondary" validate:"max=100,dive,max=200"`
	TertiaryAKAs     []string `json:"akas.tertiary" validate:"max=100,dive,max=200"`
}

func (s *GenreService) checkShape(g *domain.Genre) error {
	fields := s.validator.Check(genreShape{
		ID:               g.ID,
		Name:             g.Name,
		Subtitle:         g.Subtitle,
		ShortDescription: g.ShortDescription,
		LongDescription:  g.LongDescription,
		Notes:            g.Notes,
		Parents:          g.Parents,
		Influences:       g.Influences,
		PrimaryAKAs:      g.AKAs.Primary,
		SecondaryAKAs:    g.AKAs.Secondary,
		TertiaryAKAs:     g.AKAs.Tertiary,
	})
	if len(fields) == 0 {
		return nil
	}
	return &domain.ValidationError{Field: fields[0].Field, Reason: fields[0].Reason}
}

func checkAccount(accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return &domain.ValidationError{Field: "account_id", Reason: "is required"}
	}
	return nil
}

// CreateGenre creates a genre, records its CREATE history row and, when the
// request carries a relevance, casts the creator's vote.
func (s *GenreService) CreateGenre(ctx context.Context, accountID string, req CreateGenreRequest) (*domain.Genre, error) {
	if err := checkAccount(accountID); err != nil {
		return nil, s.rejected("create", "", err)
	}

	genreID := req.ID
	if genreID == "" {
		var err error
		if genreID, err = id.NewGenreID(); err != nil {
			return nil, err
		}
	}

	now := s.now()
	g, err := domain.NewGenre(domain.GenreParams{
		ID:               genreID,
		Name:             req.Name,
		Subtitle:         req.Subtitle,
		Type:             req.Type,
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		Notes:            req.Notes,
		NSFW:             req.NSFW,
		Parents:          req.Parents,
		Influences:       req.Influences,
		AKAs:             req.AKAs,
	}, now)
	if err != nil {
		return nil, s.rejected("create", genreID, err)
	}
	if err := s.checkShape(g); err != nil {
		return nil, s.rejected("create", genreID, err)
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		tree, err := genre.LoadTree(ctx, tx)
		if err != nil {
			return err
		}
		if tree.Has(g.ID) {
			return &domain.ConflictError{GenreID: g.ID}
		}
		if missing, ok := tree.FirstMissing(withoutID(g.Parents, g.ID), g.Influences); ok {
			return &domain.NotFoundError{GenreID: missing}
		}
		if err := tree.Insert(g.ID, g.Name, g.Parents); err != nil {
			return err
		}

		if err := tx.SaveGenre(ctx, g); err != nil {
			return storeError(err, g.ID)
		}
		if err := appendHistory(ctx, tx, g, domain.OperationCreate, accountID, now); err != nil {
			return err
		}

		if req.Relevance != nil && *req.Relevance != domain.RelevanceUnset {
			relevance, err := castVote(ctx, tx, g.ID, *req.Relevance, accountID, now)
			if err != nil {
				return err
			}
			g.Relevance = relevance
		}
		return nil
	})
	if err != nil {
		return nil, s.rejected("create", g.ID, err)
	}

	s.logger.Info("genre created",
		"genre_id", g.ID,
		"name", g.Name,
		"account_id", accountID,
		"parents", len(g.Parents),
	)
	s.index(ctx, g)
	return g, nil
}

// UpdateGenre applies patch to a genre. An update identical to the latest
// history row is rejected with *domain.NoUpdatesError before the hierarchy
// is even loaded.
func (s *GenreService) UpdateGenre(ctx context.Context, accountID, genreID string, patch domain.GenrePatch) (*domain.Genre, error) {
	if err := checkAccount(accountID); err != nil {
		return nil, s.rejected("update", genreID, err)
	}

	var updated *domain.Genre

	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		// Stamped under the write lock so timestamps follow commit order.
		now := s.now()
		current, err := tx.FindGenreByID(ctx, genreID)
		if err != nil {
			return storeError(err, genreID)
		}

		next, err := current.WithUpdate(patch, now)
		if err != nil {
			return err
		}
		if err := s.checkShape(next); err != nil {
			return err
		}

		latest, err := tx.FindLatestHistoryByGenreID(ctx, genreID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if !next.IsChangedFrom(latest) {
			return &domain.NoUpdatesError{GenreID: genreID}
		}

		tree, err := genre.LoadTree(ctx, tx)
		if err != nil {
			return err
		}
		if missing, ok := tree.FirstMissing(next.Parents, next.Influences); ok {
			return &domain.NotFoundError{GenreID: missing}
		}
		if err := tree.Update(next.ID, next.Name, next.Parents); err != nil {
			return err
		}

		if err := tx.SaveGenre(ctx, next); err != nil {
			return storeError(err, genreID)
		}
		if err := appendHistory(ctx, tx, next, domain.OperationUpdate, accountID, now); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, s.rejected("update", genreID, err)
	}

	s.logger.Info("genre updated",
		"genre_id", updated.ID,
		"name", updated.Name,
		"account_id", accountID,
		"version", updated.Version,
	)
	s.index(ctx, updated)
	return updated, nil
}

// DeleteGenreResult describes a committed deletion.
type DeleteGenreResult struct {
	Deleted *domain.Genre `json:"deleted"`
	// Reparented holds the former children with their new parents, in
	// hierarchy order.
	Reparented []*domain.Genre `json:"reparented"`
}

// DeleteGenre removes a genre. Its children first inherit its parents, so no
// ancestry is lost, then one DELETE history row is written for the genre and
// one UPDATE row for each reparented child.
func (s *GenreService) DeleteGenre(ctx context.Context, accountID, genreID string) (*DeleteGenreResult, error) {
	if err := checkAccount(accountID); err != nil {
		return nil, s.rejected("delete", genreID, err)
	}

	var result DeleteGenreResult

	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		now := s.now()
		deleted, err := tx.FindGenreByID(ctx, genreID)
		if err != nil {
			return storeError(err, genreID)
		}

		tree, err := genre.LoadTree(ctx, tx)
		if err != nil {
			return err
		}

		var reparented []*domain.Genre
		for _, childID := range tree.Delete(genreID) {
			child, err := tx.FindGenreByID(ctx, childID)
			if err != nil {
				return storeError(err, childID)
			}
			child.Parents = tree.Parents(childID)
			// The influence edge would cascade away; keep the snapshot honest.
			child.Influences = withoutID(child.Influences, genreID)
			child.Touch(now)

			if err := tx.SaveGenre(ctx, child); err != nil {
				return storeError(err, childID)
			}
			reparented = append(reparented, child)
		}

		if err := tx.DeleteGenre(ctx, genreID); err != nil {
			return storeError(err, genreID)
		}

		if err := appendHistory(ctx, tx, deleted, domain.OperationDelete, accountID, now); err != nil {
			return err
		}
		for _, child := range reparented {
			if err := appendHistory(ctx, tx, child, domain.OperationUpdate, accountID, now); err != nil {
				return err
			}
		}

		result = DeleteGenreResult{Deleted: deleted, Reparented: reparented}
		return nil
	})
	if err != nil {
		return nil, s.rejected("delete", genreID, err)
	}

	s.logger.Info("genre deleted",
		"genre_id", genreID,
		"name", result.Deleted.Name,
		"account_id", accountID,
		"reparented", len(result.Reparented),
	)
	if err := s.indexer.DeleteGenre(ctx, genreID); err != nil {
		s.logger.Warn("failed to remove genre from search index", "genre_id", genreID, "error", err)
	}
	s.index(ctx, result.Reparented...)
	return &result, nil
}

// VoteGenreRelevance records accountID's vote on a genre and recomputes the
// genre's relevance. domain.RelevanceUnset retracts the caller's vote.
func (s *GenreService) VoteGenreRelevance(ctx context.Context, accountID, genreID string, relevance int) (*domain.Genre, error) {
	if err := checkAccount(accountID); err != nil {
		return nil, s.rejected("vote", genreID, err)
	}

	var g *domain.Genre

	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		now := s.now()
		var err error
		if g, err = tx.FindGenreByID(ctx, genreID); err != nil {
			return storeError(err, genreID)
		}
		g.Relevance, err = castVote(ctx, tx, genreID, relevance, accountID, now)
		return err
	})
	if err != nil {
		return nil, s.rejected("vote", genreID, err)
	}

	s.logger.Info("genre relevance voted",
		"genre_id", genreID,
		"account_id", accountID,
		"retracted", relevance == domain.RelevanceUnset,
		"relevance", g.Relevance,
	)
	s.index(ctx, g)
	return g, nil
}

// castVote upserts or retracts one vote and stores the recomputed consensus.
// The caller has already checked that the genre exists.
func castVote(ctx context.Context, tx store.Repositories, genreID string, relevance int, accountID string, now time.Time) (int, error) {
	if relevance == domain.RelevanceUnset {
		if err := tx.DeleteVote(ctx, genreID, accountID); err != nil {
			return 0, err
		}
	} else {
		if !domain.ValidRelevance(relevance) {
			return 0, &domain.InvalidGenreRelevanceError{Value: relevance}
		}
		vote := &domain.GenreRelevanceVote{
			GenreID:   genreID,
			AccountID: accountID,
			Relevance: relevance,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.UpsertVote(ctx, vote); err != nil {
			return 0, err
		}
	}

	votes, err := tx.FindVotesByGenreID(ctx, genreID)
	if err != nil {
		return 0, err
	}
	consensus := genre.ConsensusOf(votes)
	if err := tx.SetGenreRelevance(ctx, genreID, consensus); err != nil {
		return 0, storeError(err, genreID)
	}
	return consensus, nil
}

func appendHistory(ctx context.Context, tx store.Repositories, g *domain.Genre, op domain.Operation, accountID string, at time.Time) error {
	return tx.CreateHistory(ctx, domain.NewGenreHistory(g.ID, g, op, accountID, at))
}

// storeError converts store sentinels into genre errors for genreID.
func storeError(err error, genreID string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &domain.NotFoundError{GenreID: genreID}
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrAlreadyExists):
		return &domain.ConflictError{GenreID: genreID}
	default:
		return err
	}
}

// rejected logs business failures at debug level and passes err through.
func (s *GenreService) rejected(command, genreID string, err error) error {
	var genreErr domain.GenreError
	if errors.As(err, &genreErr) {
		s.logger.Debug("genre command rejected",
			"command", command,
			"genre_id", genreID,
			"code", genreErr.Code(),
			"error", err,
		)
	}
	return err
}

// index pushes committed genres to the search index. Failures are logged
// and never undo the command.
func (s *GenreService) index(ctx context.Context, genres ...*domain.Genre) {
	for _, g := range genres {
		if err := s.indexer.IndexGenre(ctx, g); err != nil {
			s.logger.Warn("failed to index genre", "genre_id", g.ID, "error", err)
		}
	}
}

func withoutID(ids []string, id string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(x string) bool { return x == id })
}
