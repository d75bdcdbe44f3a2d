package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/genrewiki/genrewiki-server/internal/errors"
)

// CyclePathSeparator joins genre names in a cycle diagnostic.
const CyclePathSeparator = " → "

// GenreError is the closed set of business failures a genre command can
// return. Match a specific variant with errors.As.
type GenreError interface {
	error
	Code() apperrors.Code
	AppError() *apperrors.Error
	genreError()
}

// NotFoundError reports a genre id that does not exist, either the subject
// of a command or one referenced as a parent or influence.
type NotFoundError struct {
	GenreID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("genre %s not found", e.GenreID) }

// Code implements GenreError.
func (e *NotFoundError) Code() apperrors.Code { return apperrors.CodeNotFound }

// AppError implements GenreError.
func (e *NotFoundError) AppError() *apperrors.Error {
	return apperrors.New(e.Code(), e.Error()).WithDetails(map[string]string{"genre_id": e.GenreID})
}

func (*NotFoundError) genreError() {}

// ValidationError reports a field that fails a basic shape check.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + " " + e.Reason }

// Code implements GenreError.
func (e *ValidationError) Code() apperrors.Code { return apperrors.CodeValidation }

// AppError implements GenreError.
func (e *ValidationError) AppError() *apperrors.Error {
	return apperrors.ValidationWithDetails("validation failed", map[string]string{e.Field: e.Reason})
}

func (*ValidationError) genreError() {}

// SelfInfluenceError reports a genre listing itself as an influence.
type SelfInfluenceError struct {
	GenreID string
}

func (e *SelfInfluenceError) Error() string {
	return fmt.Sprintf("genre %s cannot influence itself", e.GenreID)
}

// Code implements GenreError.
func (e *SelfInfluenceError) Code() apperrors.Code { return apperrors.CodeSelfInfluence }

// AppError implements GenreError.
func (e *SelfInfluenceError) AppError() *apperrors.Error {
	return apperrors.ErrSelfInfluence.WithDetails(map[string]string{"genre_id": e.GenreID})
}

func (*SelfInfluenceError) genreError() {}

// DuplicateAkaError reports an alternate name that repeats within or across
// tiers. Tier is where the repeat was found, not the first occurrence.
type DuplicateAkaError struct {
	Aka  string
	Tier AkaTier
}

func (e *DuplicateAkaError) Error() string {
	return fmt.Sprintf("duplicate alternate name %q in %s tier", e.Aka, e.Tier)
}

// Code implements GenreError.
func (e *DuplicateAkaError) Code() apperrors.Code { return apperrors.CodeDuplicateAka }

// AppError implements GenreError.
func (e *DuplicateAkaError) AppError() *apperrors.Error {
	return apperrors.ErrDuplicateAka.WithDetails(map[string]string{"aka": e.Aka, "tier": string(e.Tier)})
}

func (*DuplicateAkaError) genreError() {}

// GenreCycleError reports that a proposed parent set would make a genre its
// own ancestor. IDs starts and ends with the repeated genre; Names holds the
// matching display names.
type GenreCycleError struct {
	IDs   []string
	Names []string
}

// Path renders the cycle as display names joined by an arrow.
func (e *GenreCycleError) Path() string {
	return strings.Join(e.Names, CyclePathSeparator)
}

func (e *GenreCycleError) Error() string {
	return "genre hierarchy would contain a cycle: " + e.Path()
}

// Code implements GenreError.
func (e *GenreCycleError) Code() apperrors.Code { return apperrors.CodeGenreCycle }

// AppError implements GenreError.
func (e *GenreCycleError) AppError() *apperrors.Error {
	return apperrors.ErrGenreCycle.WithDetails(map[string]any{"path": e.Path(), "ids": e.IDs})
}

func (*GenreCycleError) genreError() {}

// NoUpdatesError reports an update identical to the last recorded snapshot.
type NoUpdatesError struct {
	GenreID string
}

func (e *NoUpdatesError) Error() string {
	return fmt.Sprintf("genre %s: no changes since the last recorded revision", e.GenreID)
}

// Code implements GenreError.
func (e *NoUpdatesError) Code() apperrors.Code { return apperrors.CodeNoUpdates }

// AppError implements GenreError.
func (e *NoUpdatesError) AppError() *apperrors.Error {
	return apperrors.ErrNoUpdates.WithDetails(map[string]string{"genre_id": e.GenreID})
}

func (*NoUpdatesError) genreError() {}

// InvalidGenreRelevanceError reports a vote outside [MinRelevance, MaxRelevance].
type InvalidGenreRelevanceError struct {
	Value int
}

func (e *InvalidGenreRelevanceError) Error() string {
	return fmt.Sprintf("invalid relevance %d: must be between %d and %d", e.Value, MinRelevance, MaxRelevance)
}

// Code implements GenreError.
func (e *InvalidGenreRelevanceError) Code() apperrors.Code { return apperrors.CodeInvalidRelevance }

// AppError implements GenreError.
func (e *InvalidGenreRelevanceError) AppError() *apperrors.Error {
	return apperrors.ErrInvalidRelevance.WithDetails(map[string]int{"relevance": e.Value})
}

func (*InvalidGenreRelevanceError) genreError() {}

// ConflictError reports that a genre changed between being read and being
// written by the same command.
type ConflictError struct {
	GenreID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("genre %s was modified concurrently", e.GenreID)
}

// Code implements GenreError.
func (e *ConflictError) Code() apperrors.Code { return apperrors.CodeConflict }

// AppError implements GenreError.
func (e *ConflictError) AppError() *apperrors.Error {
	return apperrors.Conflictf("genre %s was modified concurrently", e.GenreID)
}

func (*ConflictError) genreError() {}
