package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genrewiki/genrewiki-server/internal/store"
)

func TestError_Error(t *testing.T) {
	err := &store.Error{Code: http.StatusNotFound, Message: "not found"}
	assert.Equal(t, "not found", err.Error())

	cause := errors.New("underlying error")
	withCause := &store.Error{Code: http.StatusNotFound, Message: "not found", Err: cause}
	assert.Equal(t, "not found: underlying error", withCause.Error())
	assert.Equal(t, cause, withCause.Unwrap())
}

func TestError_HTTPCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, store.ErrNotFound.HTTPCode())
	assert.Equal(t, http.StatusConflict, store.ErrAlreadyExists.HTTPCode())
	assert.Equal(t, http.StatusPreconditionFailed, store.ErrConflict.HTTPCode())
}

func TestError_IsMatchesByCode(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed: genres.id")
	err := fmt.Errorf("insert genre: %w", store.ErrAlreadyExists.WithCause(cause))

	assert.ErrorIs(t, err, store.ErrAlreadyExists)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, store.ErrConflict)
}

func TestError_WithCauseKeepsSentinel(t *testing.T) {
	cause := errors.New("boom")
	wrapped := store.ErrNotFound.WithCause(cause)

	assert.Nil(t, store.ErrNotFound.Err, "sentinel is not mutated")
	assert.Equal(t, store.ErrNotFound.Code, wrapped.Code)
	assert.Equal(t, store.ErrNotFound.Message, wrapped.Message)
}
