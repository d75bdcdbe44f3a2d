package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/genrewiki/genrewiki-server/internal/errors"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code apperrors.Code
		want int
	}{
		{apperrors.CodeNotFound, http.StatusNotFound},
		{apperrors.CodeAlreadyExists, http.StatusConflict},
		{apperrors.CodeConflict, http.StatusConflict},
		{apperrors.CodeGenreCycle, http.StatusConflict},
		{apperrors.CodeValidation, http.StatusBadRequest},
		{apperrors.CodeSelfInfluence, http.StatusBadRequest},
		{apperrors.CodeDuplicateAka, http.StatusBadRequest},
		{apperrors.CodeInvalidRelevance, http.StatusBadRequest},
		{apperrors.CodeNoUpdates, http.StatusUnprocessableEntity},
		{apperrors.CodeInternal, http.StatusInternalServerError},
		{apperrors.Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
			assert.Equal(t, tt.want, apperrors.New(tt.code, "x").HTTPStatus())
		})
	}
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "genre g1 not found", apperrors.NotFoundf("genre %s not found", "g1").Error())

	wrapped := apperrors.Wrap(fmt.Errorf("disk full"), apperrors.CodeInternal, "save genre")
	assert.Equal(t, "save genre: disk full", wrapped.Error())
	require.Error(t, wrapped.Unwrap())
}

func TestError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("update: %w", apperrors.ErrGenreCycle.WithDetails(map[string]string{"path": "A → B → A"}))

	assert.ErrorIs(t, err, apperrors.ErrGenreCycle)
	assert.NotErrorIs(t, err, apperrors.ErrNoUpdates)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeGenreCycle, appErr.Code)
	assert.Equal(t, map[string]string{"path": "A → B → A"}, appErr.Details)
}

func TestError_CopiesDoNotMutateSentinels(t *testing.T) {
	detailed := apperrors.ErrNoUpdates.WithDetails("x").WithCause(fmt.Errorf("cause"))

	assert.Nil(t, apperrors.ErrNoUpdates.Details)
	assert.Equal(t, "no updates", apperrors.ErrNoUpdates.Error())
	assert.Equal(t, "x", detailed.Details)
	assert.Equal(t, "no updates: cause", detailed.Error())
}

func TestValidationWithDetails(t *testing.T) {
	err := apperrors.ValidationWithDetails("validation failed", map[string]string{"name": "is required"})

	assert.Equal(t, apperrors.CodeValidation, err.Code)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
}

func TestConflictf(t *testing.T) {
	err := apperrors.Conflictf("genre %s was modified concurrently", "g1")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, "genre g1 was modified concurrently", err.Error())
}
