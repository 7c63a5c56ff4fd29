package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ayush/lms-accounts/backend/internal/store"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		Validation:         http.StatusBadRequest,
		DuplicateEmail:     http.StatusBadRequest,
		InvalidCode:        http.StatusBadRequest,
		TokenExpired:       http.StatusBadRequest,
		MissingCredentials: http.StatusBadRequest,
		InvalidCredentials: http.StatusBadRequest,
		DispatchFailed:     http.StatusBadRequest,
		InvalidID:          http.StatusBadRequest,
		InvalidToken:       http.StatusUnauthorized,
		Unauthorized:       http.StatusUnauthorized,
		NotFound:           http.StatusNotFound,
		Internal:           http.StatusInternalServerError,
	}
	for kind, want := range cases {
		require.Equal(t, want, kind.Status(), kind.String())
	}
}

func TestFromRewritesStoreErrors(t *testing.T) {
	dup := fmt.Errorf("mongo insert: %w", store.ErrDuplicateEmail)
	require.Equal(t, DuplicateEmail, KindOf(dup))
	require.Equal(t, InvalidID, KindOf(store.ErrInvalidID))
	require.Equal(t, NotFound, KindOf(store.ErrNotFound))

	// cause stays reachable for logging
	require.ErrorIs(t, From(dup), store.ErrDuplicateEmail)
}

func TestFromPassesThroughTypedErrors(t *testing.T) {
	orig := New(InvalidCode, "Invalid activation code")
	wrapped := fmt.Errorf("activate: %w", orig)

	got := From(wrapped)
	require.Same(t, orig, got)
}

func TestFromDefaultsToInternal(t *testing.T) {
	got := From(errors.New("socket closed"))
	require.Equal(t, Internal, got.Kind)
	require.Equal(t, InternalMessage, got.Message)
	require.Equal(t, http.StatusInternalServerError, got.Status())
	require.Nil(t, From(nil))
}
