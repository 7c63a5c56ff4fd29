package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/ayush/lms-accounts/backend/internal/models"
)

func TestMapPgError(t *testing.T) {
	require.ErrorIs(t, mapPgError(pgx.ErrNoRows), ErrNotFound)
	require.ErrorIs(t, mapPgError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)

	dup := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "accounts_email_key"}
	require.ErrorIs(t, mapPgError(dup), ErrDuplicateEmail)

	other := errors.New("connection reset")
	require.Same(t, other, mapPgError(other))
}

func TestPostgresRejectsMalformedID(t *testing.T) {
	s := NewPostgresStore(nil)

	_, err := s.GetByID(context.Background(), "123")
	require.ErrorIs(t, err, ErrInvalidID)

	_, err = s.UpdateAvatar(context.Background(), "abc", models.Avatar{})
	require.ErrorIs(t, err, ErrInvalidID)
}

func TestCourseIDs(t *testing.T) {
	require.Equal(t, []string{}, courseIDs(nil))
	require.Equal(t, []string{"c1", "c2"}, courseIDs([]models.CourseRef{{CourseID: "c1"}, {CourseID: "c2"}}))
}
