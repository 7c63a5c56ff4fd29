package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/lms-accounts/backend/internal/models"
)

const pgUniqueViolation = "23505"

// PostgresStore handles account persistence in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the accounts table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name             VARCHAR(255) NOT NULL,
			email            VARCHAR(255) UNIQUE NOT NULL,
			password         VARCHAR(255) NOT NULL,
			avatar_public_id TEXT,
			avatar_url       TEXT,
			role             VARCHAR(32)  NOT NULL DEFAULT 'user',
			is_verified      BOOLEAN      NOT NULL DEFAULT FALSE,
			courses          TEXT[]       NOT NULL DEFAULT '{}',
			created_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

const accountColumns = `id, name, email, avatar_public_id, avatar_url, role, is_verified, courses, created_at, updated_at`

// Create inserts a new account. acc.Password must already be hashed.
func (s *PostgresStore) Create(ctx context.Context, acc *models.Account) error {
	role := acc.Role
	if role == "" {
		role = models.DefaultRole
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO accounts (name, email, password, role, is_verified, courses)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+accountColumns,
		acc.Name, acc.Email, acc.Password, role, acc.IsVerified, courseIDs(acc.Courses),
	)
	created, err := scanAccount(row, false)
	if err != nil {
		return fmt.Errorf("create account: %w", mapPgError(err))
	}
	hash := acc.Password
	*acc = *created
	acc.Password = hash
	return nil
}

// GetByEmail returns the account without its password hash.
func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	acc, err := scanAccount(row, false)
	if err != nil {
		return nil, mapPgError(err)
	}
	return acc, nil
}

// GetCredentials returns the account including its password hash.
func (s *PostgresStore) GetCredentials(ctx context.Context, email string) (*models.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+`, password FROM accounts WHERE email = $1`, email)
	acc, err := scanAccount(row, true)
	if err != nil {
		return nil, mapPgError(err)
	}
	return acc, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	acc, err := scanAccount(row, false)
	if err != nil {
		return nil, mapPgError(err)
	}
	return acc, nil
}

// UpdateAvatar replaces the avatar reference and returns the updated account.
func (s *PostgresStore) UpdateAvatar(ctx context.Context, id string, avatar models.Avatar) (*models.Account, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE accounts SET avatar_public_id = $2, avatar_url = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+accountColumns,
		id, avatar.PublicID, avatar.URL,
	)
	acc, err := scanAccount(row, false)
	if err != nil {
		return nil, fmt.Errorf("update avatar: %w", mapPgError(err))
	}
	return acc, nil
}

func scanAccount(row pgx.Row, withPassword bool) (*models.Account, error) {
	var (
		a        models.Account
		publicID *string
		url      *string
		courses  []string
	)
	dest := []any{&a.ID, &a.Name, &a.Email, &publicID, &url, &a.Role, &a.IsVerified, &courses, &a.CreatedAt, &a.UpdatedAt}
	if withPassword {
		dest = append(dest, &a.Password)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if publicID != nil || url != nil {
		a.Avatar = &models.Avatar{}
		if publicID != nil {
			a.Avatar.PublicID = *publicID
		}
		if url != nil {
			a.Avatar.URL = *url
		}
	}
	a.Courses = make([]models.CourseRef, 0, len(courses))
	for _, c := range courses {
		a.Courses = append(a.Courses, models.CourseRef{CourseID: c})
	}
	return &a, nil
}

func courseIDs(refs []models.CourseRef) []string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.CourseID)
	}
	return ids
}

// mapPgError rewrites driver errors into the store sentinels.
func mapPgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, pgErr.ConstraintName)
	}
	return err
}

// ConnectPostgres opens a pool and pings it, retrying until it succeeds or
// ctx is done.
func ConnectPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	err := retryConnect(ctx, logger, "postgres", func(ctx context.Context) error {
		p, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}
