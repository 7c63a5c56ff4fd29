package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/ayush/lms-accounts/backend/internal/mail"
	"github.com/ayush/lms-accounts/backend/internal/models"
	"github.com/ayush/lms-accounts/backend/internal/store"
	"github.com/ayush/lms-accounts/backend/internal/token"
)

// memStore is an in-memory AccountStore with a unique email index.
type memStore struct {
	mu      sync.Mutex
	byEmail map[string]*models.Account
	creates int
}

func newMemStore() *memStore {
	return &memStore{byEmail: map[string]*models.Account{}}
}

func (m *memStore) Create(_ context.Context, acc *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[acc.Email]; ok {
		return fmt.Errorf("mem insert: %w", store.ErrDuplicateEmail)
	}
	m.creates++
	acc.ID = fmt.Sprintf("acc-%d", m.creates)
	if acc.Courses == nil {
		acc.Courses = []models.CourseRef{}
	}
	acc.CreatedAt = time.Now().UTC()
	acc.UpdatedAt = acc.CreatedAt
	cp := *acc
	m.byEmail[acc.Email] = &cp
	return nil
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	acc, err := m.GetCredentials(ctx, email)
	if err != nil {
		return nil, err
	}
	acc.Password = ""
	return acc, nil
}

func (m *memStore) GetCredentials(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.byEmail {
		if acc.ID == id {
			cp := *acc
			cp.Password = ""
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byEmail)
}

// fakeNotifier records activation codes by email.
type fakeNotifier struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{codes: map[string]string{}}
}

func (f *fakeNotifier) SendActivation(_ context.Context, to mail.Recipient, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.codes[to.Email] = code
	return nil
}

func (f *fakeNotifier) code(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[email]
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	svc      *Service
	users    *memStore
	notifier *fakeNotifier
	sessions *SessionStore
	redis    *miniredis.Miniredis
	clock    *testClock
	issuer   *token.Issuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	sessions, mr := newTestSessions(t)
	clock := &testClock{t: time.Now()}
	issuer, err := token.NewIssuer(token.Config{
		ActivationSecret: "activation",
		AccessSecret:     "access",
		RefreshSecret:    "refresh",
		AccessTTL:        300 * time.Second,
		RefreshTTL:       1200 * time.Second,
	}, token.WithClock(clock.now))
	require.NoError(t, err)

	env := &testEnv{
		users:    newMemStore(),
		notifier: newFakeNotifier(),
		sessions: sessions,
		redis:    mr,
		clock:    clock,
		issuer:   issuer,
	}
	env.svc = NewService(env.users, sessions, issuer, env.notifier, discardLogger())
	return env
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// wrongCode returns a code that differs from code.
func wrongCode(code string) string {
	if code == "1" {
		return "2"
	}
	return "1"
}

var errBoom = errors.New("boom")
