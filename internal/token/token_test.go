package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayush/lms-accounts/backend/internal/apperr"
)

func testConfig() Config {
	return Config{
		ActivationSecret: "activation-secret",
		AccessSecret:     "access-secret",
		RefreshSecret:    "refresh-secret",
		AccessTTL:        300 * time.Second,
		RefreshTTL:       1200 * time.Second,
	}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestIssuer(t *testing.T, c *clock, opts ...Option) *Issuer {
	t.Helper()
	opts = append([]Option{WithClock(c.now)}, opts...)
	iss, err := NewIssuer(testConfig(), opts...)
	require.NoError(t, err)
	return iss
}

func TestNewIssuerRequiresSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshSecret = ""
	_, err := NewIssuer(cfg)
	require.Error(t, err)

	cfg = testConfig()
	cfg.AccessTTL = 0
	_, err = NewIssuer(cfg)
	require.Error(t, err)
}

func TestActivationRoundTrip(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	iss := newTestIssuer(t, c, WithCodeSource(func() (int, error) { return 42, nil }))

	reg := Registration{Name: "Ann", Email: "ann@x.com", Password: "secret1"}
	act, err := iss.IssueActivation(reg)
	require.NoError(t, err)
	require.Equal(t, "42", act.Code)
	require.NotEmpty(t, act.Token)

	claims, err := iss.VerifyActivation(act.Token)
	require.NoError(t, err)
	require.Equal(t, reg, claims.User)
	require.True(t, claims.CodeMatches("42"))
	require.False(t, claims.CodeMatches("042"))
	require.False(t, claims.CodeMatches(""))
	require.Equal(t, c.t.Add(ActivationTTL).Unix(), claims.ExpiresAt.Unix())
}

func TestActivationCodeRange(t *testing.T) {
	for range 200 {
		n, err := randomCode()
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 0)
		require.Less(t, n, activationCodeSpace)
	}
}

func TestActivationExpired(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	iss := newTestIssuer(t, c)

	act, err := iss.IssueActivation(Registration{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	c.t = c.t.Add(ActivationTTL + time.Second)
	_, err = iss.VerifyActivation(act.Token)
	require.Error(t, err)
	require.Equal(t, apperr.TokenExpired, apperr.KindOf(err))
}

func TestActivationWrongSecret(t *testing.T) {
	c := &clock{t: time.Now()}
	iss := newTestIssuer(t, c)
	act, err := iss.IssueActivation(Registration{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	cfg := testConfig()
	cfg.ActivationSecret = "other"
	other, err := NewIssuer(cfg, WithClock(c.now))
	require.NoError(t, err)

	_, err = other.VerifyActivation(act.Token)
	require.Equal(t, apperr.InvalidToken, apperr.KindOf(err))

	_, err = iss.VerifyActivation("not-a-token")
	require.Equal(t, apperr.InvalidToken, apperr.KindOf(err))

	_, err = iss.VerifyActivation("")
	require.Equal(t, apperr.InvalidToken, apperr.KindOf(err))
}

func TestIssueSession(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	iss := newTestIssuer(t, c)

	pair, err := iss.IssueSession("acc-1", "user")
	require.NoError(t, err)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.Equal(t, 300*time.Second, pair.AccessTTL)
	require.Equal(t, 1200*time.Second, pair.RefreshTTL)

	access, err := iss.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "acc-1", access.AccountID)
	require.Equal(t, "user", access.Role)
	require.Equal(t, c.t.Add(300*time.Second).Unix(), access.ExpiresAt.Unix())

	refresh, err := iss.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "acc-1", refresh.Subject)
	require.Equal(t, c.t.Add(1200*time.Second).Unix(), refresh.ExpiresAt.Unix())
	require.NotEqual(t, access.ID, refresh.ID)

	// each token is bound to its own secret
	_, err = iss.VerifyRefresh(pair.AccessToken)
	require.Equal(t, apperr.InvalidToken, apperr.KindOf(err))
	_, err = iss.VerifyAccess(pair.RefreshToken)
	require.Equal(t, apperr.InvalidToken, apperr.KindOf(err))
}

func TestAccessTokenExpiresBeforeRefresh(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	iss := newTestIssuer(t, c)
	pair, err := iss.IssueSession("acc-1", "user")
	require.NoError(t, err)

	c.t = c.t.Add(10 * time.Minute)
	_, err = iss.VerifyAccess(pair.AccessToken)
	require.Equal(t, apperr.TokenExpired, apperr.KindOf(err))
	_, err = iss.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
}
