// Package token issues and verifies the service's signed HS256 tokens:
// short-lived activation tokens that carry a pending registration, and the
// access/refresh pair handed out at login.
package token

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ayush/lms-accounts/backend/internal/apperr"
)

const (
	// ActivationTTL is how long a pending registration stays redeemable.
	ActivationTTL = 5 * time.Minute
	// activationCodeSpace bounds the numeric code to [0, 8999].
	activationCodeSpace = 9000

	issuer = "lms-accounts"
)

// Config carries secrets and lifetimes. All three secrets are required.
type Config struct {
	ActivationSecret string
	AccessSecret     string
	RefreshSecret    string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
}

// Registration is the pending account embedded in an activation token.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ActivationClaims is the payload of an activation token.
type ActivationClaims struct {
	User           Registration `json:"user"`
	ActivationCode string       `json:"activationCode"`
	jwtlib.RegisteredClaims
}

// Activation is the result of IssueActivation. Code is returned in the clear
// so it can be mailed to the user.
type Activation struct {
	Token string
	Code  string
}

// SessionClaims is the payload of access and refresh tokens.
type SessionClaims struct {
	AccountID string `json:"id"`
	Role      string `json:"role,omitempty"`
	jwtlib.RegisteredClaims
}

// Pair is an access/refresh token pair with their lifetimes.
type Pair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// Issuer signs and verifies tokens.
type Issuer struct {
	cfg  Config
	now  func() time.Time
	code func() (int, error)
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// WithCodeSource overrides the activation code generator.
func WithCodeSource(fn func() (int, error)) Option {
	return func(i *Issuer) { i.code = fn }
}

// NewIssuer validates cfg and returns an Issuer.
func NewIssuer(cfg Config, opts ...Option) (*Issuer, error) {
	if cfg.ActivationSecret == "" || cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token: activation, access and refresh secrets are required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: access and refresh lifetimes must be positive")
	}
	i := &Issuer{cfg: cfg, now: time.Now, code: randomCode}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// AccessTTL reports the configured access token lifetime.
func (i *Issuer) AccessTTL() time.Duration { return i.cfg.AccessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (i *Issuer) RefreshTTL() time.Duration { return i.cfg.RefreshTTL }

// IssueActivation embeds reg and a fresh numeric code in a token that
// expires after ActivationTTL.
func (i *Issuer) IssueActivation(reg Registration) (Activation, error) {
	n, err := i.code()
	if err != nil {
		return Activation{}, fmt.Errorf("activation code: %w", err)
	}
	code := strconv.Itoa(n)
	now := i.now()
	claims := ActivationClaims{
		User:           reg,
		ActivationCode: code,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ActivationTTL)),
		},
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(i.cfg.ActivationSecret))
	if err != nil {
		return Activation{}, fmt.Errorf("sign activation token: %w", err)
	}
	return Activation{Token: signed, Code: code}, nil
}

// VerifyActivation parses an activation token and returns its claims.
func (i *Issuer) VerifyActivation(token string) (*ActivationClaims, error) {
	claims := &ActivationClaims{}
	if err := i.parse(token, i.cfg.ActivationSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// CodeMatches compares the embedded code with the supplied one.
func (c *ActivationClaims) CodeMatches(code string) bool {
	return subtle.ConstantTimeCompare([]byte(c.ActivationCode), []byte(code)) == 1
}

// IssueSession signs an access and a refresh token for the account.
func (i *Issuer) IssueSession(accountID, role string) (Pair, error) {
	access, err := i.sign(accountID, role, i.cfg.AccessSecret, i.cfg.AccessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := i.sign(accountID, role, i.cfg.RefreshSecret, i.cfg.RefreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    i.cfg.AccessTTL,
		RefreshTTL:   i.cfg.RefreshTTL,
	}, nil
}

// VerifyAccess validates an access token.
func (i *Issuer) VerifyAccess(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := i.parse(token, i.cfg.AccessSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token.
func (i *Issuer) VerifyRefresh(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := i.parse(token, i.cfg.RefreshSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *Issuer) sign(accountID, role, secret string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := SessionClaims{
		AccountID: accountID,
		Role:      role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   accountID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (i *Issuer) parse(token, secret string, claims jwtlib.Claims) error {
	if token == "" {
		return apperr.New(apperr.InvalidToken, "Invalid token! try again.")
	}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}),
		jwtlib.WithTimeFunc(i.now),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return apperr.Wrap(apperr.TokenExpired, "Json web token is expired, try again.", err)
		}
		return apperr.Wrap(apperr.InvalidToken, "Invalid token! try again.", err)
	}
	if !parsed.Valid {
		return apperr.New(apperr.InvalidToken, "Invalid token! try again.")
	}
	return nil
}

func randomCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(activationCodeSpace))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
