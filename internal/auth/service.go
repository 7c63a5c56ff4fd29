package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ayush/lms-accounts/backend/internal/apperr"
	"github.com/ayush/lms-accounts/backend/internal/mail"
	"github.com/ayush/lms-accounts/backend/internal/models"
	"github.com/ayush/lms-accounts/backend/internal/store"
	"github.com/ayush/lms-accounts/backend/internal/token"
)

// AccountStore defines the credential store operations the auth flow needs.
type AccountStore interface {
	Create(ctx context.Context, acc *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetCredentials(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

// Notifier delivers activation codes out of band.
type Notifier interface {
	SendActivation(ctx context.Context, to mail.Recipient, code string) error
}

// Service sequences registration, activation, login, refresh and logout.
type Service struct {
	users    AccountStore
	sessions *SessionStore
	tokens   *token.Issuer
	notifier Notifier
	logger   *slog.Logger
	compare  func(hash, plain string) bool
}

func NewService(users AccountStore, sessions *SessionStore, tokens *token.Issuer, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{users: users, sessions: sessions, tokens: tokens, notifier: notifier, logger: logger, compare: ComparePassword}
}

// Register starts a pending registration and mails the activation code. It
// returns the activation token; nothing is written to the store.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", apperr.Wrap(apperr.Validation, err.Error(), err)
	}

	_, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return "", apperr.New(apperr.DuplicateEmail, "Email already exist!")
	case !errors.Is(err, store.ErrNotFound):
		return "", err
	}

	act, err := s.tokens.IssueActivation(token.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return "", err
	}

	// The token stays valid even when delivery fails.
	if err := s.notifier.SendActivation(ctx, mail.Recipient{Name: req.Name, Email: req.Email}, act.Code); err != nil {
		s.logger.Warn("activation mail failed", "email", req.Email, "error", err)
		return "", apperr.Wrap(apperr.DispatchFailed, "Failed to send activation email, please try again.", err)
	}

	s.logger.Info("registration pending activation", "email", req.Email)
	return act.Token, nil
}

// Activate redeems an activation token and creates the account. The store's
// unique email constraint is the only duplicate guard.
func (s *Service) Activate(ctx context.Context, req models.ActivateRequest) (*models.Account, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.Validation, err.Error(), err)
	}

	claims, err := s.tokens.VerifyActivation(req.ActivationToken)
	if err != nil {
		return nil, err
	}
	if !claims.CodeMatches(req.ActivationCode) {
		return nil, apperr.New(apperr.InvalidCode, "Invalid activation code")
	}

	hash, err := HashPassword(claims.User.Password)
	if err != nil {
		return nil, err
	}
	acc := &models.Account{
		Name:     claims.User.Name,
		Email:    claims.User.Email,
		Password: hash,
		Role:     models.DefaultRole,
	}
	if err := s.users.Create(ctx, acc); err != nil {
		return nil, err
	}
	acc.Password = ""

	s.logger.Info("account activated", "account_id", acc.ID)
	return acc, nil
}

// Login checks credentials, issues a token pair and caches the session.
// Unknown email and wrong password fail identically.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.Account, token.Pair, error) {
	if req.Email == "" || req.Password == "" {
		return nil, token.Pair{}, apperr.New(apperr.MissingCredentials, "Please enter email and password!")
	}

	acc, err := s.users.GetCredentials(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.compare(absentHash(), req.Password)
			return nil, token.Pair{}, errInvalidCredentials()
		}
		return nil, token.Pair{}, err
	}
	if !s.compare(acc.Password, req.Password) {
		return nil, token.Pair{}, errInvalidCredentials()
	}
	acc.Password = ""

	pair, err := s.startSession(ctx, acc)
	if err != nil {
		return nil, token.Pair{}, err
	}
	s.logger.Info("account logged in", "account_id", acc.ID)
	return acc, pair, nil
}

// Refresh exchanges a refresh token for a new pair. The session must still
// be cached.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.Account, token.Pair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, token.Pair{}, err
	}
	acc, err := s.sessions.Get(ctx, claims.AccountID)
	if err != nil {
		return nil, token.Pair{}, err
	}
	if acc == nil {
		return nil, token.Pair{}, apperr.New(apperr.InvalidToken, "Session expired, please login again.")
	}
	pair, err := s.startSession(ctx, acc)
	if err != nil {
		return nil, token.Pair{}, err
	}
	return acc, pair, nil
}

// Logout drops the cached session of the account named by accessToken, or
// by refreshToken once the access token has lapsed. It never fails.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) {
	accountID := s.sessionOwner(accessToken, refreshToken)
	if accountID == "" {
		return
	}
	if err := s.sessions.Delete(ctx, accountID); err != nil {
		s.logger.Warn("session delete failed", "account_id", accountID, "error", err)
		return
	}
	s.logger.Info("account logged out", "account_id", accountID)
}

func (s *Service) sessionOwner(accessToken, refreshToken string) string {
	if accessToken != "" {
		if claims, err := s.tokens.VerifyAccess(accessToken); err == nil {
			return claims.AccountID
		}
	}
	if refreshToken != "" {
		if claims, err := s.tokens.VerifyRefresh(refreshToken); err == nil {
			return claims.AccountID
		}
	}
	return ""
}

func (s *Service) startSession(ctx context.Context, acc *models.Account) (token.Pair, error) {
	pair, err := s.tokens.IssueSession(acc.ID, acc.Role)
	if err != nil {
		return token.Pair{}, err
	}
	// A cache outage must not block login.
	if err := s.sessions.Put(ctx, acc, pair.RefreshTTL); err != nil {
		s.logger.Warn("session cache write failed", "account_id", acc.ID, "error", err)
	}
	return pair, nil
}

func errInvalidCredentials() *apperr.Error {
	return apperr.New(apperr.InvalidCredentials, "Invalid email or password")
}
