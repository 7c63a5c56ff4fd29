package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ayush/lms-accounts/backend/internal/apperr"
	"github.com/ayush/lms-accounts/backend/internal/auth"
	"github.com/ayush/lms-accounts/backend/internal/token"
	"github.com/ayush/lms-accounts/backend/internal/web"
)

type accountIDKey struct{}

// WithAccountID returns a context carrying the authenticated account id.
func WithAccountID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, accountIDKey{}, id)
}

// AccountID returns the authenticated account id from ctx.
func AccountID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDKey{}).(string)
	return id, ok && id != ""
}

// RequireAuth validates the access token and requires a live cached session
// for its account. The account id is injected into the request context.
func RequireAuth(tokens *token.Issuer, sessions *auth.SessionStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := auth.AccessTokenFromRequest(r)
			if raw == "" {
				web.WriteError(w, r, logger, apperr.New(apperr.Unauthorized, "Please login to access this resource"))
				return
			}
			claims, err := tokens.VerifyAccess(raw)
			if err != nil {
				web.WriteError(w, r, logger, err)
				return
			}

			acc, err := sessions.Get(r.Context(), claims.AccountID)
			if err != nil {
				web.WriteError(w, r, logger, err)
				return
			}
			if acc == nil {
				web.WriteError(w, r, logger, apperr.New(apperr.Unauthorized, "Session expired, please login again."))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccountID(r.Context(), claims.AccountID)))
		})
	}
}
