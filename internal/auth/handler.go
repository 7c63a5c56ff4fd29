package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ayush/lms-accounts/backend/internal/models"
	"github.com/ayush/lms-accounts/backend/internal/token"
	"github.com/ayush/lms-accounts/backend/internal/web"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// AccessTokenFromRequest returns the access token from the cookie or, failing
// that, from an "Authorization: Bearer" header.
func AccessTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc           *Service
	logger        *slog.Logger
	secureCookies bool
	now           func() time.Time
}

// NewHandler returns auth handlers. secureCookies marks session cookies
// Secure and should be set in production.
func NewHandler(svc *Service, logger *slog.Logger, secureCookies bool) *Handler {
	return &Handler{svc: svc, logger: logger, secureCookies: secureCookies, now: time.Now}
}

// Register starts a registration and mails the activation code.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	activationToken, err := h.svc.Register(r.Context(), req)
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         fmt.Sprintf("Please check your email: %s to activate your account.", req.Email),
		"activationToken": activationToken,
	})
}

// Activate redeems an activation token and code.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	var req models.ActivateRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	acc, err := h.svc.Activate(r.Context(), req)
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    acc,
	})
}

// Login authenticates an account and sets the session cookies.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	acc, pair, err := h.svc.Login(r.Context(), req)
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	h.setSessionCookies(w, pair)
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"user":         acc,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// Refresh rotates the token pair using the refresh cookie.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	_, pair, err := h.svc.Refresh(r.Context(), refreshTokenFromRequest(r))
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	h.setSessionCookies(w, pair)
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// Logout expires both session cookies. It always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.svc.Logout(r.Context(), AccessTokenFromRequest(r), refreshTokenFromRequest(r))

	http.SetCookie(w, h.expiredCookie(AccessCookie))
	http.SetCookie(w, h.expiredCookie(RefreshCookie))
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User logged out successfully",
	})
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, pair token.Pair) {
	now := h.now()
	http.SetCookie(w, h.sessionCookie(AccessCookie, pair.AccessToken, pair.AccessTTL, now))
	http.SetCookie(w, h.sessionCookie(RefreshCookie, pair.RefreshToken, pair.RefreshTTL, now))
}

func (h *Handler) sessionCookie(name, value string, ttl time.Duration, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  now.Add(ttl),
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	}
}

func (h *Handler) expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	}
}

func refreshTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(RefreshCookie); err == nil {
		return c.Value
	}
	return ""
}
