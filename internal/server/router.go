package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ayush/lms-accounts/backend/internal/account"
	"github.com/ayush/lms-accounts/backend/internal/apperr"
	"github.com/ayush/lms-accounts/backend/internal/auth"
	"github.com/ayush/lms-accounts/backend/internal/middleware"
	"github.com/ayush/lms-accounts/backend/internal/token"
	"github.com/ayush/lms-accounts/backend/internal/web"
)

// Deps are the components the router wires together.
type Deps struct {
	Auth           *auth.Handler
	Accounts       *account.Handler
	Tokens         *token.Issuer
	Sessions       *auth.SessionStore
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter builds the HTTP surface.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Handler)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	notFound := func(w http.ResponseWriter, r *http.Request) {
		web.WriteError(w, r, d.Logger, apperr.New(apperr.NotFound, fmt.Sprintf("Route %s not found!", r.URL.RequestURI())))
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		web.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		web.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": "API is working"})
	})
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/registration", d.Auth.Register)
		r.Post("/activate-user", d.Auth.Activate)
		r.Post("/login", d.Auth.Login)
		r.Post("/logout", d.Auth.Logout)
		r.Post("/refresh-token", d.Auth.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(d.Tokens, d.Sessions, d.Logger))
			r.Get("/me", d.Accounts.Me)
			r.Put("/me/avatar", d.Accounts.UploadAvatar)
			r.Get("/me/avatar", d.Accounts.DownloadAvatar)
		})
	})

	return r
}
