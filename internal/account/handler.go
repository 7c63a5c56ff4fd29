package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ayush/lms-accounts/backend/internal/apperr"
	"github.com/ayush/lms-accounts/backend/internal/middleware"
	"github.com/ayush/lms-accounts/backend/internal/models"
	"github.com/ayush/lms-accounts/backend/internal/store"
	"github.com/ayush/lms-accounts/backend/internal/web"
)

const (
	maxAvatarBytes = 5 << 20
	avatarPath     = "/api/v1/me/avatar"
)

var avatarExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AccountStore defines the account reads and writes these handlers need.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	UpdateAvatar(ctx context.Context, id string, avatar models.Avatar) (*models.Account, error)
}

// FileStore defines the interface for avatar object storage.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// SessionCache refreshes the cached account snapshot after a change.
type SessionCache interface {
	Put(ctx context.Context, acc *models.Account, ttl time.Duration) error
}

// Handler holds the authenticated account HTTP handlers.
type Handler struct {
	users      AccountStore
	files      FileStore
	sessions   SessionCache
	sessionTTL time.Duration
	logger     *slog.Logger
}

func NewHandler(users AccountStore, files FileStore, sessions SessionCache, sessionTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{users: users, files: files, sessions: sessions, sessionTTL: sessionTTL, logger: logger}
}

// Me returns the currently authenticated account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	acc, err := h.current(r)
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "user": acc})
}

// UploadAvatar stores the request body as the account's avatar image.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	acc, err := h.current(r)
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAvatarBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			web.WriteError(w, r, h.logger, apperr.New(apperr.Validation, "Avatar must be at most 5MB"))
			return
		}
		web.WriteError(w, r, h.logger, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}
	if len(data) == 0 {
		web.WriteError(w, r, h.logger, apperr.New(apperr.Validation, "Avatar image is required"))
		return
	}
	contentType := http.DetectContentType(data)
	ext, ok := avatarExt[contentType]
	if !ok {
		web.WriteError(w, r, h.logger, apperr.New(apperr.Validation, "Avatar must be a PNG, JPEG, GIF or WebP image"))
		return
	}

	key := "avatars/" + acc.ID + "/" + uuid.NewString() + ext
	if err := h.files.Upload(r.Context(), key, data, contentType); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	updated, err := h.users.UpdateAvatar(r.Context(), acc.ID, models.Avatar{PublicID: key, URL: avatarPath})
	if err != nil {
		// don't leave an orphaned object behind
		if rmErr := h.files.Remove(r.Context(), key); rmErr != nil {
			h.logger.Warn("avatar cleanup failed", "key", key, "error", rmErr)
		}
		web.WriteError(w, r, h.logger, err)
		return
	}

	if acc.Avatar != nil && acc.Avatar.PublicID != "" {
		if err := h.files.Remove(r.Context(), acc.Avatar.PublicID); err != nil {
			h.logger.Warn("old avatar removal failed", "key", acc.Avatar.PublicID, "error", err)
		}
	}
	if err := h.sessions.Put(r.Context(), updated, h.sessionTTL); err != nil {
		h.logger.Warn("session cache write failed", "account_id", updated.ID, "error", err)
	}

	web.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "user": updated})
}

// DownloadAvatar streams the account's avatar image.
func (h *Handler) DownloadAvatar(w http.ResponseWriter, r *http.Request) {
	acc, err := h.current(r)
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	if acc.Avatar == nil || acc.Avatar.PublicID == "" {
		web.WriteError(w, r, h.logger, apperr.New(apperr.NotFound, "avatar not available"))
		return
	}

	data, ct, err := h.files.Download(r.Context(), acc.Avatar.PublicID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			web.WriteError(w, r, h.logger, apperr.New(apperr.NotFound, "avatar not available"))
			return
		}
		web.WriteError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(data)
}

func (h *Handler) current(r *http.Request) (*models.Account, error) {
	id, ok := middleware.AccountID(r.Context())
	if !ok {
		return nil, apperr.New(apperr.Unauthorized, "Please login to access this resource")
	}
	return h.users.GetByID(r.Context(), id)
}
