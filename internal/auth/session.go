package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ayush/lms-accounts/backend/internal/models"
)

const sessionPrefix = "session:"

// SessionStore mirrors logged-in accounts into Redis, keyed by account id.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// Put stores a JSON snapshot of the account for ttl.
func (s *SessionStore) Put(ctx context.Context, acc *models.Account, ttl time.Duration) error {
	payload, err := json.Marshal(acc)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.rdb.Set(ctx, sessionPrefix+acc.ID, payload, ttl).Err()
}

// Get returns the cached account snapshot, or nil if none is live.
func (s *SessionStore) Get(ctx context.Context, accountID string) (*models.Account, error) {
	val, err := s.rdb.Get(ctx, sessionPrefix+accountID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var acc models.Account
	if err := json.Unmarshal(val, &acc); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &acc, nil
}

// Delete removes the account's session. Deleting a missing key is not an error.
func (s *SessionStore) Delete(ctx context.Context, accountID string) error {
	return s.rdb.Del(ctx, sessionPrefix+accountID).Err()
}
