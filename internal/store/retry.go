package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// ConnectRetryDelay is the fixed pause between connection attempts.
var ConnectRetryDelay = 5 * time.Second

// retryConnect calls connect until it succeeds, waiting ConnectRetryDelay
// between attempts. Only ctx cancellation stops it.
func retryConnect(ctx context.Context, logger *slog.Logger, name string, connect func(context.Context) error) error {
	attempt := 0
	return retry.Do(ctx, retry.NewConstant(ConnectRetryDelay), func(ctx context.Context) error {
		attempt++
		if err := connect(ctx); err != nil {
			logger.Warn("connection failed, retrying",
				"backend", name, "attempt", attempt, "delay", ConnectRetryDelay, "error", err)
			return retry.RetryableError(err)
		}
		logger.Info("connected", "backend", name, "attempt", attempt)
		return nil
	})
}
