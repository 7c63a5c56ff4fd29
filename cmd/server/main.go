package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayush/lms-accounts/backend/internal/account"
	"github.com/ayush/lms-accounts/backend/internal/auth"
	"github.com/ayush/lms-accounts/backend/internal/config"
	"github.com/ayush/lms-accounts/backend/internal/logger"
	"github.com/ayush/lms-accounts/backend/internal/mail"
	"github.com/ayush/lms-accounts/backend/internal/middleware"
	"github.com/ayush/lms-accounts/backend/internal/server"
	"github.com/ayush/lms-accounts/backend/internal/store"
	"github.com/ayush/lms-accounts/backend/internal/token"
)

// accountStore is satisfied by both credential store backends.
type accountStore interface {
	auth.AccountStore
	account.AccountStore
}

func main() {
	cfg := config.Load()
	log := logger.New("lms-accounts", cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		fatal(log, "invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Credential store ─────────────────────────────────────
	var accounts accountStore
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := store.ConnectPostgres(ctx, cfg.PostgresDSN, log)
		if err != nil {
			fatal(log, "postgres connect", err)
		}
		defer pool.Close()
		pgStore := store.NewPostgresStore(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			fatal(log, "postgres migrate", err)
		}
		accounts = pgStore
	default:
		mongoClient, err := store.ConnectMongo(ctx, cfg.MongoURI, log)
		if err != nil {
			fatal(log, "mongo connect", err)
		}
		defer mongoClient.Disconnect(context.Background())
		mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			fatal(log, "mongo indexes", err)
		}
		accounts = mongoStore
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		fatal(log, "redis connect", err)
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb)

	// ── MinIO ────────────────────────────────────────────────
	avatars, err := store.NewAvatarStore(ctx, store.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	}, log)
	if err != nil {
		fatal(log, "minio connect", err)
	}

	// ── Tokens & mail ────────────────────────────────────────
	tokens, err := token.NewIssuer(token.Config{
		ActivationSecret: cfg.ActivationSecret,
		AccessSecret:     cfg.AccessSecret,
		RefreshSecret:    cfg.RefreshSecret,
		AccessTTL:        cfg.AccessTokenTTL,
		RefreshTTL:       cfg.RefreshTokenTTL,
	})
	if err != nil {
		fatal(log, "token issuer", err)
	}

	var sender mail.Sender = mail.LogSender{Logger: log}
	if cfg.SMTPHost != "" {
		sender, err = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPMail,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			fatal(log, "smtp sender", err)
		}
	}
	mailer, err := mail.NewMailer(sender)
	if err != nil {
		fatal(log, "mailer", err)
	}

	// ── Metrics ──────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)

	// ── Handlers ─────────────────────────────────────────────
	authSvc := auth.NewService(accounts, sessions, tokens, mailer, log)
	handler := server.NewRouter(server.Deps{
		Auth:           auth.NewHandler(authSvc, log, cfg.Production()),
		Accounts:       account.NewHandler(accounts, avatars, sessions, cfg.RefreshTokenTTL, log),
		Tokens:         tokens,
		Sessions:       sessions,
		Metrics:        metrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("server listening", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
