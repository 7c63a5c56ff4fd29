package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"PORT", "APP_ENV", "ORIGIN", "STORE_DRIVER", "ACCESS_TOKEN_EXPIRE", "REFRESH_TOKEN_EXPIRE"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	require.Equal(t, "8000", cfg.Port)
	require.Equal(t, DriverMongo, cfg.StoreDriver)
	require.Equal(t, 300*time.Second, cfg.AccessTokenTTL)
	require.Equal(t, 1200*time.Second, cfg.RefreshTokenTTL)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	require.False(t, cfg.Production())
}

func TestLoadRefreshUsesOwnVariable(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ACCESS_TOKEN_EXPIRE", "60")
	t.Setenv("REFRESH_TOKEN_EXPIRE", "3600")

	cfg := Load()
	require.Equal(t, time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, time.Hour, cfg.RefreshTokenTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "production")
	t.Setenv("ORIGIN", "https://a.example, https://b.example")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg := Load()
	require.True(t, cfg.Production())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	require.True(t, cfg.MinioUseSSL)
	require.Equal(t, 587, cfg.SMTPPort)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		StoreDriver:      DriverMongo,
		ActivationSecret: "a",
		AccessSecret:     "b",
		RefreshSecret:    "c",
		AccessTokenTTL:   time.Minute,
		RefreshTokenTTL:  time.Hour,
	}
	require.NoError(t, cfg.Validate())

	cfg.Env = "production"
	require.ErrorContains(t, cfg.Validate(), "SMTP_HOST")
	cfg.SMTPHost = "smtp.example.com"
	require.NoError(t, cfg.Validate())

	cfg.StoreDriver = DriverPostgres
	require.ErrorContains(t, cfg.Validate(), "POSTGRES_DSN")

	cfg.StoreDriver = "sqlite"
	require.ErrorContains(t, cfg.Validate(), "STORE_DRIVER")

	empty := &Config{StoreDriver: DriverMongo}
	err := empty.Validate()
	require.ErrorContains(t, err, "ACTIVATION_SECRET")
	require.ErrorContains(t, err, "ACCESS_TOKEN")
	require.ErrorContains(t, err, "REFRESH_TOKEN")
}
