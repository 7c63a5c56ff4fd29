package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers selectable with STORE_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port           string
	Env            string
	AllowedOrigins []string
	LogLevel       string

	StoreDriver string
	MongoURI    string
	MongoDB     string
	PostgresDSN string
	RedisURL    string

	ActivationSecret string
	AccessSecret     string
	RefreshSecret    string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPMail     string
	SMTPPassword string
	SMTPFrom     string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// Load reads the environment, after seeding it from a .env file when one
// exists. Variables already set win over the file.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
	return &Config{
		Port:           getenv("PORT", "8000"),
		Env:            getenv("APP_ENV", "development"),
		AllowedOrigins: splitList(getenv("ORIGIN", "http://localhost:3000")),
		LogLevel:       getenv("LOG_LEVEL", "info"),

		StoreDriver: getenv("STORE_DRIVER", DriverMongo),
		MongoURI:    getenv("DATABASE_URL", "mongodb://localhost:27017"),
		MongoDB:     getenv("MONGO_DB", "lms"),
		PostgresDSN: getenv("POSTGRES_DSN", ""),
		RedisURL:    getenv("REDIS_URL", "redis://localhost:6379/0"),

		ActivationSecret: getenv("ACTIVATION_SECRET", ""),
		AccessSecret:     getenv("ACCESS_TOKEN", ""),
		RefreshSecret:    getenv("REFRESH_TOKEN", ""),
		AccessTokenTTL:   time.Duration(getInt("ACCESS_TOKEN_EXPIRE", 300)) * time.Second,
		RefreshTokenTTL:  time.Duration(getInt("REFRESH_TOKEN_EXPIRE", 1200)) * time.Second,

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPMail:     getenv("SMTP_MAIL", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "avatars"),
		MinioUseSSL:    getBool("MINIO_USE_SSL", false),
	}
}

// Production reports whether secure cookies should be issued.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.ActivationSecret == "" {
		errs = append(errs, errors.New("ACTIVATION_SECRET is required"))
	}
	if c.AccessSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN is required"))
	}
	if c.RefreshSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN is required"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRE and REFRESH_TOKEN_EXPIRE must be positive"))
	}
	if c.Production() && c.SMTPHost == "" {
		errs = append(errs, errors.New("SMTP_HOST is required when APP_ENV=production"))
	}
	switch c.StoreDriver {
	case DriverMongo:
	case DriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, errors.New("STORE_DRIVER must be mongo or postgres"))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid value for %s: %v", key, err)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: invalid value for %s: %v", key, err)
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
