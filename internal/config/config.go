package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Env       string
	Port      int
	HTTP      HTTPConfig
	DB        DBConfig
	Store     string
	Auth      AuthConfig
	GitHub    GitHubConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
}

type HTTPConfig struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

type DBConfig struct {
	URL           string
	MaxConns      int32
	RunMigrations bool
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type GitHubConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	CacheTTL     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads .env when present and then the process environment.
func Load() Config {
	// a missing .env is the normal case outside local dev
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 5000),
		HTTP: HTTPConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			MaxBodyBytes:   int64(getEnvInt("HTTP_MAX_BODY_BYTES", 1<<20)),
			AuthRateLimit:  getEnvInt("AUTH_RATE_LIMIT", 20),
			AuthRateWindow: time.Duration(getEnvInt("AUTH_RATE_WINDOW_SECONDS", 60)) * time.Second,
		},
		DB: DBConfig{
			URL:           buildDBURL(),
			MaxConns:      int32(getEnvInt("DB_MAX_CONNS", 5)),
			RunMigrations: getEnvBool("RUN_MIGRATIONS", false),
		},
		Store: getEnv("STORE_DRIVER", StorePostgres),
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			TokenTTL:   time.Duration(getEnvInt("JWT_TTL_MINUTES", 60)) * time.Minute,
			BcryptCost: getEnvInt("BCRYPT_COST", 12),
		},
		GitHub: GitHubConfig{
			BaseURL:      getEnv("GITHUB_BASE_URL", "https://api.github.com"),
			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_SECRET"),
			Timeout:      time.Duration(getEnvInt("GITHUB_TIMEOUT_SECONDS", 5)) * time.Second,
			CacheTTL:     time.Duration(getEnvInt("GITHUB_CACHE_TTL_SECONDS", 600)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "devconnector-api"),
		},
	}
}

// Validate catches settings the server cannot run without.
func (c Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" && c.Env != "dev" && c.Env != "test" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	if c.Store != StorePostgres && c.Store != StoreMemory {
		errs = append(errs, errors.New("STORE_DRIVER must be postgres or memory"))
	}

	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL_MINUTES must be positive"))
	}

	return errors.Join(errs...)
}

func buildDBURL() string {
	if v := os.Getenv("DB_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "devconnector")
	pass := getEnv("DB_PASSWORD", "devconnector")
	name := getEnv("DB_NAME", "devconnector")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds a single store or upstream call.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid bool env, using default", "key", key, "value", v)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := []string{}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
