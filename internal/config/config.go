package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zudaR107/todo-app/internal/auth"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	devAccessSecret  = "dev_access"
	devRefreshSecret = "dev_refresh"
)

type Config struct {
	Env  string
	Port int

	StoreDriver string
	MongoURI    string
	DBURL       string

	CORSOrigins []string
	// TrustedProxies may set X-Forwarded-For. Empty trusts no proxy and the
	// client address is the peer address.
	TrustedProxies []string

	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	AllowBootstrap              bool
	BootstrapSuperadminEmail    string
	BootstrapSuperadminPassword string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint string

	LoginRateLimit  int
	LoginRateWindow time.Duration
	// zero disables the per-user limit on create endpoints
	WriteRateLimit  int
	WriteRateWindow time.Duration
	MaxBodyBytes    int64
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func Load() (Config, error) {
	accessTTL, err := auth.ParseTTL(getEnv("ACCESS_TTL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("ACCESS_TTL: %w", err)
	}
	refreshTTL, err := auth.ParseTTL(getEnv("REFRESH_TTL", "1d"))
	if err != nil {
		return Config{}, fmt.Errorf("REFRESH_TTL: %w", err)
	}

	cfg := Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/todo"),
		DBURL:       buildDBURL(),

		CORSOrigins:    getEnvList("CORS_ORIGIN", []string{"*"}),
		TrustedProxies: getEnvList("TRUSTED_PROXIES", nil),

		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", devAccessSecret),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", devRefreshSecret),
		AccessTTL:        accessTTL,
		RefreshTTL:       refreshTTL,

		AllowBootstrap:              getEnvBool("ALLOW_BOOTSTRAP", false),
		BootstrapSuperadminEmail:    getEnv("BOOTSTRAP_SUPERADMIN_EMAIL", ""),
		BootstrapSuperadminPassword: getEnv("BOOTSTRAP_SUPERADMIN_PASSWORD", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
		WriteRateLimit:  getEnvInt("WRITE_RATE_LIMIT", 60),
		WriteRateWindow: getEnvDuration("WRITE_RATE_WINDOW", time.Minute),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER: unknown driver %q", c.StoreDriver)
	}

	if c.JWTAccessSecret == c.JWTRefreshSecret {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	if c.IsProd() {
		if c.JWTAccessSecret == devAccessSecret || c.JWTRefreshSecret == devRefreshSecret {
			return errors.New("JWT secrets must be set in prod")
		}
		if c.StoreDriver == DriverMemory {
			return errors.New("memory store is not allowed in prod")
		}
	}
	return nil
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "todo")
	pass := getEnv("DB_PASSWORD", "todo")
	name := getEnv("DB_NAME", "todo")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
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
			slog.Warn("invalid int env, using default", "key", key, "value", v, "default", fallback)
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
			slog.Warn("invalid bool env, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return d
	}
	return fallback
}

// comma separated, blanks dropped
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
