package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by the api, gateway and admin binaries.
type Config struct {
	AppEnv string

	HTTPAddr    string
	GatewayAddr string

	DBDriver string
	DBDSN    string
	// DBURL is the postgres:// form of the connection used by schema migrations.
	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret     string
	InternalToken string

	APIURL   string
	UsersURL string
	MediaURL string

	CORSOrigins []string
}

// Load reads the configuration from the environment, loading .env first when present.
func Load() (*Config, error) {
	// .env is optional; production injects the environment directly.
	_ = godotenv.Load()

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		AppEnv:        normalizeEnv(getEnv("APP_ENV", "production")),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		GatewayAddr:   getEnv("GATEWAY_ADDR", ":8081"),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBDSN:         getEnv("DB_DSN", "host=localhost user=user password=password dbname=dmdb port=5432 sslmode=disable"),
		DBURL:         getEnv("DB_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		JWTSecret:     jwtSecret,
		InternalToken: getEnv("INTERNAL_TOKEN", ""),
		APIURL:        strings.TrimRight(getEnv("API_URL", "http://localhost:8080"), "/"),
		UsersURL:      strings.TrimRight(getEnv("USERS_URL", ""), "/"),
		MediaURL:      strings.TrimRight(getEnv("MEDIA_URL", ""), "/"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
	}

	switch cfg.DBDriver {
	case "postgres", "pq", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}

// IsDevelopment reports whether the process runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
