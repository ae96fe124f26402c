package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultJWTSecret = "dev-secret-change-me"

type Config struct {
	Port            string
	JWTSecret       string
	SecretIsDefault bool
	ExpiresIn       string
	TokenTTL        time.Duration
	RBACEnabled     bool
	UsersPath       string
	DBDSN           string
	SchemaDir       string
	LogLevel        string
	LogFormat       string
	CORSOrigin      string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

// Load reads an optional .env file from the working directory and then
// builds the configuration from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	rbac, err := getenvBool("RBAC_ENABLED", true)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Port:        getenv("PORT", "3000"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		ExpiresIn:   getenv("JWT_EXPIRES_IN", "1h"),
		RBACEnabled: rbac,
		UsersPath:   os.Getenv("USERS_FILE"),
		DBDSN:       os.Getenv("DB_DSN"),
		SchemaDir:   getenv("DB_SCHEMA_DIR", "sql"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "text"),
		CORSOrigin:  getenv("CORS_ALLOWED_ORIGIN", "*"),
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = DefaultJWTSecret
		cfg.SecretIsDefault = true
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}
	ttl, err := ParseLifetime(cfg.ExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
	}
	cfg.TokenTTL = ttl
	return cfg, nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

// ParseLifetime accepts Go durations ("90m", "1h"), a bare number of
// seconds ("3600") and whole days ("7d").
func ParseLifetime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty lifetime")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return scaleLifetime(s, n, time.Second)
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse %q: %w", s, err)
		}
		return scaleLifetime(s, n, 24*time.Hour)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("lifetime %q must be positive", s)
	}
	return d, nil
}

func scaleLifetime(s string, n int64, unit time.Duration) (time.Duration, error) {
	if n <= 0 {
		return 0, fmt.Errorf("lifetime %q must be positive", s)
	}
	if n > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("lifetime %q out of range", s)
	}
	return time.Duration(n) * unit, nil
}
