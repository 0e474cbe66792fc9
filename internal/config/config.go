package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"account-api/internal/dbconn"
)

var defaultCORSOrigins = []string{
	"http://localhost:4200",
	"https://localhost:4200",
	"https://decpwa.web.app",
	"https://decpwa.firebaseapp.com",
}

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	SettingsFile            string
	DatabaseURL             string
	DatabaseFallback        string
	DBRequireURLScheme      bool
	DBURLSSLMode            string
	DBFallbackSSLMode       string
	DBMaxConns              int32
	DBMinConns              int32
	DBMigrate               bool
	TokenKey                string
	CORSOrigins             []string
	RateLimitRPM            int
	AuthRateLimitRPM        int
	LogLevel                string
	LogFormat               string
}

// Settings mirrors the optional JSON settings file that carries the static
// fallbacks for values normally injected through the environment.
type Settings struct {
	ConnectionStrings struct {
		Default string `json:"Default"`
	} `json:"ConnectionStrings"`
	TokenKey string `json:"TokenKey"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	settingsFile := getEnv("SETTINGS_FILE", "./appsettings.json")
	settings, err := LoadSettings(settingsFile)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		SettingsFile:            settingsFile,
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DatabaseFallback:        getEnv("DB_CONNECTION_STRING", settings.ConnectionStrings.Default),
		DBRequireURLScheme:      getBool("DB_REQUIRE_URL_SCHEME", true),
		DBURLSSLMode:            getEnv("DB_URL_SSL_MODE", string(dbconn.SSLModeRequire)),
		DBFallbackSSLMode:       getEnv("DB_FALLBACK_SSL_MODE", string(dbconn.SSLModePrefer)),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 1)),
		DBMigrate:               getBool("DB_MIGRATE", true),
		TokenKey:                getEnv("TOKEN_KEY", settings.TokenKey),
		CORSOrigins:             splitCSV(os.Getenv("CORS_ORIGINS")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = append([]string(nil), defaultCORSOrigins...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadSettings reads the JSON settings file. A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	var settings Settings
	if strings.TrimSpace(path) == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	return settings, nil
}

// Validate covers server and policy settings only. The connection source and
// the signing key are checked by the components that consume them.
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if _, err := dbconn.ParseSSLMode(c.DBURLSSLMode); err != nil {
		return fmt.Errorf("DB_URL_SSL_MODE: %w", err)
	}

	if _, err := dbconn.ParseSSLMode(c.DBFallbackSSLMode); err != nil {
		return fmt.Errorf("DB_FALLBACK_SSL_MODE: %w", err)
	}

	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}

	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}

	if c.LogFormat != "pretty" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be pretty or json")
	}

	return nil
}

func (c *Config) ResolverOptions() (dbconn.Options, error) {
	urlMode, err := dbconn.ParseSSLMode(c.DBURLSSLMode)
	if err != nil {
		return dbconn.Options{}, err
	}

	fallbackMode, err := dbconn.ParseSSLMode(c.DBFallbackSSLMode)
	if err != nil {
		return dbconn.Options{}, err
	}

	return dbconn.Options{
		RequireURLScheme: c.DBRequireURLScheme,
		URLSSLMode:       urlMode,
		FallbackSSLMode:  fallbackMode,
	}, nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
