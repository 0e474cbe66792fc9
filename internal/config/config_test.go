package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-api/internal/dbconn"
)

var managedEnv = []string{
	"SETTINGS_FILE", "SERVER_PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT",
	"REQUEST_TIMEOUT", "DATABASE_URL", "DB_CONNECTION_STRING", "DB_REQUIRE_URL_SCHEME", "DB_URL_SSL_MODE",
	"DB_FALLBACK_SSL_MODE", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_MIGRATE", "TOKEN_KEY", "CORS_ORIGINS",
	"RATE_LIMIT_RPM", "AUTH_RATE_LIMIT_RPM", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedEnv {
		t.Setenv(key, "")
	}
	t.Setenv("SETTINGS_FILE", filepath.Join(t.TempDir(), "missing.json"))
}

func writeSettings(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "appsettings.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.DatabaseFallback)
	assert.Empty(t, cfg.TokenKey)
	assert.True(t, cfg.DBRequireURLScheme)
	assert.True(t, cfg.DBMigrate)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, defaultCORSOrigins, cfg.CORSOrigins)
	assert.Equal(t, "pretty", cfg.LogFormat)

	opts, err := cfg.ResolverOptions()
	require.NoError(t, err)
	assert.Equal(t, dbconn.DefaultOptions(), opts)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", " postgres://u:p@h:5432/db ")
	t.Setenv("DB_REQUIRE_URL_SCHEME", "false")
	t.Setenv("DB_URL_SSL_MODE", "Prefer")
	t.Setenv("TOKEN_KEY", "env-key")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@h:5432/db", cfg.DatabaseURL)
	assert.Equal(t, "env-key", cfg.TokenKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "json", cfg.LogFormat)

	opts, err := cfg.ResolverOptions()
	require.NoError(t, err)
	assert.False(t, opts.RequireURLScheme)
	assert.Equal(t, dbconn.SSLModePrefer, opts.URLSSLMode)
}

func TestLoadSettingsFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("SETTINGS_FILE", writeSettings(t, `{
		"ConnectionStrings": {"Default": "Host=localhost;Username=postgres;Password=pw;Database=app"},
		"TokenKey": "settings-key"
	}`))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Host=localhost;Username=postgres;Password=pw;Database=app", cfg.DatabaseFallback)
	assert.Equal(t, "settings-key", cfg.TokenKey)

	t.Run("environment wins over settings", func(t *testing.T) {
		t.Setenv("TOKEN_KEY", "env-key")
		t.Setenv("DB_CONNECTION_STRING", "host=db user=u dbname=d")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "env-key", cfg.TokenKey)
		assert.Equal(t, "host=db user=u dbname=d", cfg.DatabaseFallback)
	})
}

func TestLoadRejectsBadSettingsFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("SETTINGS_FILE", writeSettings(t, `{not json`))

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			ServerPort:        "8080",
			RequestTimeout:    time.Second,
			DBURLSSLMode:      "require",
			DBFallbackSSLMode: "prefer",
			DBMaxConns:        4,
			DBMinConns:        1,
			LogFormat:         "pretty",
		}
	}

	require.NoError(t, base().Validate())

	cases := map[string]func(*Config){
		"empty port":        func(c *Config) { c.ServerPort = "" },
		"zero timeout":      func(c *Config) { c.RequestTimeout = 0 },
		"bad url ssl":       func(c *Config) { c.DBURLSSLMode = "verify-full" },
		"bad fallback ssl":  func(c *Config) { c.DBFallbackSSLMode = "sometimes" },
		"no connections":    func(c *Config) { c.DBMaxConns = 0 },
		"min above max":     func(c *Config) { c.DBMinConns = 5 },
		"unknown log style": func(c *Config) { c.LogFormat = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
