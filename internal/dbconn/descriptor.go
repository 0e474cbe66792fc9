// Package dbconn turns the deployment's database connection source into a
// structured descriptor the storage layer can open a pool from.
package dbconn

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	DefaultPort = 5432

	redacted = "[REDACTED]"
)

type SSLMode string

const (
	SSLModeDisable SSLMode = "disable"
	SSLModePrefer  SSLMode = "prefer"
	SSLModeRequire SSLMode = "require"
)

// ParseSSLMode accepts both libpq spellings ("require") and the keyword
// spellings used by semicolon connection strings ("Require", "Disabled").
func ParseSSLMode(raw string) (SSLMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "disable", "disabled":
		return SSLModeDisable, nil
	case "prefer", "preferred":
		return SSLModePrefer, nil
	case "require", "required":
		return SSLModeRequire, nil
	default:
		return "", fmt.Errorf("unsupported ssl mode %q", raw)
	}
}

func (m SSLMode) valid() bool {
	return m == SSLModeDisable || m == SSLModePrefer || m == SSLModeRequire
}

// Secret holds a credential that must never reach logs or API output.
// Every formatting path renders it as [REDACTED]; Reveal returns the value.
type Secret string

func (s Secret) Reveal() string {
	return string(s)
}

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s Secret) GoString() string {
	return s.String()
}

func (s Secret) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Descriptor is the driver-ready form of a connection source. It is built
// once at startup by Resolve and not modified afterwards.
type Descriptor struct {
	Host     string
	Port     int
	Username string
	Password Secret
	Database string
	SSLMode  SSLMode
}

// Validate checks that every component a connection needs is present.
// An empty password is accepted since trust and peer auth have none.
func (d Descriptor) Validate() error {
	switch {
	case strings.TrimSpace(d.Host) == "":
		return fmt.Errorf("%w: missing host", ErrMalformedSource)
	case d.Port < 1 || d.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrMalformedSource, d.Port)
	case strings.TrimSpace(d.Username) == "":
		return fmt.Errorf("%w: missing username", ErrMalformedSource)
	case strings.TrimSpace(d.Database) == "":
		return fmt.Errorf("%w: missing database name", ErrMalformedSource)
	case !d.SSLMode.valid():
		return fmt.Errorf("%w: unsupported ssl mode %q", ErrMalformedSource, string(d.SSLMode))
	}
	return nil
}

// Summary is the password-free rendering used for startup diagnostics.
func (d Descriptor) Summary() string {
	return fmt.Sprintf("Host=%s;Port=%d;Username=%s;Database=%s;SSL Mode=%s",
		d.Host, d.Port, d.Username, d.Database, d.SSLMode)
}

func (d Descriptor) String() string {
	return d.Summary()
}

func (d Descriptor) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("host", d.Host),
		slog.Int("port", d.Port),
		slog.String("username", d.Username),
		slog.String("database", d.Database),
		slog.String("ssl_mode", string(d.SSLMode)),
	)
}

// ConnString renders the descriptor as a libpq keyword/value string. The
// result carries the password and must only be handed to the driver.
func (d Descriptor) ConnString() string {
	pairs := []string{
		"host=" + quoteValue(d.Host),
		fmt.Sprintf("port=%d", d.Port),
		"user=" + quoteValue(d.Username),
		"password=" + quoteValue(d.Password.Reveal()),
		"dbname=" + quoteValue(d.Database),
		"sslmode=" + string(d.SSLMode),
	}
	return strings.Join(pairs, " ")
}

func (d Descriptor) PoolConfig() (*pgxpool.Config, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(d.ConnString())
	if err != nil {
		return nil, fmt.Errorf("build pool config for %s: %w", d.Summary(), err)
	}
	return cfg, nil
}

var connValueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quoteValue(v string) string {
	return "'" + connValueEscaper.Replace(v) + "'"
}
