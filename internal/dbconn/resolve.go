package dbconn

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	ErrConfigurationMissing = errors.New("database connection source is not configured")
	ErrMalformedCredentials = errors.New("database url credentials must have the form user:password")
	ErrMalformedSource      = errors.New("malformed database connection source")
)

// Options selects how Resolve treats the primary source.
//
// RequireURLScheme guards URL parsing: when set, the primary source is read
// as a URL only if it starts with postgres:// or postgresql://, and is
// otherwise read as a structured connection string. When unset, any non-empty
// primary source is read as a URL.
//
// URLSSLMode applies to every URL-form source. FallbackSSLMode applies to
// structured strings that do not name a mode themselves.
type Options struct {
	RequireURLScheme bool
	URLSSLMode       SSLMode
	FallbackSSLMode  SSLMode
}

func DefaultOptions() Options {
	return Options{
		RequireURLScheme: true,
		URLSSLMode:       SSLModeRequire,
		FallbackSSLMode:  SSLModePrefer,
	}
}

func (o Options) withDefaults() Options {
	if o.URLSSLMode == "" {
		o.URLSSLMode = SSLModeRequire
	}
	if o.FallbackSSLMode == "" {
		o.FallbackSSLMode = SSLModePrefer
	}
	return o
}

// Resolve builds a Descriptor from the primary environment source, falling
// back to a structured connection string from static configuration.
func Resolve(rawSource string, fallback string, opts Options) (Descriptor, error) {
	opts = opts.withDefaults()
	if !opts.URLSSLMode.valid() || !opts.FallbackSSLMode.valid() {
		return Descriptor{}, fmt.Errorf("invalid ssl mode policy %q/%q", opts.URLSSLMode, opts.FallbackSSLMode)
	}

	source := strings.TrimSpace(rawSource)
	if source == "" {
		source = strings.TrimSpace(fallback)
		if source == "" {
			return Descriptor{}, ErrConfigurationMissing
		}
		if hasPostgresScheme(source) {
			return fromURL(source, opts.URLSSLMode)
		}
		return fromConnString(source, opts.FallbackSSLMode)
	}

	if !opts.RequireURLScheme || hasPostgresScheme(source) {
		return fromURL(source, opts.URLSSLMode)
	}
	return fromConnString(source, opts.FallbackSSLMode)
}

func hasPostgresScheme(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

func fromURL(source string, mode SSLMode) (Descriptor, error) {
	u, err := url.Parse(source)
	if err != nil {
		// url.Error repeats the whole input, password included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return Descriptor{}, fmt.Errorf("%w: %v", ErrMalformedSource, err)
	}

	if u.Host == "" {
		return Descriptor{}, fmt.Errorf("%w: url has no host", ErrMalformedSource)
	}

	if u.User == nil {
		return Descriptor{}, ErrMalformedCredentials
	}
	password, hasPassword := u.User.Password()
	if !hasPassword || u.User.Username() == "" {
		return Descriptor{}, ErrMalformedCredentials
	}

	port := DefaultPort
	if raw := u.Port(); raw != "" {
		port, err = strconv.Atoi(raw)
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: invalid port %q", ErrMalformedSource, raw)
		}
	}

	d := Descriptor{
		Host:     u.Hostname(),
		Port:     port,
		Username: u.User.Username(),
		Password: Secret(password),
		Database: strings.TrimLeft(u.Path, "/"),
		SSLMode:  mode,
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}
