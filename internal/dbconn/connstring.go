package dbconn

import (
	"fmt"
	"strconv"
	"strings"
)

var connStringKeys = map[string]string{
	"host":            "host",
	"server":          "host",
	"port":            "port",
	"username":        "user",
	"user":            "user",
	"user id":         "user",
	"userid":          "user",
	"uid":             "user",
	"password":        "password",
	"pwd":             "password",
	"database":        "database",
	"dbname":          "database",
	"db":              "database",
	"initial catalog": "database",
	"ssl mode":        "sslmode",
	"sslmode":         "sslmode",
}

// fromConnString reads a structured connection string. Two layouts are
// accepted: semicolon separated (Host=h;Port=5432;Username=u;...) and libpq
// keyword/value (host=h port=5432 user=u ...). Unknown keys are ignored.
func fromConnString(source string, fallbackMode SSLMode) (Descriptor, error) {
	var (
		pairs map[string]string
		err   error
	)
	if hasUnquotedSemicolon(source) {
		pairs, err = splitSemicolonPairs(source)
	} else {
		pairs, err = splitKeywordPairs(source)
	}
	if err != nil {
		return Descriptor{}, err
	}

	values := map[string]string{}
	for key, value := range pairs {
		if canonical, ok := connStringKeys[key]; ok {
			values[canonical] = value
		}
	}

	d := Descriptor{
		Host:     values["host"],
		Port:     DefaultPort,
		Username: values["user"],
		Password: Secret(values["password"]),
		Database: values["database"],
		SSLMode:  fallbackMode,
	}

	if raw, ok := values["port"]; ok && raw != "" {
		d.Port, err = strconv.Atoi(raw)
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: invalid port %q", ErrMalformedSource, raw)
		}
	}

	if raw, ok := values["sslmode"]; ok && raw != "" {
		d.SSLMode, err = ParseSSLMode(raw)
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: %v", ErrMalformedSource, err)
		}
	}

	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// hasUnquotedSemicolon reports whether a ';' separates pairs. Quotes open
// only at the start of a value, so an apostrophe inside an unquoted value is
// literal. Both escape styles (backslash and doubled quote) are skipped.
func hasUnquotedSemicolon(source string) bool {
	valueStart := false
	for i := 0; i < len(source); i++ {
		c := source[i]
		switch {
		case valueStart && (c == ' ' || c == '\t'):
			continue
		case valueStart && (c == '\'' || c == '"'):
			i = skipQuoted(source, i)
		case c == ';':
			return true
		}
		valueStart = c == '='
	}
	return false
}

// skipQuoted returns the index of the quote closing the value opened at
// source[open], or len(source) when it is unterminated.
func skipQuoted(source string, open int) int {
	quote := source[open]
	for i := open + 1; i < len(source); i++ {
		switch source[i] {
		case '\\':
			i++
		case quote:
			if i+1 < len(source) && source[i+1] == quote {
				i++
				continue
			}
			return i
		}
	}
	return len(source)
}

// splitSemicolonPairs reads Key=Value;Key=Value. A value may be wrapped in
// single or double quotes; inside, a doubled quote is one literal quote and
// ';' does not end the pair.
func splitSemicolonPairs(source string) (map[string]string, error) {
	pairs := map[string]string{}
	s := source

	for {
		s = strings.TrimLeft(s, " \t;")
		if s == "" {
			return pairs, nil
		}

		eq := strings.IndexByte(s, '=')
		semi := strings.IndexByte(s, ';')
		if eq < 0 || (semi >= 0 && semi < eq) {
			part := s
			if semi >= 0 {
				part = s[:semi]
			}
			return nil, fmt.Errorf("%w: expected key=value, got %q", ErrMalformedSource, redactPair(part))
		}
		key := normalizeKey(s[:eq])
		if key == "" {
			return nil, fmt.Errorf("%w: empty key", ErrMalformedSource)
		}
		s = strings.TrimLeft(s[eq+1:], " \t")

		var value string
		if s != "" && (s[0] == '\'' || s[0] == '"') {
			quote := s[0]
			var b strings.Builder
			closed := false
			i := 1
			for ; i < len(s); i++ {
				if s[i] != quote {
					b.WriteByte(s[i])
					continue
				}
				if i+1 < len(s) && s[i+1] == quote {
					b.WriteByte(quote)
					i++
					continue
				}
				closed = true
				break
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated quoted value for %q", ErrMalformedSource, key)
			}
			value = b.String()
			s = strings.TrimLeft(s[i+1:], " \t")
			if s != "" && s[0] != ';' {
				return nil, fmt.Errorf("%w: unexpected text after quoted value for %q", ErrMalformedSource, key)
			}
		} else {
			end := strings.IndexByte(s, ';')
			if end < 0 {
				end = len(s)
			}
			value = strings.TrimSpace(s[:end])
			s = s[end:]
		}

		pairs[key] = value
	}
}

// splitKeywordPairs follows libpq quoting: values may be wrapped in single
// quotes, inside which backslash escapes the next character.
func splitKeywordPairs(source string) (map[string]string, error) {
	pairs := map[string]string{}
	s := strings.TrimSpace(source)

	for s != "" {
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			return nil, fmt.Errorf("%w: expected key=value", ErrMalformedSource)
		}
		key := normalizeKey(s[:eq])
		if key == "" || strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("%w: invalid key %q", ErrMalformedSource, key)
		}
		s = strings.TrimLeft(s[eq+1:], " \t")

		var value string
		if strings.HasPrefix(s, "'") {
			var b strings.Builder
			closed := false
			i := 1
			for ; i < len(s); i++ {
				switch s[i] {
				case '\\':
					i++
					if i < len(s) {
						b.WriteByte(s[i])
					}
				case '\'':
					closed = true
				default:
					b.WriteByte(s[i])
				}
				if closed {
					break
				}
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated quoted value for %q", ErrMalformedSource, key)
			}
			value = b.String()
			s = s[i+1:]
		} else {
			end := strings.IndexAny(s, " \t")
			if end < 0 {
				end = len(s)
			}
			value = s[:end]
			s = s[end:]
		}

		pairs[key] = value
		s = strings.TrimLeft(s, " \t")
	}
	return pairs, nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.Join(strings.Fields(key), " "))
}

// redactPair keeps a malformed fragment out of error text when it could be
// part of a credential.
func redactPair(part string) string {
	if len(part) > 4 {
		return part[:2] + "..."
	}
	return "..."
}
