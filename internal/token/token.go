package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	MinKeyLength     = 64
	Lifetime         = 7 * 24 * time.Hour
	DefaultClockSkew = 5 * time.Minute
)

var SigningMethod = jwt.SigningMethodHS512

var (
	ErrKeyMissing      = errors.New("token signing key is not configured")
	ErrKeyTooShort     = fmt.Errorf("token signing key must be at least %d characters", MinKeyLength)
	ErrMissingSubject  = errors.New("token subject is required")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrTokenExpired    = errors.New("token expired")
)

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

type Issued struct {
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides time.Now for issuance and validation.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// CheckKey reports whether key can sign tokens.
func CheckKey(key []byte) error {
	if len(key) == 0 {
		return ErrKeyMissing
	}
	if len(key) < MinKeyLength {
		return fmt.Errorf("%w: got %d", ErrKeyTooShort, len(key))
	}
	return nil
}

type Service struct {
	key  []byte
	opts options
}

// NewService never fails: the key is checked on every Issue so that a bad
// key fails the request that needs it rather than process startup.
func NewService(key []byte, opts ...Option) *Service {
	return &Service{
		key:  append([]byte(nil), key...),
		opts: buildOptions(opts),
	}
}

func (s *Service) Issue(userID string, email string) (Issued, error) {
	if err := CheckKey(s.key); err != nil {
		return Issued{}, err
	}
	if userID == "" {
		return Issued{}, ErrMissingSubject
	}

	now := s.opts.now().UTC().Truncate(time.Second)
	expires := now.Add(Lifetime)

	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(SigningMethod, claims).SignedString(s.key)
	if err != nil {
		return Issued{}, fmt.Errorf("sign token: %w", err)
	}

	return Issued{Token: signed, IssuedAt: now, ExpiresAt: expires}, nil
}

// ValidationParameters returns the settings a validator needs to accept the
// tokens this service issues.
func (s *Service) ValidationParameters() ValidationParameters {
	return ValidationParameters{
		SigningKey:       append([]byte(nil), s.key...),
		RequireSignature: true,
		ValidateIssuer:   false,
		ValidateAudience: false,
		ClockSkew:        DefaultClockSkew,
	}
}
