package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ValidationParameters is the contract between the issuer and whatever
// authenticates incoming requests. Issuer and audience checks stay off
// because Issue sets neither claim.
type ValidationParameters struct {
	SigningKey       []byte
	RequireSignature bool
	ValidateIssuer   bool
	ValidIssuer      string
	ValidateAudience bool
	ValidAudience    string
	ClockSkew        time.Duration
}

type Validator struct {
	key    []byte
	parser *jwt.Parser
}

func NewValidator(params ValidationParameters, opts ...Option) (*Validator, error) {
	if !params.RequireSignature {
		return nil, errors.New("unsigned tokens are not supported")
	}
	if params.ValidateIssuer && params.ValidIssuer == "" {
		return nil, errors.New("issuer validation needs a valid issuer")
	}
	if params.ValidateAudience && params.ValidAudience == "" {
		return nil, errors.New("audience validation needs a valid audience")
	}

	o := buildOptions(opts)
	skew := params.ClockSkew
	if skew < 0 {
		skew = 0
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{SigningMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(skew),
		jwt.WithTimeFunc(o.now),
	}
	if params.ValidateIssuer {
		parserOptions = append(parserOptions, jwt.WithIssuer(params.ValidIssuer))
	}
	if params.ValidateAudience {
		parserOptions = append(parserOptions, jwt.WithAudience(params.ValidAudience))
	}

	return &Validator{
		key:    append([]byte(nil), params.SigningKey...),
		parser: jwt.NewParser(parserOptions...),
	}, nil
}

// Validate verifies signature and lifetime and returns the embedded claims.
// Rejections wrap ErrUnauthenticated; an unusable key is reported as the key
// error itself so callers can tell misconfiguration from a bad token.
func (v *Validator) Validate(tokenString string) (*Claims, error) {
	if err := CheckKey(v.key); err != nil {
		return nil, err
	}

	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrUnauthenticated)
	}

	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrMissingSubject)
	}

	return claims, nil
}
