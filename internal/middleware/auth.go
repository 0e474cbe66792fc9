package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"account-api/internal/token"
	"account-api/pkg/apierror"
)

type tokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	validator tokenValidator
}

func NewAuthMiddleware(validator tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
			writeJSONError(w, http.StatusUnauthorized, apierror.CodeUnauthorized, "missing or invalid authorization header")
			return
		}

		claims, err := m.validator.Validate(strings.TrimSpace(header[7:]))
		switch {
		case errors.Is(err, token.ErrKeyMissing), errors.Is(err, token.ErrKeyTooShort):
			slog.Error("token validation unavailable", "error", err)
			writeJSONError(w, http.StatusInternalServerError, apierror.CodeTokenConfiguration, "authentication is not configured")
			return
		case errors.Is(err, token.ErrTokenExpired):
			writeJSONError(w, http.StatusUnauthorized, apierror.CodeUnauthorized, "token expired")
			return
		case err != nil:
			writeJSONError(w, http.StatusUnauthorized, apierror.CodeUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*token.Claims)
	return claims, ok && claims != nil
}
