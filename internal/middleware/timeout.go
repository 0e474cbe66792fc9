package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"account-api/pkg/apierror"
)

const defaultRequestTimeout = 30 * time.Second

// Timeout answers 503 with the error envelope once timeout elapses. The
// handler's own Content-Type replaces the preset one when it finishes in time.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	body, _ := json.Marshal(errorEnvelope(apierror.CodeRequestTimeout, "request timed out"))

	return func(next http.Handler) http.Handler {
		timed := http.TimeoutHandler(next, timeout, string(body))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			timed.ServeHTTP(w, r)
		})
	}
}
