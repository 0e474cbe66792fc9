//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"account-api/internal/config"
	"account-api/internal/database"
	"account-api/internal/dbconn"
	"account-api/internal/handler"
	"account-api/internal/middleware"
	"account-api/internal/model"
	"account-api/internal/repository"
	"account-api/internal/router"
	"account-api/internal/service"
	"account-api/internal/token"
)

var testKey = strings.Repeat("integration-key-", 5)

// newServer needs TEST_DATABASE_URL pointing at a disposable database.
func newServer(t *testing.T) (*httptest.Server, *database.DB) {
	t.Helper()

	raw := os.Getenv("TEST_DATABASE_URL")
	if raw == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	opts := dbconn.DefaultOptions()
	opts.URLSSLMode = dbconn.SSLModePrefer
	descriptor, err := dbconn.Resolve(raw, "", opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, descriptor, 4, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE users`)
	require.NoError(t, err)

	tokens := token.NewService([]byte(testKey))
	validator, err := token.NewValidator(tokens.ValidationParameters())
	require.NoError(t, err)

	accounts := service.NewAccountService(repository.NewUserRepository(db.Pool), tokens, nil)

	cfg := &config.Config{
		RequestTimeout:   30 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
	}

	server := httptest.NewServer(router.New(cfg, middleware.NewAuthMiddleware(validator), router.Handlers{
		Account:     handler.NewAccountHandler(accounts),
		Diagnostics: handler.NewDiagnosticsHandler(),
		Health:      handler.NewHealthHandler(db),
	}))
	t.Cleanup(server.Close)

	return server, db
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func doAuthRequest(t *testing.T, method string, url string, bearer string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeAccount(t *testing.T, resp *http.Response) model.AccountResponse {
	t.Helper()

	var envelope struct {
		Success bool                  `json:"success"`
		Data    model.AccountResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}
