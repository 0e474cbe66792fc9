package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequestValidate(t *testing.T) {
	t.Parallel()

	valid := RegisterRequest{DisplayName: "Ann", Email: "ann@example.com", Password: "pass"}
	require.NoError(t, valid.Validate())

	cases := map[string]RegisterRequest{
		"missing display name": {Email: "ann@example.com", Password: "pass"},
		"missing email":        {DisplayName: "Ann", Password: "pass"},
		"invalid email":        {DisplayName: "Ann", Email: "not-an-email", Password: "pass"},
		"short password":       {DisplayName: "Ann", Email: "ann@example.com", Password: "abc"},
		"long password":        {DisplayName: "Ann", Email: "ann@example.com", Password: strings.Repeat("p", 73)},
		"long display name":    {DisplayName: strings.Repeat("a", 101), Email: "ann@example.com", Password: "pass"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, req.Validate())
		})
	}
}

func TestRegisterRequestNormalize(t *testing.T) {
	t.Parallel()

	req := RegisterRequest{DisplayName: "  Ann ", Email: " Ann@Example.COM ", Password: " pw with spaces "}.Normalize()
	assert.Equal(t, "Ann", req.DisplayName)
	assert.Equal(t, "ann@example.com", req.Email)
	assert.Equal(t, " pw with spaces ", req.Password)
}

func TestLoginRequestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, LoginRequest{Email: "a@b.com", Password: "x"}.Validate())
	assert.Error(t, LoginRequest{Email: "a@b.com"}.Validate())
	assert.Error(t, LoginRequest{Password: "x"}.Validate())
	assert.Equal(t, "a@b.com", LoginRequest{Email: " A@B.com"}.Normalize().Email)
}
