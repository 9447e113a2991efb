package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/service"
)

func TestRegister_DefaultsToStudent(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	data := decode[service.AuthResponse](t, resp)
	assert.NotEmpty(t, data.AccessToken)
	assert.Equal(t, "Bearer", data.TokenType)
	require.NotNil(t, data.User)
	assert.Equal(t, domain.RoleStudent, data.User.Role)
	assert.NotContains(t, resp.Body.String(), "password")
}

func TestRegister_AdminRejected(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"name":     "Mallory",
		"email":    "mallory@example.com",
		"password": "password123",
		"role":     "admin",
	})
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Code)
}

func TestRegister_Duplicate(t *testing.T) {
	ts := setupTestServer(t)
	ts.createUser(t, "ada@example.com", domain.RoleStudent)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "ALREADY_EXISTS", decodeError(t, resp).Code)
}

func TestRegister_ValidationDetails(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"name":     "Ada",
		"email":    "not-an-email",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	errEnv := decodeError(t, resp)
	assert.Equal(t, "VALIDATION", errEnv.Code)
	assert.NotNil(t, errEnv.Details)
}

func TestLogin(t *testing.T) {
	ts := setupTestServer(t)
	ts.createUser(t, "ada@example.com", domain.RoleTeacher)

	t.Run("valid credentials", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"email":    "ada@example.com",
			"password": "password123",
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		data := decode[service.AuthResponse](t, resp)
		assert.Equal(t, domain.RoleTeacher, data.User.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"email":    "ada@example.com",
			"password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, resp).Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"email":    "nobody@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestLogin_RateLimitedPerIP(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) { o.LoginPerMinute = 2 })

	body := map[string]any{"email": "ada@example.com", "password": "password123"}
	for range 2 {
		resp := ts.api.Post("/api/v1/auth/login", "X-Forwarded-For: 10.0.0.1", body)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	}

	resp := ts.api.Post("/api/v1/auth/login", "X-Forwarded-For: 10.0.0.1", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, resp).Code)

	// Another client still gets through.
	resp = ts.api.Post("/api/v1/auth/login", "X-Forwarded-For: 10.0.0.2", body)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestGetCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	authHeader, user := ts.createUser(t, "ada@example.com", domain.RoleStudent)

	resp := ts.api.Get("/api/v1/me", authHeader)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, user.ID, decode[domain.User](t, resp).ID)

	resp = ts.api.Get("/api/v1/me")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/me", "Authorization: Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
