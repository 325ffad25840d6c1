package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postLogin(t *testing.T, app *fiber.App, payload map[string]string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestLogin(t *testing.T) {
	_, app := newTestServer(t)

	tests := []struct {
		name           string
		payload        map[string]string
		expectedStatus int
	}{
		{
			name:           "guest needs no credentials",
			payload:        map[string]string{"role": "guest"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "empty role defaults to guest",
			payload:        map[string]string{},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "user needs a username",
			payload:        map[string]string{"role": "user"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "user with reserved username",
			payload:        map[string]string{"role": "user", "username": "admin"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "user with username",
			payload:        map[string]string{"role": "user", "username": "casey"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "admin with valid credentials",
			payload:        map[string]string{"role": "admin", "username": "admin", "password": "adminpass"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "admin with wrong password",
			payload:        map[string]string{"role": "admin", "username": "admin", "password": "nope"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "admin unknown username",
			payload:        map[string]string{"role": "admin", "username": "ghost", "password": "adminpass"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown role",
			payload:        map[string]string{"role": "superuser"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postLogin(t, app, tt.payload)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestLoginTokenClaims(t *testing.T) {
	s, app := newTestServer(t)

	resp := postLogin(t, app, map[string]string{"role": "user", "username": "casey"})
	var out LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	_ = resp.Body.Close()

	token, err := jwt.Parse(out.Token, func(token *jwt.Token) (any, error) {
		return []byte(s.config.JWTSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, out.Session.ID, claims["sub"])
	assert.Equal(t, "user", claims["role"])
	assert.Equal(t, "casey", claims["username"])
	assert.Equal(t, tokenIssuer, claims["iss"])
	assert.Equal(t, tokenAudience, claims["aud"])
	assert.NotEmpty(t, claims["jti"])

	exp := int64(claims["exp"].(float64))
	assert.Greater(t, exp, time.Now().Unix())
}

func TestMe(t *testing.T) {
	t.Run("returns the session snapshot", func(t *testing.T) {
		_, app := newTestServer(t)
		token := loginAs(t, app, "user", "casey", "")

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		body := decodeBody(t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "user", body["role"])
		assert.Equal(t, "casey", body["username"])
	})

	t.Run("rejects missing token", func(t *testing.T) {
		_, app := newTestServer(t)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects token signed with another key", func(t *testing.T) {
		_, app := newTestServer(t)

		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "someone",
			"role": "admin",
			"iss":  tokenIssuer,
			"aud":  tokenAudience,
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		tokenString, err := forged.SignedString([]byte("wrong_secret"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects token with foreign issuer", func(t *testing.T) {
		s, app := newTestServer(t)

		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "someone",
			"role": "user",
			"iss":  "other-api",
			"aud":  tokenAudience,
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		tokenString, err := forged.SignedString([]byte(s.config.JWTSecret))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestSessionRestoreAfterEviction(t *testing.T) {
	s, app := newTestServer(t)

	resp0 := postLogin(t, app, map[string]string{"role": "user", "username": "casey"})
	var out LoginResponse
	require.NoError(t, json.NewDecoder(resp0.Body).Decode(&out))
	_ = resp0.Body.Close()
	token := out.Token

	// Simulate a restart by dropping the in-memory session
	s.sessions.Delete(out.Session.ID)
	require.Equal(t, 0, s.sessions.Len())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	body := decodeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "casey", body["username"])
	// Restored sessions carry no join flags
	assert.Empty(t, body["joined"])
}

func TestLogout(t *testing.T) {
	s, app := newTestServer(t)
	token := loginAs(t, app, "user", "casey", "")
	require.Equal(t, 1, s.sessions.Len())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, s.sessions.Len())
}
