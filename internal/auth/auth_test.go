package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret-0123456789"

func TestTokenMaker_RoundTrip(t *testing.T) {
	tm := NewTokenMaker(testSecret)

	tok, err := tm.New("admin", RoleAdmin, time.Minute)
	require.NoError(t, err)

	c, err := tm.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, c.Role)
	assert.Equal(t, "admin", c.Subject)
	assert.NotEmpty(t, c.ID)
}

func TestTokenMaker_Rejects(t *testing.T) {
	tm := NewTokenMaker(testSecret)

	other, err := NewTokenMaker("different-secret-0123").New("admin", RoleAdmin, time.Minute)
	require.NoError(t, err)
	_, err = tm.Parse(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := tm.New("admin", RoleAdmin, -time.Minute)
	require.NoError(t, err)
	_, err = tm.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tm.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCredentials(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)

	creds, err := NewCredentials(hash)
	require.NoError(t, err)

	assert.NoError(t, creds.Verify("password123"))
	assert.NoError(t, creds.Verify("  password123 "))
	assert.ErrorIs(t, creds.Verify("password124"), ErrInvalidCredentials)
	assert.ErrorIs(t, creds.Verify(""), ErrInvalidCredentials)

	_, err = HashPassword("short")
	assert.Error(t, err)

	_, err = NewCredentials("plaintext")
	assert.Error(t, err)
}

func TestRequireRole(t *testing.T) {
	tm := NewTokenMaker(testSecret)
	h := RequireRole(tm, RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := ClaimsFromContext(r.Context())
		if !ok || c.Role != RoleAdmin {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	adminTok, err := tm.New("admin", RoleAdmin, time.Minute)
	require.NoError(t, err)
	viewerTok, err := tm.New("v", "viewer", time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"wrong role", "Bearer " + viewerTok, http.StatusForbidden},
		{"admin", "Bearer " + adminTok, http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/products/1", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	creds, err := NewCredentials(hash)
	require.NoError(t, err)

	tm := NewTokenMaker(testSecret)
	l := &Login{Log: zap.NewNop(), Tokens: tm, Credentials: creds, TTL: time.Minute}

	cases := []struct {
		name string
		body string
		want int
	}{
		{"ok", `{"password":"password123"}`, http.StatusOK},
		{"wrong password", `{"password":"nope-nope"}`, http.StatusUnauthorized},
		{"unknown field", `{"password":"password123","user":"x"}`, http.StatusBadRequest},
		{"trailing data", `{"password":"password123"} {}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()

			l.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code, rr.Body.String())
			if tc.want == http.StatusOK {
				assert.Contains(t, rr.Body.String(), `"access_token"`)
				assert.Contains(t, rr.Body.String(), `"expires_in":60`)
			}
		})
	}
}
