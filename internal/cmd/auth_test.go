package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/adminctl/internal/api"
	"github.com/felixgeelhaar/adminctl/internal/errors"
	"github.com/felixgeelhaar/adminctl/internal/exitcode"
)

func TestAuthLoginStoresSession(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/approval/login" {
			notFound(w, r)
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)
		body := decodeBody(t, r)
		assert.Equal(t, "asha@example.com", body["email"])
		assert.Equal(t, "secret1", body["password"])

		writeJSON(w, http.StatusOK, map[string]any{
			"status":  200,
			"message": "Login successful",
			"data": map[string]any{
				"token":     "abc",
				"expiresIn": 3600,
				"user":      map[string]any{"id": 7, "email": "asha@example.com", "name": "Asha", "role": "admin"},
			},
		})
	})

	out, errOut, err := env.run("auth", "login", "--email", "asha@example.com", "--password", "secret1")
	require.NoError(t, err)

	assert.Contains(t, out, "Signed in as Asha <asha@example.com>")
	assert.Contains(t, errOut, "Signing in...")

	s, err := env.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", s.Token)
	assert.Equal(t, "7", s.UserID)
	assert.Equal(t, "admin", s.Role)
	assert.Equal(t, env.server.URL, s.BaseURL)
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.ExpiresAt, time.Minute)
}

func TestAuthLoginValidatesBeforeCalling(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"bad email", "not-an-email", "secret1"},
		{"short password", "asha@example.com", "123"},
		{"missing password", "asha@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, notFound)

			_, _, err := env.run("auth", "login", "--email", tt.email, "--password", tt.password)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
			assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
			assert.Zero(t, env.requests.Load())
		})
	}
}

func TestAuthLoginBackendRejection(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": 401, "message": "Invalid credentials"})
	})

	_, _, err := env.run("auth", "login", "--email", "asha@example.com", "--password", "wrong-pass")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))

	_, err = env.store.Load(context.Background())
	assert.Equal(t, errors.ErrCodeSessionNotFound, errors.CodeOf(err))
}

func TestAuthLoginUsesAdminEnvironment(t *testing.T) {
	var path string
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]any{"status": 200, "data": map[string]any{"token": "abc"}})
	})

	var out, errOut bytes.Buffer
	root := NewRootCommand(
		WithOutput(&out, &errOut),
		WithSessionStore(env.store),
		WithInteractive(false),
		WithEnv(func(key string) (string, bool) {
			if key == "ADMINCTL_ENVIRONMENT" {
				return "admin", true
			}
			return "", false
		}),
	)
	root.SetArgs([]string{"--base-url", env.server.URL, "auth", "login", "--email", "a@example.com", "--password", "secret1"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, api.AdminLoginPath, path)
}

func TestAuthLogout(t *testing.T) {
	var auth string
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/logout" {
			notFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "Logged out"})
	})
	env.signIn()

	out, errOut, err := env.run("auth", "logout")
	require.NoError(t, err)

	assert.Equal(t, "Bearer "+testToken, auth)
	assert.Contains(t, out, "Signed out Admin <admin@example.com>")
	assert.Contains(t, errOut, "Logout...")

	_, err = env.store.Load(context.Background())
	assert.Equal(t, errors.ErrCodeSessionNotFound, errors.CodeOf(err))
}

func TestAuthLogoutClearsSessionWhenBackendFails(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	env.signIn()

	_, _, err := env.run("auth", "logout")
	require.NoError(t, err)

	_, err = env.store.Load(context.Background())
	assert.Equal(t, errors.ErrCodeSessionNotFound, errors.CodeOf(err))
}

func TestAuthLogoutWithoutSession(t *testing.T) {
	env := newTestEnv(t, notFound)

	out, _, err := env.run("auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in.")
	assert.Zero(t, env.requests.Load())
}

func TestAuthStatus(t *testing.T) {
	env := newTestEnv(t, notFound)

	out, _, err := env.run("--format", "json", "auth", "status")
	require.NoError(t, err)
	var view statusView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.False(t, view.SignedIn)

	env.signIn()
	out, _, err = env.run("--format", "json", "auth", "status")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.True(t, view.SignedIn)
	assert.Equal(t, "admin@example.com", view.Email)

	out, _, err = env.run("auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "signed in")
	assert.Contains(t, out, "admin@example.com")
	assert.Zero(t, env.requests.Load())
}

func TestNewSessionExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s := newSession(&api.LoginData{Token: "opaque", ExpiresIn: 60}, "a@example.com", "http://x", now)
	assert.Equal(t, now.Add(time.Minute), s.ExpiresAt)
	assert.Equal(t, "a@example.com", s.Email)

	exp := now.Add(2 * time.Hour)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	s = newSession(&api.LoginData{Token: signed}, "a@example.com", "http://x", now)
	assert.True(t, s.ExpiresAt.Equal(exp), "expiry %s, want %s", s.ExpiresAt, exp)

	s = newSession(&api.LoginData{Token: "opaque"}, "a@example.com", "http://x", now)
	assert.True(t, s.ExpiresAt.IsZero())
}
