package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/adminctl/internal/session"
)

const testToken = "test-token"

// testEnv runs commands against an httptest backend with an in-memory
// session store and an isolated home directory.
type testEnv struct {
	t        *testing.T
	server   *httptest.Server
	store    *session.MemoryStore
	requests atomic.Int32

	// now replaces the command clock when set.
	now func() time.Time
}

func newTestEnv(t *testing.T, handler http.HandlerFunc) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	env := &testEnv{t: t, store: session.NewMemoryStore()}
	env.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.requests.Add(1)
		handler(w, r)
	}))
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) signIn() {
	e.t.Helper()
	require.NoError(e.t, e.store.Save(context.Background(), &session.Session{
		Token:     testToken,
		Email:     "admin@example.com",
		Name:      "Admin",
		CreatedAt: time.Now().UTC(),
	}))
}

func (e *testEnv) run(args ...string) (string, string, error) {
	e.t.Helper()

	var out, errOut bytes.Buffer
	opts := []Option{
		WithOutput(&out, &errOut),
		WithSessionStore(e.store),
		WithInteractive(false),
		WithEnv(func(string) (string, bool) { return "", false }),
	}
	if e.now != nil {
		opts = append(opts, func(o *rootOptions) { o.now = e.now })
	}
	root := NewRootCommand(opts...)
	root.SetArgs(append([]string{"--base-url", e.server.URL, "--no-color"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "message": "no route " + r.URL.Path})
}
