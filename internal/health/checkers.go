package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/felixgeelhaar/adminctl/internal/errors"
	"github.com/felixgeelhaar/adminctl/internal/session"
)

// ConfigChecker reports whether the configuration loaded and validated.
type ConfigChecker struct {
	path    string
	baseURL string
	loadErr error
}

// NewConfigChecker reports on a configuration already loaded from path.
// loadErr is the error the loader returned, if any.
func NewConfigChecker(path, baseURL string, loadErr error) *ConfigChecker {
	return &ConfigChecker{path: path, baseURL: baseURL, loadErr: loadErr}
}

func (c *ConfigChecker) Name() string {
	return "configuration"
}

func (c *ConfigChecker) Check(ctx context.Context) *Result {
	if c.loadErr != nil {
		return Unhealthy("configuration is invalid").
			WithDetail("path", c.path).
			WithDetail("error", c.loadErr.Error())
	}

	if _, err := os.Stat(c.path); os.IsNotExist(err) {
		return Healthy("no config file, using defaults and environment").
			WithDetail("path", c.path).
			WithDetail("suggestion", "Create one with: adminctl config init")
	}

	return Healthy("configuration is valid").
		WithDetail("path", c.path).
		WithDetail("base_url", c.baseURL)
}

// SessionChecker reports whether a usable session token is stored.
type SessionChecker struct {
	store session.Store
	now   func() time.Time
}

// NewSessionChecker inspects the session held by store.
func NewSessionChecker(store session.Store) *SessionChecker {
	return &SessionChecker{store: store, now: time.Now}
}

func (c *SessionChecker) Name() string {
	return "stored-session"
}

func (c *SessionChecker) Check(ctx context.Context) *Result {
	s, err := c.store.Load(ctx)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeSessionNotFound {
			return Degraded("not signed in").
				WithDetail("suggestion", "Run 'adminctl auth login'")
		}
		return Unhealthy("stored session cannot be read").
			WithDetail("error", err.Error())
	}

	expires := s.ExpiresAt
	if expires.IsZero() {
		expires = session.ExpiryOf(s.Token)
	}
	if !expires.IsZero() && c.now().After(expires) {
		return Degraded(fmt.Sprintf("session for %s expired", s.Email)).
			WithDetail("expired_at", expires.Format(time.RFC3339)).
			WithDetail("suggestion", "Run 'adminctl auth login' again")
	}

	r := Healthy(fmt.Sprintf("signed in as %s", s.Email))
	if !expires.IsZero() {
		r.WithDetail("expires_at", expires.Format(time.RFC3339))
	}
	return r
}

// BackendChecker reports whether the backend answers HTTP requests. Any
// response below 500 counts as reachable; no credentials are sent.
type BackendChecker struct {
	baseURL   string
	client    *http.Client
	userAgent string
}

// NewBackendChecker probes baseURL with client, or http.DefaultClient.
func NewBackendChecker(baseURL string, client *http.Client, userAgent string) *BackendChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &BackendChecker{baseURL: baseURL, client: client, userAgent: userAgent}
}

func (c *BackendChecker) Name() string {
	return "backend"
}

func (c *BackendChecker) Check(ctx context.Context) *Result {
	if c.baseURL == "" {
		return Unhealthy("api.base_url is not set").
			WithDetail("suggestion", "Set ADMINCTL_BASE_URL or pass --base-url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return Unhealthy("api.base_url is not a valid URL").
			WithDetail("error", err.Error())
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return Unhealthy("backend is unreachable").
			WithDetail("url", c.baseURL).
			WithDetail("error", err.Error()).
			WithLatency(latency)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= http.StatusInternalServerError {
		return Degraded(fmt.Sprintf("backend answered %d", resp.StatusCode)).
			WithDetail("url", c.baseURL).
			WithDetail("status_code", resp.StatusCode).
			WithLatency(latency)
	}
	return Healthy("backend is reachable").
		WithDetail("url", c.baseURL).
		WithDetail("status_code", resp.StatusCode).
		WithLatency(latency)
}
