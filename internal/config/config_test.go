package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/adminctl/internal/errors"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "/approval/login", cfg.LoginPath())
}

func TestLoginPath(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		loginPath   string
		want        string
	}{
		{name: "default", want: "/approval/login"},
		{name: "approval", environment: "approval", want: "/approval/login"},
		{name: "admin", environment: "ADMIN", want: "/admin/login"},
		{name: "explicit path wins", environment: "admin", loginPath: "/v2/login", want: "/v2/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.API.Environment = tt.environment
			cfg.API.LoginPath = tt.loginPath
			assert.Equal(t, tt.want, cfg.LoginPath())
		})
	}
}

func TestLoaderPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
api:
  base_url: https://file.example.com
  timeout: 10s
  environment: admin
log:
  level: info
output:
  format: yaml
`)
	dotenv := writeFile(t, dir, ".env", "ADMINCTL_BASE_URL=https://dotenv.example.com\nADMINCTL_LOG_LEVEL=debug\nADMINCTL_RATE_LIMIT=2.5\n")

	loader := &Loader{
		Path:     path,
		Explicit: true,
		EnvFiles: []string{dotenv},
		LookupEnv: envMap(map[string]string{
			"ADMINCTL_BASE_URL": "https://env.example.com",
		}),
	}

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.API.BaseURL, "process env beats .env and file")
	assert.Equal(t, "debug", cfg.Log.Level, ".env beats file")
	assert.Equal(t, 2.5, cfg.API.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout, "file beats defaults")
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, "/admin/login", cfg.LoginPath())
	assert.Equal(t, "Bearer", cfg.API.AuthScheme, "defaults survive partial files")

	require.NoError(t, Overrides{BaseURL: "https://flag.example.com", Format: "json"}.Apply(cfg))
	assert.Equal(t, "https://flag.example.com", cfg.API.BaseURL, "flags beat everything")
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoaderMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := (&Loader{Path: missing, LookupEnv: envMap(nil)}).Load()
	require.NoError(t, err)
	assert.Equal(t, Default().API.BaseURL, cfg.API.BaseURL)

	_, err = (&Loader{Path: missing, Explicit: true, LookupEnv: envMap(nil)}).Load()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigRead, errors.CodeOf(err))
}

func TestLoaderMalformedYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "api: [unclosed")

	_, err := (&Loader{Path: path, LookupEnv: envMap(nil)}).Load()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigRead, errors.CodeOf(err))
}

func TestLoaderInvalidEnv(t *testing.T) {
	tests := map[string]string{
		"ADMINCTL_TIMEOUT":    "soon",
		"ADMINCTL_RATE_LIMIT": "fast",
		"ADMINCTL_TRACING":    "maybe",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			loader := &Loader{
				Path:      filepath.Join(t.TempDir(), "none.yaml"),
				LookupEnv: envMap(map[string]string{key: value}),
			}
			_, err := loader.Load()
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeConfigInvalid, errors.CodeOf(err))
		})
	}
}

func TestLoaderOTLPEndpoint(t *testing.T) {
	loader := &Loader{
		Path: filepath.Join(t.TempDir(), "none.yaml"),
		LookupEnv: envMap(map[string]string{
			"OTEL_EXPORTER_OTLP_ENDPOINT": "http://collector:4318",
			"ADMINCTL_TRACING":            "true",
		}),
	}

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "http://collector:4318", cfg.Telemetry.Endpoint)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative base url", func(c *Config) { c.API.BaseURL = "api.example.com" }},
		{"ftp base url", func(c *Config) { c.API.BaseURL = "ftp://api.example.com" }},
		{"unknown environment", func(c *Config) { c.API.Environment = "staging" }},
		{"login path without slash", func(c *Config) { c.API.LoginPath = "login" }},
		{"negative timeout", func(c *Config) { c.API.Timeout = -time.Second }},
		{"negative rate", func(c *Config) { c.API.RateLimit = -1 }},
		{"unknown store", func(c *Config) { c.Session.Store = "redis" }},
		{"unknown level", func(c *Config) { c.Log.Level = "trace" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"unknown output", func(c *Config) { c.Output.Format = "csv" }},
		{"sample rate", func(c *Config) { c.Telemetry.SampleRate = 2 }},
		{"tracing without endpoint", func(c *Config) { c.Telemetry.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeConfigInvalid, errors.CodeOf(err))
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.API.BaseURL = "https://saved.example.com"
	cfg.API.Timeout = 45 * time.Second
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 45s")

	loaded, err := (&Loader{Path: path, Explicit: true, LookupEnv: envMap(nil)}).Load()
	require.NoError(t, err)
	assert.Equal(t, "https://saved.example.com", loaded.API.BaseURL)
	assert.Equal(t, 45*time.Second, loaded.API.Timeout)
}

func TestLoaderEnvOverridesAreTyped(t *testing.T) {
	loader := &Loader{
		Path: filepath.Join(t.TempDir(), "none.yaml"),
		LookupEnv: envMap(map[string]string{
			"ADMINCTL_TIMEOUT":            "45s",
			"ADMINCTL_AUDIT":              "false",
			"ADMINCTL_TRACE_SAMPLE_RATE":  "0.25",
			"ADMINCTL_OTLP_ENDPOINT":      "http://adminctl-collector:4318",
			"OTEL_EXPORTER_OTLP_ENDPOINT": "http://collector:4318",
			"NO_COLOR":                    "",
		}),
	}

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRate)
	assert.Equal(t, "http://adminctl-collector:4318", cfg.Telemetry.Endpoint, "ADMINCTL_OTLP_ENDPOINT beats the OTEL variable")
	assert.True(t, cfg.Output.NoColor)
	assert.Equal(t, "Bearer", cfg.API.AuthScheme, "unset variables leave defaults alone")
}

func TestLoaderInvalidEnvNamesVariable(t *testing.T) {
	loader := &Loader{
		Path:      filepath.Join(t.TempDir(), "none.yaml"),
		LookupEnv: envMap(map[string]string{"ADMINCTL_TIMEOUT": "soon"}),
	}

	_, err := loader.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMINCTL_TIMEOUT")
}
