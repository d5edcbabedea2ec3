package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/adminctl/internal/errors"
)

const (
	// DirName is the per-user state directory under the home directory.
	DirName = ".adminctl"
	// FileName is the config file inside DirName.
	FileName = "config.yaml"

	// EnvironmentApproval selects the approval backend login endpoint.
	EnvironmentApproval = "approval"
	// EnvironmentAdmin selects the admin backend login endpoint.
	EnvironmentAdmin = "admin"
)

// Config is the complete adminctl configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Audit     AuditConfig     `yaml:"audit"`
	Output    OutputConfig    `yaml:"output"`
}

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Environment string        `yaml:"environment,omitempty"` // "approval" or "admin"
	LoginPath   string        `yaml:"login_path,omitempty"`  // overrides Environment
	Timeout     time.Duration `yaml:"timeout"`
	RateLimit   float64       `yaml:"rate_limit,omitempty"` // requests per second, 0 = unlimited
	Burst       int           `yaml:"burst,omitempty"`
	AuthHeader  string        `yaml:"auth_header,omitempty"`
	AuthScheme  string        `yaml:"auth_scheme,omitempty"`
}

// SessionConfig selects where the session token lives.
type SessionConfig struct {
	Store string `yaml:"store"`          // "file" or "memory"
	Path  string `yaml:"path,omitempty"` // default ~/.adminctl/session.json
}

// LogConfig configures internal/log.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TelemetryConfig configures span export.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint,omitempty"`
	Insecure    bool    `yaml:"insecure,omitempty"`
	SampleRate  float64 `yaml:"sample_rate"`
	Environment string  `yaml:"environment,omitempty"`
}

// MetricsConfig configures metrics export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// AuditConfig configures the local record of state-changing actions.
type AuditConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path,omitempty"` // default ~/.adminctl/audit.jsonl
	MaxFileSize int64  `yaml:"max_file_size,omitempty"`
	MaxFiles    int    `yaml:"max_files,omitempty"`
}

// OutputConfig holds rendering defaults.
type OutputConfig struct {
	Format  string `yaml:"format"` // "text", "json", "yaml"
	NoColor bool   `yaml:"no_color,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "http://localhost:8000",
			Environment: EnvironmentApproval,
			Timeout:     30 * time.Second,
			AuthHeader:  "Authorization",
			AuthScheme:  "Bearer",
		},
		Session: SessionConfig{
			Store: "file",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			SampleRate:  1.0,
			Environment: "production",
		},
		Audit: AuditConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// DefaultPath returns ~/.adminctl/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DirName, FileName), nil
}

// LoginPath resolves the login endpoint. An explicit login_path wins over
// the environment name.
func (c *Config) LoginPath() string {
	if c.API.LoginPath != "" {
		return c.API.LoginPath
	}
	if strings.EqualFold(c.API.Environment, EnvironmentAdmin) {
		return "/admin/login"
	}
	return "/approval/login"
}

// Validate checks the configuration for values the client cannot use.
func (c *Config) Validate() error {
	var problems []string

	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, fmt.Sprintf("api.base_url %q must be an absolute http(s) URL", c.API.BaseURL))
		}
	}
	switch strings.ToLower(c.API.Environment) {
	case "", EnvironmentApproval, EnvironmentAdmin:
	default:
		problems = append(problems, fmt.Sprintf("api.environment %q must be approval or admin", c.API.Environment))
	}
	if c.API.LoginPath != "" && !strings.HasPrefix(c.API.LoginPath, "/") {
		problems = append(problems, fmt.Sprintf("api.login_path %q must start with /", c.API.LoginPath))
	}
	if c.API.Timeout < 0 {
		problems = append(problems, "api.timeout must not be negative")
	}
	if c.API.RateLimit < 0 {
		problems = append(problems, "api.rate_limit must not be negative")
	}
	if c.API.Burst < 0 {
		problems = append(problems, "api.burst must not be negative")
	}
	switch c.Session.Store {
	case "file", "memory":
	default:
		problems = append(problems, fmt.Sprintf("session.store %q must be file or memory", c.Session.Store))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}
	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		problems = append(problems, fmt.Sprintf("output.format %q must be text, json or yaml", c.Output.Format))
	}
	if c.Audit.MaxFileSize < 0 || c.Audit.MaxFiles < 0 {
		problems = append(problems, "audit.max_file_size and audit.max_files must not be negative")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		problems = append(problems, "telemetry.sample_rate must be between 0 and 1")
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		problems = append(problems, "telemetry.endpoint is required when telemetry is enabled")
	}

	if len(problems) > 0 {
		return errors.NewConfigInvalidError(strings.Join(problems, "; "))
	}
	return nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeConfigWrite, "failed to create config directory", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeConfigWrite, "failed to write config file", err)
	}
	return nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigWrite, "failed to encode config", err)
	}
	return data, nil
}
