package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/adminctl/internal/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ADMINCTL_"

// Loader builds a Config from defaults, a YAML file, .env files and the
// environment, in that order of increasing precedence. Flag overrides are
// applied by the caller with Overrides.Apply.
type Loader struct {
	// Path is the config file. Empty means DefaultPath.
	Path string
	// Explicit makes a missing file an error instead of falling back to defaults.
	Explicit bool
	// EnvFiles are read with godotenv. Missing files are skipped.
	EnvFiles []string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load is a convenience wrapper for Loader{Path: path, Explicit: path != ""}.
func Load(path string) (*Config, error) {
	return (&Loader{Path: path, Explicit: path != "", EnvFiles: []string{".env"}}).Load()
}

// Load resolves and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	path := l.Path
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigRead, "failed to resolve config path", err)
		}
	}

	if err := readFile(path, cfg); err != nil {
		if !os.IsNotExist(err) || l.Explicit {
			return nil, errors.Wrap(errors.ErrCodeConfigRead, fmt.Sprintf("failed to load config %s", path), err).
				WithSuggestion("Create one with: adminctl config init")
		}
	}

	lookup, err := l.lookup()
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return yaml.Unmarshal(data, cfg)
}

// lookup combines the process environment with .env values. Process
// variables win, matching godotenv.Load.
func (l *Loader) lookup() (func(string) (string, bool), error) {
	base := l.LookupEnv
	if base == nil {
		base = os.LookupEnv
	}

	dotenv := map[string]string{}
	for _, file := range l.EnvFiles {
		values, err := godotenv.Read(file)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrap(errors.ErrCodeConfigRead, fmt.Sprintf("failed to read %s", file), err)
		}
		for k, v := range values {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	return func(key string) (string, bool) {
		if v, ok := base(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

// envBindings maps config keys to the variables that override them. When a
// key has several variables the first one set wins.
var envBindings = []struct {
	key  string
	vars []string
}{
	{"api.base_url", []string{EnvPrefix + "BASE_URL"}},
	{"api.environment", []string{EnvPrefix + "ENVIRONMENT"}},
	{"api.login_path", []string{EnvPrefix + "LOGIN_PATH"}},
	{"api.auth_header", []string{EnvPrefix + "AUTH_HEADER"}},
	{"api.auth_scheme", []string{EnvPrefix + "AUTH_SCHEME"}},
	{"api.rate_limit", []string{EnvPrefix + "RATE_LIMIT"}},
	{"api.timeout", []string{EnvPrefix + "TIMEOUT"}},
	{"session.store", []string{EnvPrefix + "SESSION_STORE"}},
	{"session.path", []string{EnvPrefix + "SESSION_FILE"}},
	{"log.level", []string{EnvPrefix + "LOG_LEVEL"}},
	{"log.format", []string{EnvPrefix + "LOG_FORMAT"}},
	{"telemetry.enabled", []string{EnvPrefix + "TRACING"}},
	{"telemetry.endpoint", []string{EnvPrefix + "OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"}},
	{"telemetry.sample_rate", []string{EnvPrefix + "TRACE_SAMPLE_RATE"}},
	{"metrics.textfile", []string{EnvPrefix + "METRICS_TEXTFILE"}},
	{"audit.enabled", []string{EnvPrefix + "AUDIT"}},
	{"audit.path", []string{EnvPrefix + "AUDIT_FILE"}},
	{"output.format", []string{EnvPrefix + "FORMAT"}},
}

// applyEnv overlays environment values on cfg. Values are decoded by viper
// against the yaml field names, so "30s", "true" and "2.5" land in their
// typed fields and malformed ones are reported.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	v := viper.New()
	var set []string
	for _, b := range envBindings {
		for _, name := range b.vars {
			if value, ok := lookup(name); ok && value != "" {
				v.Set(b.key, value)
				set = append(set, name)
				break
			}
		}
	}
	// NO_COLOR only needs to be present.
	if _, ok := lookup("NO_COLOR"); ok {
		v.Set("output.no_color", true)
	}

	err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return errors.NewConfigInvalidError(fmt.Sprintf("invalid environment override (%s): %v", strings.Join(set, ", "), err))
	}
	return nil
}

// Overrides are values set on the command line. Empty fields leave the
// configuration unchanged.
type Overrides struct {
	BaseURL         string
	Format          string
	LogLevel        string
	LogFormat       string
	MetricsTextfile string
}

// Apply copies the non-empty overrides into cfg and revalidates it.
func (o Overrides) Apply(cfg *Config) error {
	if o.BaseURL != "" {
		cfg.API.BaseURL = o.BaseURL
	}
	if o.Format != "" {
		cfg.Output.Format = o.Format
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Log.Format = o.LogFormat
	}
	if o.MetricsTextfile != "" {
		cfg.Metrics.Textfile = o.MetricsTextfile
	}
	return cfg.Validate()
}
