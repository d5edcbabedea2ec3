package cmd

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/adminctl/internal/api"
	"github.com/felixgeelhaar/adminctl/internal/audit"
	"github.com/felixgeelhaar/adminctl/internal/config"
	"github.com/felixgeelhaar/adminctl/internal/errors"
	"github.com/felixgeelhaar/adminctl/internal/log"
	"github.com/felixgeelhaar/adminctl/internal/metrics"
	"github.com/felixgeelhaar/adminctl/internal/session"
	"github.com/felixgeelhaar/adminctl/internal/telemetry"
	"github.com/felixgeelhaar/adminctl/internal/tui"
	"github.com/felixgeelhaar/adminctl/internal/ux"
	"github.com/felixgeelhaar/adminctl/internal/version"
)

const shutdownTimeout = 5 * time.Second

var errAborted = stderrors.New("aborted")

// App is everything a command needs once configuration is resolved.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Store   tokenStore
	Client  *api.Client
	Metrics *metrics.Metrics
	Audit   *audit.Logger

	registry    *prometheus.Registry
	shutdown    func(context.Context) error
	out         io.Writer
	errOut      io.Writer
	interactive bool
	now         func() time.Time
	command     string
	started     time.Time
}

// loadConfig resolves configuration from file, .env, environment and flags.
func loadConfig(cmd *cobra.Command, o *rootOptions) (*config.Config, *CommandContext, error) {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return nil, nil, err
	}

	loader := &config.Loader{
		Path:      cc.ConfigPath,
		Explicit:  cc.ConfigPath != "",
		EnvFiles:  []string{".env"},
		LookupEnv: o.lookupEnv,
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}

	overrides := config.Overrides{
		BaseURL:         cc.BaseURL,
		Format:          cc.Format,
		LogLevel:        cc.LogLevel,
		LogFormat:       cc.LogFormat,
		MetricsTextfile: cc.MetricsTextfile,
	}
	if err := overrides.Apply(cfg); err != nil {
		return nil, nil, err
	}
	if cc.NoColor {
		cfg.Output.NoColor = true
	}
	return cfg, cc, nil
}

func newApp(cmd *cobra.Command, o *rootOptions) (*App, error) {
	cfg, _, err := loadConfig(cmd, o)
	if err != nil {
		return nil, err
	}

	logger := log.New(log.FromStrings(cfg.Log.Level, cfg.Log.Format, o.errOut))
	log.SetDefaultLogger(logger)

	store, err := openStore(cfg.Session, o)
	if err != nil {
		return nil, err
	}

	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceVersion = version.Version
	tcfg.Enabled = cfg.Telemetry.Enabled
	tcfg.Endpoint = cfg.Telemetry.Endpoint
	tcfg.Insecure = cfg.Telemetry.Insecure
	tcfg.SampleRate = cfg.Telemetry.SampleRate
	if cfg.Telemetry.Environment != "" {
		tcfg.Environment = cfg.Telemetry.Environment
	}
	shutdown, err := telemetry.InitProvider(cmd.Context(), tcfg)
	if err != nil {
		return nil, err
	}

	auditLog, err := openAudit(cfg.Audit)
	if err != nil {
		_ = shutdown(cmd.Context())
		return nil, err
	}

	registry, m := metrics.NewRegistry()
	listeners := []api.Listener{m}
	if cfg.Output.Format == "text" {
		listeners = append(listeners, newLoader(o.errOut, cfg.Output.NoColor))
	}

	client, err := api.New(api.Options{
		BaseURL:        cfg.API.BaseURL,
		LoginPath:      cfg.LoginPath(),
		HTTPClient:     o.httpClient,
		Timeout:        cfg.API.Timeout,
		Tokens:         store,
		RateLimit:      cfg.API.RateLimit,
		Burst:          cfg.API.Burst,
		AuthHeader:     cfg.API.AuthHeader,
		AuthScheme:     cfg.API.AuthScheme,
		UserAgent:      version.UserAgent(),
		Logger:         logger,
		TracerProvider: telemetry.GetTracerProvider(),
		Listeners:      listeners,
	})
	if err != nil {
		_ = shutdown(cmd.Context())
		return nil, err
	}

	return &App{
		Config:      cfg,
		Logger:      logger,
		Store:       store,
		Client:      client,
		Metrics:     m,
		Audit:       auditLog,
		registry:    registry,
		shutdown:    shutdown,
		out:         o.out,
		errOut:      o.errOut,
		interactive: o.interactive(),
		now:         o.now,
		command:     commandName(cmd),
		started:     o.now(),
	}, nil
}

func openStore(cfg config.SessionConfig, o *rootOptions) (tokenStore, error) {
	if o.store != nil {
		return o.store, nil
	}
	if cfg.Store == "memory" {
		return session.NewMemoryStore(), nil
	}

	path := cfg.Path
	if path == "" {
		var err error
		path, err = session.DefaultPath()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to resolve session path", err)
		}
	}
	return session.NewFileStore(path), nil
}

func openAudit(cfg config.AuditConfig) (*audit.Logger, error) {
	path := cfg.Path
	if cfg.Enabled && path == "" {
		var err error
		if path, err = audit.DefaultPath(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to resolve audit path", err)
		}
	}
	return audit.NewLogger(audit.Config{
		Path:        path,
		MaxFileSize: cfg.MaxFileSize,
		MaxFiles:    cfg.MaxFiles,
		Enabled:     cfg.Enabled,
	})
}

// commandName is the command path without the program name, e.g. "users list".
func commandName(cmd *cobra.Command) string {
	path := cmd.CommandPath()
	if i := strings.IndexByte(path, ' '); i >= 0 {
		return path[i+1:]
	}
	return path
}

// run wraps a command body with app setup, a command span, metrics and
// telemetry shutdown.
func run(o *rootOptions, fn func(ctx context.Context, app *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		app, err := newApp(cmd, o)
		if err != nil {
			return err
		}

		ctx, span := telemetry.StartCommandSpan(cmd.Context(), app.command)
		defer func() { app.finish(ctx, span, err) }()

		return fn(ctx, app, args)
	}
}

func (a *App) finish(ctx context.Context, span trace.Span, err error) {
	a.Metrics.RecordCommand(a.command, a.now().Sub(a.started), err)
	telemetry.EndCommandSpan(span, err)

	if err != nil {
		a.Logger.WithError(err).Debug("command failed", "command", a.command)
	}

	if path := a.Config.Metrics.Textfile; path != "" {
		if werr := metrics.WriteTextfile(path, a.registry); werr != nil {
			a.Logger.WithError(werr).Warn("failed to export metrics", "path", path)
		}
	}

	if cerr := a.Audit.Close(); cerr != nil {
		a.Logger.WithError(cerr).Warn("failed to close audit file")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if serr := a.shutdown(shutdownCtx); serr != nil {
		a.Logger.WithError(serr).Warn("failed to flush traces")
	}
}

// record writes an audit event for a state-changing call issued at
// callStarted. Write failures are logged, not returned.
func (a *App) record(ctx context.Context, event *audit.Event, callStarted time.Time, callErr error) {
	event.WithBackend(a.Config.API.BaseURL).
		WithDuration(a.now().Sub(callStarted)).
		WithError(callErr)
	if s, err := a.Store.Load(ctx); err == nil {
		event.WithActor(s.Email)
	}
	if err := a.Audit.Log(event); err != nil {
		a.Logger.WithError(err).Warn("failed to write audit event", "type", event.Type, "target", event.Target)
	}
}

// render writes data in the configured format. Text output uses the value
// returned by text, which should be a ux.Tabular, a string or a Stringer.
func (a *App) render(data any, text func() any) error {
	return renderTo(a.out, a.Config.Output.Format, a.Config.Output.NoColor, data, text)
}

func renderTo(w io.Writer, format string, noColor bool, data any, text func() any) error {
	formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{Writer: w, NoColor: noColor})
	if err != nil {
		return err
	}
	if format == "text" || format == "" {
		return formatter.Format(text())
	}
	return formatter.Format(data)
}

// notice prints a status line in text mode only, so json and yaml output
// stay machine readable.
func (a *App) notice(msg string) {
	if a.Config.Output.Format == "text" {
		_, _ = io.WriteString(a.out, msg+"\n")
	}
}

// confirm asks before a state-changing call unless yes is set.
func (a *App) confirm(message string, yes bool) error {
	if yes {
		return nil
	}
	if !a.interactive {
		return errors.NewValidationError("--yes", "confirmation is required when not running interactively")
	}
	ok, err := tui.PromptForConfirmation(message, false)
	if err != nil {
		return err
	}
	if !ok {
		return errAborted
	}
	return nil
}
