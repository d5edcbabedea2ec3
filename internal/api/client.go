package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/felixgeelhaar/adminctl/internal/errors"
	"github.com/felixgeelhaar/adminctl/internal/log"
)

const (
	// DefaultLoginPath is the login endpoint of the approval backend.
	DefaultLoginPath = "/approval/login"
	// AdminLoginPath is the login endpoint used by admin-only deployments.
	AdminLoginPath = "/admin/login"
	// DefaultTimeout bounds every request when no HTTP client is supplied.
	DefaultTimeout = 30 * time.Second

	tracerName = "github.com/felixgeelhaar/adminctl/internal/api"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the backend root, e.g. https://api.example.com/v1.
	BaseURL string
	// LoginPath defaults to DefaultLoginPath.
	LoginPath string

	// HTTPClient is used as-is when set; otherwise a client with Timeout is built.
	HTTPClient *http.Client
	Timeout    time.Duration

	// Tokens supplies the session token for authenticated calls.
	Tokens TokenSource

	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit float64
	Burst     int

	// AuthHeader and AuthScheme default to "Authorization" and "Bearer".
	// Set AuthScheme to "-" to send the bare token.
	AuthHeader string
	AuthScheme string
	UserAgent  string

	Logger         *log.Logger
	TracerProvider trace.TracerProvider
	Listeners      []Listener
}

// Client is the API façade. It is safe for concurrent use; build one per
// process and pass it to whatever needs it.
type Client struct {
	transport *transport
	loginPath string
	logger    *log.Logger
	tracer    trace.Tracer
	listeners []Listener
	seq       *sequencer
}

// New creates a Client from opts.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.NewConfigInvalidError("api base URL is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.NewConfigInvalidError("api base URL must be absolute: " + opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	authHeader := opts.AuthHeader
	if authHeader == "" {
		authHeader = "Authorization"
	}
	authScheme := opts.AuthScheme
	switch authScheme {
	case "":
		authScheme = "Bearer"
	case "-":
		authScheme = ""
	}

	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}

	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Client{
		transport: &transport{
			baseURL:    base,
			httpClient: httpClient,
			tokens:     opts.Tokens,
			limiter:    limiter,
			authHeader: authHeader,
			authScheme: authScheme,
			userAgent:  opts.UserAgent,
		},
		loginPath: loginPath,
		logger:    logger,
		tracer:    tp.Tracer(tracerName),
		listeners: append([]Listener(nil), opts.Listeners...),
		seq:       newSequencer(),
	}, nil
}

// LoginPath returns the configured login endpoint.
func (c *Client) LoginPath() string {
	return c.loginPath
}

// request describes one façade call.
type request struct {
	op     string
	key    string
	label  string
	method string
	path   string
	body   any
	auth   bool
}

// call issues req and decodes the payload as T.
func call[T any](ctx context.Context, c *Client, req request, opts []CallOption) *Envelope[T] {
	return invoke(ctx, c, req, opts, normalize[T])
}

// invoke runs the full pipeline for one call: sequencing, listeners, tracing,
// transport, decoding and the default error handler. It always returns an
// envelope.
func invoke[T any](ctx context.Context, c *Client, req request, opts []CallOption, decode func(*rawResult) *Envelope[T]) (env *Envelope[T]) {
	cfg := callConfig{label: req.label}
	for _, opt := range opts {
		opt(&cfg)
	}
	if req.key == "" {
		req.key = req.op
	}

	seq := c.seq.next(req.key)
	c.emit(cfg, Event{Type: EventStarted, Operation: req.op, Key: req.key, Label: cfg.label, Seq: seq})

	ctx, span := c.tracer.Start(ctx, "api."+req.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method),
			attribute.String("url.path", req.path),
			attribute.Int64("adminctl.seq", int64(seq)),
		),
	)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			env = catch[T](recovered(r))
		}
		if env == nil {
			env = catch[T](errors.New(errors.ErrCodeUnexpected, "no response produced"))
		}

		duration := time.Since(start)
		env.Seq = seq
		env.Stale = c.seq.stale(req.key, seq)

		span.SetAttributes(
			attribute.Int("adminctl.status", env.Status),
			attribute.String("adminctl.failure_kind", env.Kind.String()),
			attribute.Bool("adminctl.stale", env.Stale),
		)
		if env.Response.OK() {
			span.SetStatus(codes.Ok, "")
		} else {
			if env.Err != nil {
				span.RecordError(env.Err)
			}
			span.SetStatus(codes.Error, env.Message)
		}
		span.End()

		logger := c.logger.With("operation", req.op, "seq", seq, "status", env.Status, "duration", duration)
		if env.Response.OK() {
			logger.DebugContext(ctx, "api call finished", "stale", env.Stale)
		} else {
			logger.WithError(env.Err).WarnContext(ctx, "api call failed", "kind", env.Kind.String())
		}

		c.emit(cfg, Event{
			Type:      EventFinished,
			Operation: req.op,
			Key:       req.key,
			Label:     cfg.label,
			Seq:       seq,
			Status:    env.Status,
			Kind:      env.Kind,
			Stale:     env.Stale,
			Duration:  duration,
		})
	}()

	var (
		raw *rawResult
		err error
	)
	if req.auth {
		raw, err = c.transport.authenticated(ctx, req.method, req.path, req.body)
	} else {
		raw, err = c.transport.unauthenticated(ctx, req.path, req.body)
	}
	if err != nil {
		return catch[T](err)
	}
	return decode(raw)
}

func (c *Client) emit(cfg callConfig, e Event) {
	for _, l := range c.listeners {
		l.OnEvent(e)
	}
	for _, l := range cfg.listeners {
		l.OnEvent(e)
	}
}

// rejected builds the envelope for calls refused before any request is made.
func rejected[T any](err error) *Envelope[T] {
	return catch[T](err)
}
