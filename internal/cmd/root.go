package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/adminctl/internal/api"
	"github.com/felixgeelhaar/adminctl/internal/exitcode"
	"github.com/felixgeelhaar/adminctl/internal/session"
	"github.com/felixgeelhaar/adminctl/internal/tui"
	"github.com/felixgeelhaar/adminctl/internal/ux"
)

// tokenStore is a session store the API client can read tokens from.
type tokenStore interface {
	session.Store
	api.TokenSource
}

// rootOptions carries the process-level dependencies shared by every
// command. Tests replace them through Option values.
type rootOptions struct {
	out         io.Writer
	errOut      io.Writer
	store       tokenStore
	httpClient  *http.Client
	lookupEnv   func(string) (string, bool)
	interactive func() bool
	now         func() time.Time
}

// Option customizes the root command.
type Option func(*rootOptions)

// WithOutput redirects command output and diagnostics.
func WithOutput(out, errOut io.Writer) Option {
	return func(o *rootOptions) {
		o.out = out
		o.errOut = errOut
	}
}

// WithSessionStore replaces the configured session store.
func WithSessionStore(store tokenStore) Option {
	return func(o *rootOptions) { o.store = store }
}

// WithHTTPClient replaces the HTTP client used for backend calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *rootOptions) { o.httpClient = c }
}

// WithEnv replaces the environment lookup used by the config loader.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(o *rootOptions) { o.lookupEnv = lookup }
}

// WithInteractive forces prompting on or off.
func WithInteractive(interactive bool) Option {
	return func(o *rootOptions) { o.interactive = func() bool { return interactive } }
}

// NewRootCommand builds the adminctl command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	o := &rootOptions{
		out:         os.Stdout,
		errOut:      os.Stderr,
		interactive: tui.ShouldPrompt,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	rootCmd := &cobra.Command{
		Use:   "adminctl",
		Short: "Command-line client for the approval admin backend",
		Long: `adminctl talks to the approval admin backend: sign in, review pending
users, approve or reject them, and look up or update architect and sales
records by mobile number.

Configuration is read from ~/.adminctl/config.yaml, a .env file in the
working directory and ADMINCTL_* environment variables, in that order.
Global flags override all of them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(o.out)
	rootCmd.SetErr(o.errOut)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.adminctl/config.yaml)")
	flags.String("base-url", "", "backend base URL")
	flags.StringP("format", "o", "", "output format: text, json or yaml")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: text or json")
	flags.String("metrics-textfile", "", "write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(
		newAuthCmd(o),
		newDashboardCmd(o),
		newUsersCmd(o),
		newReasonsCmd(o),
		newArchitectCmd(o),
		newSalesCmd(o),
		newConfigCmd(o),
		newDoctorCmd(o),
		newAuditCmd(o),
		newVersionCmd(o),
	)

	return rootCmd
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// interrupt by the caller.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// ReportError writes err to w and returns the exit code for it. Codes
// other than the general one are named so scripts can tell them apart.
func ReportError(w io.Writer, err error) int {
	code := exitcode.DetermineExitCode(err)
	fmt.Fprintf(w, "Error: %v\n", ux.EnhanceError(err))
	if code != exitcode.GeneralError {
		fmt.Fprintf(w, "(exit %d: %s)\n", code, exitcode.GetExitCodeDescription(code))
	}
	return code
}
