package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/adminctl/internal/api"
	"github.com/felixgeelhaar/adminctl/internal/errors"
	"github.com/felixgeelhaar/adminctl/internal/session"
	"github.com/felixgeelhaar/adminctl/internal/tui"
	"github.com/felixgeelhaar/adminctl/internal/ux"
	"github.com/felixgeelhaar/adminctl/internal/validate"
)

func newAuthCmd(o *rootOptions) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the admin session",
		Long: `Sign in to the backend, sign out, and inspect the stored session.

The session token is stored in ~/.adminctl/session.json (mode 0600)
unless session.path or ADMINCTL_SESSION_FILE points elsewhere.

Examples:
  adminctl auth login --email admin@example.com
  adminctl auth status
  adminctl auth logout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	authCmd.AddCommand(newAuthLoginCmd(o), newAuthLogoutCmd(o), newAuthStatusCmd(o))
	return authCmd
}

func newAuthLoginCmd(o *rootOptions) *cobra.Command {
	var email, password string

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in with email and password and store the session token.

Missing credentials are prompted for when running in a terminal; the
password is never echoed.

Examples:
  adminctl auth login
  adminctl auth login --email admin@example.com --password secret`,
		Args: cobra.NoArgs,
		RunE: run(o, func(ctx context.Context, app *App, args []string) error {
			creds := tui.Credentials{Email: strings.TrimSpace(email), Password: password}
			if (creds.Email == "" || creds.Password == "") && app.interactive {
				var err error
				if creds, err = tui.PromptForCredentials(creds); err != nil {
					return err
				}
			}
			if err := validate.Credentials(creds.Email, creds.Password); err != nil {
				return err
			}
			return login(ctx, app, creds)
		}),
	}

	loginCmd.Flags().StringVar(&email, "email", "", "account email")
	loginCmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return loginCmd
}

func login(ctx context.Context, app *App, creds tui.Credentials) error {
	env := app.Client.Login(ctx, creds.Email, creds.Password)
	if !env.OK() {
		return env.AsError()
	}

	s := newSession(env.Data, creds.Email, app.Config.API.BaseURL, app.now())
	if err := app.Store.Save(ctx, s); err != nil {
		return err
	}

	app.Logger.Info("signed in", "email", s.Email, "expires_at", s.ExpiresAt)
	return app.render(sessionView(s, app.now()), func() any {
		return fmt.Sprintf("✓ Signed in as %s", displayName(s))
	})
}

// newSession builds the stored session from a login payload. Expiry comes
// from expiresIn when the backend sends it, else from the token's exp claim.
func newSession(data *api.LoginData, email, baseURL string, now time.Time) *session.Session {
	s := &session.Session{
		Token:        data.Token,
		RefreshToken: data.RefreshToken,
		Email:        email,
		BaseURL:      baseURL,
		CreatedAt:    now.UTC(),
	}
	if data.User != nil {
		if data.User.Email != "" {
			s.Email = data.User.Email
		}
		s.UserID = data.User.ID.String()
		s.Name = data.User.Name
		s.Role = data.User.Role
	}
	if data.ExpiresIn > 0 {
		s.ExpiresAt = s.CreatedAt.Add(time.Duration(data.ExpiresIn) * time.Second)
	} else {
		s.ExpiresAt = session.ExpiryOf(data.Token).UTC()
	}
	return s
}

func displayName(s *session.Session) string {
	if s.Name != "" {
		return fmt.Sprintf("%s <%s>", s.Name, s.Email)
	}
	return s.Email
}

func newAuthLogoutCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the stored session",
		Args:  cobra.NoArgs,
		RunE: run(o, func(ctx context.Context, app *App, args []string) error {
			s, err := app.Store.Load(ctx)
			if err != nil {
				if errors.CodeOf(err) == errors.ErrCodeSessionNotFound {
					app.notice("Not signed in.")
					return nil
				}
				return err
			}

			// The local session is cleared even when the backend call fails.
			if resp := app.Client.Logout(ctx); !resp.OK() {
				app.Logger.WithError(resp.AsError()).Warn("backend logout failed; clearing local session")
			}

			if err := app.Store.Clear(ctx); err != nil {
				return err
			}
			app.notice(fmt.Sprintf("✓ Signed out %s", displayName(s)))
			return nil
		}),
	}
}

// statusView is the machine-readable form of auth status.
type statusView struct {
	SignedIn  bool       `json:"signedIn"`
	Email     string     `json:"email,omitempty"`
	Name      string     `json:"name,omitempty"`
	Role      string     `json:"role,omitempty"`
	UserID    string     `json:"userId,omitempty"`
	BaseURL   string     `json:"baseUrl,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Expired   bool       `json:"expired"`
}

func sessionView(s *session.Session, now time.Time) statusView {
	if s == nil {
		return statusView{}
	}
	v := statusView{
		SignedIn: !s.IsExpired(now),
		Email:    s.Email,
		Name:     s.Name,
		Role:     s.Role,
		UserID:   s.UserID,
		BaseURL:  s.BaseURL,
		Expired:  s.IsExpired(now),
	}
	if !s.CreatedAt.IsZero() {
		created := s.CreatedAt
		v.CreatedAt = &created
	}
	if !s.ExpiresAt.IsZero() {
		expires := s.ExpiresAt
		v.ExpiresAt = &expires
	}
	return v
}

func (v statusView) table() *ux.Table {
	state := "signed in"
	switch {
	case v.Expired:
		state = "expired"
	case !v.SignedIn:
		state = "signed out"
	}

	t := ux.KeyValues("Session", "State", state)
	if v.Email != "" {
		t.Append("Email", v.Email)
	}
	if v.Name != "" {
		t.Append("Name", v.Name)
	}
	if v.Role != "" {
		t.Append("Role", v.Role)
	}
	if v.BaseURL != "" {
		t.Append("Backend", v.BaseURL)
	}
	if v.CreatedAt != nil {
		t.Append("Signed in at", v.CreatedAt.Local().Format(time.RFC3339))
	}
	if v.ExpiresAt != nil {
		t.Append("Expires at", v.ExpiresAt.Local().Format(time.RFC3339))
	}
	return t
}

func newAuthStatusCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Long: `Show whether a session token is stored and when it expires. The
expiry is read from the login response or the token's exp claim; the
token signature is not verified locally.`,
		Args: cobra.NoArgs,
		RunE: run(o, func(ctx context.Context, app *App, args []string) error {
			s, err := app.Store.Load(ctx)
			if err != nil && errors.CodeOf(err) != errors.ErrCodeSessionNotFound {
				return err
			}
			if s != nil && s.ExpiresAt.IsZero() {
				s.ExpiresAt = session.ExpiryOf(s.Token)
			}

			view := sessionView(s, app.now())
			return app.render(view, func() any { return view.table() })
		}),
	}
}
