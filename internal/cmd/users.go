package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/adminctl/internal/api"
	"github.com/felixgeelhaar/adminctl/internal/audit"
	"github.com/felixgeelhaar/adminctl/internal/errors"
	"github.com/felixgeelhaar/adminctl/internal/tui"
	"github.com/felixgeelhaar/adminctl/internal/ux"
	"github.com/felixgeelhaar/adminctl/internal/validate"
)

func newUsersCmd(o *rootOptions) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "List, inspect and act on user registrations",
		Long: `List users by approval status, show a single user, and review,
approve or reject pending registrations.

Examples:
  adminctl users list --status pending
  adminctl users show 42
  adminctl users approve 42 --reason-id 3 --yes
  adminctl users reject 42 --remarks "documents unreadable"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	usersCmd.AddCommand(
		newUsersListCmd(o),
		newUsersShowCmd(o),
		newUserActionCmd(o, api.ActionReview),
		newUserActionCmd(o, api.ActionApprove),
		newUserActionCmd(o, api.ActionReject),
	)
	return usersCmd
}

func newUsersListCmd(o *rootOptions) *cobra.Command {
	var status string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List users by status",
		Args:  cobra.NoArgs,
		RunE: run(o, func(ctx context.Context, app *App, args []string) error {
			env := app.Client.ListByStatus(ctx, api.UserStatus(strings.ToLower(status)))
			if err := env.AsError(); err != nil {
				return err
			}
			if env.Stale {
				app.Logger.Debug("discarding stale user list", "seq", env.Seq)
				return nil
			}

			page := env.Data
			if page == nil {
				page = &api.RecordPage[api.UserRecord]{Data: []api.UserRecord{}}
			}
			return app.render(page, func() any { return usersTable(status, page) })
		}),
	}

	listCmd.Flags().StringVar(&status, "status", string(api.UserPending), "pending, approved or rejected")
	return listCmd
}

func usersTable(status string, page *api.RecordPage[api.UserRecord]) *ux.Table {
	title := fmt.Sprintf("Users (%s)", status)
	if page.Total != nil {
		title = fmt.Sprintf("Users (%s, %d total)", status, *page.Total)
	}

	t := &ux.Table{Title: title, Columns: []string{"ID", "Name", "Email", "Mobile", "Role", "Created"}}
	for _, u := range page.Data {
		t.Append(u.ID.String(), u.FullName(), u.Email, userMobile(u), u.Role, u.CreatedAt)
	}
	return t
}

func userMobile(u api.UserRecord) string {
	if u.Mobile != "" {
		return u.Mobile.String()
	}
	return u.Phone.String()
}

func newUsersShowCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single user",
		Args:  cobra.ExactArgs(1),
		RunE: run(o, func(ctx context.Context, app *App, args []string) error {
			env := app.Client.GetRecordByID(ctx, args[0])
			if err := env.AsError(); err != nil {
				return err
			}
			if env.Empty() {
				return errors.New(errors.ErrCodeBackend, fmt.Sprintf("user %s not found", args[0]))
			}
			return app.render(env.Data, func() any { return userTable(env.Data) })
		}),
	}
}

func userTable(u *api.UserRecord) *ux.Table {
	t := ux.KeyValues("User "+u.ID.String(),
		"Name", u.FullName(),
		"Email", u.Email,
		"Mobile", userMobile(*u),
		"Role", u.Role,
		"Status", u.Status,
		"Created", u.CreatedAt,
		"Updated", u.UpdatedAt,
	)
	appendExtra(t, u.Extra)
	return t
}

// appendExtra adds backend fields the client does not model, sorted by key.
func appendExtra(t *ux.Table, extra map[string]any) {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.Append(k, fmt.Sprint(extra[k]))
	}
}

type actionFlags struct {
	reasonID string
	remarks  string
	set      []string
	yes      bool
}

func newUserActionCmd(o *rootOptions, action api.UserAction) *cobra.Command {
	var flags actionFlags

	verb := string(action)
	actionCmd := &cobra.Command{
		Use:   verb + " <user-id>",
		Short: fmt.Sprintf("Mark a pending user as %s", pastTense(action)),
		Long: fmt.Sprintf(`Post a %s action for a pending user.

--reason-id and --remarks are sent as reasonId and remarks. Any other
backend field can be sent with --set key=value. When running in a terminal
and no reason is given for approve or reject, the reason list is offered
and remarks are asked for.`, verb),
		Args: cobra.ExactArgs(1),
		RunE: run(o, func(ctx context.Context, app *App, args []string) error {
			userID, err := validate.UserID(args[0])
			if err != nil {
				return err
			}

			extra, err := actionPayload(flags)
			if err != nil {
				return err
			}

			if action != api.ActionReview && app.interactive {
				if _, ok := extra["reasonId"]; !ok {
					if err := pickReason(ctx, app, action, extra); err != nil {
						return err
					}
				}
				if _, ok := extra["remarks"]; !ok {
					remarks, err := tui.PromptForString(tui.Prompt{Message: "Remarks", Placeholder: "optional"})
					if err != nil {
						return err
					}
					if remarks != "" {
						extra["remarks"] = remarks
					}
				}
			}

			if err := app.confirm(fmt.Sprintf("%s user %d?", capitalize(verb), userID), flags.yes); err != nil {
				return err
			}

			started := app.now()
			resp := app.Client.PerformUserAction(ctx, action, userID, extra)
			event := audit.NewEvent(actionEvents[action], strconv.FormatInt(userID, 10)).WithMessage(resp.Message)
			for k, v := range extra {
				event.WithData(k, v)
			}
			app.record(ctx, event, started, resp.AsError())
			if err := resp.AsError(); err != nil {
				return err
			}

			result := actionResult{Action: verb, UserID: userID, Status: resp.Status, Message: resp.Message}
			return app.render(result, func() any {
				return fmt.Sprintf("✓ User %d %s: %s", userID, pastTense(action), resp.Message)
			})
		}),
	}

	actionCmd.Flags().StringVar(&flags.reasonID, "reason-id", "", "reason identifier from 'adminctl reasons'")
	actionCmd.Flags().StringVar(&flags.remarks, "remarks", "", "free-text remarks")
	actionCmd.Flags().StringArrayVar(&flags.set, "set", nil, "extra body field as key=value (repeatable)")
	actionCmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "skip the confirmation prompt")
	return actionCmd
}

var actionEvents = map[api.UserAction]audit.EventType{
	api.ActionReview:  audit.EventUserReview,
	api.ActionApprove: audit.EventUserApprove,
	api.ActionReject:  audit.EventUserReject,
}

type actionResult struct {
	Action  string `json:"action"`
	UserID  int64  `json:"userId"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// actionPayload builds the extra body fields from flags. Numeric reason
// identifiers are sent as numbers.
func actionPayload(f actionFlags) (map[string]any, error) {
	extra, err := parseAssignments(f.set)
	if err != nil {
		return nil, err
	}
	if f.reasonID != "" {
		extra["reasonId"] = numericOrString(f.reasonID)
	}
	if f.remarks != "" {
		extra["remarks"] = f.remarks
	}
	return extra, nil
}

func numericOrString(s string) any {
	if govalidator.IsInt(s) {
		if n, err := govalidator.ToInt(s); err == nil {
			return n
		}
	}
	return s
}

// parseAssignments parses key=value pairs. Values stay strings.
func parseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.NewValidationError("--set", fmt.Sprintf("%q is not key=value", pair))
		}
		out[key] = value
	}
	return out, nil
}

func pickReason(ctx context.Context, app *App, action api.UserAction, extra map[string]any) error {
	kind := api.ReasonReject
	if action == api.ActionApprove {
		kind = api.ReasonApprove
	}

	reasons, err := fetchReasons(ctx, app, kind)
	if err != nil {
		return err
	}
	if len(reasons) == 0 {
		return nil
	}

	choices := make([]tui.Choice, len(reasons))
	for i, r := range reasons {
		choices[i] = tui.Choice{Label: r.Reason, Value: r.ID.String()}
	}
	selected, err := tui.PromptForSelect("Reason", choices)
	if err != nil {
		return err
	}
	extra["reasonId"] = numericOrString(selected)
	return nil
}

func pastTense(action api.UserAction) string {
	switch action {
	case api.ActionApprove:
		return "approved"
	case api.ActionReject:
		return "rejected"
	default:
		return "reviewed"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
