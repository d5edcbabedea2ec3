package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/adminctl/internal/api"
	"github.com/felixgeelhaar/adminctl/internal/audit"
	"github.com/felixgeelhaar/adminctl/internal/errors"
	"github.com/felixgeelhaar/adminctl/internal/ux"
	"github.com/felixgeelhaar/adminctl/internal/validate"
)

func newArchitectCmd(o *rootOptions) *cobra.Command {
	architectCmd := &cobra.Command{
		Use:   "architect",
		Short: "Look up and update architect records",
		Long: `Look up an architect by mobile number and update the record.

Examples:
  adminctl architect search --mobile 9876543210
  adminctl architect update --mobile 9876543210 --set city=Pune --set pincode=411001
  adminctl architect update --mobile 9876543210 --file changes.yaml --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	architectCmd.AddCommand(newSearchCmd(o, api.RecordArchitect), newArchitectUpdateCmd(o))
	return architectCmd
}

func newSalesCmd(o *rootOptions) *cobra.Command {
	salesCmd := &cobra.Command{
		Use:   "sales",
		Short: "Look up sales records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	salesCmd.AddCommand(newSearchCmd(o, api.RecordSales))
	return salesCmd
}

func newSearchCmd(o *rootOptions, kind api.RecordKind) *cobra.Command {
	var mobile string

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: fmt.Sprintf("Find a %s record by mobile number", kind),
		Args:  cobra.NoArgs,
		RunE: run(o, func(ctx context.Context, app *App, args []string) error {
			match, err := search(ctx, app, kind, mobile)
			if err != nil {
				return err
			}
			return app.render(match, func() any { return matchView(match, mobile) })
		}),
	}

	searchCmd.Flags().StringVar(&mobile, "mobile", "", "10 digit mobile number")
	_ = searchCmd.MarkFlagRequired("mobile")
	return searchCmd
}

// search validates the number before any request is made.
func search(ctx context.Context, app *App, kind api.RecordKind, mobile string) (*api.Match, error) {
	mobile = strings.TrimSpace(mobile)
	if err := validate.Mobile(mobile); err != nil {
		return nil, err
	}

	env := app.Client.SearchByMobileNumber(ctx, mobile, kind)
	if err := env.AsError(); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return &api.Match{Kind: kind}, nil
	}
	return env.Data, nil
}

func matchView(m *api.Match, mobile string) any {
	if !m.Found {
		return fmt.Sprintf("No %s found for mobile %s", m.Kind, mobile)
	}
	if m.Architect != nil {
		return architectTable(m.Architect)
	}
	return salesTable(m.Sales, strings.TrimSpace(mobile))
}

func architectTable(a *api.ArchitectRecord) *ux.Table {
	t := ux.KeyValues("Architect "+a.ArchitectID.String(),
		"First name", a.FirstName,
		"Last name", a.LastName,
		"Firm", a.FirmName,
		"Gender", a.Gender,
		"Mobile", a.ContactNumber.String(),
		"Email", a.Email,
		"Address 1", a.Address1,
		"Address 2", a.Address2,
		"Landmark", a.Landmark,
		"City", a.City,
		"State", a.State,
		"Region", a.Region,
		"Pincode", a.Pincode.String(),
		"SPOC", a.SpocName,
		"SPOC mobile", a.SpocMobile.String(),
		"SPOC manager", a.SpocManagerName,
		"SPOC manager mobile", a.SpocManagerMobile.String(),
		"Regional manager mobile", a.RegionalManagerMobile.String(),
	)
	appendExtra(t, a.Extra)
	return t
}

// salesTable shows the searched number when the record carries none.
func salesTable(s *api.SalesRecord, mobile string) *ux.Table {
	contact := s.ContactNumber.String()
	if contact == "" {
		contact = mobile
	}
	t := ux.KeyValues("Sales",
		"Name", s.Name,
		"Mobile", contact,
	)
	appendExtra(t, s.Extra)
	return t
}

func newArchitectUpdateCmd(o *rootOptions) *cobra.Command {
	var (
		mobile string
		set    []string
		file   string
		yes    bool
	)

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update an architect record",
		Long: `Fetch the architect with --mobile, apply the changes and send the full
record back. Field names are the JSON names shown by
'adminctl architect search --format json', e.g. firstName, city, pincode.

Changes come from repeated --set field=value flags, a YAML or JSON file
given with --file, or both (--set wins).`,
		Args: cobra.NoArgs,
		RunE: run(o, func(ctx context.Context, app *App, args []string) error {
			changes, err := loadChanges(file, set)
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				return errors.NewValidationError("changes", "nothing to update").
					WithSuggestion("Pass --set field=value or --file changes.yaml")
			}

			match, err := search(ctx, app, api.RecordArchitect, mobile)
			if err != nil {
				return err
			}
			if !match.Found || match.Architect == nil {
				return errors.New(errors.ErrCodeBackend, fmt.Sprintf("no architect found for mobile %s", mobile))
			}

			updated, err := applyChanges(*match.Architect, changes)
			if err != nil {
				return err
			}
			if err := validateArchitect(updated); err != nil {
				return err
			}

			if err := app.confirm(fmt.Sprintf("Update architect %s?", updated.ArchitectID), yes); err != nil {
				return err
			}

			started := app.now()
			resp := app.Client.UpdateRecord(ctx, updated)
			event := audit.NewEvent(audit.EventArchitectUpdate, updated.ArchitectID.String()).
				WithMessage(resp.Message).
				WithData("mobile", mobile)
			for k, v := range changes {
				event.WithData(k, v)
			}
			app.record(ctx, event, started, resp.AsError())
			if err := resp.AsError(); err != nil {
				return err
			}
			return app.render(updated, func() any {
				return fmt.Sprintf("✓ Architect %s updated: %s", updated.ArchitectID, resp.Message)
			})
		}),
	}

	updateCmd.Flags().StringVar(&mobile, "mobile", "", "10 digit mobile number of the architect")
	updateCmd.Flags().StringArrayVar(&set, "set", nil, "field=value to change (repeatable)")
	updateCmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON file with fields to change")
	updateCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	_ = updateCmd.MarkFlagRequired("mobile")
	return updateCmd
}

// loadChanges merges the file changes with --set pairs; --set wins.
func loadChanges(file string, set []string) (map[string]any, error) {
	changes := map[string]any{}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeValidation, fmt.Sprintf("failed to read %s", file), err)
		}
		// JSON is valid YAML, so one decoder covers both.
		if err := yaml.Unmarshal(data, &changes); err != nil {
			return nil, errors.Wrap(errors.ErrCodeValidation, fmt.Sprintf("failed to parse %s", file), err)
		}
	}

	pairs, err := parseAssignments(set)
	if err != nil {
		return nil, err
	}
	for k, v := range pairs {
		changes[k] = v
	}
	return changes, nil
}

// applyChanges overlays changes on the record through its JSON form, so
// unknown backend fields survive and field names match the wire format.
func applyChanges(record api.ArchitectRecord, changes map[string]any) (api.ArchitectRecord, error) {
	if _, ok := changes["architectId"]; ok {
		return record, errors.NewValidationError("architectId", "cannot be changed")
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return record, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return record, err
	}
	for k, v := range changes {
		fields[k] = v
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return record, errors.Wrap(errors.ErrCodeValidation, "changes cannot be encoded", err)
	}
	var out api.ArchitectRecord
	if err := json.Unmarshal(merged, &out); err != nil {
		return record, errors.Wrap(errors.ErrCodeValidation, "changes do not fit the architect record", err)
	}
	return out, nil
}

func validateArchitect(a api.ArchitectRecord) error {
	if err := validate.Mobile(a.ContactNumber.String()); err != nil {
		return err
	}
	for field, value := range map[string]string{
		"spocMobile":            a.SpocMobile.String(),
		"spocManagerMobile":     a.SpocManagerMobile.String(),
		"regionalManagerMobile": a.RegionalManagerMobile.String(),
	} {
		if err := validate.OptionalMobile(field, value); err != nil {
			return err
		}
	}
	if a.Email != "" {
		if err := validate.Email(a.Email); err != nil {
			return err
		}
	}
	return validate.Pincode(a.Pincode.String())
}
