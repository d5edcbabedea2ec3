package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/adminctl/internal/audit"
	"github.com/felixgeelhaar/adminctl/internal/errors"
	"github.com/felixgeelhaar/adminctl/internal/ux"
)

func newAuditCmd(o *rootOptions) *cobra.Command {
	var limit int

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the local record of approvals, rejections and updates",
		Long: `Show the actions sent from this machine: user review, approve and
reject, and architect updates. Events are kept in ~/.adminctl/audit.jsonl
(audit.path) with size-based rotation; disable with audit.enabled: false
or ADMINCTL_AUDIT=false.

Examples:
  adminctl audit
  adminctl audit --limit 5 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.NewValidationError("--limit", "must not be negative")
			}

			cfg, _, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			path := cfg.Audit.Path
			if path == "" {
				if path, err = audit.DefaultPath(); err != nil {
					return err
				}
			}

			events, err := audit.ReadFile(path)
			if err != nil {
				return err
			}
			if limit > 0 && len(events) > limit {
				events = events[len(events)-limit:]
			}
			if events == nil {
				events = []*audit.Event{}
			}

			return renderTo(o.out, cfg.Output.Format, cfg.Output.NoColor, events, func() any {
				return auditTable(path, events)
			})
		},
	}

	auditCmd.Flags().IntVarP(&limit, "limit", "n", 20, "show the most recent N events (0 for all)")
	return auditCmd
}

func auditTable(path string, events []*audit.Event) *ux.Table {
	t := &ux.Table{Title: "Audit (" + path + ")", Columns: []string{"Time", "Action", "Target", "Actor", "Result"}}
	for _, e := range events {
		result := e.Message
		if e.Error != "" {
			result = "failed: " + e.Error
		}
		t.Append(e.Timestamp.Local().Format(time.DateTime), string(e.Type), e.Target, e.Actor, result)
	}
	return t
}
