package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/adminctl/internal/config"
	"github.com/felixgeelhaar/adminctl/internal/health"
	"github.com/felixgeelhaar/adminctl/internal/version"
)

// doctorReport is the machine-readable form of 'adminctl doctor'.
type doctorReport struct {
	Status health.Status   `json:"status"`
	Checks []health.Report `json:"checks"`
}

func (r doctorReport) Headers() []string {
	return []string{"Check", "Status", "Message"}
}

func (r doctorReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Checks))
	for _, c := range r.Checks {
		msg := c.Result.Message
		if s, ok := c.Result.Details["suggestion"].(string); ok {
			msg += " (" + s + ")"
		}
		rows = append(rows, []string{c.Name, statusIcon(c.Result.Status) + " " + c.Result.Status.String(), msg})
	}
	return rows
}

func statusIcon(s health.Status) string {
	switch s {
	case health.StatusHealthy:
		return "✓"
	case health.StatusDegraded:
		return "!"
	default:
		return "✗"
	}
}

func newDoctorCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, session and backend reachability",
		Long: `Run local diagnostics:

  configuration   the config file, .env and ADMINCTL_* variables load and validate
  stored-session  a session token is stored and not expired
  backend         api.base_url answers HTTP requests

The command fails when any check is unhealthy.

Examples:
  adminctl doctor
  adminctl doctor --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := getConfigPath(cmd)
			if err != nil {
				return err
			}

			cfg, _, loadErr := loadConfig(cmd, o)
			if loadErr != nil {
				cfg = config.Default()
				if baseURL, _ := cmd.Flags().GetString("base-url"); baseURL != "" {
					cfg.API.BaseURL = baseURL
				}
			}

			manager := health.NewManager()
			manager.AddChecker(health.NewConfigChecker(configPath, cfg.API.BaseURL, loadErr))
			if store, err := openStore(cfg.Session, o); err == nil {
				manager.AddChecker(health.NewSessionChecker(store))
			}
			client := o.httpClient
			if client == nil {
				client = &http.Client{Timeout: health.DefaultTimeout}
			}
			manager.AddChecker(health.NewBackendChecker(cfg.API.BaseURL, client, version.UserAgent()))

			reports := manager.Check(cmd.Context())
			report := doctorReport{Status: health.OverallStatus(reports), Checks: reports}

			if err := renderTo(o.out, cfg.Output.Format, cfg.Output.NoColor, report, func() any { return report }); err != nil {
				return err
			}

			if report.Status == health.StatusUnhealthy {
				return fmt.Errorf("health check failed")
			}
			return nil
		},
	}
}
