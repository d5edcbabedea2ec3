package cmd

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/adminctl/internal/api"
	"github.com/felixgeelhaar/adminctl/internal/ux"
)

func newDashboardCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the dashboard counters",
		Args:  cobra.NoArgs,
		RunE: run(o, func(ctx context.Context, app *App, args []string) error {
			env := app.Client.DashboardCount(ctx)
			if err := env.AsError(); err != nil {
				return err
			}

			dashboard := env.Data
			if dashboard == nil {
				dashboard = &api.Dashboard{Items: []api.DashboardCountItem{}}
			}
			return app.render(dashboard, func() any { return dashboardTable(dashboard) })
		}),
	}
}

func dashboardTable(d *api.Dashboard) *ux.Table {
	title := d.Title
	if title == "" {
		title = "Dashboard"
	}
	t := &ux.Table{Title: title, Columns: []string{"Counter", "Count"}}
	for _, item := range d.Items {
		t.Append(item.Title, strconv.FormatInt(item.Count, 10))
	}
	return t
}
