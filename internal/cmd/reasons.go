package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/adminctl/internal/api"
	"github.com/felixgeelhaar/adminctl/internal/ux"
)

func newReasonsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "reasons <reject|approve>",
		Short:     "List the reject or approve reasons",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(api.ReasonReject), string(api.ReasonApprove)},
		RunE: run(o, func(ctx context.Context, app *App, args []string) error {
			reasons, err := fetchReasons(ctx, app, api.ReasonKind(args[0]))
			if err != nil {
				return err
			}
			return app.render(reasons, func() any { return reasonsTable(args[0], reasons) })
		}),
	}
}

func fetchReasons(ctx context.Context, app *App, kind api.ReasonKind) ([]api.Reason, error) {
	env := app.Client.GetReasonList(ctx, kind)
	if err := env.AsError(); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []api.Reason{}, nil
	}
	return *env.Data, nil
}

func reasonsTable(kind string, reasons []api.Reason) *ux.Table {
	t := &ux.Table{Title: "Reasons (" + kind + ")", Columns: []string{"ID", "Reason", "Category"}}
	for _, r := range reasons {
		t.Append(r.ID.String(), r.Reason, r.Category)
	}
	return t
}
