package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/adminctl/internal/version"
)

func newVersionCmd(o *rootOptions) *cobra.Command {
	var verbose bool

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()

			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}

			return renderTo(o.out, format, true, info, func() any {
				if verbose {
					return info.String()
				}
				return fmt.Sprintf("%s %s", version.Name, info.Short())
			})
		},
	}

	versionCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed version information")
	return versionCmd
}
