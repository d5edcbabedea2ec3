package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/adminctl/internal/config"
	"github.com/felixgeelhaar/adminctl/internal/errors"
	"github.com/felixgeelhaar/adminctl/internal/ux"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage adminctl configuration",
		Long: `Inspect and initialize the adminctl configuration.

The effective configuration is built from defaults, the config file
(~/.adminctl/config.yaml or --config), a .env file, ADMINCTL_* environment
variables and global flags, in increasing order of precedence.

Examples:
  adminctl config init
  adminctl config view
  adminctl config get api.base_url
  adminctl config path`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "view",
			Short: "Show the effective configuration",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return runConfigView(cmd, o) },
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one configuration value, e.g. api.timeout",
			Args:  cobra.ExactArgs(1),
			RunE:  func(cmd *cobra.Command, args []string) error { return runConfigGet(cmd, o, args[0]) },
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return runConfigPath(cmd, o) },
		},
		newConfigInitCmd(o),
	)
	return configCmd
}

func getConfigPath(cmd *cobra.Command) (string, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}
	if path != "" {
		return path, nil
	}
	path, err = config.DefaultPath()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeConfigRead, "failed to resolve config path", err)
	}
	return path, nil
}

func runConfigView(cmd *cobra.Command, o *rootOptions) error {
	cfg, _, err := loadConfig(cmd, o)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	if cfg.Output.Format != "text" {
		tree, err := configTree(cfg)
		if err != nil {
			return err
		}
		return renderTo(o.out, cfg.Output.Format, cfg.Output.NoColor, tree, nil)
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	configPath, _ := getConfigPath(cmd)
	fmt.Fprintf(o.out, "# %s\n%s", configPath, data)
	return nil
}

func runConfigGet(cmd *cobra.Command, o *rootOptions, key string) error {
	cfg, _, err := loadConfig(cmd, o)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	value, err := getNestedValue(cfg, key)
	if err != nil {
		return err
	}
	fmt.Fprintln(o.out, value)
	return nil
}

// getNestedValue looks up a dotted key in the YAML form of cfg, so keys
// match the config file.
func getNestedValue(cfg *config.Config, key string) (string, error) {
	tree, err := configTree(cfg)
	if err != nil {
		return "", err
	}

	var node any = tree
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return "", unknownKey(key)
		}
		if node, ok = m[part]; !ok {
			return "", unknownKey(key)
		}
	}

	switch v := node.(type) {
	case map[string]any:
		out, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(out), "\n"), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// configTree is cfg as a generic map keyed like the config file.
func configTree(cfg *config.Config) (map[string]any, error) {
	data, err := cfg.Marshal()
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func unknownKey(key string) error {
	return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown configuration key: %s", key)).
		WithSuggestion("List the available keys with: adminctl config view")
}

func runConfigPath(cmd *cobra.Command, o *rootOptions) error {
	configPath, err := getConfigPath(cmd)
	if err != nil {
		return ux.FormatError(err, "getting config path")
	}

	fmt.Fprintln(o.out, configPath)
	return nil
}

func newConfigInitCmd(o *rootOptions) *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := getConfigPath(cmd)
			if err != nil {
				return err
			}

			if _, err := os.Stat(configPath); err == nil && !force {
				return errors.New(errors.ErrCodeConfigWrite, fmt.Sprintf("%s already exists", configPath)).
					WithSuggestion("Overwrite it with: adminctl config init --force")
			}

			cfg := config.Default()
			if baseURL, _ := cmd.Flags().GetString("base-url"); baseURL != "" {
				cfg.API.BaseURL = baseURL
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if err := cfg.Save(configPath); err != nil {
				return err
			}

			fmt.Fprintf(o.out, "✓ Wrote %s\n", configPath)
			return nil
		},
	}

	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return initCmd
}
