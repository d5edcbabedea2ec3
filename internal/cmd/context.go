package cmd

import (
	"github.com/spf13/cobra"
)

// CommandContext holds the global command-line flags. Empty values leave
// the loaded configuration unchanged.
type CommandContext struct {
	// Output control
	Format  string
	NoColor bool

	// Configuration
	ConfigPath      string
	BaseURL         string
	LogLevel        string
	LogFormat       string
	MetricsTextfile string
}

// NewCommandContext extracts command context from cobra.Command flags.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	flags := cmd.Flags()

	format, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}

	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return nil, err
	}

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}

	baseURL, err := flags.GetString("base-url")
	if err != nil {
		return nil, err
	}

	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return nil, err
	}

	logFormat, err := flags.GetString("log-format")
	if err != nil {
		return nil, err
	}

	metricsTextfile, err := flags.GetString("metrics-textfile")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Format:          format,
		NoColor:         noColor,
		ConfigPath:      configPath,
		BaseURL:         baseURL,
		LogLevel:        logLevel,
		LogFormat:       logFormat,
		MetricsTextfile: metricsTextfile,
	}, nil
}
