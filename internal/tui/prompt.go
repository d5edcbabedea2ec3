package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/adminctl/internal/validate"
)

// Prompt represents a simple interactive prompt configuration
type Prompt struct {
	Message     string
	Default     string
	Placeholder string
	Required    bool
	Secret      bool
	Validate    func(string) error
}

// PromptForString displays an interactive prompt and returns the user's input
func PromptForString(p Prompt) (string, error) {
	value := p.Default

	form := huh.NewForm(huh.NewGroup(newInput(p, &value)))
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	value = strings.TrimSpace(value)
	if p.Required && value == "" {
		return "", fmt.Errorf("value is required")
	}

	return value, nil
}

func newInput(p Prompt, value *string) *huh.Input {
	input := huh.NewInput().
		Title(p.Message).
		Placeholder(p.Placeholder).
		Value(value)

	if p.Secret {
		input = input.EchoMode(huh.EchoModePassword)
	}
	if p.Validate != nil {
		input = input.Validate(p.Validate)
	}
	return input
}

// Credentials holds the values collected by PromptForCredentials.
type Credentials struct {
	Email    string
	Password string
}

// PromptForCredentials asks for whichever of email and password is still
// empty in c. The password is never echoed.
func PromptForCredentials(c Credentials) (Credentials, error) {
	fields := credentialFields(&c)
	if len(fields) == 0 {
		return c, nil
	}

	form := huh.NewForm(huh.NewGroup(fields...))
	if err := form.Run(); err != nil {
		return Credentials{}, fmt.Errorf("prompt failed: %w", err)
	}

	c.Email = strings.TrimSpace(c.Email)
	return c, nil
}

func credentialFields(c *Credentials) []huh.Field {
	var fields []huh.Field
	if strings.TrimSpace(c.Email) == "" {
		fields = append(fields, newInput(Prompt{
			Message:     "Email",
			Placeholder: "admin@example.com",
			Validate:    func(s string) error { return validate.Email(strings.TrimSpace(s)) },
		}, &c.Email))
	}
	if c.Password == "" {
		fields = append(fields, newInput(Prompt{
			Message:  "Password",
			Secret:   true,
			Validate: validate.Password,
		}, &c.Password))
	}
	return fields
}

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	var confirmed bool = defaultValue

	confirm := huh.NewConfirm().
		Title(message).
		Value(&confirmed)

	form := huh.NewForm(huh.NewGroup(confirm))

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	return confirmed, nil
}

// Choice is one selectable option.
type Choice struct {
	Label string
	Value string
}

// PromptForSelect displays a selection prompt and returns the chosen value.
func PromptForSelect(message string, choices []Choice) (string, error) {
	if len(choices) == 0 {
		return "", fmt.Errorf("no options provided")
	}

	var selected string
	selectField := huh.NewSelect[string]().
		Title(message).
		Options(toOptions(choices)...).
		Value(&selected)

	form := huh.NewForm(huh.NewGroup(selectField))

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	return selected, nil
}

func toOptions(choices []Choice) []huh.Option[string] {
	options := make([]huh.Option[string], len(choices))
	for i, c := range choices {
		label := c.Label
		if label == "" {
			label = c.Value
		}
		options[i] = huh.NewOption(label, c.Value)
	}
	return options
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"TRAVIS",
	"CIRCLECI",
	"BUILDKITE",
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	return shouldPrompt(os.Getenv, IsInteractive())
}

func shouldPrompt(getenv func(string) string, interactive bool) bool {
	if getenv("ADMINCTL_NO_PROMPT") != "" {
		return false
	}
	for _, envVar := range ciEnvVars {
		if getenv(envVar) != "" {
			return false
		}
	}
	return interactive
}
