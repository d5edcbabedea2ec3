package ux

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Formatter defines the interface for output formatters.
// This enables consistent output formatting across all commands.
type Formatter interface {
	// Format writes the given data to the output writer
	Format(data interface{}) error
}

// Tabular is implemented by values the text formatter renders as a table.
type Tabular interface {
	Headers() []string
	Rows() [][]string
}

// FormatterOptions contains configuration for formatters
type FormatterOptions struct {
	// Writer is where output is written (defaults to os.Stdout)
	Writer io.Writer
	// NoColor disables colored output for text formatters
	NoColor bool
	// Compact enables compact output (no indentation for JSON/YAML)
	Compact bool
}

// NewFormatter creates a formatter based on the format string
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	if opts == nil {
		opts = &FormatterOptions{Writer: os.Stdout}
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch format {
	case "json":
		return &JSONFormatter{opts: opts}, nil
	case "yaml":
		return &YAMLFormatter{opts: opts}, nil
	case "text", "":
		return &TextFormatter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
	}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	opts *FormatterOptions
}

// Format writes data as JSON
func (f *JSONFormatter) Format(data interface{}) error {
	encoder := json.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// YAMLFormatter formats output as YAML. Values pass through their JSON form
// first so json tags and custom marshalers decide the field names.
type YAMLFormatter struct {
	opts *FormatterOptions
}

// Format writes data as YAML
func (f *YAMLFormatter) Format(data interface{}) error {
	generic, err := jsonGeneric(data)
	if err != nil {
		return err
	}

	encoder := yaml.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent(2)
	}
	defer encoder.Close()
	return encoder.Encode(generic)
}

func jsonGeneric(data interface{}) (interface{}, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	return numbers(v), nil
}

// numbers replaces json.Number so YAML prints numbers unquoted.
func numbers(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = numbers(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = numbers(val)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}

// TextFormatter formats output as human-readable text
type TextFormatter struct {
	opts *FormatterOptions
}

// Format writes data as formatted text. Tabular values become tables,
// strings and Stringers are printed as-is.
func (f *TextFormatter) Format(data interface{}) error {
	switch v := data.(type) {
	case Tabular:
		_, err := fmt.Fprintln(f.opts.Writer, RenderTable(v, f.opts.NoColor))
		return err
	case string:
		_, err := fmt.Fprintln(f.opts.Writer, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.opts.Writer, v.String())
		return err
	default:
		return fmt.Errorf("text formatter requires a table, a string or a String() method; use --format json for %T", data)
	}
}

// Table is a ready-made Tabular value.
type Table struct {
	Title   string
	Columns []string
	Data    [][]string
}

// Headers returns the column names.
func (t *Table) Headers() []string { return t.Columns }

// Rows returns the table body.
func (t *Table) Rows() [][]string { return t.Data }

// Append adds a row.
func (t *Table) Append(cells ...string) {
	t.Data = append(t.Data, cells)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderTable draws t with a rounded border. An empty table renders as
// "(no rows)" under its title.
func RenderTable(t Tabular, noColor bool) string {
	var b strings.Builder

	if titled, ok := t.(*Table); ok && titled.Title != "" {
		if noColor {
			b.WriteString(titled.Title)
		} else {
			b.WriteString(titleStyle.Render(titled.Title))
		}
		b.WriteString("\n")
	}

	rows := t.Rows()
	if len(rows) == 0 {
		b.WriteString("(no rows)")
		return b.String()
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(t.Headers()...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if noColor {
				return cellStyle
			}
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	if !noColor {
		tbl = tbl.BorderStyle(borderStyle)
	}

	b.WriteString(tbl.String())
	return b.String()
}

// KeyValues renders label/value pairs as a two column table.
func KeyValues(title string, pairs ...string) *Table {
	t := &Table{Title: title, Columns: []string{"Field", "Value"}}
	for i := 0; i+1 < len(pairs); i += 2 {
		t.Append(pairs[i], pairs[i+1])
	}
	return t
}

// Compile-time verification that formatters implement Formatter
var _ Formatter = (*JSONFormatter)(nil)
var _ Formatter = (*YAMLFormatter)(nil)
var _ Formatter = (*TextFormatter)(nil)
var _ Tabular = (*Table)(nil)
