// Package report renders reconciliation results as markdown, terminal tables,
// JSON or YAML.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/cleared-dev/rollcheck/internal/model"
)

// Format names an output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// Formatter writes a reconciliation result to w.
type Formatter interface {
	Format(w io.Writer, res *model.ReconciliationResult) error
}

// FormatterFunc allows functions to implement Formatter.
type FormatterFunc func(io.Writer, *model.ReconciliationResult) error

// Format implements the Formatter interface.
func (f FormatterFunc) Format(w io.Writer, res *model.ReconciliationResult) error {
	return f(w, res)
}

// NewFormatter returns the formatter for format. Unknown formats fall back to
// the table formatter.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatMarkdown:
		return &MarkdownFormatter{Title: DefaultTitle}
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// Write renders res to w in the given format.
func Write(w io.Writer, format Format, res *model.ReconciliationResult) error {
	return NewFormatter(format).Format(w, res)
}

// DetectFormat returns explicit if set, otherwise table on a terminal and
// JSON for pipes and redirects.
func DetectFormat(explicit string) Format {
	if explicit != "" {
		return Format(strings.ToLower(explicit))
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	return FormatJSON
}

// ParseFormat converts s to a Format. The empty string is allowed and means
// "detect".
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case FormatMarkdown, FormatTable, FormatJSON, FormatYAML, "":
		return format, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of: markdown, table, json, yaml", s)
	}
}
