package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	md "github.com/nao1215/markdown"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/cleared-dev/rollcheck/internal/model"
)

// DefaultTitle heads markdown reports.
const DefaultTitle = "Rent Roll Reconciliation"

// JSONFormatter outputs a Document as JSON.
type JSONFormatter struct {
	Indent string
}

// Format implements the Formatter interface for JSON output.
func (f *JSONFormatter) Format(w io.Writer, res *model.ReconciliationResult) error {
	encoder := json.NewEncoder(w)
	if f.Indent != "" {
		encoder.SetIndent("", f.Indent)
	}
	return encoder.Encode(NewDocument(res))
}

// YAMLFormatter outputs a Document as YAML.
type YAMLFormatter struct{}

// Format implements the Formatter interface for YAML output.
func (f *YAMLFormatter) Format(w io.Writer, res *model.ReconciliationResult) error {
	data, err := yaml.MarshalWithOptions(NewDocument(res),
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// TableFormatter outputs a terminal table followed by the summary line.
type TableFormatter struct{}

var tableAlignment = []tw.Align{
	tw.AlignLeft,
	tw.AlignLeft,
	tw.AlignRight,
	tw.AlignRight,
	tw.AlignRight,
	tw.AlignLeft,
}

// Format implements the Formatter interface for table output.
func (f *TableFormatter) Format(w io.Writer, res *model.ReconciliationResult) error {
	if len(res.Discrepancies) == 0 {
		fmt.Fprintln(w, EmptyMessage)
	} else {
		config := tablewriter.Config{}
		config.Header.Alignment = tw.CellAlignment{PerColumn: tableAlignment}
		config.Row.Alignment = tw.CellAlignment{PerColumn: tableAlignment}
		table := tablewriter.NewTable(w, tablewriter.WithConfig(config))

		headers := make([]any, len(Columns))
		for i, h := range Headers() {
			headers[i] = h
		}
		table.Header(headers...)

		for _, row := range Rows(res) {
			cells := make([]any, len(row))
			for i, c := range row {
				cells[i] = c
			}
			if err := table.Append(cells...); err != nil {
				return fmt.Errorf("appending row: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("rendering table: %w", err)
		}
	}
	_, err := fmt.Fprintln(w, SummaryLine(res))
	return err
}

// MarkdownFormatter outputs a markdown document with a discrepancy table and
// summary section.
type MarkdownFormatter struct {
	Title string
}

// Format implements the Formatter interface for markdown output.
func (f *MarkdownFormatter) Format(w io.Writer, res *model.ReconciliationResult) error {
	title := f.Title
	if title == "" {
		title = DefaultTitle
	}

	doc := md.NewMarkdown(w)
	doc.H1(title).LF()

	doc.H2("Discrepancies").LF()
	if len(res.Discrepancies) == 0 {
		doc.PlainText(EmptyMessage).LF()
	} else {
		doc.Table(md.TableSet{
			Header: Headers(),
			Rows:   Rows(res),
		}).LF()
	}

	s := res.Summary
	doc.H2("Summary").LF()
	doc.BulletList(
		md.Bold("Total monthly rent delta:")+" "+Signed(res.TotalMonthlyRentDelta),
		md.Bold("Percentage variance:")+" "+Percent(res.PercentageVariance),
		fmt.Sprintf("%s %d", md.Bold("Matched units:"), s.MatchedUnits),
		fmt.Sprintf("%s %d", md.Bold("Actual-only units:"), s.ActualOnlyUnits),
		fmt.Sprintf("%s %d", md.Bold("Argus-only units:"), s.ArgusOnlyUnits),
		md.Bold("Actual monthly rent:")+" "+s.ActualMonthlyRent.StringFixed(2),
		md.Bold("Argus monthly rent:")+" "+s.ArgusMonthlyRent.StringFixed(2),
		md.Bold("Materiality threshold:")+" "+s.MaterialityThreshold.String(),
	)

	if err := doc.Build(); err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	return nil
}
