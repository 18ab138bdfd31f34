package report

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cleared-dev/rollcheck/internal/model"
)

// EmptyMessage is rendered in place of the discrepancy table when nothing
// material was found.
const EmptyMessage = "No material discrepancies"

// Columns are the discrepancy table columns in display order.
var Columns = []string{
	"unit_number",
	"field_name",
	"actual_value",
	"argus_value",
	"delta",
	"present_in",
}

// Headers returns Columns as display labels, e.g. "Unit Number".
func Headers() []string {
	caser := cases.Title(language.English)
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = caser.String(strings.ReplaceAll(c, "_", " "))
	}
	return out
}

// Rows flattens the discrepancies into string cells matching Columns.
func Rows(res *model.ReconciliationResult) [][]string {
	rows := make([][]string, 0, len(res.Discrepancies))
	for _, d := range res.Discrepancies {
		rows = append(rows, []string{
			d.UnitNumber,
			d.FieldName,
			d.ActualValue,
			d.ArgusValue,
			deltaText(d),
			string(d.PresentIn),
		})
	}
	return rows
}

func deltaText(d model.DiscrepancyRecord) string {
	if !d.HasDelta() {
		return ""
	}
	if d.FieldName == model.FieldMonthlyRent {
		return Signed(*d.Delta)
	}
	s := d.Delta.String()
	if d.Delta.IsPositive() {
		s = "+" + s
	}
	return s
}

// Signed renders an amount with two decimals and an explicit sign.
func Signed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

// Percent renders a ratio as a percentage with two decimals, e.g. 2.86%.
func Percent(ratio decimal.Decimal) string {
	return ratio.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// SummaryLine is the one-line aggregate shown under every text report.
func SummaryLine(res *model.ReconciliationResult) string {
	return "Total monthly rent delta: " + Signed(res.TotalMonthlyRentDelta) +
		" | Percentage variance: " + Percent(res.PercentageVariance)
}

// Document is the serialized shape of a result for JSON and YAML output.
// Amounts are strings so they never pass through floats. Money is fixed to
// cents, variance to four places, and the threshold is written as configured.
type Document struct {
	Discrepancies         []DiscrepancyView `json:"discrepancies" yaml:"discrepancies"`
	TotalMonthlyRentDelta string            `json:"total_monthly_rent_delta" yaml:"total_monthly_rent_delta"`
	PercentageVariance    string            `json:"percentage_variance" yaml:"percentage_variance"`
	Summary               SummaryView       `json:"summary" yaml:"summary"`
}

// DiscrepancyView is one discrepancy in a Document.
type DiscrepancyView struct {
	UnitNumber  string `json:"unit_number" yaml:"unit_number"`
	FieldName   string `json:"field_name" yaml:"field_name"`
	ActualValue string `json:"actual_value" yaml:"actual_value"`
	ArgusValue  string `json:"argus_value" yaml:"argus_value"`
	Delta       string `json:"delta,omitempty" yaml:"delta,omitempty"`
	PresentIn   string `json:"present_in" yaml:"present_in"`
}

// SummaryView mirrors model.Summary.
type SummaryView struct {
	MatchedUnits         int    `json:"matched_units" yaml:"matched_units"`
	ActualOnlyUnits      int    `json:"actual_only_units" yaml:"actual_only_units"`
	ArgusOnlyUnits       int    `json:"argus_only_units" yaml:"argus_only_units"`
	ActualMonthlyRent    string `json:"actual_monthly_rent" yaml:"actual_monthly_rent"`
	ArgusMonthlyRent     string `json:"argus_monthly_rent" yaml:"argus_monthly_rent"`
	MaterialityThreshold string `json:"materiality_threshold" yaml:"materiality_threshold"`
}

// NewDocument converts a result for serialization.
func NewDocument(res *model.ReconciliationResult) Document {
	doc := Document{
		Discrepancies:         make([]DiscrepancyView, 0, len(res.Discrepancies)),
		TotalMonthlyRentDelta: res.TotalMonthlyRentDelta.StringFixed(2),
		PercentageVariance:    res.PercentageVariance.StringFixed(4),
		Summary: SummaryView{
			MatchedUnits:         res.Summary.MatchedUnits,
			ActualOnlyUnits:      res.Summary.ActualOnlyUnits,
			ArgusOnlyUnits:       res.Summary.ArgusOnlyUnits,
			ActualMonthlyRent:    res.Summary.ActualMonthlyRent.StringFixed(2),
			ArgusMonthlyRent:     res.Summary.ArgusMonthlyRent.StringFixed(2),
			MaterialityThreshold: res.Summary.MaterialityThreshold.String(),
		},
	}
	for _, d := range res.Discrepancies {
		v := DiscrepancyView{
			UnitNumber:  d.UnitNumber,
			FieldName:   d.FieldName,
			ActualValue: d.ActualValue,
			ArgusValue:  d.ArgusValue,
			PresentIn:   string(d.PresentIn),
		}
		if d.HasDelta() {
			v.Delta = d.Delta.String()
			if d.FieldName == model.FieldMonthlyRent {
				v.Delta = d.Delta.StringFixed(2)
			}
		}
		doc.Discrepancies = append(doc.Discrepancies, v)
	}
	return doc
}
