package model

import "github.com/shopspring/decimal"

// Presence records which datasets a unit number was found in.
type Presence string

const (
	PresentBoth       Presence = "both"
	PresentActualOnly Presence = "actual_only"
	PresentArgusOnly  Presence = "argus_only"
)

// DiscrepancyRecord is one reportable difference for a unit.
type DiscrepancyRecord struct {
	UnitNumber  string           `json:"unit_number" yaml:"unit_number"`
	FieldName   string           `json:"field_name" yaml:"field_name"`
	ActualValue string           `json:"actual_value" yaml:"actual_value"`
	ArgusValue  string           `json:"argus_value" yaml:"argus_value"`
	Delta       *decimal.Decimal `json:"delta,omitempty" yaml:"delta,omitempty"` // numeric fields only
	PresentIn   Presence         `json:"present_in" yaml:"present_in"`
}

// HasDelta reports whether the record carries a numeric delta.
func (d DiscrepancyRecord) HasDelta() bool {
	return d.Delta != nil
}

// Summary holds counts and totals describing a reconciliation.
type Summary struct {
	MatchedUnits         int             `json:"matched_units" yaml:"matched_units"`
	ActualOnlyUnits      int             `json:"actual_only_units" yaml:"actual_only_units"`
	ArgusOnlyUnits       int             `json:"argus_only_units" yaml:"argus_only_units"`
	ActualMonthlyRent    decimal.Decimal `json:"actual_monthly_rent" yaml:"actual_monthly_rent"`
	ArgusMonthlyRent     decimal.Decimal `json:"argus_monthly_rent" yaml:"argus_monthly_rent"`
	MaterialityThreshold decimal.Decimal `json:"materiality_threshold" yaml:"materiality_threshold"`
}

// ReconciliationResult is the ordered output of comparing two rent rolls.
type ReconciliationResult struct {
	Discrepancies         []DiscrepancyRecord `json:"discrepancies" yaml:"discrepancies"`
	TotalMonthlyRentDelta decimal.Decimal     `json:"total_monthly_rent_delta" yaml:"total_monthly_rent_delta"`
	PercentageVariance    decimal.Decimal     `json:"percentage_variance" yaml:"percentage_variance"`
	Summary               Summary             `json:"summary" yaml:"summary"`
}
