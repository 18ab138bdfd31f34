package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the canonical calendar-date layout for unit records.
const DateFormat = "2006-01-02"

// RollKind names which side of a reconciliation a document describes.
type RollKind string

const (
	KindActual RollKind = "actual"
	KindArgus  RollKind = "argus"
)

// Valid reports whether k is a known roll kind.
func (k RollKind) Valid() bool {
	return k == KindActual || k == KindArgus
}

// Source field names shared by extraction output, unit records and discrepancies.
const (
	FieldUnits          = "units"
	FieldAnalysisDate   = "analysis_date"
	FieldUnitNumber     = "unit_number"
	FieldOccupantName   = "occupant_name"
	FieldSquareFeet     = "square_feet"
	FieldLeaseStartDate = "lease_start_date"
	FieldLeaseEndDate   = "lease_end_date"
	FieldMonthlyRent    = "monthly_rent"
	FieldPotentialRent  = "potential_rent"
)

// RawExtraction is the loosely shaped mapping produced by document understanding.
// It is validated by a normalizer, never trusted.
type RawExtraction map[string]any

// UnitRecord is one leased unit in canonical form. MonthlyRent is always a
// monthly figure regardless of the source document's convention.
type UnitRecord struct {
	UnitNumber     string
	OccupantName   string
	SquareFeet     decimal.Decimal
	LeaseStartDate time.Time
	LeaseEndDate   time.Time
	MonthlyRent    decimal.Decimal
}

type unitJSON struct {
	UnitNumber     string `json:"unit_number"`
	OccupantName   string `json:"occupant_name"`
	SquareFeet     string `json:"square_feet"`
	LeaseStartDate string `json:"lease_start_date"`
	LeaseEndDate   string `json:"lease_end_date"`
	MonthlyRent    string `json:"monthly_rent"`
}

// MarshalJSON renders dates as YYYY-MM-DD and rent with two decimals.
func (u UnitRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(unitJSON{
		UnitNumber:     u.UnitNumber,
		OccupantName:   u.OccupantName,
		SquareFeet:     u.SquareFeet.String(),
		LeaseStartDate: u.LeaseStartDate.Format(DateFormat),
		LeaseEndDate:   u.LeaseEndDate.Format(DateFormat),
		MonthlyRent:    u.MonthlyRent.StringFixed(2),
	})
}
