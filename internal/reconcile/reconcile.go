// Package reconcile matches unit records from an actual rent roll against an
// Argus rent roll and reports material differences.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/rollcheck/internal/errors"
	"github.com/cleared-dev/rollcheck/internal/model"
	"github.com/cleared-dev/rollcheck/internal/rentroll"
)

// DefaultThreshold is the smallest numeric difference worth reporting: rounding
// noise under one currency unit is not reportable.
var DefaultThreshold = decimal.NewFromInt(1)

// ValidateThreshold rejects a negative materiality threshold.
func ValidateThreshold(threshold decimal.Decimal) error {
	if threshold.IsNegative() {
		return errors.NewConfigurationError("materiality_threshold", threshold.String(), "must not be negative")
	}
	return nil
}

// ParseThreshold parses and validates a materiality threshold. An empty string
// yields DefaultThreshold.
func ParseThreshold(s string) (decimal.Decimal, error) {
	if s == "" {
		return DefaultThreshold, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.NewConfigurationError("materiality_threshold", s, "not a number")
	}
	if err := ValidateThreshold(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// Reconcile compares the two datasets by exact unit number.
//
// Records are ordered by first appearance in actual, followed by Argus-only
// units in Argus order. Within a matched unit fields are compared in the
// order monthly_rent, square_feet, occupant_name, lease_end_date. Numeric
// fields are reported when |actual - argus| >= threshold; text and date
// fields on any mismatch.
func Reconcile(actual, argus []model.UnitRecord, threshold decimal.Decimal) (*model.ReconciliationResult, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	actualRoll, err := rentroll.New(model.KindActual, actual)
	if err != nil {
		return nil, err
	}
	argusRoll, err := rentroll.New(model.KindArgus, argus)
	if err != nil {
		return nil, err
	}

	result := &model.ReconciliationResult{
		Discrepancies:         []model.DiscrepancyRecord{},
		TotalMonthlyRentDelta: decimal.Zero,
		PercentageVariance:    decimal.Zero,
	}
	sum := &result.Summary
	sum.MaterialityThreshold = threshold
	sum.ActualMonthlyRent = decimal.Zero
	sum.ArgusMonthlyRent = decimal.Zero

	for _, a := range actualRoll.Units() {
		sum.ActualMonthlyRent = sum.ActualMonthlyRent.Add(a.MonthlyRent)

		g, ok := argusRoll.Get(a.UnitNumber)
		if !ok {
			sum.ActualOnlyUnits++
			result.Discrepancies = append(result.Discrepancies, model.DiscrepancyRecord{
				UnitNumber:  a.UnitNumber,
				FieldName:   model.FieldUnitNumber,
				ActualValue: a.UnitNumber,
				PresentIn:   model.PresentActualOnly,
			})
			continue
		}

		sum.MatchedUnits++
		recs := compareUnit(a, g, threshold)
		for _, d := range recs {
			if d.FieldName == model.FieldMonthlyRent {
				result.TotalMonthlyRentDelta = result.TotalMonthlyRentDelta.Add(*d.Delta)
			}
		}
		result.Discrepancies = append(result.Discrepancies, recs...)
	}

	for _, g := range argusRoll.Units() {
		sum.ArgusMonthlyRent = sum.ArgusMonthlyRent.Add(g.MonthlyRent)

		if actualRoll.Has(g.UnitNumber) {
			continue
		}
		sum.ArgusOnlyUnits++
		result.Discrepancies = append(result.Discrepancies, model.DiscrepancyRecord{
			UnitNumber: g.UnitNumber,
			FieldName:  model.FieldUnitNumber,
			ArgusValue: g.UnitNumber,
			PresentIn:  model.PresentArgusOnly,
		})
	}

	if !sum.ArgusMonthlyRent.IsZero() {
		result.PercentageVariance = result.TotalMonthlyRentDelta.Div(sum.ArgusMonthlyRent)
	}

	return result, nil
}
