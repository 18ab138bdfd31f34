package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/rollcheck/internal/model"
)

func compareUnit(a, g model.UnitRecord, threshold decimal.Decimal) []model.DiscrepancyRecord {
	var out []model.DiscrepancyRecord

	if d, ok := material(a.MonthlyRent, g.MonthlyRent, threshold); ok {
		out = append(out, numeric(a.UnitNumber, model.FieldMonthlyRent,
			a.MonthlyRent.StringFixed(2), g.MonthlyRent.StringFixed(2), d))
	}
	if d, ok := material(a.SquareFeet, g.SquareFeet, threshold); ok {
		out = append(out, numeric(a.UnitNumber, model.FieldSquareFeet,
			a.SquareFeet.String(), g.SquareFeet.String(), d))
	}
	if a.OccupantName != g.OccupantName {
		out = append(out, model.DiscrepancyRecord{
			UnitNumber:  a.UnitNumber,
			FieldName:   model.FieldOccupantName,
			ActualValue: a.OccupantName,
			ArgusValue:  g.OccupantName,
			PresentIn:   model.PresentBoth,
		})
	}
	if !sameDay(a.LeaseEndDate, g.LeaseEndDate) {
		out = append(out, model.DiscrepancyRecord{
			UnitNumber:  a.UnitNumber,
			FieldName:   model.FieldLeaseEndDate,
			ActualValue: a.LeaseEndDate.Format(model.DateFormat),
			ArgusValue:  g.LeaseEndDate.Format(model.DateFormat),
			PresentIn:   model.PresentBoth,
		})
	}
	return out
}

// material returns actual - argus and whether its magnitude reaches threshold.
func material(actual, argus, threshold decimal.Decimal) (decimal.Decimal, bool) {
	d := actual.Sub(argus)
	if d.IsZero() {
		return d, false
	}
	return d, d.Abs().GreaterThanOrEqual(threshold)
}

func numeric(unit, field, actual, argus string, delta decimal.Decimal) model.DiscrepancyRecord {
	return model.DiscrepancyRecord{
		UnitNumber:  unit,
		FieldName:   field,
		ActualValue: actual,
		ArgusValue:  argus,
		Delta:       &delta,
		PresentIn:   model.PresentBoth,
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
