// Package normalize converts raw document extractions into validated unit
// records. Normalization is all-or-nothing per document: one bad unit fails
// the whole document and no records are returned.
package normalize

import (
	"time"

	"github.com/cleared-dev/rollcheck/internal/model"
	"github.com/cleared-dev/rollcheck/internal/proration"
)

// Normalizer converts one document's raw extraction into UnitRecords.
type Normalizer interface {
	Normalize(input any) ([]model.UnitRecord, error)
	Kind() model.RollKind
}

// ActualNormalizer handles the landlord's actual rent roll, where
// monthly_rent is already a monthly figure.
type ActualNormalizer struct{}

// Kind returns model.KindActual.
func (n *ActualNormalizer) Kind() model.RollKind { return model.KindActual }

// Normalize maps each unit's fields through unchanged.
func (n *ActualNormalizer) Normalize(input any) ([]model.UnitRecord, error) {
	raw, err := Decode(model.KindActual, input)
	if err != nil {
		return nil, err
	}
	units, err := unitsOf(model.KindActual, raw)
	if err != nil {
		return nil, err
	}

	records := make([]model.UnitRecord, 0, len(units))
	for i, u := range units {
		r := unitReader{kind: model.KindActual, index: i, unit: u}
		rec, err := readCommon(r)
		if err != nil {
			return nil, err
		}
		rec.MonthlyRent, err = r.amount(model.FieldMonthlyRent)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ArgusNormalizer handles the underwriting rent roll, whose potential_rent
// covers the remaining term from analysis_date through lease_end_date.
type ArgusNormalizer struct{}

// Kind returns model.KindArgus.
func (n *ArgusNormalizer) Kind() model.RollKind { return model.KindArgus }

// Normalize maps each unit and prorates potential_rent into monthly_rent.
func (n *ArgusNormalizer) Normalize(input any) ([]model.UnitRecord, error) {
	raw, err := Decode(model.KindArgus, input)
	if err != nil {
		return nil, err
	}
	analysis, err := analysisDate(raw)
	if err != nil {
		return nil, err
	}
	units, err := unitsOf(model.KindArgus, raw)
	if err != nil {
		return nil, err
	}

	records := make([]model.UnitRecord, 0, len(units))
	for i, u := range units {
		r := unitReader{kind: model.KindArgus, index: i, unit: u}
		rec, err := readCommon(r)
		if err != nil {
			return nil, err
		}
		potential, err := r.amount(model.FieldPotentialRent)
		if err != nil {
			return nil, err
		}
		rec.MonthlyRent = proration.Prorate(potential, analysis, rec.LeaseEndDate)
		records = append(records, rec)
	}
	return records, nil
}

func analysisDate(raw model.RawExtraction) (time.Time, error) {
	v, ok := raw[model.FieldAnalysisDate]
	if !ok || v == nil {
		return time.Time{}, docError(model.KindArgus, model.FieldAnalysisDate, "missing required field", nil)
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, docError(model.KindArgus, model.FieldAnalysisDate, "expected a date string", nil)
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, docError(model.KindArgus, model.FieldAnalysisDate, "invalid date \""+s+"\"", nil)
	}
	return t, nil
}

// readCommon reads the fields shared by both document types.
func readCommon(r unitReader) (model.UnitRecord, error) {
	var rec model.UnitRecord
	var err error

	if rec.UnitNumber, err = r.text(model.FieldUnitNumber); err != nil {
		return rec, err
	}
	if rec.UnitNumber == "" {
		return rec, r.fail(model.FieldUnitNumber, "must not be empty", nil)
	}
	if rec.OccupantName, err = r.text(model.FieldOccupantName); err != nil {
		return rec, err
	}
	if rec.SquareFeet, err = r.amount(model.FieldSquareFeet); err != nil {
		return rec, err
	}
	if rec.LeaseStartDate, err = r.date(model.FieldLeaseStartDate); err != nil {
		return rec, err
	}
	if rec.LeaseEndDate, err = r.date(model.FieldLeaseEndDate); err != nil {
		return rec, err
	}
	return rec, nil
}
