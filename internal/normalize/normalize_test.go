package normalize

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/rollcheck/internal/errors"
	"github.com/cleared-dev/rollcheck/internal/model"
)

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../testdata/" + name)
	require.NoError(t, err)
	return data
}

func requireNormErr(t *testing.T, err error) *errors.NormalizationError {
	t.Helper()
	require.Error(t, err)
	var ne *errors.NormalizationError
	require.True(t, errors.As(err, &ne), "expected NormalizationError, got %T: %v", err, err)
	return ne
}

func TestActualNormalizer_Testdata(t *testing.T) {
	n := &ActualNormalizer{}
	units, err := n.Normalize(readTestdata(t, "actual_extraction.json"))
	require.NoError(t, err)
	require.Len(t, units, 4)

	assert.Equal(t, "101", units[0].UnitNumber)
	assert.Equal(t, "Acme Dental", units[0].OccupantName)
	assert.Equal(t, "1250", units[0].SquareFeet.String())
	assert.Equal(t, "2023-01-01", units[0].LeaseStartDate.Format(model.DateFormat))
	assert.Equal(t, "2025-12-31", units[0].LeaseEndDate.Format(model.DateFormat))
	assert.Equal(t, "2500.00", units[0].MonthlyRent.StringFixed(2))

	assert.Equal(t, "2200.50", units[3].MonthlyRent.StringFixed(2))
}

func TestArgusNormalizer_Testdata(t *testing.T) {
	n := &ArgusNormalizer{}
	units, err := n.Normalize(readTestdata(t, "argus_extraction.json"))
	require.NoError(t, err)
	require.Len(t, units, 4)

	want := map[string]string{
		"101": "2500.00", // 25000 over Mar..Dec = 10 months
		"102": "1750.00", // ends 2027, 21000 / 12
		"104": "2200.50",
		"105": "1500.00", // 12000 over Mar..Oct = 8 months
	}
	for _, u := range units {
		assert.Equal(t, want[u.UnitNumber], u.MonthlyRent.StringFixed(2), "unit %s", u.UnitNumber)
	}
}

func TestNormalize_PreservesOrderAndLength(t *testing.T) {
	raw := map[string]any{
		"units": []any{
			unit("C3", "300"),
			unit("A1", "100"),
			unit("B2", "200"),
		},
	}
	units, err := (&ActualNormalizer{}).Normalize(raw)
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, "C3", units[0].UnitNumber)
	assert.Equal(t, "A1", units[1].UnitNumber)
	assert.Equal(t, "B2", units[2].UnitNumber)
}

func TestNormalize_AcceptsAllInputShapes(t *testing.T) {
	text := `{"units":[{"occupant_name":"X","unit_number":"1","square_feet":10,"lease_start_date":"1/1/2024","lease_end_date":"12/31/2025","monthly_rent":"$1,000.50"}]}`
	inputs := map[string]any{
		"string":      text,
		"bytes":       []byte(text),
		"raw message": json.RawMessage(text),
		"fenced":      "```json\n" + text + "\n```",
		"mapping": map[string]any{"units": []any{map[string]any{
			"occupant_name": "X", "unit_number": "1", "square_feet": 10.0,
			"lease_start_date": "1/1/2024", "lease_end_date": "12/31/2025", "monthly_rent": "$1,000.50",
		}}},
		"raw extraction": model.RawExtraction{"units": []map[string]any{{
			"occupant_name": "X", "unit_number": 1, "square_feet": 10,
			"lease_start_date": "2024-01-01", "lease_end_date": "2025-12-31", "monthly_rent": 1000.5,
		}}},
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			units, err := (&ActualNormalizer{}).Normalize(input)
			require.NoError(t, err)
			require.Len(t, units, 1)
			assert.Equal(t, "1", units[0].UnitNumber)
			assert.Equal(t, "1000.50", units[0].MonthlyRent.StringFixed(2))
			assert.Equal(t, "2025-12-31", units[0].LeaseEndDate.Format(model.DateFormat))
		})
	}
}

func TestNormalize_MissingUnitNumber(t *testing.T) {
	bad := unit("", "100")
	delete(bad, "unit_number")
	raw := map[string]any{"units": []any{unit("1", "100"), bad}}

	units, err := (&ActualNormalizer{}).Normalize(raw)
	assert.Nil(t, units)
	ne := requireNormErr(t, err)
	assert.Equal(t, "actual", ne.Side)
	assert.Equal(t, 1, ne.UnitIndex)
	assert.Equal(t, "unit_number", ne.Field)
	assert.Contains(t, err.Error(), "missing required field")
}

func TestNormalize_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
		field  string
		reason string
	}{
		{"blank unit number", func(u map[string]any) { u["unit_number"] = "  " }, "unit_number", "must not be empty"},
		{"null field", func(u map[string]any) { u["occupant_name"] = nil }, "occupant_name", "missing required field"},
		{"bad date", func(u map[string]any) { u["lease_end_date"] = "13/45/2025" }, "lease_end_date", "invalid date"},
		{"missing start date", func(u map[string]any) { delete(u, "lease_start_date") }, "lease_start_date", "missing required field"},
		{"bad number", func(u map[string]any) { u["square_feet"] = "about 900" }, "square_feet", "invalid number"},
		{"negative rent", func(u map[string]any) { u["monthly_rent"] = -5.0 }, "monthly_rent", "must not be negative"},
		{"wrong type", func(u map[string]any) { u["occupant_name"] = true }, "occupant_name", "expected text"},
		{"missing rent", func(u map[string]any) { delete(u, "monthly_rent") }, "monthly_rent", "missing required field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := unit("7", "100")
			tt.mutate(u)
			units, err := (&ActualNormalizer{}).Normalize(map[string]any{"units": []any{u}})
			assert.Nil(t, units)
			ne := requireNormErr(t, err)
			assert.Equal(t, 0, ne.UnitIndex)
			assert.Equal(t, tt.field, ne.Field)
			assert.Contains(t, ne.Reason, tt.reason)
		})
	}
}

func TestNormalize_DocumentErrors(t *testing.T) {
	tests := []struct {
		name  string
		input any
		field string
	}{
		{"not json", "the OCR failed", ""},
		{"empty string", "   ", ""},
		{"json array", "[1,2]", ""},
		{"nil", nil, ""},
		{"unsupported type", 42, ""},
		{"missing units", map[string]any{}, "units"},
		{"units not a list", map[string]any{"units": "none"}, "units"},
		{"second object", `{"units":[]} {"units":[{"unit_number":"1"}]}`, ""},
		{"trailing text", `{"units":[]} the table above lists every unit`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, err := (&ActualNormalizer{}).Normalize(tt.input)
			assert.Nil(t, units)
			ne := requireNormErr(t, err)
			assert.Equal(t, errors.DocumentIndex, ne.UnitIndex)
			assert.Equal(t, tt.field, ne.Field)
		})
	}
}

func TestNormalize_UnitNotObject(t *testing.T) {
	_, err := (&ActualNormalizer{}).Normalize(map[string]any{"units": []any{unit("1", "1"), "oops"}})
	ne := requireNormErr(t, err)
	assert.Equal(t, 1, ne.UnitIndex)
}

func TestArgusNormalizer_AnalysisDate(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		raw := map[string]any{"units": []any{argusUnit("1", "1200", "12/31/2025")}}
		units, err := (&ArgusNormalizer{}).Normalize(raw)
		assert.Nil(t, units)
		ne := requireNormErr(t, err)
		assert.Equal(t, "argus", ne.Side)
		assert.Equal(t, "analysis_date", ne.Field)
		assert.Equal(t, errors.DocumentIndex, ne.UnitIndex)
	})

	t.Run("malformed", func(t *testing.T) {
		raw := map[string]any{"analysis_date": "Mar 2025", "units": []any{}}
		_, err := (&ArgusNormalizer{}).Normalize(raw)
		ne := requireNormErr(t, err)
		assert.Equal(t, "analysis_date", ne.Field)
	})

	t.Run("not a string", func(t *testing.T) {
		raw := map[string]any{"analysis_date": 20250331.0, "units": []any{}}
		_, err := (&ArgusNormalizer{}).Normalize(raw)
		ne := requireNormErr(t, err)
		assert.Equal(t, "analysis_date", ne.Field)
	})
}

func TestArgusNormalizer_Proration(t *testing.T) {
	raw := map[string]any{
		"analysis_date": "11/30/2025",
		"units": []any{
			argusUnit("1", "1200", "12/31/2025"),
			argusUnit("2", "1200", "3/31/2026"),
			argusUnit("3", "1200", "10/31/2025"),
		},
	}
	units, err := (&ArgusNormalizer{}).Normalize(raw)
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, "600.00", units[0].MonthlyRent.StringFixed(2))
	assert.Equal(t, "100.00", units[1].MonthlyRent.StringFixed(2))
	assert.Equal(t, "1200.00", units[2].MonthlyRent.StringFixed(2), "lease ending before analysis month clamps to 1")
}

func TestArgusNormalizer_RequiresPotentialRent(t *testing.T) {
	u := argusUnit("9", "100", "12/31/2025")
	delete(u, "potential_rent")
	u["monthly_rent"] = 100.0
	_, err := (&ArgusNormalizer{}).Normalize(map[string]any{"analysis_date": "1/31/2025", "units": []any{u}})
	ne := requireNormErr(t, err)
	assert.Equal(t, "potential_rent", ne.Field)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{json.Number("1200.50"), "1200.5"},
		{1200.5, "1200.5"},
		{12, "12"},
		{int64(7), "7"},
		{"$1,234.56", "1234.56"},
		{" 99 ", "99"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		require.NoError(t, err, "ParseAmount(%v)", tt.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "ParseAmount(%v) = %s", tt.in, got)
	}

	for _, bad := range []any{"", "$", "n/a", true, []any{}} {
		_, err := ParseAmount(bad)
		assert.Error(t, err, "ParseAmount(%v)", bad)
	}
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"3/31/2025", "03/31/2025", "2025-03-31", " 3/31/2025 "} {
		d, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, "2025-03-31", d.Format(model.DateFormat))
	}
	for _, s := range []string{"", "31/03/2025", "March 31, 2025", "2025/03/31"} {
		_, err := ParseDate(s)
		assert.Error(t, err, s)
	}
}

func unit(number, rent string) map[string]any {
	return map[string]any{
		"occupant_name":    "Tenant " + number,
		"unit_number":      number,
		"square_feet":      "1000",
		"lease_start_date": "1/1/2024",
		"lease_end_date":   "12/31/2026",
		"monthly_rent":     rent,
	}
}

func argusUnit(number, potential, leaseEnd string) map[string]any {
	return map[string]any{
		"occupant_name":    "Tenant " + number,
		"unit_number":      number,
		"square_feet":      1000.0,
		"lease_start_date": "1/1/2024",
		"lease_end_date":   leaseEnd,
		"potential_rent":   potential,
	}
}
