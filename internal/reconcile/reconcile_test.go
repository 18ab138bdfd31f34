package reconcile

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/rollcheck/internal/errors"
	"github.com/cleared-dev/rollcheck/internal/model"
)

func date(s string) time.Time {
	t, err := time.Parse(model.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func rec(unit, rent string) model.UnitRecord {
	return model.UnitRecord{
		UnitNumber:     unit,
		OccupantName:   "Tenant " + unit,
		SquareFeet:     decimal.NewFromInt(1000),
		LeaseStartDate: date("2024-01-01"),
		LeaseEndDate:   date("2026-12-31"),
		MonthlyRent:    decimal.RequireFromString(rent),
	}
}

func TestReconcile_Scenario(t *testing.T) {
	actual := []model.UnitRecord{rec("101", "1000")}
	argus := []model.UnitRecord{rec("101", "950"), rec("102", "800")}

	res, err := Reconcile(actual, argus, DefaultThreshold)
	require.NoError(t, err)
	require.Len(t, res.Discrepancies, 2)

	d := res.Discrepancies[0]
	assert.Equal(t, "101", d.UnitNumber)
	assert.Equal(t, model.FieldMonthlyRent, d.FieldName)
	assert.Equal(t, "1000.00", d.ActualValue)
	assert.Equal(t, "950.00", d.ArgusValue)
	require.True(t, d.HasDelta())
	assert.Equal(t, "50.00", d.Delta.StringFixed(2))
	assert.Equal(t, model.PresentBoth, d.PresentIn)

	d = res.Discrepancies[1]
	assert.Equal(t, "102", d.UnitNumber)
	assert.Equal(t, model.FieldUnitNumber, d.FieldName)
	assert.Equal(t, "", d.ActualValue)
	assert.Equal(t, "102", d.ArgusValue)
	assert.False(t, d.HasDelta())
	assert.Equal(t, model.PresentArgusOnly, d.PresentIn)

	assert.Equal(t, "50.00", res.TotalMonthlyRentDelta.StringFixed(2))
	assert.Equal(t, "0.0286", res.PercentageVariance.StringFixed(4))

	assert.Equal(t, 1, res.Summary.MatchedUnits)
	assert.Equal(t, 0, res.Summary.ActualOnlyUnits)
	assert.Equal(t, 1, res.Summary.ArgusOnlyUnits)
	assert.Equal(t, "1000.00", res.Summary.ActualMonthlyRent.StringFixed(2))
	assert.Equal(t, "1750.00", res.Summary.ArgusMonthlyRent.StringFixed(2))
}

func TestReconcile_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name   string
		argus  string
		report bool
	}{
		{"equal to threshold", "999.00", true},
		{"one cent below", "999.01", false},
		{"above threshold", "900", true},
		{"identical", "1000", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Reconcile(
				[]model.UnitRecord{rec("1", "1000.00")},
				[]model.UnitRecord{rec("1", tt.argus)},
				decimal.RequireFromString("1.00"),
			)
			require.NoError(t, err)
			if tt.report {
				require.Len(t, res.Discrepancies, 1)
				assert.Equal(t, model.FieldMonthlyRent, res.Discrepancies[0].FieldName)
			} else {
				assert.Empty(t, res.Discrepancies)
				assert.True(t, res.TotalMonthlyRentDelta.IsZero())
			}
		})
	}
}

func TestReconcile_FieldOrder(t *testing.T) {
	a := rec("A", "1500")
	g := rec("A", "1400")
	g.SquareFeet = decimal.NewFromInt(1100)
	g.OccupantName = "Someone Else"
	g.LeaseEndDate = date("2027-06-30")
	// start date differences are not compared
	g.LeaseStartDate = date("2020-01-01")

	res, err := Reconcile([]model.UnitRecord{a}, []model.UnitRecord{g}, DefaultThreshold)
	require.NoError(t, err)

	var fields []string
	for _, d := range res.Discrepancies {
		fields = append(fields, d.FieldName)
	}
	assert.Equal(t, []string{
		model.FieldMonthlyRent,
		model.FieldSquareFeet,
		model.FieldOccupantName,
		model.FieldLeaseEndDate,
	}, fields)

	sq := res.Discrepancies[1]
	assert.Equal(t, "-100", sq.Delta.String())
	assert.Equal(t, "1000", sq.ActualValue)
	assert.Equal(t, "1100", sq.ArgusValue)

	occ := res.Discrepancies[2]
	assert.Nil(t, occ.Delta)
	assert.Equal(t, "Tenant A", occ.ActualValue)
	assert.Equal(t, "Someone Else", occ.ArgusValue)

	end := res.Discrepancies[3]
	assert.Nil(t, end.Delta)
	assert.Equal(t, "2026-12-31", end.ActualValue)
	assert.Equal(t, "2027-06-30", end.ArgusValue)

	// only monthly_rent contributes to the total
	assert.Equal(t, "100.00", res.TotalMonthlyRentDelta.StringFixed(2))
}

func TestReconcile_LeaseEndComparesCalendarDate(t *testing.T) {
	a := rec("1", "100")
	g := rec("1", "100")
	g.LeaseEndDate = a.LeaseEndDate.Add(5 * time.Hour)

	res, err := Reconcile([]model.UnitRecord{a}, []model.UnitRecord{g}, DefaultThreshold)
	require.NoError(t, err)
	assert.Empty(t, res.Discrepancies)
}

func TestReconcile_Ordering(t *testing.T) {
	actual := []model.UnitRecord{rec("3", "100"), rec("1", "100"), rec("9", "100")}
	argus := []model.UnitRecord{rec("8", "100"), rec("1", "50"), rec("7", "100")}

	res, err := Reconcile(actual, argus, DefaultThreshold)
	require.NoError(t, err)

	type key struct {
		unit     string
		presence model.Presence
	}
	var got []key
	for _, d := range res.Discrepancies {
		got = append(got, key{d.UnitNumber, d.PresentIn})
	}
	assert.Equal(t, []key{
		{"3", model.PresentActualOnly},
		{"1", model.PresentBoth},
		{"9", model.PresentActualOnly},
		{"8", model.PresentArgusOnly},
		{"7", model.PresentArgusOnly},
	}, got)

	assert.Equal(t, "3", res.Discrepancies[0].ActualValue)
	assert.Equal(t, "", res.Discrepancies[0].ArgusValue)
	assert.Equal(t, 2, res.Summary.ActualOnlyUnits)
	assert.Equal(t, 2, res.Summary.ArgusOnlyUnits)
	assert.Equal(t, 1, res.Summary.MatchedUnits)
}

func TestReconcile_SwapNegatesDeltas(t *testing.T) {
	a := []model.UnitRecord{rec("1", "1000"), rec("2", "700"), rec("3", "500")}
	g := []model.UnitRecord{rec("1", "950.25"), rec("2", "720"), rec("4", "10")}
	a[1].SquareFeet = decimal.NewFromInt(880)

	fwd, err := Reconcile(a, g, DefaultThreshold)
	require.NoError(t, err)
	rev, err := Reconcile(g, a, DefaultThreshold)
	require.NoError(t, err)

	fwdDeltas := map[string]decimal.Decimal{}
	for _, d := range fwd.Discrepancies {
		if d.HasDelta() {
			fwdDeltas[d.UnitNumber+"/"+d.FieldName] = *d.Delta
		}
	}
	n := 0
	for _, d := range rev.Discrepancies {
		if !d.HasDelta() {
			continue
		}
		want, ok := fwdDeltas[d.UnitNumber+"/"+d.FieldName]
		require.True(t, ok, "%s/%s missing from forward result", d.UnitNumber, d.FieldName)
		assert.True(t, d.Delta.Equal(want.Neg()), "%s/%s: %s vs %s", d.UnitNumber, d.FieldName, d.Delta, want)
		n++
	}
	assert.Equal(t, len(fwdDeltas), n)
	assert.True(t, fwd.TotalMonthlyRentDelta.Equal(rev.TotalMonthlyRentDelta.Neg()))
}

func TestReconcile_Deterministic(t *testing.T) {
	a := []model.UnitRecord{rec("1", "1000"), rec("2", "700"), rec("5", "1")}
	g := []model.UnitRecord{rec("2", "720"), rec("1", "900"), rec("6", "2")}

	first, err := Reconcile(a, g, DefaultThreshold)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Reconcile(a, g, DefaultThreshold)
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("result changed between runs (-first +again):\n%s", diff)
		}
	}
}

func TestReconcile_Duplicates(t *testing.T) {
	_, err := Reconcile(
		[]model.UnitRecord{rec("1", "1")},
		[]model.UnitRecord{rec("2", "1"), rec("2", "1")},
		DefaultThreshold,
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrReconciliation))

	var re *errors.ReconciliationError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "argus", re.Side)
	assert.Equal(t, "2", re.UnitNumber)
}

func TestReconcile_NegativeThreshold(t *testing.T) {
	res, err := Reconcile(nil, nil, decimal.RequireFromString("-0.01"))
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestReconcile_Empty(t *testing.T) {
	res, err := Reconcile(nil, nil, DefaultThreshold)
	require.NoError(t, err)
	assert.NotNil(t, res.Discrepancies)
	assert.Empty(t, res.Discrepancies)
	assert.True(t, res.PercentageVariance.IsZero())
}

func TestReconcile_ZeroThresholdReportsAnyDifference(t *testing.T) {
	res, err := Reconcile(
		[]model.UnitRecord{rec("1", "100.00")},
		[]model.UnitRecord{rec("1", "100.01")},
		decimal.Zero,
	)
	require.NoError(t, err)
	require.Len(t, res.Discrepancies, 1)
	assert.Equal(t, "-0.01", res.Discrepancies[0].Delta.String())
}

func TestParseThreshold(t *testing.T) {
	d, err := ParseThreshold("")
	require.NoError(t, err)
	assert.True(t, d.Equal(DefaultThreshold))

	d, err = ParseThreshold("25.5")
	require.NoError(t, err)
	assert.Equal(t, "25.5", d.String())

	_, err = ParseThreshold("lots")
	assert.True(t, errors.Is(err, errors.ErrConfiguration))

	_, err = ParseThreshold("-1")
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
	assert.Contains(t, err.Error(), "must not be negative")
}
