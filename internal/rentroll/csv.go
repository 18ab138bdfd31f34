package rentroll

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/rollcheck/internal/model"
)

// Header is the CSV header for a normalized unit file.
const Header = "unit_number,occupant_name,square_feet,lease_start_date,lease_end_date,monthly_rent"

const (
	numFields     = 6
	colUnit       = 0
	colOccupant   = 1
	colSquareFeet = 2
	colLeaseStart = 3
	colLeaseEnd   = 4
	colRent       = 5
)

// ReadUnits reads all unit records from a CSV reader. The first row is the header.
func ReadUnits(r io.Reader) ([]model.UnitRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading units CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	units := make([]model.UnitRecord, 0, len(records)-1)
	for i, rec := range records[1:] {
		u, err := UnmarshalUnit(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		units = append(units, u)
	}
	return units, nil
}

// WriteUnits writes unit records (including header) to a CSV writer.
func WriteUnits(w io.Writer, units []model.UnitRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, u := range units {
		if err := cw.Write(MarshalUnit(u)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalUnit converts a UnitRecord to a CSV row.
func MarshalUnit(u model.UnitRecord) []string {
	row := make([]string, numFields)
	row[colUnit] = u.UnitNumber
	row[colOccupant] = u.OccupantName
	row[colSquareFeet] = u.SquareFeet.String()
	row[colLeaseStart] = u.LeaseStartDate.Format(model.DateFormat)
	row[colLeaseEnd] = u.LeaseEndDate.Format(model.DateFormat)
	row[colRent] = u.MonthlyRent.StringFixed(2)
	return row
}

// UnmarshalUnit converts a CSV row to a UnitRecord.
func UnmarshalUnit(record []string) (model.UnitRecord, error) {
	if len(record) != numFields {
		return model.UnitRecord{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	if strings.TrimSpace(record[colUnit]) == "" {
		return model.UnitRecord{}, fmt.Errorf("empty unit_number")
	}

	sqft, err := decimal.NewFromString(record[colSquareFeet])
	if err != nil {
		return model.UnitRecord{}, fmt.Errorf("parsing square_feet %q: %w", record[colSquareFeet], err)
	}
	if sqft.IsNegative() {
		return model.UnitRecord{}, fmt.Errorf("square_feet must not be negative, got %s", sqft)
	}

	start, err := time.Parse(model.DateFormat, record[colLeaseStart])
	if err != nil {
		return model.UnitRecord{}, fmt.Errorf("parsing lease_start_date %q: %w", record[colLeaseStart], err)
	}

	end, err := time.Parse(model.DateFormat, record[colLeaseEnd])
	if err != nil {
		return model.UnitRecord{}, fmt.Errorf("parsing lease_end_date %q: %w", record[colLeaseEnd], err)
	}

	rent, err := decimal.NewFromString(record[colRent])
	if err != nil {
		return model.UnitRecord{}, fmt.Errorf("parsing monthly_rent %q: %w", record[colRent], err)
	}
	if rent.IsNegative() {
		return model.UnitRecord{}, fmt.Errorf("monthly_rent must not be negative, got %s", rent)
	}

	return model.UnitRecord{
		UnitNumber:     strings.TrimSpace(record[colUnit]),
		OccupantName:   record[colOccupant],
		SquareFeet:     sqft,
		LeaseStartDate: start,
		LeaseEndDate:   end,
		MonthlyRent:    rent,
	}, nil
}
