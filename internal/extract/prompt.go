package extract

import (
	"strings"

	"github.com/cleared-dev/rollcheck/internal/model"
)

const unitFields = `Each unit has: occupant_name (string, empty for vacant units), unit_number (string), ` +
	`square_feet (number), lease_start_date and lease_end_date (strings formatted M/D/YYYY)`

// Prompt returns the instruction sent with a document of the given kind.
func Prompt(kind model.RollKind) string {
	var b strings.Builder
	b.WriteString("This document is a commercial real estate rent roll. ")
	b.WriteString("Convert it into a JSON object with a \"units\" array containing one entry per leased unit, in document order. ")
	b.WriteString(unitFields)
	if kind == model.KindArgus {
		b.WriteString(", and potential_rent (number): the total rent over the analysis period exactly as printed. ")
		b.WriteString("Also return a top-level analysis_date (string, M/D/YYYY). ")
		b.WriteString("The analysis_date is derived from text like 'Mar, 2025 through Feb, 2026'; ")
		b.WriteString("in that example the analysis_date is '3/31/2025'.")
	} else {
		b.WriteString(", and monthly_rent (number): the current monthly rent.")
	}
	b.WriteString(" Return only JSON. Do not compute or adjust any figures.")
	return b.String()
}
