// Package proration derives a monthly rent from an Argus "potential rent"
// figure that covers the remaining lease term.
package proration

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthsPerYear is the divisor applied when a lease ends outside the analysis year.
const MonthsPerYear = 12

// Divisor returns the number of months the potential rent is spread over.
//
// Within the analysis year the count is inclusive of both the analysis month
// and the lease-end month, clamped to at least 1. A lease ending in any other
// year is treated as a full annual figure.
func Divisor(analysisDate, leaseEndDate time.Time) int {
	if leaseEndDate.Year() != analysisDate.Year() {
		return MonthsPerYear
	}
	months := int(leaseEndDate.Month()) - int(analysisDate.Month()) + 1
	if months <= 0 {
		return 1
	}
	return months
}

// Prorate returns potentialRent divided by Divisor, rounded to cents.
func Prorate(potentialRent decimal.Decimal, analysisDate, leaseEndDate time.Time) decimal.Decimal {
	d := decimal.NewFromInt(int64(Divisor(analysisDate, leaseEndDate)))
	return potentialRent.Div(d).Round(2)
}
