/*
Package invest turns a completed range of daily factors into a net
investment outcome.

PURPOSE:
  Walks every calendar day of a holding period, compounds the positive
  daily factors, then applies the Brazilian fixed-income tax rules:
  progressive income tax by holding length, the regressive IOF transaction
  tax under 30 days, and pro-rated admin/custody fees.

DATA CONTRACT:
  The calculator never talks to the upstream source. It asks the
  reconciliation engine to complete the range first, then reads the
  resulting date -> factor map. A date absent from the map after
  reconciliation should not happen; when it does the day is counted as
  UnknownDays, treated as factor 1, and the result is flagged Incomplete so
  the gap is visible without changing the numbers downstream consumers
  already depend on.

TAX MODEL:
  Income tax bracket by TOTAL calendar days (not business days):
    <= 180 days: 22.5%   <= 360: 20%   <= 720: 17.5%   above: 15%
  IOF applies only below 30 days, from the fixed regressive table
  (day 1 -> 96% of gross yield, day 29-30 -> 0%).
  Fees: principal * (annualPct / 100) * (totalDays / 365), each.

SEE ALSO:
  - selic/reconcile.go: provides the completed range
  - analysis.go: per-day breakdown over the same data
*/
package invest

import (
	"github.com/shopspring/decimal"

	"github.com/selic/rate-engine/dates"
)

// RangeEnsurer completes the rate cache for a range and returns its
// date -> daily-factor map. Implemented by selic.Reconciler.
type RangeEnsurer interface {
	EnsureRange(start, end dates.Date) (map[dates.Date]decimal.Decimal, error)
}

// Calculator computes yields over reconciled ranges.
type Calculator struct {
	ranges RangeEnsurer
}

func NewCalculator(ranges RangeEnsurer) *Calculator {
	return &Calculator{ranges: ranges}
}

// Result is the full outcome of a yield calculation.
type Result struct {
	Start dates.Date
	End   dates.Date

	Principal      decimal.Decimal
	CompoundFactor decimal.Decimal
	GrossFinal     decimal.Decimal
	GrossYield     decimal.Decimal

	IncomeTaxRatePct decimal.Decimal // bracket applied, as a percentage
	IncomeTax        decimal.Decimal
	TransactionTax   decimal.Decimal // IOF, zero at 30 days and beyond
	AdminFee         decimal.Decimal
	CustodyFee       decimal.Decimal

	NetYield decimal.Decimal
	NetFinal decimal.Decimal

	TotalDays      int
	CompoundedDays int // days whose factor > 0 multiplied into the result
	NonYieldDays   int // days cached with factor == 0
	UnknownDays    int // days with no record even after reconciliation
	Incomplete     bool
}

// =============================================================================
// TAX TABLES
// =============================================================================

var (
	rate225 = decimal.NewFromFloat(0.225)
	rate200 = decimal.NewFromFloat(0.20)
	rate175 = decimal.NewFromFloat(0.175)
	rate150 = decimal.NewFromFloat(0.15)

	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// incomeTaxRate selects the progressive bracket by total calendar days.
func incomeTaxRate(totalDays int) decimal.Decimal {
	switch {
	case totalDays <= 180:
		return rate225
	case totalDays <= 360:
		return rate200
	case totalDays <= 720:
		return rate175
	default:
		return rate150
	}
}

// iofTable maps holding-day count to the percentage of gross yield taxed.
// Fixed regressive schedule for the first 30 days.
var iofTable = map[int]int64{
	1: 96, 2: 93, 3: 90, 4: 86, 5: 83, 6: 80, 7: 76, 8: 73, 9: 70, 10: 66,
	11: 63, 12: 60, 13: 56, 14: 53, 15: 50, 16: 46, 17: 43, 18: 40, 19: 36,
	20: 33, 21: 30, 22: 26, 23: 20, 24: 16, 25: 13, 26: 10, 27: 6,
	28: 3, 29: 0, 30: 0,
}

// transactionTax computes the IOF due on the gross yield, zero from day 30 on.
func transactionTax(grossYield decimal.Decimal, totalDays int) decimal.Decimal {
	if totalDays >= 30 {
		return decimal.Zero
	}
	pct, ok := iofTable[totalDays]
	if !ok {
		return decimal.Zero
	}
	return grossYield.Mul(decimal.NewFromInt(pct)).Div(hundred)
}

// proRatedFee computes principal * (annualPct/100) * (totalDays/365).
func proRatedFee(principal, annualPct decimal.Decimal, totalDays int) decimal.Decimal {
	return principal.Mul(annualPct).Div(hundred).
		Mul(decimal.NewFromInt(int64(totalDays))).Div(daysPerYear)
}

// =============================================================================
// YIELD COMPUTATION
// =============================================================================

// ComputeYield reconciles [start, end], compounds the daily factors, and
// applies taxes and fees. Fee arguments are annual percentages.
func (c *Calculator) ComputeYield(principal decimal.Decimal, start, end dates.Date, adminFeePct, custodyFeePct decimal.Decimal) (Result, error) {
	factors, err := c.ranges.EnsureRange(start, end)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Start:          start,
		End:            end,
		Principal:      principal,
		CompoundFactor: decimal.NewFromInt(1),
		TotalDays:      dates.DaysBetween(start, end),
	}

	for _, d := range dates.Range(start, end) {
		factor, ok := factors[d]
		switch {
		case !ok:
			// Gap even after reconciliation: neutral factor, but flagged.
			res.UnknownDays++
			res.Incomplete = true
		case factor.IsPositive():
			res.CompoundFactor = res.CompoundFactor.Mul(factor)
			res.CompoundedDays++
		default:
			res.NonYieldDays++
		}
	}

	res.GrossFinal = principal.Mul(res.CompoundFactor)
	res.GrossYield = res.GrossFinal.Sub(principal)

	bracket := incomeTaxRate(res.TotalDays)
	res.IncomeTaxRatePct = bracket.Mul(hundred)
	res.IncomeTax = res.GrossYield.Mul(bracket)
	res.TransactionTax = transactionTax(res.GrossYield, res.TotalDays)
	res.AdminFee = proRatedFee(principal, adminFeePct, res.TotalDays)
	res.CustodyFee = proRatedFee(principal, custodyFeePct, res.TotalDays)

	res.NetYield = res.GrossYield.
		Sub(res.IncomeTax).
		Sub(res.AdminFee).
		Sub(res.CustodyFee).
		Sub(res.TransactionTax)
	res.NetFinal = principal.Add(res.NetYield)

	return res, nil
}
