/*
analysis.go - Per-day investment breakdown

PURPOSE:
  Produces the day-by-day view behind a yield number: for every calendar day
  of the period, the factor applied and the classification of the day
  (business, holiday, weekend, unknown). Holidays are inferred by
  cross-checking: a zero factor on a day the calendar calls a business day
  means the rate source sat out a holiday.

SEE ALSO:
  - yield.go: the aggregate calculation over the same range
*/
package invest

import (
	"log"

	"github.com/shopspring/decimal"

	"github.com/selic/rate-engine/dates"
)

// DayClassifier answers whether a date is a calendar business day.
// Implemented by holidays.Resolver.
type DayClassifier interface {
	IsBusinessDay(d dates.Date) bool
}

// DayKind classifies one calendar day of an analyzed period.
type DayKind string

const (
	DayBusiness DayKind = "business_day"
	DayHoliday  DayKind = "holiday"
	DayWeekend  DayKind = "weekend"
	DayUnknown  DayKind = "unknown"
)

// DayDetail is one day of an analysis.
type DayDetail struct {
	Date        dates.Date      `json:"date"`
	Weekday     string          `json:"weekday"`
	Factor      decimal.Decimal `json:"factor"`
	Kind        DayKind         `json:"kind"`
	Yields      bool            `json:"yields"`
	BusinessDay bool            `json:"calendarBusinessDay"`
}

// Analysis is the detailed breakdown of an investment period.
type Analysis struct {
	Start dates.Date
	End   dates.Date

	Principal  decimal.Decimal
	FinalValue decimal.Decimal
	Yield      decimal.Decimal
	YieldPct   decimal.Decimal

	TotalDays    int
	BusinessDays int
	WeekendDays  int
	HolidayDays  int
	UnknownDays  int
	Incomplete   bool

	// Average daily yield percentages, over all days and over
	// yielding days only.
	AvgDailyYieldPct         decimal.Decimal
	AvgBusinessDailyYieldPct decimal.Decimal

	Days []DayDetail
}

// Analyzer builds per-day breakdowns over reconciled ranges.
type Analyzer struct {
	ranges   RangeEnsurer
	calendar DayClassifier
}

func NewAnalyzer(ranges RangeEnsurer, calendar DayClassifier) *Analyzer {
	return &Analyzer{ranges: ranges, calendar: calendar}
}

// Analyze reconciles [start, end] and classifies every day of the period.
func (a *Analyzer) Analyze(principal decimal.Decimal, start, end dates.Date) (Analysis, error) {
	factors, err := a.ranges.EnsureRange(start, end)
	if err != nil {
		return Analysis{}, err
	}

	out := Analysis{
		Start:     start,
		End:       end,
		Principal: principal,
		TotalDays: dates.DaysBetween(start, end),
	}
	compound := decimal.NewFromInt(1)

	for _, d := range dates.Range(start, end) {
		isBusiness := a.calendar.IsBusinessDay(d)
		detail := DayDetail{
			Date:        d,
			Weekday:     d.Weekday().String(),
			BusinessDay: isBusiness,
		}

		factor, ok := factors[d]
		switch {
		case !ok:
			detail.Kind = DayUnknown
			out.UnknownDays++
			out.Incomplete = true
			log.Printf("invest: no factor for %s even after reconciliation", d)
		case factor.IsPositive():
			detail.Factor = factor
			detail.Kind = DayBusiness
			detail.Yields = true
			out.BusinessDays++
			compound = compound.Mul(factor)
		case isBusiness:
			// Calendar says business day, source published zero. Either a
			// holiday the calendar missed or the rate was unavailable.
			detail.Factor = factor
			detail.Kind = DayHoliday
			out.HolidayDays++
		default:
			detail.Factor = factor
			detail.Kind = DayWeekend
			out.WeekendDays++
		}

		out.Days = append(out.Days, detail)
	}

	out.FinalValue = principal.Mul(compound)
	out.Yield = out.FinalValue.Sub(principal)
	if principal.IsPositive() {
		out.YieldPct = out.Yield.Div(principal).Mul(hundred)
	}
	if out.TotalDays > 0 {
		out.AvgDailyYieldPct = out.YieldPct.Div(decimal.NewFromInt(int64(out.TotalDays)))
	}
	if out.BusinessDays > 0 {
		out.AvgBusinessDailyYieldPct = out.YieldPct.Div(decimal.NewFromInt(int64(out.BusinessDays)))
	}

	return out, nil
}
