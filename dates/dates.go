/*
Package dates provides the calendar-date value type used as the key for
every cache record in the engine.

PURPOSE:
  The whole domain is keyed by calendar day: one rate record per date, one
  holiday list per year, yield periods expressed as inclusive date ranges.
  Date wraps time.Time at day granularity so the rest of the codebase never
  has to think about clock components or time zones.

WIRE FORMATS:
  The upstream rate source and the rate cache file use Brazilian day-first
  format (02/01/2006). The holiday source, the holiday cache, and the HTTP
  API use ISO (2006-01-02). Both live here so no other package hardcodes a
  layout string.

SEE ALSO:
  - ratestore: uses Date as the dedup key
  - holidays: classifies Dates as business/non-business
*/
package dates

import (
	"fmt"
	"time"
)

const (
	layoutBR  = "02/01/2006"
	layoutISO = "2006-01-02"
)

// Date is a calendar date at day granularity, always UTC.
type Date struct {
	t time.Time
}

// New builds a Date from year, month, day.
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime truncates a time.Time to its calendar day.
func FromTime(t time.Time) Date {
	return New(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar day.
func Today() Date {
	return FromTime(time.Now())
}

// Yesterday returns the day before today. The upstream source publishes
// rates with a one-day lag, so this is the default end of open-ended ranges.
func Yesterday() Date {
	return Today().AddDays(-1)
}

// ParseISO parses a 2006-01-02 date string.
func ParseISO(s string) (Date, error) {
	t, err := time.Parse(layoutISO, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return FromTime(t), nil
}

// ParseBR parses a 02/01/2006 date string (upstream and cache-file format).
func ParseBR(s string) (Date, error) {
	t, err := time.Parse(layoutBR, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use DD/MM/YYYY): %w", s, err)
	}
	return FromTime(t), nil
}

// ISO formats the date as 2006-01-02.
func (d Date) ISO() string { return d.t.Format(layoutISO) }

// BR formats the date as 02/01/2006.
func (d Date) BR() string { return d.t.Format(layoutBR) }

func (d Date) String() string { return d.ISO() }

// MarshalText emits the ISO form, so Date serializes as a plain string in
// JSON values and map keys.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.ISO()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseISO(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Comparison
func (d Date) Before(o Date) bool        { return d.t.Before(o.t) }
func (d Date) After(o Date) bool         { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool         { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool { return d.Before(o) || d.Equal(o) }
func (d Date) AfterOrEqual(o Date) bool  { return d.After(o) || d.Equal(o) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// DaysBetween returns the inclusive day count of [from, to].
// A one-day period (from == to) counts as 1.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours()/24) + 1
}

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }

// IsWeekend reports Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Range returns every date in [from, to] inclusive, ascending.
func Range(from, to Date) []Date {
	if to.Before(from) {
		return nil
	}
	out := make([]Date, 0, DaysBetween(from, to))
	for d := from; d.BeforeOrEqual(to); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// Years returns every calendar year touched by [from, to], ascending.
func Years(from, to Date) []int {
	if to.Before(from) {
		return nil
	}
	years := make([]int, 0, to.Year()-from.Year()+1)
	for y := from.Year(); y <= to.Year(); y++ {
		years = append(years, y)
	}
	return years
}
