package invest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/selic/rate-engine/dates"
)

type fakeCalendar struct {
	holidays map[dates.Date]bool
}

func (f *fakeCalendar) IsBusinessDay(d dates.Date) bool {
	return !d.IsWeekend() && !f.holidays[d]
}

func TestAnalyzeClassifiesDays(t *testing.T) {
	// Week of 2025-06-02: Thursday is a holiday with a zero factor,
	// the other weekdays yield, the weekend is zero.
	factor := dec("1.0005")
	m, start, end := weekOfFactors(factor)
	thursday := dates.New(2025, time.June, 5)
	m[thursday] = decimal.Zero

	calendar := &fakeCalendar{holidays: map[dates.Date]bool{thursday: true}}
	a := NewAnalyzer(&fakeRanges{factors: m}, calendar)

	got, err := a.Analyze(dec("1000"), start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.TotalDays != 7 || got.BusinessDays != 4 || got.WeekendDays != 2 || got.HolidayDays != 1 {
		t.Errorf("counts total %d business %d weekend %d holiday %d, want 7/4/2/1",
			got.TotalDays, got.BusinessDays, got.WeekendDays, got.HolidayDays)
	}
	if len(got.Days) != 7 {
		t.Fatalf("expected 7 day details, got %d", len(got.Days))
	}

	byDate := make(map[dates.Date]DayDetail)
	for _, d := range got.Days {
		byDate[d.Date] = d
	}
	if k := byDate[thursday].Kind; k != DayHoliday {
		t.Errorf("zero factor on a calendar business day must classify as holiday, got %q", k)
	}
	if k := byDate[dates.New(2025, time.June, 7)].Kind; k != DayWeekend {
		t.Errorf("Saturday must classify as weekend, got %q", k)
	}
	if d := byDate[dates.New(2025, time.June, 2)]; d.Kind != DayBusiness || !d.Yields {
		t.Errorf("Monday must classify as yielding business day, got %+v", d)
	}

	// Four yielding days compound; zeros stay out of the product.
	want := decimal.NewFromInt(1)
	for i := 0; i < 4; i++ {
		want = want.Mul(factor)
	}
	if !got.FinalValue.Equal(dec("1000").Mul(want)) {
		t.Errorf("final value = %s, want %s", got.FinalValue, dec("1000").Mul(want))
	}
}

func TestAnalyzeFlagsMissingDays(t *testing.T) {
	m, start, end := weekOfFactors(dec("1.0005"))
	wednesday := dates.New(2025, time.June, 4)
	delete(m, wednesday)

	a := NewAnalyzer(&fakeRanges{factors: m}, &fakeCalendar{})
	got, err := a.Analyze(dec("1000"), start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.UnknownDays != 1 || !got.Incomplete {
		t.Errorf("expected 1 unknown day and Incomplete, got %+v", got)
	}
	for _, d := range got.Days {
		if d.Date.Equal(wednesday) && d.Kind != DayUnknown {
			t.Errorf("missing day must classify as unknown, got %q", d.Kind)
		}
	}
}

func TestAnalyzeAverageDailyYield(t *testing.T) {
	m, start, end := weekOfFactors(dec("1.001"))
	a := NewAnalyzer(&fakeRanges{factors: m}, &fakeCalendar{})

	got, err := a.Analyze(dec("1000"), start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AvgDailyYieldPct.IsZero() || got.AvgBusinessDailyYieldPct.IsZero() {
		t.Fatal("expected non-zero average daily yields")
	}
	// Five yielding days over seven calendar days.
	ratio := got.AvgBusinessDailyYieldPct.Div(got.AvgDailyYieldPct)
	if ratio.Sub(dec("1.4")).Abs().GreaterThan(dec("0.0001")) {
		t.Errorf("business/total average ratio = %s, want ~1.4", ratio)
	}
}
