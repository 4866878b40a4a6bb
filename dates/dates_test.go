package dates_test

import (
	"testing"
	"time"

	"github.com/selic/rate-engine/dates"
)

func TestParseAndFormatRoundTrip(t *testing.T) {
	d, err := dates.ParseISO("2024-03-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.BR() != "29/03/2024" {
		t.Errorf("expected BR format 29/03/2024, got %s", d.BR())
	}

	d2, err := dates.ParseBR("29/03/2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(d2) {
		t.Errorf("ISO and BR parses disagree: %v vs %v", d, d2)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := dates.ParseISO("29/03/2024"); err == nil {
		t.Error("expected error parsing BR layout as ISO")
	}
	if _, err := dates.ParseBR("2024-03-29"); err == nil {
		t.Error("expected error parsing ISO layout as BR")
	}
	if _, err := dates.ParseISO("not-a-date"); err == nil {
		t.Error("expected error parsing garbage")
	}
}

func TestIsWeekend(t *testing.T) {
	sat := dates.New(2025, time.March, 8)
	sun := dates.New(2025, time.March, 9)
	mon := dates.New(2025, time.March, 10)

	if !sat.IsWeekend() || !sun.IsWeekend() {
		t.Error("Saturday and Sunday must be weekend")
	}
	if mon.IsWeekend() {
		t.Error("Monday must not be weekend")
	}
}

func TestDaysBetweenInclusive(t *testing.T) {
	a := dates.New(2025, time.January, 1)
	if got := dates.DaysBetween(a, a); got != 1 {
		t.Errorf("single-day period: expected 1, got %d", got)
	}
	if got := dates.DaysBetween(a, a.AddDays(180)); got != 181 {
		t.Errorf("expected 181, got %d", got)
	}
}

func TestRange(t *testing.T) {
	from := dates.New(2025, time.June, 28)
	to := dates.New(2025, time.July, 2)

	r := dates.Range(from, to)
	if len(r) != 5 {
		t.Fatalf("expected 5 dates, got %d", len(r))
	}
	if !r[0].Equal(from) || !r[4].Equal(to) {
		t.Errorf("range endpoints wrong: %v .. %v", r[0], r[4])
	}

	if dates.Range(to, from) != nil {
		t.Error("inverted range must be empty")
	}
}

func TestYears(t *testing.T) {
	got := dates.Years(dates.New(2023, time.December, 30), dates.New(2025, time.January, 2))
	want := []int{2023, 2024, 2025}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
