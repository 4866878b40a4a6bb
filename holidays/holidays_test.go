package holidays

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/selic/rate-engine/dates"
)

type fakeSource struct {
	byYear map[int][]Holiday
	err    error
	calls  int
}

func (f *fakeSource) FetchYear(year int) ([]Holiday, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byYear[year], nil
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		Path:      filepath.Join(dir, "feriados_cache.json"),
		BackupDir: filepath.Join(dir, "backups"),
	}
}

func holiday(iso, name string) Holiday {
	d, err := dates.ParseISO(iso)
	if err != nil {
		panic(err)
	}
	return Holiday{Date: d, Name: name, Type: "national"}
}

func TestFetchOncePerYear(t *testing.T) {
	src := &fakeSource{byYear: map[int][]Holiday{
		2025: {holiday("2025-04-21", "Tiradentes"), holiday("2025-05-01", "Dia do Trabalho")},
	}}
	r := NewResolver(testConfig(t), src)

	for i := 0; i < 3; i++ {
		if got := r.HolidaysForYear(2025); len(got) == 0 {
			t.Fatal("expected holidays for 2025")
		}
	}
	if src.calls != 1 {
		t.Errorf("expected a single upstream fetch, got %d", src.calls)
	}
}

func TestFetchFailureDegradesAndRetries(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	r := NewResolver(testConfig(t), src)

	if got := r.HolidaysForYear(2025); len(got) != 0 {
		t.Errorf("failed fetch must yield an empty list, got %v", got)
	}
	// With no holidays known, any non-weekend day counts as business.
	if !r.IsBusinessDay(dates.New(2025, time.April, 21)) { // Tiradentes, a Monday
		t.Error("degraded resolver must treat non-weekend days as business days")
	}

	// The failure is not cached: a later call retries and succeeds.
	src.err = nil
	src.byYear = map[int][]Holiday{2025: {holiday("2025-04-21", "Tiradentes")}}
	if got := r.HolidaysForYear(2025); len(got) != 1 {
		t.Errorf("expected retry to succeed, got %v", got)
	}
	if r.IsBusinessDay(dates.New(2025, time.April, 21)) {
		t.Error("Tiradentes must not be a business day once resolved")
	}
}

func TestIsHolidayReturnsName(t *testing.T) {
	src := &fakeSource{byYear: map[int][]Holiday{
		2025: {holiday("2025-04-21", "Tiradentes"), holiday("2025-05-01", "Dia do Trabalho")},
	}}
	r := NewResolver(testConfig(t), src)

	ok, name := r.IsHoliday(dates.New(2025, time.April, 21))
	if !ok || name != "Tiradentes" {
		t.Errorf("expected (true, Tiradentes), got (%v, %q)", ok, name)
	}
	if ok, _ := r.IsHoliday(dates.New(2025, time.April, 22)); ok {
		t.Error("April 22 is not a holiday")
	}
}

func TestIsBusinessDay(t *testing.T) {
	src := &fakeSource{byYear: map[int][]Holiday{
		2025: {holiday("2025-04-21", "Tiradentes")},
	}}
	r := NewResolver(testConfig(t), src)

	cases := []struct {
		date dates.Date
		want bool
	}{
		{dates.New(2025, time.April, 19), false}, // Saturday
		{dates.New(2025, time.April, 20), false}, // Sunday
		{dates.New(2025, time.April, 21), false}, // holiday
		{dates.New(2025, time.April, 22), true},  // plain Tuesday
	}
	for _, tc := range cases {
		if got := r.IsBusinessDay(tc.date); got != tc.want {
			t.Errorf("IsBusinessDay(%v) = %v, want %v", tc.date, got, tc.want)
		}
	}
}

func TestGoodFridayOverrideWhenUpstreamOmitsIt(t *testing.T) {
	// 2024 fetch succeeds but lacks Good Friday (2024-03-29) and Labor Day.
	src := &fakeSource{byYear: map[int][]Holiday{
		2024: {holiday("2024-04-21", "Tiradentes")},
	}}
	r := NewResolver(testConfig(t), src)

	ok, name := r.IsHoliday(dates.New(2024, time.March, 29))
	if !ok || name != "Sexta-feira Santa" {
		t.Errorf("expected manual Good Friday override, got (%v, %q)", ok, name)
	}
	ok, name = r.IsHoliday(dates.New(2024, time.May, 1))
	if !ok || name != "Dia do Trabalho" {
		t.Errorf("expected manual Labor Day override, got (%v, %q)", ok, name)
	}
}

func TestOverrideNeverReplacesFetchedEntry(t *testing.T) {
	// Upstream already carries both, under its own names.
	src := &fakeSource{byYear: map[int][]Holiday{
		2024: {
			holiday("2024-03-29", "Paixão de Cristo"),
			holiday("2024-05-01", "Dia do Trabalho"),
		},
	}}
	r := NewResolver(testConfig(t), src)

	hs := r.HolidaysForYear(2024)
	if len(hs) != 2 {
		t.Fatalf("overrides must not duplicate fetched holidays, got %d entries", len(hs))
	}
	_, name := r.IsHoliday(dates.New(2024, time.March, 29))
	if name != "Paixão de Cristo" {
		t.Errorf("fetched name must win over the override, got %q", name)
	}
}

func TestNoOverridesBeforeCutoverYear(t *testing.T) {
	src := &fakeSource{byYear: map[int][]Holiday{
		2019: {holiday("2019-04-21", "Tiradentes")},
	}}
	r := NewResolver(testConfig(t), src)

	if hs := r.HolidaysForYear(2019); len(hs) != 1 {
		t.Errorf("no overrides apply before 2020, got %d entries", len(hs))
	}
}

func TestCachePersistsAcrossResolvers(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeSource{byYear: map[int][]Holiday{
		2025: {holiday("2025-04-21", "Tiradentes")},
	}}
	NewResolver(cfg, src).HolidaysForYear(2025)

	// A fresh resolver over the same file must not refetch.
	src2 := &fakeSource{err: errors.New("upstream down")}
	r2 := NewResolver(cfg, src2)
	if got := r2.HolidaysForYear(2025); len(got) != 1 {
		t.Fatalf("expected cached year to survive restart, got %v", got)
	}
	if src2.calls != 0 {
		t.Errorf("cached year must not hit upstream, got %d calls", src2.calls)
	}
}

func TestCorruptCacheQuarantined(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.Path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := &fakeSource{byYear: map[int][]Holiday{
		2025: {holiday("2025-04-21", "Tiradentes")},
	}}
	r := NewResolver(cfg, src)
	if got := r.HolidaysForYear(2025); len(got) != 1 {
		t.Fatalf("resolver must recover from corrupt cache, got %v", got)
	}

	matches, _ := filepath.Glob(filepath.Join(cfg.BackupDir, "feriados_corrupt_*.json"))
	if len(matches) != 1 {
		t.Errorf("expected 1 quarantined file, got %d", len(matches))
	}
}

func TestClientFetchYear(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2025" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode([]map[string]string{
			{"date": "2025-04-21", "name": "Tiradentes", "type": "national"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	hs, err := c.FetchYear(2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hs) != 1 || hs[0].Name != "Tiradentes" {
		t.Errorf("unexpected result: %+v", hs)
	}

	if _, err := c.FetchYear(2026); err == nil {
		t.Error("non-200 status must surface as an error")
	}
}
