/*
Package holidays resolves national holidays and classifies business days.

PURPOSE:
  The reconciliation engine must know, for any calendar date, whether the
  central authority published a rate that day. Weekends are pure arithmetic;
  holidays come from an upstream per-year holiday source, fetched lazily and
  cached indefinitely in a local file.

DEGRADED MODE:
  An upstream fetch failure yields an empty holiday list and is never an
  error: with no holidays known for a year, every non-weekend day is treated
  as a business day until a later call fetches successfully. The empty result
  is deliberately NOT cached so that later call happens.

MANUAL OVERRIDES:
  The upstream source is known to occasionally omit two holidays: the movable
  Good Friday and the fixed May 1 Labor Day. When a per-year fetch succeeds
  but lacks them, they are appended from a small static table. Overrides
  never replace an entry the source did return.

SEE ALSO:
  - client.go: upstream holiday source client
  - cache.go: persisted year -> holiday-list cache file
  - selic/reconcile.go: batch-preloads years before walking a range
*/
package holidays

import (
	"log"
	"strings"
	"sync"

	"github.com/selic/rate-engine/dates"
)

// Holiday is one national holiday as published by the upstream source.
type Holiday struct {
	Date dates.Date
	Name string
	Type string
}

// Source fetches the national holidays for one year. Implemented by Client;
// tests substitute fakes.
type Source interface {
	FetchYear(year int) ([]Holiday, error)
}

// Resolver answers holiday and business-day questions, backed by a lazily
// populated per-year cache.
type Resolver struct {
	source Source
	cache  *cacheFile

	mu     sync.Mutex
	years  map[int][]Holiday
	loaded bool
}

// NewResolver builds a resolver persisting to the given cache config.
func NewResolver(cfg Config, source Source) *Resolver {
	return &Resolver{
		source: source,
		cache:  newCacheFile(cfg),
		years:  make(map[int][]Holiday),
	}
}

// HolidaysForYear returns the holidays for a year, fetching and persisting
// them on first request. On upstream failure it returns an empty list and
// leaves the year uncached so a later call can retry.
func (r *Resolver) HolidaysForYear(year int) []Holiday {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.holidaysForYearLocked(year)
}

// PreloadYears resolves every given year in one pass, fetching only the ones
// not yet cached and persisting once at the end. This amortizes the per-year
// fetch cost when a reconciliation spans multiple years.
func (r *Resolver) PreloadYears(years []int) map[int][]Holiday {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[int][]Holiday, len(years))
	for _, y := range years {
		out[y] = r.holidaysForYearLocked(y)
	}
	return out
}

// IsHoliday reports whether the date is a national holiday, and its name.
func (r *Resolver) IsHoliday(d dates.Date) (bool, string) {
	for _, h := range r.HolidaysForYear(d.Year()) {
		if h.Date.Equal(d) {
			return true, h.Name
		}
	}
	return false, ""
}

// IsBusinessDay reports whether the central authority publishes a rate on
// this date: not a weekend and not a holiday. Pure apart from the resolver's
// internal caching.
func (r *Resolver) IsBusinessDay(d dates.Date) bool {
	if d.IsWeekend() {
		return false
	}
	holiday, _ := r.IsHoliday(d)
	return !holiday
}

func (r *Resolver) holidaysForYearLocked(year int) []Holiday {
	if !r.loaded {
		r.years = r.cache.load()
		r.loaded = true
	}
	if hs, ok := r.years[year]; ok {
		return hs
	}

	fetched, err := r.source.FetchYear(year)
	if err != nil {
		log.Printf("holidays: fetch year %d: %v", year, err)
		return nil
	}
	if len(fetched) == 0 {
		// Nothing to cache; treat the year as unknown until a fetch succeeds.
		return nil
	}

	fetched = applyOverrides(year, fetched)
	r.years[year] = fetched
	if err := r.cache.save(r.years); err != nil {
		log.Printf("holidays: persist cache: %v", err)
	}
	return fetched
}

// =============================================================================
// MANUAL OVERRIDES
// =============================================================================

// goodFriday holds the movable Good Friday dates the upstream source has
// been observed to omit.
var goodFriday = map[int]string{
	2020: "2020-04-10",
	2021: "2021-04-02",
	2022: "2022-04-15",
	2023: "2023-04-07",
	2024: "2024-03-29",
}

// applyOverrides appends Good Friday and Labor Day when a successful fetch
// is missing them. A holiday the source did return is never touched.
func applyOverrides(year int, hs []Holiday) []Holiday {
	if year < 2020 {
		return hs
	}

	hasGoodFriday := false
	hasLaborDay := false
	laborDay := dates.New(year, 5, 1)
	for _, h := range hs {
		name := strings.ToLower(h.Name)
		if strings.Contains(name, "santa") || strings.Contains(name, "paix") {
			hasGoodFriday = true
		}
		if strings.Contains(name, "trabalho") || h.Date.Equal(laborDay) {
			hasLaborDay = true
		}
	}

	if !hasGoodFriday {
		if iso, ok := goodFriday[year]; ok {
			d, err := dates.ParseISO(iso)
			if err == nil {
				log.Printf("holidays: %d is missing Good Friday, adding %s", year, iso)
				hs = append(hs, Holiday{Date: d, Name: "Sexta-feira Santa", Type: "national"})
			}
		}
	}
	if !hasLaborDay {
		log.Printf("holidays: %d is missing Labor Day, adding %s", year, laborDay.ISO())
		hs = append(hs, Holiday{Date: laborDay, Name: "Dia do Trabalho", Type: "national"})
	}
	return hs
}
