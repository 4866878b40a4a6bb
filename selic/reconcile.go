/*
reconcile.go - Business-day reconciliation engine

PURPOSE:
  EnsureRange guarantees that every date in a requested inclusive range has
  exactly one record in the rate store before any calculation reads it.
  Dates already cached are never refetched; missing dates are classified
  (weekend, holiday, business-day candidate) and only business-day
  candidates cost an upstream call.

ALGORITHM:
  1. Load the store and diff the range against it; full coverage returns
     immediately with no network or holiday work (the fast path).
  2. Preload holidays for every year the range touches, one batch.
  3. Walk the missing dates in order: synthesize weekend/holiday records
     locally, fetch the rest; a fetch failure or empty answer degrades to a
     zero-factor UPSTREAM_UNAVAILABLE record rather than blocking.
  4. Upsert each record as it is resolved, so a crash mid-range loses only
     the in-flight date; save the merged, sorted set once at the end.

IDEMPOTENCE:
  Calling EnsureRange twice for any range is a no-op the second time.
  Overlapping concurrent calls may fetch the same date twice; the store's
  upsert-by-date merge makes that harmless.

SEE ALSO:
  - ratestore: persistence and dedup semantics
  - holidays: classification of non-weekend days
  - invest/yield.go: the consumer of the completed range
*/
package selic

import (
	"errors"
	"log"

	"github.com/shopspring/decimal"

	"github.com/selic/rate-engine/dates"
	"github.com/selic/rate-engine/holidays"
	"github.com/selic/rate-engine/ratestore"
)

// ErrInvalidRange is returned when the end of a requested range precedes
// its start. The only error EnsureRange can return: every upstream or
// storage failure degrades to a synthesized record instead.
var ErrInvalidRange = errors.New("invalid range: end before start")

// Reconciler ensures range completeness of the rate store.
type Reconciler struct {
	store    *ratestore.Store
	resolver *holidays.Resolver
	rates    RateSource
}

// NewReconciler wires the engine to its store, holiday resolver, and
// upstream rate source.
func NewReconciler(store *ratestore.Store, resolver *holidays.Resolver, rates RateSource) *Reconciler {
	return &Reconciler{store: store, resolver: resolver, rates: rates}
}

// EnsureRange guarantees one record per date in [start, end] and returns the
// date -> daily-factor map covering exactly that range.
func (r *Reconciler) EnsureRange(start, end dates.Date) (map[dates.Date]decimal.Decimal, error) {
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	factors, records := r.store.Load()

	var missing []dates.Date
	for _, d := range dates.Range(start, end) {
		if _, ok := factors[d]; !ok {
			missing = append(missing, d)
		}
	}
	if len(missing) == 0 {
		return rangeSlice(factors, start, end), nil
	}
	log.Printf("selic: range %s..%s is missing %d of %d dates",
		start, end, len(missing), dates.DaysBetween(start, end))

	// One batch call covers every year's holidays before the walk below
	// asks about individual dates.
	r.resolver.PreloadYears(dates.Years(start, end))

	fetched, synthesized := 0, 0
	for _, d := range missing {
		rec, hitUpstream := r.resolveDate(d)
		if hitUpstream {
			fetched++
		} else {
			synthesized++
		}

		factors[d] = rec.DailyFactor
		records = append(records, rec)

		// Incremental persistence: progress survives a crash mid-range.
		if err := r.store.Upsert(rec); err != nil {
			log.Printf("selic: upsert %s: %v (continuing from memory)", d, err)
		}
	}

	// Final merged save guarantees ordering even if incremental writes raced
	// with an overlapping reconciliation.
	if err := r.store.Save(records); err != nil {
		log.Printf("selic: final save: %v (next call will redo the fetches)", err)
	}
	log.Printf("selic: range %s..%s reconciled: %d fetched, %d synthesized",
		start, end, fetched, synthesized)

	return rangeSlice(factors, start, end), nil
}

// resolveDate produces the record for one missing date. The bool reports
// whether the upstream source was consulted.
func (r *Reconciler) resolveDate(d dates.Date) (ratestore.Record, bool) {
	if d.IsWeekend() {
		return ratestore.NonBusinessDay(d, ratestore.ReasonWeekend), false
	}
	if isHoliday, name := r.resolver.IsHoliday(d); isHoliday {
		return ratestore.NonBusinessDay(d, ratestore.ReasonHolidayPrefix+name), false
	}

	rec, ok, err := r.rates.FetchDate(d)
	if err != nil {
		log.Printf("selic: fetch %s: %v (recording as unavailable)", d, err)
		return ratestore.NonBusinessDay(d, ratestore.ReasonUpstreamUnavailable), true
	}
	if !ok {
		// The source published nothing for a day the calendar calls a
		// business day. Treat it as contributing no growth rather than
		// blocking the calculation.
		log.Printf("selic: no rate published for %s (recording as unavailable)", d)
		return ratestore.NonBusinessDay(d, ratestore.ReasonUpstreamUnavailable), true
	}
	return rec, true
}

func rangeSlice(factors map[dates.Date]decimal.Decimal, start, end dates.Date) map[dates.Date]decimal.Decimal {
	out := make(map[dates.Date]decimal.Decimal, dates.DaysBetween(start, end))
	for _, d := range dates.Range(start, end) {
		if f, ok := factors[d]; ok {
			out[d] = f
		}
	}
	return out
}
