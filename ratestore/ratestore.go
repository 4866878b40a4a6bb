/*
Package ratestore persists the daily benchmark-rate cache.

PURPOSE:
  Holds exactly one record per calendar date: either a business day carrying
  the published daily factor, or a non-business day carrying factor zero and
  the reason it yielded nothing (weekend, holiday, upstream observation,
  upstream unavailable). The reconciliation engine treats this store as the
  single source of truth for any date it has already resolved.

FILE CONTRACT:
  A single JSON object {"registros": [...]} where each record is
  {dataCotacao: "DD/MM/YYYY", fatorDiario: "<decimal string>",
   isBusinessDay: bool, reason?: string}, ordered by date ascending.
  This is the exact shape the upstream rate source publishes, so records
  fetched from it can be persisted without translation.

DURABILITY:
  - Atomic replace: write <file>.tmp, then rename over <file>.
  - One backup copy per calendar day of the prior contents, taken just
    before the first replace of the day; backups older than the retention
    window are pruned opportunistically.
  - A file that fails to decode is quarantined (renamed aside with a
    timestamp) and the store continues empty. Load never fails.

CONCURRENCY:
  No in-process or cross-process locking. Overlapping writers are tolerated
  because every load deduplicates by date (last record in the file wins) and
  every write goes through the atomic replace. Single-instance deployment is
  assumed.

SEE ALSO:
  - selic/reconcile.go: the only writer in normal operation
  - holidays/cache.go: same envelope discipline for the holiday cache
*/
package ratestore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/selic/rate-engine/dates"
)

// =============================================================================
// RECORD - One cached rate per calendar date
// =============================================================================

// Non-business reason prefixes. A record's Reason is one of these, the
// prefixed ones carrying the holiday name or upstream observation text.
const (
	ReasonWeekend             = "WEEKEND"
	ReasonHolidayPrefix       = "HOLIDAY: "
	ReasonObservationPrefix   = "UPSTREAM_OBSERVATION: "
	ReasonUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
)

// Record is one cached daily rate. For a business day DailyFactor is
// 1 + dailyRate; for a non-business day it is exactly zero and Reason says why.
type Record struct {
	Date          dates.Date
	DailyFactor   decimal.Decimal
	IsBusinessDay bool
	Reason        string
}

// BusinessDay builds a business-day record from a published daily factor.
func BusinessDay(date dates.Date, factor decimal.Decimal) Record {
	return Record{Date: date, DailyFactor: factor, IsBusinessDay: true}
}

// NonBusinessDay builds a zero-factor record with the given reason.
func NonBusinessDay(date dates.Date, reason string) Record {
	return Record{Date: date, DailyFactor: decimal.Zero, IsBusinessDay: false, Reason: reason}
}

// wireRecord is the persisted shape. Kept separate from Record so the domain
// type is not coupled to the Brazilian date layout.
type wireRecord struct {
	DataCotacao   string `json:"dataCotacao"`
	FatorDiario   string `json:"fatorDiario"`
	IsBusinessDay bool   `json:"isBusinessDay"`
	Reason        string `json:"reason,omitempty"`
}

type envelope struct {
	Registros []wireRecord `json:"registros"`
}

func (r Record) toWire() wireRecord {
	return wireRecord{
		DataCotacao:   r.Date.BR(),
		FatorDiario:   r.DailyFactor.String(),
		IsBusinessDay: r.IsBusinessDay,
		Reason:        r.Reason,
	}
}

func (w wireRecord) toRecord() (Record, error) {
	d, err := dates.ParseBR(w.DataCotacao)
	if err != nil {
		return Record{}, err
	}
	factor, err := decimal.NewFromString(w.FatorDiario)
	if err != nil {
		return Record{}, fmt.Errorf("record %s: bad fatorDiario %q: %w", w.DataCotacao, w.FatorDiario, err)
	}
	return Record{Date: d, DailyFactor: factor, IsBusinessDay: w.IsBusinessDay, Reason: w.Reason}, nil
}

// =============================================================================
// STORE
// =============================================================================

// Config locates the cache file and its backups. An explicit config object
// is passed to New instead of package-level paths so tests and multiple
// stores can coexist.
type Config struct {
	Path                string // cache file, e.g. data/selic_apurada_cache.json
	BackupDir           string // dated backups and quarantined corrupt files
	BackupRetentionDays int    // backups older than this are pruned; 0 means 30
}

// Store reads and writes the rate cache file. It keeps no in-memory state:
// every operation round-trips through the file, which is what makes
// overlapping reconciliations safe to merge.
type Store struct {
	cfg Config
}

func New(cfg Config) *Store {
	if cfg.BackupRetentionDays <= 0 {
		cfg.BackupRetentionDays = 30
	}
	return &Store{cfg: cfg}
}

// Load reads the cache and returns the date->factor map alongside the
// deduplicated, date-ordered records. A missing file yields an empty store.
// A corrupt file is quarantined and likewise yields an empty store; Load
// never returns an error to the caller.
func (s *Store) Load() (map[dates.Date]decimal.Decimal, []Record) {
	raw, err := os.ReadFile(s.cfg.Path)
	if os.IsNotExist(err) {
		return map[dates.Date]decimal.Decimal{}, nil
	}
	if err != nil {
		log.Printf("ratestore: read %s: %v", s.cfg.Path, err)
		return map[dates.Date]decimal.Decimal{}, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.quarantine(err)
		return map[dates.Date]decimal.Decimal{}, nil
	}

	// Deduplicate by date, last record in the file wins.
	byDate := make(map[dates.Date]Record, len(env.Registros))
	for _, w := range env.Registros {
		rec, err := w.toRecord()
		if err != nil {
			log.Printf("ratestore: skipping record: %v", err)
			continue
		}
		byDate[rec.Date] = rec
	}

	records := make([]Record, 0, len(byDate))
	factors := make(map[dates.Date]decimal.Decimal, len(byDate))
	for d, rec := range byDate {
		records = append(records, rec)
		factors[d] = rec.DailyFactor
	}
	sortRecords(records)
	return factors, records
}

// Save persists the records, deduplicated and sorted. It skips the write
// entirely when the incoming set matches what is already on disk (same dates,
// same factors), so repeated reconciliations do not churn backups.
func (s *Store) Save(records []Record) error {
	if len(records) == 0 {
		return fmt.Errorf("ratestore: refusing to save empty record set")
	}

	records = dedupe(records)
	if s.unchanged(records) {
		return nil
	}

	env := envelope{Registros: make([]wireRecord, len(records))}
	for i, rec := range records {
		env.Registros[i] = rec.toWire()
	}
	data, err := json.MarshalIndent(env, "", "    ")
	if err != nil {
		return fmt.Errorf("ratestore: marshal: %w", err)
	}

	tmp := s.cfg.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("ratestore: write temp file: %w", err)
	}

	// Back up the prior contents at most once per calendar day, before the
	// rename clobbers them.
	if _, err := os.Stat(s.cfg.Path); err == nil {
		s.dailyBackup()
	}

	if err := os.Rename(tmp, s.cfg.Path); err != nil {
		return fmt.Errorf("ratestore: replace cache file: %w", err)
	}
	return nil
}

// Upsert merges a single record into the persisted set. An existing record
// for the same date is overwritten only when factor, business-day flag, or
// reason actually differ; an identical record is a no-op.
func (s *Store) Upsert(rec Record) error {
	_, records := s.Load()

	changed := false
	found := false
	for i, existing := range records {
		if existing.Date.Equal(rec.Date) {
			found = true
			if !existing.DailyFactor.Equal(rec.DailyFactor) ||
				existing.IsBusinessDay != rec.IsBusinessDay ||
				existing.Reason != rec.Reason {
				records[i] = rec
				changed = true
			}
			break
		}
	}
	if !found {
		records = append(records, rec)
		changed = true
	}
	if !changed {
		return nil
	}

	sortRecords(records)
	return s.Save(records)
}

// =============================================================================
// INTERNALS
// =============================================================================

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
}

// dedupe keeps the last record seen for each date, then sorts ascending.
func dedupe(records []Record) []Record {
	byDate := make(map[dates.Date]Record, len(records))
	for _, rec := range records {
		byDate[rec.Date] = rec
	}
	out := make([]Record, 0, len(byDate))
	for _, rec := range byDate {
		out = append(out, rec)
	}
	sortRecords(out)
	return out
}

// unchanged reports whether the persisted file already holds exactly these
// dates with these factors. Any doubt (unreadable file, different count)
// means "changed" and the save proceeds.
func (s *Store) unchanged(records []Record) bool {
	_, current := s.Load()
	if len(current) != len(records) {
		return false
	}
	existing := make(map[dates.Date]Record, len(current))
	for _, rec := range current {
		existing[rec.Date] = rec
	}
	for _, rec := range records {
		cur, ok := existing[rec.Date]
		if !ok || !cur.DailyFactor.Equal(rec.DailyFactor) ||
			cur.IsBusinessDay != rec.IsBusinessDay || cur.Reason != rec.Reason {
			return false
		}
	}
	return true
}

// quarantine moves a corrupt cache file aside so the next save starts clean.
func (s *Store) quarantine(cause error) {
	log.Printf("ratestore: corrupt cache file %s: %v", s.cfg.Path, cause)
	if err := os.MkdirAll(s.cfg.BackupDir, 0o755); err != nil {
		log.Printf("ratestore: create backup dir: %v", err)
		return
	}
	target := filepath.Join(s.cfg.BackupDir,
		fmt.Sprintf("selic_corrupt_%s.json", time.Now().Format("20060102150405")))
	if err := os.Rename(s.cfg.Path, target); err != nil {
		log.Printf("ratestore: quarantine corrupt cache: %v", err)
		return
	}
	log.Printf("ratestore: corrupt cache quarantined to %s", target)
}

// dailyBackup copies the current cache file to a dated backup, at most once
// per calendar day, and prunes backups past retention. Backup failures are
// logged and swallowed: a save must not fail because a backup could not be
// taken.
func (s *Store) dailyBackup() {
	if err := os.MkdirAll(s.cfg.BackupDir, 0o755); err != nil {
		log.Printf("ratestore: create backup dir: %v", err)
		return
	}
	name := fmt.Sprintf("selic_backup_%s.json", time.Now().Format("20060102"))
	target := filepath.Join(s.cfg.BackupDir, name)
	if _, err := os.Stat(target); err == nil {
		return // already backed up today
	}

	data, err := os.ReadFile(s.cfg.Path)
	if err != nil {
		log.Printf("ratestore: read cache for backup: %v", err)
		return
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		log.Printf("ratestore: write daily backup: %v", err)
		return
	}
	s.pruneBackups()
}

// pruneBackups removes dated backup files older than the retention window.
// The date is taken from the file name, not mtime, matching how the backups
// are created.
func (s *Store) pruneBackups() {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.BackupRetentionDays).Format("20060102")
	for _, prefix := range []string{"selic_backup_", "feriados_backup_"} {
		matches, err := filepath.Glob(filepath.Join(s.cfg.BackupDir, prefix+"*.json"))
		if err != nil {
			continue
		}
		for _, path := range matches {
			stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), prefix), ".json")
			if len(stamp) == 8 && stamp < cutoff {
				if err := os.Remove(path); err != nil {
					log.Printf("ratestore: prune backup %s: %v", path, err)
				}
			}
		}
	}
}
