/*
Package sqlite records served yield calculations for later inspection.

PURPOSE:
  Every calculation the HTTP layer serves is appended here with its inputs
  and outcome, so operators can answer "what did we tell this caller last
  Tuesday" without replaying the rate cache. The history sits outside the
  core data path: handlers log a failed insert and serve the response anyway.

KEY TABLE:
  yield_runs: append-only history of calculations (inputs, gross/net
  outcome, bracket, day counters, completeness flag).

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite opened in WAL mode
  (multiple readers, single writer, better crash recovery).

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - invest/yield.go: produces the results recorded here
  - api/handlers.go: the writer and the /api/history reader
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/selic/rate-engine/dates"
	"github.com/selic/rate-engine/invest"
)

// History records served yield calculations in SQLite.
type History struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the history database at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*History, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	h := &History{db: db}
	if err := h.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return h, nil
}

// Close closes the database connection.
func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) migrate() error {
	schema := `
	-- Yield calculation history (append-only)
	CREATE TABLE IF NOT EXISTS yield_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		principal TEXT NOT NULL,
		gross_final TEXT NOT NULL,
		net_final TEXT NOT NULL,
		income_tax_rate_pct TEXT NOT NULL,
		total_days INTEGER NOT NULL,
		compounded_days INTEGER NOT NULL,
		unknown_days INTEGER NOT NULL,
		incomplete BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_yield_runs_created_at
		ON yield_runs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_yield_runs_kind
		ON yield_runs(kind);
	`

	_, err := h.db.Exec(schema)
	return err
}

// Run is one recorded calculation.
type Run struct {
	ID               int64
	Kind             string // "yield" or "analysis"
	Start            dates.Date
	End              dates.Date
	Principal        decimal.Decimal
	GrossFinal       decimal.Decimal
	NetFinal         decimal.Decimal
	IncomeTaxRatePct decimal.Decimal
	TotalDays        int
	CompoundedDays   int
	UnknownDays      int
	Incomplete       bool
	CreatedAt        time.Time
}

// RecordYield appends one yield calculation to the history.
func (h *History) RecordYield(ctx context.Context, res invest.Result) error {
	return h.record(ctx, Run{
		Kind:             "yield",
		Start:            res.Start,
		End:              res.End,
		Principal:        res.Principal,
		GrossFinal:       res.GrossFinal,
		NetFinal:         res.NetFinal,
		IncomeTaxRatePct: res.IncomeTaxRatePct,
		TotalDays:        res.TotalDays,
		CompoundedDays:   res.CompoundedDays,
		UnknownDays:      res.UnknownDays,
		Incomplete:       res.Incomplete,
	})
}

// RecordAnalysis appends one per-day analysis to the history. Analyses carry
// no tax bracket, so that column stays at zero.
func (h *History) RecordAnalysis(ctx context.Context, a invest.Analysis) error {
	return h.record(ctx, Run{
		Kind:           "analysis",
		Start:          a.Start,
		End:            a.End,
		Principal:      a.Principal,
		GrossFinal:     a.FinalValue,
		NetFinal:       a.FinalValue,
		TotalDays:      a.TotalDays,
		CompoundedDays: a.BusinessDays,
		UnknownDays:    a.UnknownDays,
		Incomplete:     a.Incomplete,
	})
}

func (h *History) record(ctx context.Context, r Run) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	query := `
		INSERT INTO yield_runs
		(kind, start_date, end_date, principal, gross_final, net_final,
		 income_tax_rate_pct, total_days, compounded_days, unknown_days,
		 incomplete, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := h.db.ExecContext(ctx, query,
		r.Kind,
		r.Start.ISO(),
		r.End.ISO(),
		r.Principal.String(),
		r.GrossFinal.String(),
		r.NetFinal.String(),
		r.IncomeTaxRatePct.String(),
		r.TotalDays,
		r.CompoundedDays,
		r.UnknownDays,
		r.Incomplete,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Run, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, kind, start_date, end_date, principal, gross_final, net_final,
		       income_tax_rate_pct, total_days, compounded_days, unknown_days,
		       incomplete, created_at
		FROM yield_runs
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := h.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		r          Run
		start, end string
		principal  string
		gross, net string
		bracket    string
		createdAt  string
	)

	err := rows.Scan(
		&r.ID, &r.Kind, &start, &end, &principal, &gross, &net,
		&bracket, &r.TotalDays, &r.CompoundedDays, &r.UnknownDays,
		&r.Incomplete, &createdAt,
	)
	if err != nil {
		return r, fmt.Errorf("failed to scan run: %w", err)
	}

	if r.Start, err = dates.ParseISO(start); err != nil {
		return r, fmt.Errorf("failed to scan run: bad start_date %q", start)
	}
	if r.End, err = dates.ParseISO(end); err != nil {
		return r, fmt.Errorf("failed to scan run: bad end_date %q", end)
	}
	r.Principal, _ = decimal.NewFromString(principal)
	r.GrossFinal, _ = decimal.NewFromString(gross)
	r.NetFinal, _ = decimal.NewFromString(net)
	r.IncomeTaxRatePct, _ = decimal.NewFromString(bracket)
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return r, nil
}
