/*
cache.go - Persisted holiday cache file

FILE CONTRACT:
  A single JSON object mapping four-digit year strings to arrays of
  {date: "YYYY-MM-DD", name, type}. Same durability discipline as the rate
  cache: atomic temp+rename replace, one dated backup per calendar day,
  corrupt file quarantined aside and treated as empty.

SEE ALSO:
  - ratestore: the rate cache file, which shares the backup directory; its
    pruning pass covers this file's backups too
*/
package holidays

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/selic/rate-engine/dates"
)

// Config locates the holiday cache file and the shared backup directory.
type Config struct {
	Path      string // e.g. data/feriados_cache.json
	BackupDir string
}

type wireHoliday struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type cacheFile struct {
	cfg Config
}

func newCacheFile(cfg Config) *cacheFile {
	return &cacheFile{cfg: cfg}
}

// load reads the cache file. Missing file or corrupt content yields an empty
// map; corrupt content is quarantined first. Never returns an error.
func (c *cacheFile) load() map[int][]Holiday {
	out := make(map[int][]Holiday)

	raw, err := os.ReadFile(c.cfg.Path)
	if os.IsNotExist(err) {
		return out
	}
	if err != nil {
		log.Printf("holidays: read %s: %v", c.cfg.Path, err)
		return out
	}

	var wire map[string][]wireHoliday
	if err := json.Unmarshal(raw, &wire); err != nil {
		c.quarantine(err)
		return out
	}

	for yearStr, whs := range wire {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			log.Printf("holidays: skipping cache key %q: %v", yearStr, err)
			continue
		}
		hs := make([]Holiday, 0, len(whs))
		for _, wh := range whs {
			d, err := dates.ParseISO(wh.Date)
			if err != nil {
				log.Printf("holidays: skipping %d entry: %v", year, err)
				continue
			}
			hs = append(hs, Holiday{Date: d, Name: wh.Name, Type: wh.Type})
		}
		out[year] = hs
	}
	return out
}

// save atomically replaces the cache file, backing up the prior contents at
// most once per calendar day.
func (c *cacheFile) save(years map[int][]Holiday) error {
	wire := make(map[string][]wireHoliday, len(years))
	for year, hs := range years {
		whs := make([]wireHoliday, len(hs))
		for i, h := range hs {
			whs[i] = wireHoliday{Date: h.Date.ISO(), Name: h.Name, Type: h.Type}
		}
		wire[strconv.Itoa(year)] = whs
	}

	data, err := json.MarshalIndent(wire, "", "    ")
	if err != nil {
		return fmt.Errorf("holidays: marshal cache: %w", err)
	}

	tmp := c.cfg.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("holidays: write temp file: %w", err)
	}

	if _, err := os.Stat(c.cfg.Path); err == nil {
		c.dailyBackup()
	}

	if err := os.Rename(tmp, c.cfg.Path); err != nil {
		return fmt.Errorf("holidays: replace cache file: %w", err)
	}
	return nil
}

func (c *cacheFile) quarantine(cause error) {
	log.Printf("holidays: corrupt cache file %s: %v", c.cfg.Path, cause)
	if err := os.MkdirAll(c.cfg.BackupDir, 0o755); err != nil {
		log.Printf("holidays: create backup dir: %v", err)
		return
	}
	target := filepath.Join(c.cfg.BackupDir,
		fmt.Sprintf("feriados_corrupt_%s.json", time.Now().Format("20060102150405")))
	if err := os.Rename(c.cfg.Path, target); err != nil {
		log.Printf("holidays: quarantine corrupt cache: %v", err)
		return
	}
	log.Printf("holidays: corrupt cache quarantined to %s", target)
}

func (c *cacheFile) dailyBackup() {
	if err := os.MkdirAll(c.cfg.BackupDir, 0o755); err != nil {
		log.Printf("holidays: create backup dir: %v", err)
		return
	}
	target := filepath.Join(c.cfg.BackupDir,
		fmt.Sprintf("feriados_backup_%s.json", time.Now().Format("20060102")))
	if _, err := os.Stat(target); err == nil {
		return // already backed up today
	}
	data, err := os.ReadFile(c.cfg.Path)
	if err != nil {
		log.Printf("holidays: read cache for backup: %v", err)
		return
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		log.Printf("holidays: write daily backup: %v", err)
	}
}
