// Package store keeps campaign results in a SQLite database so they can be
// queried across campaigns. It is an optional extra sink: the three report
// files remain the primary record.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"expharness/internal/logging"
	"expharness/internal/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS campaigns (
	id TEXT PRIMARY KEY,
	shape TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	universe_size INTEGER NOT NULL,
	binary_path TEXT NOT NULL,
	algorithm TEXT NOT NULL DEFAULT '',
	seeds TEXT NOT NULL DEFAULT '',
	attempted INTEGER,
	succeeded INTEGER,
	failed INTEGER,
	summary_rows INTEGER
);
CREATE TABLE IF NOT EXISTS experiments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	campaign_id TEXT NOT NULL REFERENCES campaigns(id),
	idx INTEGER NOT NULL,
	seed INTEGER NOT NULL,
	exit_code INTEGER NOT NULL,
	succeeded INTEGER NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL,
	command_line TEXT NOT NULL,
	universe_size INTEGER,
	ground_set_size INTEGER,
	candidate_set_count INTEGER,
	k INTEGER,
	UNIQUE(campaign_id, idx)
);
CREATE TABLE IF NOT EXISTS algorithm_results (
	experiment_id INTEGER NOT NULL REFERENCES experiments(id),
	position INTEGER NOT NULL,
	algorithm TEXT NOT NULL,
	elapsed_ms REAL,
	pareto_front_size INTEGER,
	best_objective_ratio REAL,
	PRIMARY KEY (experiment_id, position)
);
CREATE INDEX IF NOT EXISTS idx_experiments_campaign ON experiments(campaign_id);
`

// Store is a SQLite results database. It implements report.Sink for one
// campaign at a time.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string

	campaignID string
}

var _ report.Sink = (*Store)(nil)

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Store("Results store ready at %s", path)
	return &Store{db: db, path: path}, nil
}

// Begin registers the campaign.
func (s *Store) Begin(c report.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeds := make([]string, len(c.Seeds))
	for i, seed := range c.Seeds {
		seeds[i] = fmt.Sprint(seed)
	}
	_, err := s.db.Exec(
		`INSERT INTO campaigns (id, shape, started_at, universe_size, binary_path, algorithm, seeds)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Shape, c.StartedAt.UTC().Format(time.RFC3339), c.UniverseSize, c.Binary,
		c.Template.Algorithm, strings.Join(seeds, ","),
	)
	if err != nil {
		return fmt.Errorf("failed to insert campaign: %w", err)
	}
	s.campaignID = c.ID
	logging.StoreDebug("Registered campaign %s (%s)", c.ID, c.Shape)
	return nil
}

// Record stores one experiment and every algorithm it reported.
func (s *Store) Record(e report.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.campaignID == "" {
		return fmt.Errorf("record before begin")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var universe, ground, count, k *int
	if e.Record != nil {
		universe, ground, count, k = e.Record.UniverseSize, e.Record.GroundSetSize, e.Record.CandidateSetCount, e.Record.K
	}

	res, err := tx.Exec(
		`INSERT INTO experiments (campaign_id, idx, seed, exit_code, succeeded, error, duration_ms,
			command_line, universe_size, ground_set_size, candidate_set_count, k)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.campaignID, e.Index, e.Seed, e.Outcome.ExitCode, boolInt(e.Outcome.Succeeded()),
		e.Outcome.Err, e.Outcome.Duration.Milliseconds(), e.Outcome.CommandLine,
		nullInt(universe), nullInt(ground), nullInt(count), nullInt(k),
	)
	if err != nil {
		return fmt.Errorf("failed to insert experiment: %w", err)
	}
	expID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read experiment id: %w", err)
	}

	if e.Record != nil {
		for pos, name := range e.Record.Algorithms.Names() {
			r, _ := e.Record.Algorithms.Get(name)
			if _, err := tx.Exec(
				`INSERT INTO algorithm_results (experiment_id, position, algorithm, elapsed_ms,
					pareto_front_size, best_objective_ratio)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				expID, pos, name, nullFloat(r.ElapsedMS), nullInt(r.ParetoFrontSize), nullFloat(r.BestObjectiveRatio),
			); err != nil {
				return fmt.Errorf("failed to insert algorithm result: %w", err)
			}
		}
	}
	return tx.Commit()
}

// End stores the campaign totals.
func (s *Store) End(t report.Totals) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`UPDATE campaigns SET finished_at = ?, attempted = ?, succeeded = ?, failed = ?, summary_rows = ?
		 WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), t.Attempted, t.Succeeded, t.Failed, t.SummaryRows, s.campaignID,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	logging.Store("Campaign %s stored: %d experiments", s.campaignID, t.Attempted)
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
