// Package persistence provides SQLite-based storage for finished runs,
// the event log, and the last-used configuration.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/torus-coding/internal/engine"
	"github.com/talgya/torus-coding/internal/torus"
)

// metaConfigKey stores the last configuration as JSON.
const metaConfigKey = "config"

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Run is one archived run.
type Run struct {
	ID             string    `json:"id" db:"id"`
	StartedAt      time.Time `json:"started_at" db:"started_at"`
	EndedAt        time.Time `json:"ended_at" db:"ended_at"`
	UseRatio       bool      `json:"use_ratio" db:"use_ratio"`
	Tangent        float64   `json:"tangent" db:"tangent"`
	RatioP         int       `json:"ratio_p" db:"ratio_p"`
	RatioQ         int       `json:"ratio_q" db:"ratio_q"`
	StepRate       float64   `json:"step_rate" db:"step_rate"`
	Ticks          uint64    `json:"ticks" db:"ticks"`
	T              float64   `json:"t" db:"t"`
	CompletedCycle bool      `json:"completed_cycle" db:"completed_cycle"`
	Sequence       string    `json:"sequence" db:"sequence"`
	WordLength     int       `json:"word_length" db:"word_length"`
	WordCount      int       `json:"word_count" db:"word_count"`
	WordsJSON      string    `json:"-" db:"words_json"`
}

// Words decodes the stored factor list.
func (r Run) Words() []string {
	var out []string
	json.Unmarshal([]byte(r.WordsJSON), &out)
	return out
}

// Slope returns the effective slope the run used.
func (r Run) Slope() float64 {
	if r.UseRatio {
		return float64(r.RatioP) / float64(r.RatioQ)
	}
	return r.Tangent
}

// RunFromSnapshot builds an archive record. Snapshots without a run ID get
// a fresh one.
func RunFromSnapshot(snap engine.Snapshot, ended time.Time) Run {
	wordsJSON, _ := json.Marshal(snap.Words)
	id := snap.RunID
	if id == "" {
		id = uuid.NewString()
	}
	started := snap.StartedAt
	if started.IsZero() {
		started = ended
	}
	return Run{
		ID:             id,
		StartedAt:      started.UTC(),
		EndedAt:        ended.UTC(),
		UseRatio:       snap.Config.UseRatio,
		Tangent:        snap.Config.Tangent,
		RatioP:         snap.Config.RatioP,
		RatioQ:         snap.Config.RatioQ,
		StepRate:       snap.Config.StepRate,
		Ticks:          snap.Tick,
		T:              snap.T,
		CompletedCycle: snap.CompletedCycle,
		Sequence:       snap.Sequence,
		WordLength:     snap.WordLength,
		WordCount:      snap.WordCount,
		WordsJSON:      string(wordsJSON),
	}
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP NOT NULL,
		use_ratio INTEGER NOT NULL,
		tangent REAL NOT NULL,
		ratio_p INTEGER NOT NULL,
		ratio_q INTEGER NOT NULL,
		step_rate REAL NOT NULL,
		ticks INTEGER NOT NULL,
		t REAL NOT NULL,
		completed_cycle INTEGER NOT NULL,
		sequence TEXT NOT NULL,
		word_length INTEGER NOT NULL,
		word_count INTEGER NOT NULL,
		words_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_ended ON runs(ended_at);
	CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun inserts an archived run, replacing an earlier checkpoint of the
// same run.
func (db *DB) SaveRun(r Run) error {
	_, err := db.conn.NamedExec(`INSERT OR REPLACE INTO runs
		(id, started_at, ended_at, use_ratio, tangent, ratio_p, ratio_q, step_rate,
		 ticks, t, completed_cycle, sequence, word_length, word_count, words_json)
		VALUES (:id, :started_at, :ended_at, :use_ratio, :tangent, :ratio_p, :ratio_q, :step_rate,
		 :ticks, :t, :completed_cycle, :sequence, :word_length, :word_count, :words_json)`, r)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	slog.Info("run archived", "id", r.ID, "symbols", len(r.Sequence), "completed", r.CompletedCycle)
	return nil
}

// GetRun returns the run with the given ID, or sql.ErrNoRows.
func (db *DB) GetRun(id string) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT * FROM runs WHERE id = ?", id)
	return r, err
}

// RecentRuns returns the most recently ended runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	runs := []Run{}
	err := db.conn.Select(&runs, "SELECT * FROM runs ORDER BY ended_at DESC, id LIMIT ?", limit)
	return runs, err
}

// SaveEvents appends events to the log.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (tick, category, description) VALUES (?, ?, ?)",
			e.Tick, e.Category, e.Description,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	events := []engine.Event{}
	err := db.conn.Select(&events,
		"SELECT tick, category, description FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

// SaveConfig stores the torus configuration so a restart can restore it.
func (db *DB) SaveConfig(cfg torus.Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := db.SaveMeta(metaConfigKey, string(data)); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// LoadConfig returns the stored configuration. ok is false when none has
// been saved yet.
func (db *DB) LoadConfig() (cfg torus.Config, ok bool, err error) {
	raw, err := db.GetMeta(metaConfigKey)
	if errors.Is(err, sql.ErrNoRows) {
		return cfg, false, nil
	}
	if err != nil {
		return cfg, false, fmt.Errorf("load config: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return cfg, false, fmt.Errorf("decode config: %w", err)
	}
	return cfg, true, nil
}

// Archive saves a stopped run and the configuration it used.
func (db *DB) Archive(snap engine.Snapshot) (Run, error) {
	run := RunFromSnapshot(snap, time.Now())
	if err := db.SaveRun(run); err != nil {
		return run, err
	}
	if err := db.SaveConfig(snap.Config); err != nil {
		return run, err
	}
	return run, nil
}
