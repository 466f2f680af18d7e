// Package persistence provides SQLite-based storage for simulation runs:
// the trigger journal, field snapshots, the event log and run metadata.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/trigrid/internal/board"
	"github.com/talgya/trigrid/internal/engine"
	"github.com/talgya/trigrid/internal/field"
	"github.com/talgya/trigrid/internal/grid"
	"github.com/talgya/trigrid/internal/trigger"
)

// Journal records simulation runs to a SQLite database. Triggers are
// buffered by Record and written in one transaction by Flush.
type Journal struct {
	conn  *sqlx.DB
	runID string

	mu      sync.Mutex
	pending []TriggerRow
}

var _ engine.Recorder = (*Journal)(nil)

// TriggerRow is one journaled trigger.
type TriggerRow struct {
	RunID     string `db:"run_id" json:"run_id"`
	Cycle     uint64 `db:"cycle" json:"cycle"`
	Kind      string `db:"kind" json:"kind"`
	Owner     string `db:"owner" json:"owner"`
	Causer    string `db:"causer" json:"causer"`
	Locations string `db:"locations" json:"locations"` // JSON array of cells
}

// Open opens or creates a journal database at the given path.
func Open(path string) (*Journal, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	j := &Journal{conn: conn}
	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.conn.Close()
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS triggers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		cycle INTEGER NOT NULL,
		kind TEXT NOT NULL,
		owner TEXT NOT NULL,
		causer TEXT NOT NULL,
		locations TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS field_snapshots (
		run_id TEXT NOT NULL,
		cycle INTEGER NOT NULL,
		field TEXT NOT NULL,
		col INTEGER NOT NULL,
		row INTEGER NOT NULL,
		strength INTEGER NOT NULL,
		PRIMARY KEY (run_id, cycle, field, col, row)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		cycle INTEGER NOT NULL,
		phase TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_triggers_run_cycle ON triggers(run_id, cycle);
	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
	`
	_, err := j.conn.Exec(schema)
	return err
}

// BeginRun starts a new run and returns its id. Subsequent writes are
// tagged with it.
func (j *Journal) BeginRun(ctx context.Context, seed int64) (string, error) {
	id := uuid.NewString()
	_, err := j.conn.ExecContext(ctx,
		"INSERT INTO runs (id, seed, started_at) VALUES (?, ?, ?)",
		id, seed, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	j.runID = id
	slog.Info("journal run started", "run", id, "seed", seed)
	return id, nil
}

// RunID returns the current run id, empty before BeginRun.
func (j *Journal) RunID() string {
	return j.runID
}

// Record buffers a trigger for the next Flush.
func (j *Journal) Record(t trigger.Trigger) {
	row := TriggerRow{
		RunID:     j.runID,
		Cycle:     t.Cycle,
		Kind:      t.Kind.String(),
		Owner:     refString(t.Owner),
		Causer:    refString(t.Causer),
		Locations: encodeLocations(t.Locations),
	}
	j.mu.Lock()
	j.pending = append(j.pending, row)
	j.mu.Unlock()
}

// Pending returns the number of buffered triggers.
func (j *Journal) Pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.pending)
}

// Flush writes every buffered trigger and returns how many were written.
// On failure the buffer is kept for a later attempt.
func (j *Journal) Flush(ctx context.Context) (int, error) {
	j.mu.Lock()
	rows := j.pending
	j.mu.Unlock()
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := j.conn.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO triggers
		(run_id, cycle, kind, owner, causer, locations)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.RunID, r.Cycle, r.Kind, r.Owner, r.Causer, r.Locations); err != nil {
			return 0, fmt.Errorf("insert trigger: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	j.mu.Lock()
	j.pending = j.pending[len(rows):]
	j.mu.Unlock()
	return len(rows), nil
}

// SnapshotField stores every cell strength of ft for cycle, replacing an
// earlier snapshot of the same cycle.
func (j *Journal) SnapshotField(ctx context.Context, cycle uint64, ft field.Type, strengths map[grid.Coord]int) error {
	tx, err := j.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM field_snapshots WHERE run_id = ? AND cycle = ? AND field = ?",
		j.runID, cycle, string(ft),
	); err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO field_snapshots
		(run_id, cycle, field, col, row, strength) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for c, s := range strengths {
		if _, err := stmt.ExecContext(ctx, j.runID, cycle, string(ft), c.Col, c.Row, s); err != nil {
			return fmt.Errorf("insert field cell: %w", err)
		}
	}
	return tx.Commit()
}

// FieldSnapshot loads the strengths of ft stored for cycle in the current
// run.
func (j *Journal) FieldSnapshot(ctx context.Context, cycle uint64, ft field.Type) (map[grid.Coord]int, error) {
	var cells []struct {
		Col      int `db:"col"`
		Row      int `db:"row"`
		Strength int `db:"strength"`
	}
	err := j.conn.SelectContext(ctx, &cells,
		"SELECT col, row, strength FROM field_snapshots WHERE run_id = ? AND cycle = ? AND field = ?",
		j.runID, cycle, string(ft),
	)
	if err != nil {
		return nil, err
	}
	out := make(map[grid.Coord]int, len(cells))
	for _, c := range cells {
		out[grid.Coord{Col: c.Col, Row: c.Row}] = c.Strength
	}
	return out, nil
}

// SaveEvents appends events to the database.
func (j *Journal) SaveEvents(ctx context.Context, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := j.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO events (run_id, cycle, phase, description, category) VALUES (?, ?, ?, ?, ?)",
			j.runID, e.Cycle, e.Phase, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in run metadata.
func (j *Journal) SaveMeta(ctx context.Context, key, value string) error {
	_, err := j.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (j *Journal) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := j.conn.GetContext(ctx, &value, "SELECT value FROM run_meta WHERE key = ?", key)
	return value, err
}

// SaveCycle flushes buffered triggers, appends the events logged since the
// last save and records the cycle counter.
func (j *Journal) SaveCycle(ctx context.Context, sim *engine.Simulation, events []engine.Event) error {
	n, err := j.Flush(ctx)
	if err != nil {
		return fmt.Errorf("flush triggers: %w", err)
	}
	if err := j.SaveEvents(ctx, events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := j.SaveMeta(ctx, "last_cycle", fmt.Sprintf("%d", sim.CurrentCycle())); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	slog.Debug("cycle saved", "cycle", sim.CurrentCycle(), "triggers", n, "events", len(events))
	return nil
}

// RecentTriggers returns the most recent triggers of the current run,
// newest first.
func (j *Journal) RecentTriggers(ctx context.Context, limit int) ([]TriggerRow, error) {
	var rows []TriggerRow
	err := j.conn.SelectContext(ctx, &rows,
		`SELECT run_id, cycle, kind, owner, causer, locations FROM triggers
		WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		j.runID, limit,
	)
	return rows, err
}

// RecentEvents returns the most recent N events of the current run.
func (j *Journal) RecentEvents(ctx context.Context, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := j.conn.SelectContext(ctx, &events,
		"SELECT cycle, phase, description, category FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		j.runID, limit,
	)
	return events, err
}

// DecodeLocations parses the locations column of a TriggerRow.
func DecodeLocations(s string) (grid.Shape, error) {
	var cells []grid.Coord
	if err := json.Unmarshal([]byte(s), &cells); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	return grid.NewShape(cells...), nil
}

func encodeLocations(s grid.Shape) string {
	cells := s.Sorted()
	data, err := json.Marshal(cells)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func refString(r board.EntityRef) string {
	if r.IsZero() {
		return ""
	}
	return r.String()
}
