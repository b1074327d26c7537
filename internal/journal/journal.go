// Package journal provides the change-event audit journal.
//
// Every event published on the change bus is appended to a local SQLite
// database (embedded, WAL mode) so administrators can answer "what
// changed and when" after the fact. The journal is write-mostly; the
// status cache, not the journal, is what views read. The database file
// lives at .doctrack/journal.db by default.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/doctrackhq/doctrack/internal/bus"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// timeLayout is fixed-width so the journal's lexicographic recorded_at
// comparison orders sub-second timestamps correctly; RFC3339Nano trims
// trailing fractional zeros and breaks that ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Journal is an append-only log of change events backed by SQLite.
type Journal struct {
	conn *sql.DB
	path string
}

// Entry is one recorded change event.
type Entry struct {
	ID          int64
	Topic       string
	ItemID      int
	Year        int
	FileName    string
	SkipRefresh bool
	RecordedAt  time.Time
}

// Open creates or opens the journal database at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent
// reads. The caller MUST call Close() when done.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}

	j := &Journal{conn: conn, path: path}

	if _, err := j.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := j.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return j, nil
}

// Close closes the journal database, checkpointing the WAL first.
func (j *Journal) Close() error {
	if j.conn == nil {
		return nil
	}

	if _, err := j.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := j.conn.Close(); err != nil {
		return fmt.Errorf("failed to close journal database: %w", err)
	}
	j.conn = nil
	return nil
}

// InitSchema creates the events table if it doesn't exist. Idempotent.
func (j *Journal) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		topic        TEXT NOT NULL,
		item_id      INTEGER NOT NULL DEFAULT 0,
		year         INTEGER NOT NULL DEFAULT 0,
		file_name    TEXT NOT NULL DEFAULT '',
		skip_refresh INTEGER NOT NULL DEFAULT 0,
		recorded_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_recorded_at ON events(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_events_topic ON events(topic);
	`

	if _, err := j.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}

// Append records one change event.
func (j *Journal) Append(ev bus.Event) error {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := j.conn.Exec(`
		INSERT INTO events (topic, item_id, year, file_name, skip_refresh, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(ev.Kind), ev.ItemID, ev.Year, ev.FileName, boolToInt(ev.SkipRefresh),
		ts.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to append journal event: %w", err)
	}
	return nil
}

// Since returns all events recorded at or after t, oldest first.
func (j *Journal) Since(t time.Time) ([]Entry, error) {
	rows, err := j.conn.Query(`
		SELECT id, topic, item_id, year, file_name, skip_refresh, recorded_at
		FROM events
		WHERE recorded_at >= ?
		ORDER BY id ASC`,
		t.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var skip int
		var recorded string
		if err := rows.Scan(&e.ID, &e.Topic, &e.ItemID, &e.Year, &e.FileName, &skip, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		e.SkipRefresh = skip != 0
		e.RecordedAt, err = time.Parse(timeLayout, recorded)
		if err != nil {
			return nil, fmt.Errorf("failed to parse journal timestamp %q: %w", recorded, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal rows: %w", err)
	}

	return entries, nil
}

// Count returns the total number of recorded events.
func (j *Journal) Count() (int, error) {
	var n int
	if err := j.conn.QueryRow("SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count journal events: %w", err)
	}
	return n, nil
}

// Path returns the journal database file path.
func (j *Journal) Path() string {
	return j.path
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
