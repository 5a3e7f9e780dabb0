package eventlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Mavwarf/cleartone/internal/paths"

	_ "modernc.org/sqlite"
)

// tsLayout is fixed-width so timestamps in UTC sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000Z07:00"

// SQLiteStore implements Store using a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) a SQLite database at path and creates
// the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), paths.DirPerm); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}

	ddl := `
CREATE TABLE IF NOT EXISTS events (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp    TEXT    NOT NULL,
    command      TEXT    NOT NULL,
    source       TEXT    NOT NULL DEFAULT '',
    frequency    REAL    NOT NULL DEFAULT 0,
    level_db     REAL    NOT NULL DEFAULT 0,
    channel      TEXT    NOT NULL DEFAULT '',
    duration_ms  INTEGER NOT NULL DEFAULT 0,
    path         TEXT    NOT NULL DEFAULT '',
    ok           INTEGER NOT NULL,
    error_kind   TEXT    NOT NULL DEFAULT '',
    message      TEXT    NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp DESC);
`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Log(e Event) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	ok := 0
	if e.OK {
		ok = 1
	}
	_, err := s.db.Exec(`INSERT INTO events
		(timestamp, command, source, frequency, level_db, channel, duration_ms, path, ok, error_kind, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Time.UTC().Format(tsLayout), e.Command, e.Source, e.Frequency, e.LevelDB,
		e.Channel, e.DurationMs, e.Path, ok, e.ErrorKind, e.Message)
	if err != nil {
		return fmt.Errorf("eventlog: insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Recent(limit int) ([]Event, error) {
	q := `SELECT id, timestamp, command, source, frequency, level_db, channel,
		duration_ms, path, ok, error_kind, message
		FROM events ORDER BY id DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(q+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.Query(q)
	}
	if err != nil {
		return nil, fmt.Errorf("eventlog: query: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var ts string
		var ok int
		if err := rows.Scan(&e.ID, &ts, &e.Command, &e.Source, &e.Frequency, &e.LevelDB,
			&e.Channel, &e.DurationMs, &e.Path, &ok, &e.ErrorKind, &e.Message); err != nil {
			return nil, fmt.Errorf("eventlog: scan: %w", err)
		}
		e.Time, _ = time.Parse(tsLayout, ts)
		e.OK = ok != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Clean(days int) (int, error) {
	cutoff := DayCutoff(days).UTC().Format(tsLayout)
	res, err := s.db.Exec(`DELETE FROM events WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM events`)
	return err
}

func (s *SQLiteStore) Path() string {
	return s.path
}
