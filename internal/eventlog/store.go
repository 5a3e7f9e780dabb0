// Package eventlog records every dispatched command for later audit. It
// stores what was asked of the engine and how it went; it never stores
// listener responses.
package eventlog

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Mavwarf/cleartone/internal/paths"
)

// Event is one dispatched command.
type Event struct {
	ID         int64     `json:"id,omitempty"`
	Time       time.Time `json:"time"`
	Command    string    `json:"command"`
	Source     string    `json:"source"` // "cli", "http", "mqtt", "console"
	Frequency  float64   `json:"frequency,omitempty"`
	LevelDB    float64   `json:"level_db,omitempty"`
	Channel    string    `json:"channel,omitempty"`
	DurationMs int       `json:"duration_ms,omitempty"`
	Path       string    `json:"path,omitempty"`
	OK         bool      `json:"ok"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// Store abstracts audit log storage.
type Store interface {
	Log(e Event) error
	Recent(limit int) ([]Event, error) // newest first, 0 = all
	Clean(days int) (int, error)       // remove entries older than days, return removed count
	Clear() error
	Path() string
	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Open returns the store for backend in dir. An empty backend is SQLite.
func Open(dir, backend string) (Store, error) {
	switch backend {
	case "", BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, paths.DBFileName))
	case BackendFile:
		return NewFileStore(filepath.Join(dir, paths.LogFileName)), nil
	}
	return nil, fmt.Errorf("eventlog: unknown backend %q (want sqlite or file)", backend)
}

// DayCutoff returns midnight local time, days-1 days ago, so that days=1
// keeps today only.
func DayCutoff(days int) time.Time {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight.AddDate(0, 0, -(days - 1))
}
