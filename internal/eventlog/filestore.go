package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Mavwarf/cleartone/internal/paths"
)

// FileStore implements Store as a JSON-lines file. IDs are line numbers at
// read time.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a FileStore that reads and writes the given file.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Log(e Event) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.ID = 0
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("eventlog: marshal: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), paths.DirPerm); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, paths.FilePerm)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.Write(append(line, '\n'))
	return err
}

func (f *FileStore) Recent(limit int) ([]Event, error) {
	f.mu.Lock()
	events, err := f.readAll()
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]Event, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		out = append(out, events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *FileStore) Clean(days int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	events, err := f.readAll()
	if err != nil {
		return 0, err
	}
	cutoff := DayCutoff(days)
	var buf bytes.Buffer
	removed := 0
	for _, e := range events {
		if e.Time.Before(cutoff) {
			removed++
			continue
		}
		e.ID = 0
		line, err := json.Marshal(e)
		if err != nil {
			return 0, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, paths.AtomicWrite(f.path, buf.Bytes())
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Close() error { return nil }

// readAll parses every line. Corrupt lines are skipped.
func (f *FileStore) readAll() ([]Event, error) {
	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var events []Event
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		var e Event
		if json.Unmarshal(sc.Bytes(), &e) != nil {
			continue
		}
		e.ID = int64(len(events) + 1)
		events = append(events, e)
	}
	return events, sc.Err()
}
