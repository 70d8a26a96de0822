package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is a durable key-value map of one scalar per market, backed by a
// single JSON file. Reads and writes are whole-file under a mutex, so the
// per-cycle read-modify-write of one record needs no further locking.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a store over the given file path
func New(path string) *Store {
	return &Store{path: path}
}

// Load returns the scalar recorded for market, or absent=false when the
// market (or the file itself) has no record yet.
func (s *Store) Load(market string) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAll()
	if err != nil {
		return 0, false, err
	}
	v, ok := all[market]
	return v, ok, nil
}

// Save records the scalar for market
func (s *Store) Save(market string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAll()
	if err != nil {
		return err
	}
	all[market] = value
	return s.writeAll(all)
}

func (s *Store) readAll() (map[string]float64, error) {
	if s.path == "" {
		return nil, errors.New("records: empty store path")
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]float64{}, nil
		}
		return nil, fmt.Errorf("records: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return map[string]float64{}, nil
	}
	var all map[string]float64
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("records: parse %s: %w", s.path, err)
	}
	return all, nil
}

// writeAll writes to a temp file then renames, so a crash mid-write never
// corrupts the store
func (s *Store) writeAll(all map[string]float64) error {
	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("records: marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("records: mkdir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("records: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("records: rename %s: %w", tmp, err)
	}
	return nil
}
