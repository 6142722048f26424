// Package jsonfile keeps the whole message log as one JSON array and rewrites
// it atomically (temp file, fsync, rename) on every append.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vovakirdan/roomrelay/internal/store"
)

// Store implements store.Log as a single rewritten document.
type Store struct {
	path string

	mu      sync.Mutex
	records []store.Record
}

// New returns a store backed by the file at path. Nothing is read until Load.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the document, creating an empty one if it does not exist yet.
func (s *Store) Load(_ context.Context) ([]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.records = nil
		if err := s.write(); err != nil {
			return nil, fmt.Errorf("create history file: %w", err)
		}
		return []store.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}

	var records []store.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode history file: %w", err)
	}
	s.records = records

	out := make([]store.Record, len(records))
	copy(out, records)
	return out, nil
}

// Append adds rec and rewrites the whole document.
func (s *Store) Append(_ context.Context, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if err := s.write(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return err
	}
	return nil
}

// Close is a no-op; every append is already on disk.
func (s *Store) Close() error {
	return nil
}

func (s *Store) write() error {
	records := s.records
	if records == nil {
		records = []store.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}
