// Package store persists the merged dataset incrementally. The store is
// the sole writer of the dataset file; a crash between two persists loses
// at most the records merged since the last one.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/MarcChen/CertifyHub/internal/examtopics"
)

// Store writes one exam's dataset file.
type Store struct {
	path  string
	mu    sync.Mutex
	dirty bool
}

// Open creates a store for the dataset file at path.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the dataset file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads a pre-existing dataset for resume. ok is false when no file
// exists yet.
func (s *Store) Load() (ds examtopics.Dataset, ok bool, err error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return examtopics.Dataset{}, false, nil
	}
	if err != nil {
		return examtopics.Dataset{}, false, err
	}
	if err := json.Unmarshal(b, &ds); err != nil {
		return examtopics.Dataset{}, false, fmt.Errorf("corrupt dataset file %s: %w", s.path, err)
	}
	return ds, true, nil
}

// MarkDirty records that the in-memory dataset diverged from disk.
func (s *Store) MarkDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// Persist writes the snapshot to disk. It is a no-op unless MarkDirty was
// called since the last successful persist, so repeated calls with an
// unchanged snapshot cost nothing and leave the file byte-identical.
// The write goes to a temp file first and is renamed into place, so a
// crash mid-write never corrupts the previous dataset.
func (s *Store) Persist(snapshot examtopics.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	sort.Slice(snapshot.Questions, func(i, j int) bool {
		if snapshot.Questions[i].TopicNumber != snapshot.Questions[j].TopicNumber {
			return snapshot.Questions[i].TopicNumber < snapshot.Questions[j].TopicNumber
		}
		return snapshot.Questions[i].QuestionNumber < snapshot.Questions[j].QuestionNumber
	})

	b, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}

	s.dirty = false
	return nil
}
