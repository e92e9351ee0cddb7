// Package selectordb persists learned selector expressions per logical
// element identity. The store is shared across parallel test workers:
// writes are serialized in-process and flushed with an atomic rewrite, so
// concurrent workers degrade to last-writer-wins, which is acceptable for
// additive updates.
package selectordb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Candidate is one previously-successful selector expression for an intent.
type Candidate struct {
	Expr        string    `json:"expr"`
	Strategy    string    `json:"strategy"`
	Successes   int       `json:"successes"`
	LastSuccess time.Time `json:"last_success"`
}

// Record holds the ordered candidate list for one intent name. Records are
// created on first healing and never auto-deleted.
type Record struct {
	Candidates []Candidate `json:"candidates"`
}

// Store is a file-backed selector database keyed by intent name.
type Store struct {
	path    string
	mu      sync.Mutex
	records map[string]*Record
}

// Open loads the selector database at path, creating an empty one if the
// file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path:    path,
		records: make(map[string]*Record),
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load selector database from %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	records := make(map[string]*Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse selector database: %w", err)
	}
	s.records = records
	return nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of intents with at least one learned candidate.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Get returns a copy of the record for the given intent name.
func (s *Store) Get(intent string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[intent]
	if !ok {
		return Record{}, false
	}
	out := Record{Candidates: make([]Candidate, len(rec.Candidates))}
	copy(out.Candidates, rec.Candidates)
	return out, true
}

// Best returns the candidate with the highest success count for the intent.
// Ties resolve to the earliest candidate in the stored order.
func (s *Store) Best(intent string) (Candidate, bool) {
	rec, ok := s.Get(intent)
	if !ok || len(rec.Candidates) == 0 {
		return Candidate{}, false
	}
	best := rec.Candidates[0]
	for _, c := range rec.Candidates[1:] {
		if c.Successes > best.Successes {
			best = c
		}
	}
	return best, true
}

// Intents returns all intent names in the database, sorted.
func (s *Store) Intents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RecordSuccess upserts a successful selector for the intent and persists
// the database synchronously. A new expression is inserted at the front of
// the candidate list; a known expression keeps its position and has its
// counter incremented. Duplicate expressions per record are impossible by
// construction.
func (s *Store) RecordSuccess(intent, expr, strategy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[intent]
	if !ok {
		rec = &Record{}
		s.records[intent] = rec
	}

	now := time.Now()
	found := false
	for i := range rec.Candidates {
		if rec.Candidates[i].Expr == expr {
			rec.Candidates[i].Successes++
			rec.Candidates[i].LastSuccess = now
			found = true
			break
		}
	}
	if !found {
		rec.Candidates = append([]Candidate{{
			Expr:        expr,
			Strategy:    strategy,
			Successes:   1,
			LastSuccess: now,
		}}, rec.Candidates...)
	}

	return s.save()
}

// save rewrites the backing file atomically: marshal to a temp file in the
// same directory, then rename over the target.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal selector database: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".selectors-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write selector database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace selector database: %w", err)
	}
	return nil
}
