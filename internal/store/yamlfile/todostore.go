// Package yamlfile persists the N+1 TODO entry set as a human-readable,
// diff-friendly YAML file suitable for version control.
package yamlfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/nplusone/internal/core/todo"
)

// ErrMalformed wraps parse failures of the backing file. An absent or empty
// file is an empty store, never an error; unparseable content always is.
var ErrMalformed = errors.New("malformed todo file")

// DetectedKey identifies one re-detected (fingerprint, location) pair during
// reconciliation.
type DetectedKey struct {
	Fingerprint string
	Location    string
}

// TodoStore owns the persisted entry set for one file path. The file is
// parsed lazily on first access. Reads and writes are safe for concurrent
// callers; persistence to disk happens only through Save.
type TodoStore struct {
	path string

	mu      sync.RWMutex
	entries []todo.Entry
	loaded  bool
}

// New creates a store over the given path without touching the file.
func New(path string) *TodoStore {
	return &TodoStore{path: path}
}

// Path returns the backing file path.
func (s *TodoStore) Path() string {
	return s.path
}

// Entries returns a copy of all entries in file order.
func (s *TodoStore) Entries() ([]todo.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	out := make([]todo.Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = copyEntry(e)
	}
	return out, nil
}

// Fingerprints returns every entry fingerprint in file order.
func (s *TodoStore) Fingerprints() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	fps := make([]string, len(s.entries))
	for i, e := range s.entries {
		fps[i] = e.Fingerprint
	}
	return fps, nil
}

// Ignored reports whether some entry carries this fingerprint. Matching is on
// the stored fingerprint string itself; identities are never re-derived.
func (s *TodoStore) Ignored(fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return false, err
	}

	return s.find(fingerprint) != nil, nil
}

// FindEntry returns the entry with the given fingerprint, or false.
func (s *TodoStore) FindEntry(fingerprint string) (todo.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return todo.Entry{}, false, err
	}

	if e := s.find(fingerprint); e != nil {
		return copyEntry(*e), true, nil
	}
	return todo.Entry{}, false, nil
}

// Len returns the number of entries.
func (s *TodoStore) Len() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return 0, err
	}
	return len(s.entries), nil
}

// AddEntry records one observation. An existing fingerprint gets a new
// location record unless that exact location string is already present; an
// unseen fingerprint creates a new entry stamped with the current UTC time.
// An empty location adds no location record but still creates the entry.
func (s *TodoStore) AddEntry(fingerprint, query, location, testLocation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}

	if e := s.find(fingerprint); e != nil {
		e.AddLocation(location, testLocation)
		return nil
	}

	entry := todo.Entry{
		Fingerprint: fingerprint,
		Query:       query,
		CreatedAt:   time.Now().UTC(),
	}
	entry.AddLocation(location, testLocation)
	s.entries = append(s.entries, entry)
	return nil
}

// Clear discards all in-memory entries. Save persists the empty set.
func (s *TodoStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.loaded = true
}

// TestLocations returns the set of all non-empty test identities recorded
// across all location records.
func (s *TodoStore) TestLocations() (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	set := make(map[string]struct{})
	for _, e := range s.entries {
		for _, loc := range e.Locations {
			if loc.TestLocation != "" {
				set[loc.TestLocation] = struct{}{}
			}
		}
	}
	return set, nil
}

// FilterByTestLocations prunes location records that are confirmed resolved
// and returns how many were removed. A record survives when it has no test
// provenance, when its owning test did not run this cycle, or when its
// (fingerprint, location) pair was re-detected. Entries left without any
// location record are dropped entirely.
func (s *TodoStore) FilterByTestLocations(detected map[DetectedKey]struct{}, executed map[string]struct{}) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return 0, err
	}

	removed := 0
	kept := s.entries[:0]

	for _, entry := range s.entries {
		locs := entry.Locations[:0]
		for _, loc := range entry.Locations {
			if keepLocation(entry.Fingerprint, loc, detected, executed) {
				locs = append(locs, loc)
			} else {
				removed++
			}
		}
		entry.Locations = locs
		if len(entry.Locations) > 0 {
			kept = append(kept, entry)
		}
	}

	s.entries = kept
	return removed, nil
}

// keepLocation decides survival of one location record during pruning.
func keepLocation(fingerprint string, loc todo.LocationRecord, detected map[DetectedKey]struct{}, executed map[string]struct{}) bool {
	// No provenance: conservative, never prune legacy or manual records.
	if loc.TestLocation == "" {
		return true
	}

	// Owning test did not run this cycle; absence of evidence is not
	// evidence of absence.
	if _, ran := executed[loc.TestLocation]; !ran {
		return true
	}

	_, seen := detected[DetectedKey{Fingerprint: fingerprint, Location: loc.Location}]
	return seen
}

// Save serializes the full entry set to the backing file atomically.
// I/O failures propagate unmodified; callers own rollback.
func (s *TodoStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}

	data, err := yaml.Marshal(toRecords(s.entries))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}

// find returns a pointer into the live entry slice, lock held by caller.
func (s *TodoStore) find(fingerprint string) *todo.Entry {
	for i := range s.entries {
		if s.entries[i].Fingerprint == fingerprint {
			return &s.entries[i]
		}
	}
	return nil
}

// load parses the backing file once. Absent and empty files are empty
// stores; anything unparseable fails with ErrMalformed.
func (s *TodoStore) load() error {
	if s.loaded {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return err
	}

	if len(data) == 0 {
		s.loaded = true
		return nil
	}

	var records []entryRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, s.path, err)
	}

	s.entries = fromRecords(records)
	s.loaded = true
	return nil
}

func copyEntry(e todo.Entry) todo.Entry {
	out := e
	out.Locations = make([]todo.LocationRecord, len(e.Locations))
	copy(out.Locations, e.Locations)
	return out
}
