package state

import (
	"sync"
	"time"

	"github.com/loykin/healthmon/internal/probe"
)

// Record is the last known observation for one tracked container.
// Records are created on the first successful probe of an unseen container and
// removed once the container is confirmed gone.
type Record struct {
	Name      string
	Project   string
	Status    probe.Status
	LastCheck time.Time
}

// Store holds the per-container records. Every method is atomic on its own;
// callers sequencing a read-then-write must tolerate last-writer-wins races
// from concurrent probes of the same container.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
}

func New() *Store {
	return &Store{records: make(map[string]Record)}
}

// Get returns the record for name, if any.
func (s *Store) Get(name string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[name]
	return r, ok
}

// Upsert records the latest observation for name.
func (s *Store) Upsert(name, project string, st probe.Status, at time.Time) {
	s.mu.Lock()
	s.records[name] = Record{Name: name, Project: project, Status: st, LastCheck: at}
	s.mu.Unlock()
}

// Remove drops the record for name, if present.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	delete(s.records, name)
	s.mu.Unlock()
}

// Names returns the set of currently tracked container names.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.records))
	for n := range s.records {
		out = append(out, n)
	}
	return out
}

// Snapshot returns a copy of all records.
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out
}

// Len returns the number of tracked containers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
