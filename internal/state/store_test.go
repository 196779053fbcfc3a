package state

import (
	"sync"
	"testing"
	"time"

	"github.com/loykin/healthmon/internal/probe"
)

func TestStoreUpsertGetRemove(t *testing.T) {
	s := New()
	if _, ok := s.Get("web"); ok {
		t.Fatalf("expected no record before upsert")
	}

	now := time.Now()
	s.Upsert("web", "shop", probe.StatusHealthy, now)
	rec, ok := s.Get("web")
	if !ok {
		t.Fatalf("expected record after upsert")
	}
	if rec.Name != "web" || rec.Project != "shop" || rec.Status != probe.StatusHealthy || !rec.LastCheck.Equal(now) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	later := now.Add(time.Minute)
	s.Upsert("web", "shop", probe.StatusUnhealthy, later)
	rec, _ = s.Get("web")
	if rec.Status != probe.StatusUnhealthy || !rec.LastCheck.Equal(later) {
		t.Fatalf("upsert did not overwrite: %+v", rec)
	}

	s.Remove("web")
	if _, ok := s.Get("web"); ok {
		t.Fatalf("expected record removed")
	}
	// removing again must be a no-op
	s.Remove("web")
}

func TestStoreNamesAndSnapshot(t *testing.T) {
	s := New()
	now := time.Now()
	s.Upsert("a", "p1", probe.StatusHealthy, now)
	s.Upsert("b", "p2", probe.StatusStarting, now)

	names := s.Names()
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %v", names)
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("missing names: %v", names)
	}

	snap := s.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 records, got %d", len(snap))
	}
	if s.Len() != 2 {
		t.Fatalf("expected Len 2, got %d", s.Len())
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Upsert("c", "p", probe.StatusHealthy, time.Now())
				s.Get("c")
				s.Names()
			}
		}()
	}
	wg.Wait()
	if s.Len() != 1 {
		t.Fatalf("expected single record, got %d", s.Len())
	}
}
