package monitor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := newPool(4)
	var n atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		if !p.Submit(func() {
			n.Add(1)
			wg.Done()
		}) {
			t.Fatalf("submit rejected on open pool")
		}
	}
	wg.Wait()
	p.Close()
	if n.Load() != 20 {
		t.Fatalf("expected 20 tasks run, got %d", n.Load())
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := newPool(2)
	defer p.Close()

	var cur, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Submit(func() {
				c := cur.Add(1)
				for {
					pk := peak.Load()
					if c <= pk || peak.CompareAndSwap(pk, c) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				cur.Add(-1)
			})
		}()
	}
	wg.Wait()
	// let queued tasks drain
	deadline := time.Now().Add(time.Second)
	for cur.Load() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if peak.Load() > 2 {
		t.Fatalf("concurrency exceeded pool size: peak %d", peak.Load())
	}
}

func TestPoolSubmitAfterClose(t *testing.T) {
	p := newPool(1)
	p.Close()
	if p.Submit(func() {}) {
		t.Fatalf("submit should fail after close")
	}
	if p.TrySubmit(func() {}) {
		t.Fatalf("trysubmit should fail after close")
	}
	// Close must be idempotent
	p.Close()
}

func TestPoolCloseWaitsForInflight(t *testing.T) {
	p := newPool(1)
	var done atomic.Bool
	started := make(chan struct{})
	p.Submit(func() {
		close(started)
		time.Sleep(20 * time.Millisecond)
		done.Store(true)
	})
	<-started
	p.Close()
	if !done.Load() {
		t.Fatalf("close returned before in-flight task finished")
	}
}
