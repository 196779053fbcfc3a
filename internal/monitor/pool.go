package monitor

import "sync"

// pool is the bounded worker pool executing probe and re-check tasks.
// Its size is the only admission control: when every worker is busy and the
// queue is full, Submit blocks until capacity frees up.
type pool struct {
	tasks chan func()
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

func newPool(workers int) *pool {
	if workers < 1 {
		workers = 1
	}
	p := &pool{
		tasks: make(chan func(), workers),
		done:  make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case fn := <-p.tasks:
			fn()
		case <-p.done:
			// drain anything already accepted before exiting
			for {
				select {
				case fn := <-p.tasks:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Submit blocks until a worker accepts fn or the pool is closed.
// It reports whether the task was accepted.
func (p *pool) Submit(fn func()) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.tasks <- fn:
		return true
	case <-p.done:
		return false
	}
}

// TrySubmit is a non-blocking Submit.
func (p *pool) TrySubmit(fn func()) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.tasks <- fn:
		return true
	default:
		return false
	}
}

// Close stops accepting new tasks and waits for in-flight work to finish.
func (p *pool) Close() {
	p.once.Do(func() { close(p.done) })
	p.wg.Wait()
}
