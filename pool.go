package eventadmin

import (
	"sync"
	"time"
)

// BlockPolicy selects what Submit does when the pool's queue is full and
// every worker up to max_size is already busy (§4.2).
type BlockPolicy int

const (
	// BlockRunInCaller executes the task synchronously on the submitting
	// goroutine instead of queuing it.
	BlockRunInCaller BlockPolicy = iota
	// BlockWait parks the submitter until room opens up in the queue.
	BlockWait
	// BlockDiscard silently drops the new task.
	BlockDiscard
	// BlockDiscardOldest drops the oldest queued task to make room, then
	// retries enqueuing the new one exactly once; if the queue is full
	// again by the time the retry runs, the new task is discarded too.
	BlockDiscardOldest
	// BlockAbort returns ErrSubmissionAborted to the caller.
	BlockAbort
)

// Pool is the bounded worker pool every handler dispatch ultimately runs
// on (§4.2): a core of min_size long-lived workers, growing up to
// max_size under load, with idle workers above the core retiring after
// keep_alive_ms of inactivity.
type Pool struct {
	queue     *Channel
	keepAlive time.Duration
	policy    BlockPolicy
	logger    Logger

	mu           sync.Mutex
	minSize      int
	maxSize      int
	workers      int
	nextWorkerID int
	interrupts   map[int]*Interruptible
	stopped      bool

	wg sync.WaitGroup
}

// NewPool creates a pool with the given core/max size, queue capacity,
// idle keep-alive, overflow policy and logger, and starts minSize core
// workers immediately.
func NewPool(minSize, maxSize, queueCapacity int, keepAlive time.Duration, policy BlockPolicy, logger Logger) *Pool {
	p := &Pool{
		queue:      NewChannel(queueCapacity),
		keepAlive:  keepAlive,
		policy:     policy,
		logger:     logger,
		minSize:    minSize,
		maxSize:    maxSize,
		interrupts: make(map[int]*Interruptible),
	}
	for i := 0; i < minSize; i++ {
		p.spawnWorker(false)
	}
	return p
}

func (p *Pool) spawnWorker(canRetire bool) {
	p.mu.Lock()
	id := p.nextWorkerID
	p.nextWorkerID++
	ih := NewInterruptible()
	p.interrupts[id] = ih
	p.workers++
	p.mu.Unlock()

	p.wg.Add(1)
	go p.runWorker(id, ih, canRetire)
}

func (p *Pool) runWorker(id int, ih *Interruptible, canRetire bool) {
	defer p.wg.Done()
	for {
		deadline := time.Time{}
		if canRetire && p.keepAlive > 0 {
			deadline = time.Now().Add(p.keepAlive)
		}
		r, ok, err := p.queue.Poll(deadline, ih)
		if err != nil {
			// Interrupted: shutdown_now tore this worker down.
			p.retire(id)
			return
		}
		if !ok {
			p.mu.Lock()
			if p.workers > p.minSize {
				p.workers--
				delete(p.interrupts, id)
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
			continue
		}
		r()
	}
}

func (p *Pool) retire(id int) {
	p.mu.Lock()
	p.workers--
	delete(p.interrupts, id)
	p.mu.Unlock()
}

// Submit hands r to the pool, applying the configured BlockPolicy if the
// queue is full and the pool is already at max_size workers.
func (p *Pool) Submit(r runnable) error {
	if r == nil {
		return ErrInvalidArgument
	}
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrShutdown
	}
	if p.workers < p.maxSize {
		p.mu.Unlock()
		p.spawnWorker(true)
	} else {
		p.mu.Unlock()
	}

	if p.queue.TryOffer(r) {
		return nil
	}

	switch p.policy {
	case BlockRunInCaller:
		r()
		return nil
	case BlockWait:
		_, err := p.queue.Offer(r, time.Time{}, NewInterruptible())
		return err
	case BlockDiscard:
		return nil
	case BlockDiscardOldest:
		p.queue.DropOldest()
		p.queue.TryOffer(r) // best-effort single retry; drop on renewed contention
		return nil
	case BlockAbort:
		return ErrSubmissionAborted
	default:
		return ErrSubmissionAborted
	}
}

// ShutdownNow interrupts every worker immediately, abandoning any queued
// but not-yet-started tasks, and returns them so the caller can decide
// what (if anything) to do with the work that never ran.
func (p *Pool) ShutdownNow() []runnable {
	p.mu.Lock()
	p.stopped = true
	for _, ih := range p.interrupts {
		ih.Interrupt()
	}
	p.mu.Unlock()

	var abandoned []runnable
	for {
		r, ok := p.queue.TryPoll()
		if !ok {
			break
		}
		abandoned = append(abandoned, r)
	}
	return abandoned
}

// ShutdownAfterProcessingQueued stops accepting new submissions but lets
// workers drain whatever is already queued before they exit.
func (p *Pool) ShutdownAfterProcessingQueued() {
	p.mu.Lock()
	p.stopped = true
	minSize := p.minSize
	p.minSize = 0 // let every worker retire once idle
	_ = minSize
	p.mu.Unlock()

	// Core workers wait on the queue with no deadline, so once the queue
	// is empty every worker is interrupted and exits at its next idle wait.
	go func() {
		for p.queue.Len() > 0 {
			time.Sleep(time.Millisecond)
		}
		p.mu.Lock()
		for _, ih := range p.interrupts {
			ih.Interrupt()
		}
		p.mu.Unlock()
	}()
}

// AwaitTermination blocks until every worker goroutine has exited, or
// timeout elapses, reporting whether termination completed in time. A
// timeout of zero or less blocks indefinitely, matching the zero-means-
// block-forever convention Channel's Offer/Poll already use.
func (p *Pool) AwaitTermination(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	if timeout <= 0 {
		<-done
		return true
	}

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Workers reports the current worker goroutine count, for health/metrics.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// QueueLen reports the number of tasks currently queued, for health/metrics.
func (p *Pool) QueueLen() int {
	return p.queue.Len()
}
