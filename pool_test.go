package eventadmin

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolSubmitRunsTask(t *testing.T) {
	p := NewPool(1, 2, 4, time.Second, BlockAbort, nil)
	done := make(chan struct{})
	if err := p.Submit(func() { close(done) }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected submitted task to run")
	}
}

func TestPoolGrowsUpToMax(t *testing.T) {
	p := NewPool(1, 3, 8, time.Second, BlockAbort, nil)
	var running int32
	var maxSeen int32
	release := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < 3; i++ {
		wg.Add(1)
		_ = p.Submit(func() {
			defer wg.Done()
			n := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&maxSeen)
				if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&running, -1)
		})
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if atomic.LoadInt32(&maxSeen) < 2 {
		t.Fatalf("expected pool to grow beyond core size under load, saw max concurrency %d", maxSeen)
	}
}

func TestPoolAbortPolicyWhenSaturated(t *testing.T) {
	p := NewPool(1, 1, 1, time.Second, BlockAbort, nil)
	block := make(chan struct{})
	_ = p.Submit(func() { <-block })
	time.Sleep(20 * time.Millisecond) // let the worker pick it up and block
	_ = p.Submit(func() {})           // fills the single queue slot

	err := p.Submit(func() {})
	if err != ErrSubmissionAborted {
		t.Fatalf("expected ErrSubmissionAborted, got %v", err)
	}
	close(block)
}

func TestPoolRunInCallerPolicy(t *testing.T) {
	p := NewPool(1, 1, 1, time.Second, BlockRunInCaller, nil)
	block := make(chan struct{})
	_ = p.Submit(func() { <-block })
	time.Sleep(20 * time.Millisecond)
	_ = p.Submit(func() {}) // fills the single queue slot

	ran := make(chan struct{})
	if err := p.Submit(func() { close(ran) }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case <-ran:
	default:
		t.Fatal("expected run-in-caller policy to execute inline immediately")
	}
	close(block)
}

func TestPoolShutdownNowAbandonsQueued(t *testing.T) {
	p := NewPool(1, 1, 4, time.Second, BlockWait, nil)
	block := make(chan struct{})
	_ = p.Submit(func() { <-block })
	time.Sleep(20 * time.Millisecond)

	queued := make(chan struct{})
	_ = p.Submit(func() { close(queued) })

	abandoned := p.ShutdownNow()
	close(block)

	if len(abandoned) == 0 {
		t.Fatal("expected at least one abandoned task")
	}
}
