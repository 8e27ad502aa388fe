package eventadmin

import (
	"sync"
	"sync/atomic"
	"time"
)

// runnable is one unit of work handed off between a submitter and a pool
// worker goroutine.
type runnable func()

// chanNode is one link in the hand-off queue's singly-linked list. The
// head node is always a sentinel whose value is never read.
type chanNode struct {
	value runnable
	next  *chanNode
}

// Channel is the bounded hand-off queue described in §4.1: a singly-linked
// queue with independent head and tail locks so a concurrent put and take
// never contend on the same mutex, plus a single count field that is the
// only state both ends touch. notEmpty/notFull condition variables park
// blocked takers and putters; Interruptible handles let a pool shutdown
// wake a parked goroutine without waiting out its deadline.
type Channel struct {
	capacity int32
	count    atomic.Int32

	takeLock sync.Mutex
	notEmpty *sync.Cond
	head     *chanNode

	putLock  sync.Mutex
	notFull  *sync.Cond
	tail     *chanNode
}

// NewChannel creates a hand-off queue bounded to capacity items. A
// capacity of 0 or less means unbounded (Put never blocks).
func NewChannel(capacity int) *Channel {
	sentinel := &chanNode{}
	c := &Channel{head: sentinel, tail: sentinel}
	if capacity > 0 {
		c.capacity = int32(capacity)
	}
	c.notEmpty = sync.NewCond(&c.takeLock)
	c.notFull = sync.NewCond(&c.putLock)
	return c
}

// Len returns the number of items currently queued.
func (c *Channel) Len() int {
	return int(c.count.Load())
}

func (c *Channel) signalNotEmpty() {
	c.takeLock.Lock()
	c.notEmpty.Signal()
	c.takeLock.Unlock()
}

func (c *Channel) signalNotFull() {
	c.putLock.Lock()
	c.notFull.Signal()
	c.putLock.Unlock()
}

func (c *Channel) enqueue(r runnable) {
	node := &chanNode{value: r}
	c.putLock.Lock()
	c.tail.next = node
	c.tail = node
	c.putLock.Unlock()
}

func (c *Channel) dequeue() runnable {
	first := c.head.next
	c.head = first
	v := first.value
	first.value = nil // help GC
	return v
}

func (c *Channel) isFull() bool {
	return c.capacity > 0 && c.count.Load() >= c.capacity
}

// Put enqueues r unconditionally, growing past capacity if necessary; it
// never waits for room.
func (c *Channel) Put(r runnable) {
	c.enqueue(r)
	if c.count.Add(1) > 0 {
		c.signalNotEmpty()
	}
}

// Offer enqueues r, waiting up to deadline for room if the queue is at
// capacity. A zero deadline waits indefinitely. Reports ok=false if no
// room opened up before a non-zero deadline, or err!=nil if the waiter
// was interrupted first.
func (c *Channel) Offer(r runnable, deadline time.Time, interruptible *Interruptible) (ok bool, err error) {
	c.putLock.Lock()
	for c.isFull() {
		timedOut, waitErr := interruptible.WaitUntil(c.notFull, deadline)
		if waitErr != nil {
			c.putLock.Unlock()
			return false, waitErr
		}
		if timedOut && c.isFull() {
			c.putLock.Unlock()
			return false, nil
		}
	}
	node := &chanNode{value: r}
	c.tail.next = node
	c.tail = node
	c.putLock.Unlock()

	if c.count.Add(1) > 0 {
		c.signalNotEmpty()
	}
	return true, nil
}

// TryOffer enqueues r only if the queue has room right now, without
// blocking at all.
func (c *Channel) TryOffer(r runnable) bool {
	c.putLock.Lock()
	if c.isFull() {
		c.putLock.Unlock()
		return false
	}
	node := &chanNode{value: r}
	c.tail.next = node
	c.tail = node
	c.putLock.Unlock()

	if c.count.Add(1) > 0 {
		c.signalNotEmpty()
	}
	return true
}

// Take removes and returns the head item, blocking indefinitely until one
// is available or the waiter is interrupted.
func (c *Channel) Take(interruptible *Interruptible) (runnable, error) {
	c.takeLock.Lock()
	for c.count.Load() == 0 {
		if err := interruptible.Wait(c.notEmpty); err != nil {
			if c.count.Load() > 0 {
				c.notEmpty.Signal() // pass on a wake this waiter may have consumed
			}
			c.takeLock.Unlock()
			return nil, err
		}
	}
	r := c.dequeue()
	c.takeLock.Unlock()

	if c.count.Add(-1) > 0 {
		c.signalNotEmpty()
	}
	if c.capacity > 0 {
		c.signalNotFull()
	}
	return r, nil
}

// Poll is Take bounded by deadline; a zero deadline waits indefinitely
// (equivalent to Take). Reports ok=false on timeout rather than an error.
func (c *Channel) Poll(deadline time.Time, interruptible *Interruptible) (r runnable, ok bool, err error) {
	c.takeLock.Lock()
	for c.count.Load() == 0 {
		timedOut, waitErr := interruptible.WaitUntil(c.notEmpty, deadline)
		if waitErr != nil {
			if c.count.Load() > 0 {
				c.notEmpty.Signal() // pass on a wake this waiter may have consumed
			}
			c.takeLock.Unlock()
			return nil, false, waitErr
		}
		if timedOut && c.count.Load() == 0 {
			c.takeLock.Unlock()
			return nil, false, nil
		}
	}
	r = c.dequeue()
	c.takeLock.Unlock()

	if c.count.Add(-1) > 0 {
		c.signalNotEmpty()
	}
	if c.capacity > 0 {
		c.signalNotFull()
	}
	return r, true, nil
}

// TryPoll removes and returns the head item only if one is available
// right now, without blocking at all.
func (c *Channel) TryPoll() (r runnable, ok bool) {
	c.takeLock.Lock()
	if c.count.Load() == 0 {
		c.takeLock.Unlock()
		return nil, false
	}
	r = c.dequeue()
	c.takeLock.Unlock()

	if c.count.Add(-1) > 0 {
		c.signalNotEmpty()
	}
	if c.capacity > 0 {
		c.signalNotFull()
	}
	return r, true
}

// Peek returns the head item without removing it, or ok=false if empty.
// Used by the discard-oldest block policy to drop the stalest queued task.
func (c *Channel) Peek() (r runnable, ok bool) {
	c.takeLock.Lock()
	defer c.takeLock.Unlock()
	if c.count.Load() == 0 {
		return nil, false
	}
	return c.head.next.value, true
}

// DropOldest removes and discards the head item, if any, returning whether
// an item was actually dropped.
func (c *Channel) DropOldest() bool {
	c.takeLock.Lock()
	if c.count.Load() == 0 {
		c.takeLock.Unlock()
		return false
	}
	c.dequeue()
	c.takeLock.Unlock()

	c.count.Add(-1)
	if c.capacity > 0 {
		c.signalNotFull()
	}
	return true
}
