package eventadmin

import (
	"context"
	"sync"
)

type producerIDKey struct{}

// WithProducerID tags ctx with a producer identity so PostEvent calls
// issued under it are delivered in FIFO order relative to each other,
// even though they run on pool worker goroutines and different
// producers' events interleave freely (§4.8). Callers that never set one
// share a single default chain.
func WithProducerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, producerIDKey{}, id)
}

func producerIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(producerIDKey{}).(string)
	return id
}

// asyncBatch is the set of handler ids matched by one PostEvent call,
// bundled with the event and context they're delivered under.
type asyncBatch struct {
	ctx   context.Context
	event Event
	ids   []uint64
}

// asyncChain serializes the batches of handler tasks produced by
// successive PostEvent calls from one producer. Only one drain goroutine
// per chain runs at a time; a PostEvent call that finds one already
// draining just appends its batch and returns, relying on the drain loop
// to reach it in order.
type asyncChain struct {
	mu      sync.Mutex
	queue   []asyncBatch
	running bool
}

// AsyncDeliveryEngine implements §4.8's asynchronous delivery: PostEvent
// returns immediately, and the matched handlers run later on the async
// pool, in the order their producer posted them. Per original_source's
// ctkEAAsyncDeliverTasks_p.h ("This is the sync deliver tasks as this has
// all the code for timeout handling etc."), each queued handler task is
// run through the same rendezvous/timeout-protected engine the
// synchronous path uses, so a hung async handler is blacklisted instead
// of wedging its producer's chain forever.
type AsyncDeliveryEngine struct {
	pool      *Pool
	registry  HandlerRegistry
	blocklist *Blacklist
	logger    Logger
	syncEng   *SyncDeliveryEngine

	chainsMu sync.Mutex
	chains   map[string]*asyncChain
}

// NewAsyncDeliveryEngine builds an async delivery engine backed by pool,
// dispatching each handler task through syncEng so it gets the same
// timeout and blacklisting protection as a synchronous delivery.
func NewAsyncDeliveryEngine(pool *Pool, registry HandlerRegistry, blocklist *Blacklist, logger Logger, syncEng *SyncDeliveryEngine) *AsyncDeliveryEngine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &AsyncDeliveryEngine{
		pool:      pool,
		registry:  registry,
		blocklist: blocklist,
		logger:    logger,
		syncEng:   syncEng,
		chains:    make(map[string]*asyncChain),
	}
}

func (e *AsyncDeliveryEngine) kindOf(id uint64) string {
	if reg, ok := e.registry.(*InMemoryRegistry); ok {
		if kind, ok := reg.KindOf(id); ok {
			return kind
		}
	}
	return ""
}

func (e *AsyncDeliveryEngine) chainFor(producerID string) *asyncChain {
	e.chainsMu.Lock()
	defer e.chainsMu.Unlock()
	ch, ok := e.chains[producerID]
	if !ok {
		ch = &asyncChain{}
		e.chains[producerID] = ch
	}
	return ch
}

// Deliver queues one handler task per matched id, preserving the order in
// ids, and returns without waiting for any of them to run. Each task is
// later run via SyncDeliveryEngine.Deliver, undecorated by any prior
// sync-depth: it is a fresh top-level dispatch on the async pool, not a
// nested call, so it still gets full timeout/rendezvous protection. A
// handler that itself calls SendEvent only sees nested depth > 0 once
// SyncDeliveryEngine.Deliver adds it for that inner call.
func (e *AsyncDeliveryEngine) Deliver(ctx context.Context, ids []uint64, event Event) error {
	if len(ids) == 0 {
		return nil
	}

	batch := asyncBatch{ctx: context.WithValue(ctx, syncDepthKey{}, 0), event: event, ids: append([]uint64(nil), ids...)}

	ch := e.chainFor(producerIDFrom(ctx))
	ch.mu.Lock()
	ch.queue = append(ch.queue, batch)
	needsDrainer := !ch.running
	if needsDrainer {
		ch.running = true
	}
	ch.mu.Unlock()

	if !needsDrainer {
		return nil
	}
	return e.pool.Submit(func() { e.drain(ch) })
}

func (e *AsyncDeliveryEngine) drain(ch *asyncChain) {
	for {
		ch.mu.Lock()
		if len(ch.queue) == 0 {
			ch.running = false
			ch.mu.Unlock()
			return
		}
		batch := ch.queue[0]
		ch.queue = ch.queue[1:]
		ch.mu.Unlock()

		for _, id := range batch.ids {
			_ = e.syncEng.Deliver(batch.ctx, id, batch.event, e.kindOf(id))
		}
	}
}
