package eventadmin

import (
	"context"
	"sync/atomic"
	"time"
)

type syncDepthKey struct{}

// withSyncDepth returns a context recording one more level of nested
// synchronous delivery. Used instead of per-goroutine state because a
// handler's nested SendEvent call runs on the same goroutine (inline) or
// a pool worker goroutine (timed) depending on configuration — the
// context is the one thing that reliably flows through both paths.
func withSyncDepth(ctx context.Context) context.Context {
	return context.WithValue(ctx, syncDepthKey{}, syncDepth(ctx)+1)
}

func syncDepth(ctx context.Context) int {
	d, _ := ctx.Value(syncDepthKey{}).(int)
	return d
}

// SyncDeliveryEngine implements §4.7's synchronous delivery: run the
// handler and block the caller until it finishes, a configured timeout
// elapses, or (nested) the call is executed inline on the caller's own
// goroutine. A timed-out handler is blacklisted and the caller is freed
// without waiting for it; the handler's own eventual completion then
// passes straight through the latched rendezvous rather than blocking.
type SyncDeliveryEngine struct {
	pool      *Pool
	registry  HandlerRegistry
	blocklist *Blacklist
	logger    Logger

	cfg atomic.Value // ConfigSnapshot
}

// NewSyncDeliveryEngine builds a sync delivery engine backed by pool for
// timed dispatch, registry/blocklist for handler resolution, and an
// initial configuration snapshot.
func NewSyncDeliveryEngine(pool *Pool, registry HandlerRegistry, blocklist *Blacklist, logger Logger, cfg ConfigSnapshot) *SyncDeliveryEngine {
	if logger == nil {
		logger = noopLogger{}
	}
	e := &SyncDeliveryEngine{pool: pool, registry: registry, blocklist: blocklist, logger: logger}
	e.cfg.Store(cfg)
	return e
}

// UpdateConfig swaps in a new configuration snapshot, taking effect for
// every Deliver call made after this returns.
func (e *SyncDeliveryEngine) UpdateConfig(cfg ConfigSnapshot) {
	e.cfg.Store(cfg)
}

func (e *SyncDeliveryEngine) config() ConfigSnapshot {
	return e.cfg.Load().(ConfigSnapshot)
}

// Deliver runs the handler registered as id against event, applying the
// sync-timeout and nested-send-limit rules for kind.
func (e *SyncDeliveryEngine) Deliver(ctx context.Context, id uint64, event Event, kind string) error {
	cfg := e.config()
	depth := syncDepth(ctx)

	if cfg.NestedSendLimit > 0 && depth >= cfg.NestedSendLimit {
		return ErrNestedSendLimitExceeded
	}

	timeout := cfg.SyncTimeout()
	nested := depth > 0
	if timeout == 0 || nested || cfg.IgnoresTimeoutFor(kind) {
		task := NewHandlerTask(id, event, e.registry, e.blocklist, e.logger)
		task.Run(withSyncDepth(ctx))
		return nil
	}

	rendezvous := NewRendezvous()
	nestedCtx := withSyncDepth(ctx)
	submitErr := e.pool.Submit(func() {
		task := NewHandlerTask(id, event, e.registry, e.blocklist, e.logger)
		task.Run(nestedCtx)
		rendezvous.Meet()
	})
	if submitErr != nil {
		return submitErr
	}

	deadline := time.Now().Add(timeout)
	timedOut, err := rendezvous.MeetWithTimeout(deadline)
	if err != nil {
		return err
	}
	if timedOut {
		e.blocklist.Add(id)
		e.logger.Warn(logTagHandlerTimedOut, "registration_id", id, "topic", event.Topic)
	}
	return nil
}
