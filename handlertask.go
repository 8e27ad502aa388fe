package eventadmin

import (
	"context"
	"fmt"
)

// HandlerTask is the one-shot unit of work executed on a pool worker for a
// single (registration id, event) pair (§4.6). It is responsible for the
// full lifecycle of one delivery attempt: skip if blacklisted, resolve the
// live callback, run it, and blacklist the registration permanently if it
// panics or returns an error.
type HandlerTask struct {
	id       uint64
	event    Event
	registry HandlerRegistry
	blockers *Blacklist
	logger   Logger
}

// NewHandlerTask builds a task bound to id and event, resolved against
// registry and blocklist at execution time (not construction time), so a
// registration unregistered after the matcher ran but before the task
// executes is handled as a no-op rather than a stale pointer.
func NewHandlerTask(id uint64, event Event, registry HandlerRegistry, blocklist *Blacklist, logger Logger) *HandlerTask {
	if logger == nil {
		logger = noopLogger{}
	}
	return &HandlerTask{id: id, event: event, registry: registry, blockers: blocklist, logger: logger}
}

// Run executes the task. It never returns an error to the caller: a
// missing or blacklisted registration is a silent no-op (§9 Open Question
// resolution), and a callback failure is recorded via blacklisting plus a
// log line rather than propagated, since there is no caller left to
// receive it once the task has been handed to a pool worker.
func (t *HandlerTask) Run(ctx context.Context) {
	if t.blockers != nil && t.blockers.Contains(t.id) {
		return
	}

	cb, ok := t.registry.Resolve(t.id)
	if !ok {
		return
	}

	if err := t.invoke(ctx, cb); err != nil {
		t.logger.Error(logTagHandlerError, "registration_id", t.id, "topic", t.event.Topic, "error", err)
		if t.blockers != nil {
			t.blockers.Add(t.id)
			t.logger.Warn(logTagHandlerBlacklisted, "registration_id", t.id)
		}
	}
}

// invoke runs cb, converting a panic into an error so a misbehaving
// handler can never take down the worker goroutine running it.
func (t *HandlerTask) invoke(ctx context.Context, cb Callback) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return cb(ctx, t.event)
}
