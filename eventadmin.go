package eventadmin

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Stats is a point-in-time snapshot of the bus's internal state, exposed
// for health checks and metrics exporters. It is always derived from the
// live pools and blacklist rather than tracked separately, so it can
// never drift from what those components actually report (§4.9).
type Stats struct {
	Running             bool
	SyncPoolWorkers     int
	SyncPoolQueueLen    int
	AsyncPoolWorkers    int
	AsyncPoolQueueLen   int
	BlacklistedHandlers int
	RegisteredHandlers  int
}

// Bus is the façade every caller talks to: register handlers, post events
// asynchronously, send events synchronously, and keep it fed with live
// configuration (§4.9). It owns the two worker pools, the matcher, the
// blacklist, and the sync/async delivery engines, wiring them together
// the way the original owns its thread pools and dispatch tasks.
type Bus struct {
	mu      sync.RWMutex
	running bool

	registry  HandlerRegistry
	matcher   *Matcher
	blocklist *Blacklist

	syncPool  *Pool
	asyncPool *Pool
	syncEng   *SyncDeliveryEngine
	asyncEng  *AsyncDeliveryEngine

	cfgSource ConfigSource
	unwatch   func()
	logger    Logger
}

// Option configures a Bus at construction time.
type Option func(*busOptions)

type busOptions struct {
	registry  HandlerRegistry
	cfgSource ConfigSource
	logger    Logger
	policy    BlockPolicy
}

// WithRegistry supplies a HandlerRegistry other than the built-in
// InMemoryRegistry — for an embedder with its own plugin/service registry.
func WithRegistry(r HandlerRegistry) Option {
	return func(o *busOptions) { o.registry = r }
}

// WithConfigSource supplies a ConfigSource other than a fixed default
// snapshot.
func WithConfigSource(cs ConfigSource) Option {
	return func(o *busOptions) { o.cfgSource = cs }
}

// WithLogger supplies a Logger other than the slog-backed default.
func WithLogger(l Logger) Option {
	return func(o *busOptions) { o.logger = l }
}

// WithBlockPolicy selects the overflow policy both worker pools use when
// their queue is full (default BlockAbort).
func WithBlockPolicy(p BlockPolicy) Option {
	return func(o *busOptions) { o.policy = p }
}

// New builds a Bus and starts its worker pools. The returned Bus is
// immediately ready to accept registrations and deliveries; call Stop to
// shut it down.
func New(opts ...Option) *Bus {
	o := &busOptions{policy: BlockAbort}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = NewInMemoryRegistry()
	}
	if o.logger == nil {
		o.logger = NewSlogLogger(nil)
	}
	if o.cfgSource == nil {
		o.cfgSource = NewStaticConfigSource(DefaultConfigSnapshot())
	}

	cfg := o.cfgSource.Current()
	blocklist := NewBlacklist(o.registry)
	matcher, _ := NewMatcher(o.registry, cfg.CacheSize, cfg.RequireTopic)

	syncPool := NewPool(cfg.ThreadPoolSize, cfg.ThreadPoolSize, cfg.ThreadPoolSize*4, 60*time.Second, o.policy, o.logger)
	asyncPool := NewPool(cfg.AsyncPoolSize(), cfg.AsyncPoolSize(), cfg.AsyncPoolSize()*4, 60*time.Second, o.policy, o.logger)

	syncEng := NewSyncDeliveryEngine(syncPool, o.registry, blocklist, o.logger, cfg)
	b := &Bus{
		running:   true,
		registry:  o.registry,
		matcher:   matcher,
		blocklist: blocklist,
		syncPool:  syncPool,
		asyncPool: asyncPool,
		syncEng:   syncEng,
		asyncEng:  NewAsyncDeliveryEngine(asyncPool, o.registry, blocklist, o.logger, syncEng),
		cfgSource: o.cfgSource,
		logger:    o.logger,
	}
	b.unwatch = o.cfgSource.Watch(func(next ConfigSnapshot) {
		b.Update(next)
	})
	b.logger.Info(logTagBusStarted)
	return b
}

// Register adds a handler to the bus's registry and returns its
// registration id. masks follow §4.4's mask grammar; filterSource is an
// LDAP-style predicate string, or "" for no predicate; kind tags the
// handler for the ignore-timeout-handler-names configuration.
func (b *Bus) Register(masks []string, filterSource, kind string, cb Callback) (uint64, error) {
	for _, m := range masks {
		if !isValidMask(m) {
			return 0, ErrInvalidArgument
		}
	}
	if _, err := compileFilter(filterSource); err != nil {
		return 0, err
	}
	if reg, ok := b.registry.(*InMemoryRegistry); ok {
		return reg.Register(masks, filterSource, kind, cb), nil
	}
	return 0, ErrInvalidArgument
}

// Unregister removes a handler registration. A no-op if id is unknown or
// the registry isn't the built-in InMemoryRegistry (an external registry
// manages its own removal).
func (b *Bus) Unregister(id uint64) {
	if reg, ok := b.registry.(*InMemoryRegistry); ok {
		reg.Unregister(id)
	}
}

// PostEvent delivers event asynchronously: matched handlers run on the
// async pool and PostEvent returns before any of them complete (§4.8).
func (b *Bus) PostEvent(ctx context.Context, event Event) error {
	b.mu.RLock()
	running := b.running
	b.mu.RUnlock()
	if !running {
		return ErrShutdown
	}

	ids := b.matchLive(event)
	if len(ids) == 0 {
		return nil
	}
	return b.asyncEng.Deliver(ctx, ids, event)
}

// SendEvent delivers event synchronously: SendEvent blocks until every
// matched handler has either completed or been timed out and blacklisted
// (§4.7). Each handler's kind tag, looked up from its registration, is
// what the ignore-timeout-handler-names setting is matched against.
func (b *Bus) SendEvent(ctx context.Context, event Event) error {
	b.mu.RLock()
	running := b.running
	b.mu.RUnlock()
	if !running {
		return ErrShutdown
	}

	ids := b.matchLive(event)
	for _, id := range ids {
		kind := b.kindOf(id)
		if err := b.syncEng.Deliver(ctx, id, event, kind); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) matchLive(event Event) []uint64 {
	matched := b.matcher.Match(event)
	ids := make([]uint64, 0, len(matched))
	for _, id := range matched {
		if b.blocklist.Contains(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (b *Bus) kindOf(id uint64) string {
	if reg, ok := b.registry.(*InMemoryRegistry); ok {
		if kind, ok := reg.KindOf(id); ok {
			return kind
		}
	}
	return ""
}

// Update applies a new configuration snapshot to every live component:
// the matcher's cache sizes and require-topic flag, and the sync engine's
// timeout/nested-limit rules. Pool sizes are not resized in place — a
// pool size change takes effect for new Bus instances, consistent with
// the original's "pools are built once at startup" behaviour.
func (b *Bus) Update(cfg ConfigSnapshot) {
	cfg = cfg.Normalize()
	_ = b.matcher.Update(cfg.CacheSize, cfg.RequireTopic)
	b.syncEng.UpdateConfig(cfg)
	b.logger.Info(logTagConfigUpdated)
}

// Stats returns a snapshot of the bus's current internal state.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	running := b.running
	b.mu.RUnlock()

	registered := 0
	if reg, ok := b.registry.(*InMemoryRegistry); ok {
		registered = reg.Count()
	}

	return Stats{
		Running:             running,
		SyncPoolWorkers:     b.syncPool.Workers(),
		SyncPoolQueueLen:    b.syncPool.QueueLen(),
		AsyncPoolWorkers:    b.asyncPool.Workers(),
		AsyncPoolQueueLen:   b.asyncPool.QueueLen(),
		BlacklistedHandlers: b.blocklist.Size(),
		RegisteredHandlers:  registered,
	}
}

// Stop implements §4.9's stop(): flips the bus to stopped, shuts down
// both pools via shutdown_after_processing_queued (already-queued work
// still runs), and blocks until they've fully drained. Use StopNow for
// the non-spec immediate-abandon variant.
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	b.mu.Unlock()

	if b.unwatch != nil {
		b.unwatch()
	}
	_ = b.cfgSource.Close()
	b.syncPool.ShutdownAfterProcessingQueued()
	b.asyncPool.ShutdownAfterProcessingQueued()
	b.syncPool.AwaitTermination(0)
	b.asyncPool.AwaitTermination(0)
	b.logger.Info(logTagBusStopped)
}

// StopGraceful behaves like Stop but bounds how long it blocks waiting
// for both pools to drain, reporting whether they finished within
// timeout rather than blocking indefinitely.
func (b *Bus) StopGraceful(timeout time.Duration) bool {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return true
	}
	b.running = false
	b.mu.Unlock()

	if b.unwatch != nil {
		b.unwatch()
	}
	_ = b.cfgSource.Close()
	b.syncPool.ShutdownAfterProcessingQueued()
	b.asyncPool.ShutdownAfterProcessingQueued()

	deadline := time.Now().Add(timeout)
	syncOK := b.syncPool.AwaitTermination(time.Until(deadline))
	asyncOK := b.asyncPool.AwaitTermination(time.Until(deadline))
	b.logger.Info(logTagBusStopped)
	return syncOK && asyncOK
}

// StopNow shuts the bus down immediately: both pools are interrupted and
// any queued-but-not-yet-started deliveries are abandoned. Not part of
// §4.9's stop() contract; for callers that need to abandon in-flight
// work rather than wait for it to drain.
func (b *Bus) StopNow() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	b.mu.Unlock()

	if b.unwatch != nil {
		b.unwatch()
	}
	_ = b.cfgSource.Close()
	b.syncPool.ShutdownNow()
	b.asyncPool.ShutdownNow()
	b.logger.Info(logTagBusStopped)
}

// NewCorrelationID returns a fresh correlation identifier suitable for
// Event's PropertyMessage-adjacent bookkeeping or bridge tracing.
func NewCorrelationID() string {
	return uuid.NewString()
}
