package eventadmin

import "time"

// Defaults and floors applied by ConfigSnapshot.Normalize, per §5.
const (
	DefaultCacheSize      = 30
	MinCacheSize          = 10
	DefaultThreadPoolSize = 20
	MinThreadPoolSize     = 2
	MinSyncTimeoutMS      = 100
	DefaultLogLevel       = "warn"
)

// ConfigSnapshot is the bus's entire tunable surface, decoded from YAML or
// TOML and re-applied atomically on every file change (§5). Every field
// has a documented default and floor so a partially-specified file still
// produces a usable configuration.
type ConfigSnapshot struct {
	// CacheSize bounds the matcher's filter-string and per-topic mask
	// caches. Floored to MinCacheSize.
	CacheSize int `json:"cache_size" yaml:"cache_size" toml:"cache_size"`

	// ThreadPoolSize is the sync-delivery pool's core and max worker
	// count. Floored to MinThreadPoolSize. The async-delivery pool is
	// sized to max(ThreadPoolSize/2, 2), never independently configured.
	ThreadPoolSize int `json:"thread_pool_size" yaml:"thread_pool_size" toml:"thread_pool_size"`

	// TimeoutMS bounds how long SendEvent waits for a handler before
	// blacklisting it. Values below MinSyncTimeoutMS disable the timeout
	// entirely (handlers always run to completion).
	TimeoutMS int `json:"timeout_ms" yaml:"timeout_ms" toml:"timeout_ms"`

	// RequireTopic, when true (the default), excludes handlers that
	// registered with no topic mask from ever matching an event.
	RequireTopic bool `json:"require_topic" yaml:"require_topic" toml:"require_topic"`

	// IgnoreTimeoutHandlerNames lists handler kind tags exempted from
	// the sync-delivery timeout regardless of TimeoutMS.
	IgnoreTimeoutHandlerNames []string `json:"ignore_timeout_handler_names" yaml:"ignore_timeout_handler_names" toml:"ignore_timeout_handler_names"`

	// NestedSendLimit bounds how many SendEvent calls may nest within
	// one another (a handler synchronously sending another event whose
	// handler does the same). Zero means unlimited.
	NestedSendLimit int `json:"nested_send_limit" yaml:"nested_send_limit" toml:"nested_send_limit"`

	// LogLevel names a minimum log level; Normalize defaults it to
	// DefaultLogLevel. The default slog adapter does not read it: what it
	// emits is decided by the wrapped slog.Logger's handler.
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// Normalize returns a copy of c with every floor and default applied, so
// callers never have to special-case a zero-value field.
func (c ConfigSnapshot) Normalize() ConfigSnapshot {
	out := c
	if out.CacheSize <= 0 {
		out.CacheSize = DefaultCacheSize
	}
	if out.CacheSize < MinCacheSize {
		out.CacheSize = MinCacheSize
	}
	if out.ThreadPoolSize <= 0 {
		out.ThreadPoolSize = DefaultThreadPoolSize
	}
	if out.ThreadPoolSize < MinThreadPoolSize {
		out.ThreadPoolSize = MinThreadPoolSize
	}
	if out.LogLevel == "" {
		out.LogLevel = DefaultLogLevel
	}
	out.IgnoreTimeoutHandlerNames = append([]string(nil), out.IgnoreTimeoutHandlerNames...)
	return out
}

// AsyncPoolSize is the derived worker count for the async-delivery pool.
func (c ConfigSnapshot) AsyncPoolSize() int {
	n := c.ThreadPoolSize / 2
	if n < 2 {
		n = 2
	}
	return n
}

// SyncTimeout returns the effective sync-delivery deadline duration, or 0
// if the timeout is disabled (TimeoutMS below MinSyncTimeoutMS).
func (c ConfigSnapshot) SyncTimeout() time.Duration {
	if c.TimeoutMS < MinSyncTimeoutMS {
		return 0
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// IgnoresTimeoutFor reports whether kind is exempted from the sync
// delivery timeout.
func (c ConfigSnapshot) IgnoresTimeoutFor(kind string) bool {
	for _, name := range c.IgnoreTimeoutHandlerNames {
		if name == kind {
			return true
		}
	}
	return false
}

// DefaultConfigSnapshot returns a fully-normalized snapshot using only
// defaults, suitable as a fallback before the first ConfigSource read.
func DefaultConfigSnapshot() ConfigSnapshot {
	return ConfigSnapshot{
		RequireTopic: true,
	}.Normalize()
}
