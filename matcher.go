package eventadmin

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// Matcher computes, for a given event, the ordered set of registration ids
// whose topic mask and predicate both match (§4.4). It keeps two
// LRU-evicted caches sized by the configuration snapshot's CacheSize: the
// compiled-filter cache (keyed by filter source text) and the per-topic
// candidate-mask cache (keyed by full event topic). Eviction never changes
// a match result, only how much work re-deriving it costs (§4.4 invariant).
type Matcher struct {
	registry HandlerRegistry

	mu           sync.RWMutex
	requireTopic bool
	filterCache  *lru.Cache
	topicCache   *lru.Cache
}

// NewMatcher builds a Matcher backed by registry, with both caches sized
// to cacheSize entries.
func NewMatcher(registry HandlerRegistry, cacheSize int, requireTopic bool) (*Matcher, error) {
	m := &Matcher{registry: registry}
	if err := m.resize(cacheSize); err != nil {
		return nil, err
	}
	m.requireTopic = requireTopic
	return m, nil
}

// Update applies a new cache size and require-topic setting. Per §4.4,
// changing cache_size invalidates nothing already cached: the caches are
// rebuilt with the new capacity and the existing entries carried over,
// oldest first, so a smaller capacity keeps the most recently used ones.
func (m *Matcher) Update(cacheSize int, requireTopic bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.resizeLocked(cacheSize); err != nil {
		return err
	}
	m.requireTopic = requireTopic
	return nil
}

func (m *Matcher) resize(cacheSize int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resizeLocked(cacheSize)
}

func (m *Matcher) resizeLocked(cacheSize int) error {
	filterCache, err := lru.New(cacheSize)
	if err != nil {
		return err
	}
	topicCache, err := lru.New(cacheSize)
	if err != nil {
		return err
	}
	if m.filterCache != nil {
		for _, k := range m.filterCache.Keys() {
			if v, ok := m.filterCache.Peek(k); ok {
				filterCache.Add(k, v)
			}
		}
		for _, k := range m.topicCache.Keys() {
			if v, ok := m.topicCache.Peek(k); ok {
				topicCache.Add(k, v)
			}
		}
	}
	m.filterCache = filterCache
	m.topicCache = topicCache
	return nil
}

// Match returns, in registry order, the ids of every live registration
// whose mask set matches event.Topic and whose predicate (if any) is
// satisfied by event.Properties. It does not consult the blacklist —
// that filtering happens where handler tasks are constructed (§4.6) so
// the matcher stays a pure function of (registry state, event).
func (m *Matcher) Match(event Event) []uint64 {
	masks := m.candidateMasks(event.Topic)

	m.mu.RLock()
	requireTopic := m.requireTopic
	m.mu.RUnlock()

	candidates := m.registry.ListMatching(masks, requireTopic)
	ids := make([]uint64, 0, len(candidates))
	for _, c := range candidates {
		f, err := m.compiledFilter(c.FilterSource)
		if err != nil {
			// A malformed predicate excludes its handler rather than
			// aborting the whole delivery; the registry's owner is
			// responsible for rejecting bad filters at registration time.
			continue
		}
		if f.Match(event.Properties) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func (m *Matcher) candidateMasks(topic string) []string {
	m.mu.RLock()
	cache := m.topicCache
	m.mu.RUnlock()

	if v, ok := cache.Get(topic); ok {
		return v.([]string)
	}
	masks := candidateMasks(topic)
	cache.Add(topic, masks)
	return masks
}

func (m *Matcher) compiledFilter(src string) (Filter, error) {
	if src == "" {
		return alwaysTrueFilter, nil
	}

	m.mu.RLock()
	cache := m.filterCache
	m.mu.RUnlock()

	if v, ok := cache.Get(src); ok {
		return v.(Filter), nil
	}
	f, err := compileFilter(src)
	if err != nil {
		return nil, err
	}
	cache.Add(src, f)
	return f, nil
}

var alwaysTrueFilter Filter = mustCompile("")

func mustCompile(src string) Filter {
	f, err := compileFilter(src)
	if err != nil {
		panic(err)
	}
	return f
}
