package eventadmin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ConfigSource supplies the bus's current ConfigSnapshot and notifies
// subscribers whenever it changes, per §5's live-reload requirement.
type ConfigSource interface {
	Current() ConfigSnapshot
	// Watch registers fn to be called with every subsequent snapshot.
	// Watch does not itself invoke fn with the current snapshot; callers
	// that need the initial value should call Current first.
	Watch(fn func(ConfigSnapshot)) (unsubscribe func())
	Close() error
}

// StaticConfigSource is a ConfigSource that never changes, useful for
// tests and for embedders that manage configuration some other way.
type StaticConfigSource struct {
	snapshot ConfigSnapshot
}

// NewStaticConfigSource wraps a fixed, normalized snapshot.
func NewStaticConfigSource(snapshot ConfigSnapshot) *StaticConfigSource {
	return &StaticConfigSource{snapshot: snapshot.Normalize()}
}

func (s *StaticConfigSource) Current() ConfigSnapshot                          { return s.snapshot }
func (s *StaticConfigSource) Watch(func(ConfigSnapshot)) (unsubscribe func()) { return func() {} }
func (s *StaticConfigSource) Close() error                                    { return nil }

// FileConfigSource decodes a ConfigSnapshot from a YAML or TOML file
// (selected by extension) and re-decodes it whenever fsnotify reports the
// file changed, broadcasting the new snapshot to every watcher.
type FileConfigSource struct {
	path string

	mu       sync.RWMutex
	current  atomic.Value // ConfigSnapshot
	watchers map[int]func(ConfigSnapshot)
	nextID   int
	watcherMu sync.Mutex

	fsWatcher *fsnotify.Watcher
	logger    Logger
	done      chan struct{}
}

// NewFileConfigSource loads path immediately and starts watching it for
// changes. The returned source must be Close()d to stop the watcher
// goroutine.
func NewFileConfigSource(path string, logger Logger) (*FileConfigSource, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	snapshot, err := decodeConfigFile(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("eventadmin: creating config watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("eventadmin: watching config directory: %w", err)
	}

	s := &FileConfigSource{
		path:      path,
		watchers:  make(map[int]func(ConfigSnapshot)),
		fsWatcher: fw,
		logger:    logger,
		done:      make(chan struct{}),
	}
	s.current.Store(snapshot)
	go s.watchLoop()
	return s, nil
}

func decodeConfigFile(path string) (ConfigSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ConfigSnapshot{}, fmt.Errorf("eventadmin: reading config file: %w", err)
	}

	raw := ConfigSnapshot{RequireTopic: true}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return ConfigSnapshot{}, fmt.Errorf("eventadmin: parsing yaml config: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return ConfigSnapshot{}, fmt.Errorf("eventadmin: parsing toml config: %w", err)
		}
	default:
		return ConfigSnapshot{}, fmt.Errorf("eventadmin: unsupported config extension %q", ext)
	}
	return raw.Normalize(), nil
}

func (s *FileConfigSource) watchLoop() {
	for {
		select {
		case ev, ok := <-s.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			snapshot, err := decodeConfigFile(s.path)
			if err != nil {
				s.logger.Error(logTagConfigUpdated, "error", err)
				continue
			}
			s.current.Store(snapshot)
			s.broadcast(snapshot)
		case err, ok := <-s.fsWatcher.Errors:
			if !ok {
				return
			}
			s.logger.Error(logTagConfigUpdated, "watcher_error", err)
		case <-s.done:
			return
		}
	}
}

func (s *FileConfigSource) broadcast(snapshot ConfigSnapshot) {
	s.watcherMu.Lock()
	fns := make([]func(ConfigSnapshot), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.watcherMu.Unlock()
	for _, fn := range fns {
		fn(snapshot)
	}
}

// Current implements ConfigSource.
func (s *FileConfigSource) Current() ConfigSnapshot {
	return s.current.Load().(ConfigSnapshot)
}

// Watch implements ConfigSource.
func (s *FileConfigSource) Watch(fn func(ConfigSnapshot)) (unsubscribe func()) {
	s.watcherMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.watcherMu.Unlock()

	return func() {
		s.watcherMu.Lock()
		delete(s.watchers, id)
		s.watcherMu.Unlock()
	}
}

// Close stops the background watcher goroutine.
func (s *FileConfigSource) Close() error {
	close(s.done)
	return s.fsWatcher.Close()
}
