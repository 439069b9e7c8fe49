package capture

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/1broseidon/duoview/internal/logging"
)

// BlankName is the provider every lookup falls back to.
const BlankName = "blank"

// Registry maps provider names to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *log.Logger
}

// NewRegistry returns an empty registry. A nil logger discards warnings.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger,
	}
}

// DefaultRegistry returns a registry with the blank, pattern and x11
// providers.
func DefaultRegistry(logger *log.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(BlankName, BlankFactory{})
	r.Register(PatternName, PatternFactory{})
	r.Register(X11Name, &X11Factory{})
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Create opens a stream from the named provider. It never fails: unknown
// providers and factory errors are logged and answered with a blank stream.
func (r *Registry) Create(name string, cfg Config) Stream {
	f, ok := r.lookup(name)
	if !ok {
		r.warnUnknown(name)
		return newBlankStream(cfg, 0, 0)
	}
	s, err := f.Create(cfg)
	if err != nil {
		r.logger.Warn("capture provider failed, using blank", "provider", name, "panel", cfg.Panel, "err", err)
		return newBlankStream(cfg, 0, 0)
	}
	r.logger.Debug("capture stream opened", "provider", name, "panel", cfg.Panel, "id", s.ID())
	return s
}

// CreatePreview is Create for a stream of a fixed size.
func (r *Registry) CreatePreview(name string, cfg Config, width, height int) Stream {
	f, ok := r.lookup(name)
	if !ok {
		r.warnUnknown(name)
		return newBlankStream(cfg, width, height)
	}
	s, err := f.CreatePreview(cfg, width, height)
	if err != nil {
		r.logger.Warn("capture provider failed, using blank", "provider", name, "panel", cfg.Panel, "err", err)
		return newBlankStream(cfg, width, height)
	}
	return s
}

func (r *Registry) warnUnknown(name string) {
	if name == BlankName {
		return
	}
	r.logger.Warn("unknown capture provider, using blank", "provider", name)
}
