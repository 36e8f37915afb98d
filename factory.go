package logfactory

import (
	"sync"

	"github.com/iancoleman/strcase"
)

// Factory creates labeled loggers in a Container from a default transport
// configuration merged with per-call overrides.
type Factory struct {
	container *Container

	mu       sync.RWMutex
	defaults TransportConfig
}

// NewFactory returns a factory that stores loggers in container.
func NewFactory(container *Container, defaults TransportConfig) *Factory {
	return &Factory{container: container, defaults: defaults}
}

// SetDefaultTransports replaces the default transport configuration used by
// later Create calls. cfg is stored as given, not copied.
func (f *Factory) SetDefaultTransports(cfg TransportConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaults = cfg
}

// DefaultTransports returns the stored default configuration itself, not a
// copy. Changes made to it are seen by later Create calls, and must not be
// made while Create may be running.
func (f *Factory) DefaultTransports() TransportConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.defaults
}

func (f *Factory) Container() *Container { return f.container }

// Create builds a logger for category from the defaults deep-merged with
// overrides, stamps label on every transport and stores the logger in the
// container. Creating an existing category updates that logger in place.
// Overrides built with TransportConfig.ReplaceDefaults are used without the defaults.
func (f *Factory) Create(category, label string, overrides TransportConfig) (*Logger, error) {
	if category == emptyString {
		return nil, ErrCategoryRequired
	}

	cfg := mergeTransportConfig(f.DefaultTransports(), overrides)
	stampLabel(cfg, label)

	l, err := f.container.Add(category, cfg)
	if l == nil {
		return nil, err
	}
	l.decorate(label, f)
	return l, err
}

func (f *Factory) createChild(parent *Logger, childLabel string) (*Logger, error) {
	if childLabel == emptyString {
		return nil, ErrLabelRequired
	}
	category := strcase.ToLowerCamel(parent.Category() + childLabel)
	return f.Create(category, joinLabels(parent.Label(), childLabel), nil)
}

// Destroy closes the logger for category and removes it from the container.
func (f *Factory) Destroy(category string) error {
	if category == emptyString {
		return ErrCategoryRequired
	}
	return f.container.Close(category)
}

func (f *Factory) Get(category string) (*Logger, bool) {
	return f.container.Get(category)
}
