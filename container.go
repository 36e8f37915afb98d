package logfactory

import (
	stderrs "errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Container holds at most one live Logger per category.
type Container struct {
	registry *Registry
	settings loggerSettings

	mu      sync.Mutex
	loggers map[string]*Logger
}

type ContainerOption func(*Container)

// WithShutdownTimeout bounds how long closing a logger waits for in-flight
// events. warn controls the diagnostic logged when the bound is hit.
func WithShutdownTimeout(timeout time.Duration, warn bool) ContainerOption {
	return func(c *Container) {
		c.settings.shutdownTimeout = timeout
		c.settings.warnOnTimeout = warn
	}
}

func WithContainerDiagnostics(l zerolog.Logger) ContainerOption {
	return func(c *Container) { c.settings.diag = l }
}

func WithContainerMetrics(m *Metrics) ContainerOption {
	return func(c *Container) { c.settings.metrics = m }
}

// NewContainer returns an empty container that builds transports with registry.
func NewContainer(registry *Registry, opts ...ContainerOption) *Container {
	c := &Container{
		registry: registry,
		settings: loggerSettings{
			shutdownTimeout: defaultShutdownTimeoutMS * time.Millisecond,
			warnOnTimeout:   true,
			diag:            zerolog.Nop(),
		},
		loggers: map[string]*Logger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add builds cfg and stores the result under category. An existing logger for
// the category keeps its handle and gets the new transports; its old
// transports are closed once their in-flight events finish. Entries of cfg
// that cannot be built are skipped.
func (c *Container) Add(category string, cfg TransportConfig) (*Logger, error) {
	if category == emptyString {
		return nil, ErrCategoryRequired
	}

	// Failed entries were already reported by BuildAll.
	transports, _ := c.registry.BuildAll(cfg, emptyString)
	set := newTransportSet(transports)

	c.mu.Lock()
	l, ok := c.loggers[category]
	if !ok {
		l = newLogger(category, set, c, c.settings)
		c.loggers[category] = l
		c.settings.metrics.setLoggers(len(c.loggers))
		c.mu.Unlock()
		return l, nil
	}
	old := l.swap(set)
	c.mu.Unlock()

	return l, l.drain(old)
}

func (c *Container) Get(category string) (*Logger, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.loggers[category]
	return l, ok
}

func (c *Container) Has(category string) bool {
	_, ok := c.Get(category)
	return ok
}

// Categories returns the live categories in sorted order.
func (c *Container) Categories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.loggers))
	for category := range c.loggers {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

func (c *Container) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.loggers)
}

// Close tears down the logger for category and removes it. An unknown category is a no-op.
func (c *Container) Close(category string) error {
	return c.closeIf(category, nil)
}

// closeIf closes the logger for category when it is want, or whatever logger
// is there when want is nil. A want that is no longer stored is still closed.
func (c *Container) closeIf(category string, want *Logger) error {
	c.mu.Lock()
	l, ok := c.loggers[category]
	if ok && (want == nil || l == want) {
		delete(c.loggers, category)
		c.settings.metrics.setLoggers(len(c.loggers))
	} else {
		l = want
	}
	var set *transportSet
	if l != nil {
		set = l.detach()
	}
	c.mu.Unlock()

	if l == nil {
		return nil
	}
	return l.drain(set)
}

// CloseAll closes and removes every logger.
func (c *Container) CloseAll() error {
	c.mu.Lock()
	loggers := c.loggers
	c.loggers = map[string]*Logger{}
	c.settings.metrics.setLoggers(0)
	sets := make(map[*Logger]*transportSet, len(loggers))
	for _, l := range loggers {
		sets[l] = l.detach()
	}
	c.mu.Unlock()

	var errs []error
	for l, set := range sets {
		if err := l.drain(set); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrs.Join(errs...)
}
