package logfactory

import (
	stderrs "errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// transportSet is one generation of a logger's transports. A logger swaps the
// whole set when its category is re-created, so in-flight events always finish
// against the set they started on.
type transportSet struct {
	transports map[string]Transport
	names      []string
	loggers    []*zerolog.Logger
	wg         sync.WaitGroup
	active     atomic.Int64
}

func newTransportSet(transports map[string]Transport) *transportSet {
	set := &transportSet{transports: transports}
	for name := range transports {
		set.names = append(set.names, name)
	}
	sort.Strings(set.names)
	for _, name := range set.names {
		set.loggers = append(set.loggers, transports[name].Logger())
	}
	return set
}

// shutdown waits for in-flight events for at most timeout, then closes every transport.
func (s *transportSet) shutdown(timeout time.Duration, warn bool, diag zerolog.Logger) error {
	if s == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		if warn {
			diag.Warn().
				Int64("active_operations", s.active.Load()).
				Dur("timeout", timeout).
				Msg("logger shutdown timeout exceeded")
		}
	}

	var errs []error
	for _, name := range s.names {
		if err := s.transports[name].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrs.Join(errs...)
}

// loggerSettings are the container-wide knobs every logger is created with.
type loggerSettings struct {
	shutdownTimeout time.Duration
	warnOnTimeout   bool
	diag            zerolog.Logger
	metrics         *Metrics
}

// Logger is the handle for one category in a Container. It writes every event
// to all of its transports. The handle stays valid while its category is
// re-created; it stops writing once destroyed.
type Logger struct {
	id        uuid.UUID
	category  string
	settings  loggerSettings
	container *Container

	mu      sync.RWMutex
	label   string
	factory *Factory
	current *transportSet
	closed  bool
}

func newLogger(category string, set *transportSet, container *Container, settings loggerSettings) *Logger {
	return &Logger{
		id:        uuid.New(),
		category:  category,
		settings:  settings,
		container: container,
		current:   set,
	}
}

// ID identifies this materialization of the category. A logger created after
// Destroy gets a new ID.
func (l *Logger) ID() uuid.UUID { return l.id }

func (l *Logger) Category() string { return l.category }

// Label returns the label stamped on every transport, or "" when none was given.
func (l *Logger) Label() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.label
}

// Closed reports whether the logger has been destroyed.
func (l *Logger) Closed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

// Transports returns the current transports keyed by the name they were configured under.
func (l *Logger) Transports() map[string]Transport {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := map[string]Transport{}
	if l.current == nil {
		return out
	}
	for name, t := range l.current.transports {
		out[name] = t
	}
	return out
}

// Transport returns the transport configured under name.
func (l *Logger) Transport(name string) (Transport, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return nil, false
	}
	t, ok := l.current.transports[name]
	return t, ok
}

// Destroy closes the logger and removes its category from the container. It
// does nothing to a newer logger that has since taken over the category.
func (l *Logger) Destroy() error {
	if l.container == nil {
		return l.close()
	}
	return l.container.closeIf(l.category, l)
}

// CreateChild creates a logger for category+childLabel labeled
// parentLabel:childLabel. The child is built from the factory's current
// default transports; overrides given to the parent are not inherited.
func (l *Logger) CreateChild(childLabel string) (*Logger, error) {
	l.mu.RLock()
	f := l.factory
	l.mu.RUnlock()
	if f == nil {
		return nil, ErrNoFactory
	}
	return f.createChild(l, childLabel)
}

func (l *Logger) TraceWith() LogEvent { return l.event(zerolog.TraceLevel, nil, nil) }
func (l *Logger) DebugWith() LogEvent { return l.event(zerolog.DebugLevel, nil, nil) }
func (l *Logger) InfoWith() LogEvent  { return l.event(zerolog.InfoLevel, nil, nil) }
func (l *Logger) WarnWith() LogEvent  { return l.event(zerolog.WarnLevel, nil, nil) }
func (l *Logger) ErrorWith() LogEvent { return l.event(zerolog.ErrorLevel, nil, nil) }

// FatalWith returns an event that exits the process once written.
func (l *Logger) FatalWith() LogEvent { return l.event(zerolog.FatalLevel, nil, nil) }

// PanicWith returns an event that panics with its message once written.
func (l *Logger) PanicWith() LogEvent { return l.event(zerolog.PanicLevel, nil, nil) }

// With returns a LogContext for creating a context logger with pre-populated fields.
func (l *Logger) With() LogContext { return l.context(nil, nil) }

// event starts an event on set, or on the current set when set is nil. The
// in-flight counter is taken under the read lock so a concurrent swap either
// sees it or the event is never started.
func (l *Logger) event(level zerolog.Level, set *transportSet, loggers []*zerolog.Logger) LogEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed || l.current == nil {
		return unwrittenEvent(level)
	}
	if set == nil {
		set, loggers = l.current, l.current.loggers
	} else if set != l.current {
		return unwrittenEvent(level)
	}

	var events []*zerolog.Event
	for _, lg := range loggers {
		if e := lg.WithLevel(level); e != nil {
			events = append(events, e)
		}
	}
	if len(events) == 0 {
		return unwrittenEvent(level)
	}

	set.active.Inc()
	set.wg.Add(1)
	return &multiEvent{
		events:  events,
		level:   level,
		metrics: l.settings.metrics,
		done: func() {
			set.active.Dec()
			set.wg.Done()
		},
	}
}

// unwrittenEvent stands in for an event no transport accepts. Fatal and panic
// events still exit or panic, as zerolog does for disabled levels.
func unwrittenEvent(level zerolog.Level) LogEvent {
	switch level {
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return &multiEvent{level: level, done: func() {}}
	default:
		return noopEvent
	}
}

func (l *Logger) context(set *transportSet, loggers []*zerolog.Logger) LogContext {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed || l.current == nil {
		return &noopLogContext{}
	}
	if set == nil {
		set, loggers = l.current, l.current.loggers
	} else if set != l.current {
		return &noopLogContext{}
	}

	contexts := make([]zerolog.Context, len(loggers))
	for i, lg := range loggers {
		contexts[i] = lg.With()
	}
	return &logContext{contexts: contexts, owner: l, set: set}
}

func (l *Logger) decorate(label string, f *Factory) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.label = label
	l.factory = f
}

// swap installs a new transport set and returns the previous one, which the
// caller must drain.
func (l *Logger) swap(set *transportSet) *transportSet {
	l.mu.Lock()
	defer l.mu.Unlock()
	old := l.current
	l.current = set
	return old
}

// detach marks the logger closed and returns its transport set. A logger
// that is already closed returns nil.
func (l *Logger) detach() *transportSet {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	old := l.current
	l.current = nil
	return old
}

func (l *Logger) drain(set *transportSet) error {
	return set.shutdown(l.settings.shutdownTimeout, l.settings.warnOnTimeout, l.settings.diag)
}

func (l *Logger) close() error {
	return l.drain(l.detach())
}
