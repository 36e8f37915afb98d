package logfactory

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// exitFunc is called after a fatal event has been written.
var exitFunc = os.Exit

// LogContext provides a fluent interface for building a context logger with pre-populated fields.
// Fields added through LogContext will be included in all subsequent log messages.
type LogContext interface {
	Str(key, val string) LogContext
	Strs(key string, vals []string) LogContext
	Int(key string, val int) LogContext
	Int64(key string, val int64) LogContext
	Uint64(key string, val uint64) LogContext
	Float64(key string, val float64) LogContext
	Bool(key string, val bool) LogContext
	Time(key string, val time.Time) LogContext
	Err(err error) LogContext
	Interface(key string, val interface{}) LogContext
	// Logger creates and returns the new context logger
	Logger() EventLogger
}

// LogEvent provides a fluent interface for structured logging with type-safe field methods.
// Fields are applied to the event of every transport the logger writes to.
type LogEvent interface {
	Str(key, val string) LogEvent
	Strs(key string, vals []string) LogEvent
	Stringer(key string, val fmt.Stringer) LogEvent
	Int(key string, val int) LogEvent
	Int32(key string, val int32) LogEvent
	Int64(key string, val int64) LogEvent
	Uint(key string, val uint) LogEvent
	Uint64(key string, val uint64) LogEvent
	Float32(key string, val float32) LogEvent
	Float64(key string, val float64) LogEvent
	Bool(key string, val bool) LogEvent
	Bools(key string, vals []bool) LogEvent
	Time(key string, val time.Time) LogEvent
	Dur(key string, val time.Duration) LogEvent
	Err(err error) LogEvent
	AnErr(key string, err error) LogEvent
	Bytes(key string, val []byte) LogEvent
	Hex(key string, val []byte) LogEvent
	IPAddr(key string, val net.IP) LogEvent
	Interface(key string, val interface{}) LogEvent
	Dict(key string, dict func(LogEvent)) LogEvent
	Msg(msg string)
	Msgf(format string, v ...interface{})
	Send()
}

// multiEvent applies every field to one zerolog event per transport.
// An empty multiEvent is a no-op. When done is set the event holds a slot in
// its transport set's in-flight counter until Msg, Msgf or Send is called.
type multiEvent struct {
	events   []*zerolog.Event
	level    zerolog.Level
	done     func()
	metrics  *Metrics
	finished atomic.Bool
}

var noopEvent = &multiEvent{}

func (e *multiEvent) each(fn func(*zerolog.Event)) LogEvent {
	for _, ev := range e.events {
		fn(ev)
	}
	return e
}

func (e *multiEvent) Str(key, val string) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Str(key, val) })
}

func (e *multiEvent) Strs(key string, vals []string) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Strs(key, vals) })
}

func (e *multiEvent) Stringer(key string, val fmt.Stringer) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Stringer(key, val) })
}

func (e *multiEvent) Int(key string, val int) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Int(key, val) })
}

func (e *multiEvent) Int32(key string, val int32) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Int32(key, val) })
}

func (e *multiEvent) Int64(key string, val int64) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Int64(key, val) })
}

func (e *multiEvent) Uint(key string, val uint) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Uint(key, val) })
}

func (e *multiEvent) Uint64(key string, val uint64) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Uint64(key, val) })
}

func (e *multiEvent) Float32(key string, val float32) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Float32(key, val) })
}

func (e *multiEvent) Float64(key string, val float64) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Float64(key, val) })
}

func (e *multiEvent) Bool(key string, val bool) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Bool(key, val) })
}

func (e *multiEvent) Bools(key string, vals []bool) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Bools(key, vals) })
}

func (e *multiEvent) Time(key string, val time.Time) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Time(key, val) })
}

func (e *multiEvent) Dur(key string, val time.Duration) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Dur(key, val) })
}

// Err adds the error under "error" plus its cause chain: error_chain,
// error_root, error_history, error_ops and error_root_op.
func (e *multiEvent) Err(err error) LogEvent {
	if len(e.events) == 0 {
		return e
	}
	e.each(func(ev *zerolog.Event) { ev.Err(err) })
	return e.chain(zerolog.ErrorFieldName, err)
}

// AnErr is Err under a caller-chosen key; chain fields are prefixed with key.
func (e *multiEvent) AnErr(key string, err error) LogEvent {
	if len(e.events) == 0 {
		return e
	}
	e.each(func(ev *zerolog.Event) { ev.AnErr(key, err) })
	return e.chain(key, err)
}

func (e *multiEvent) chain(key string, err error) LogEvent {
	if err == nil {
		return e
	}
	chain, ops, root, rootOp := buildErrorChain(err)
	if len(chain) == 0 {
		return e
	}
	history := joinChain(chain)
	return e.each(func(ev *zerolog.Event) {
		ev.Strs(key+"_chain", chain)
		ev.Str(key+"_root", root)
		ev.Str(key+"_history", history)
		ev.Strs(key+"_ops", ops)
		if rootOp != emptyString {
			ev.Str(key+"_root_op", rootOp)
		}
	})
}

func (e *multiEvent) Bytes(key string, val []byte) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Bytes(key, val) })
}

func (e *multiEvent) Hex(key string, val []byte) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Hex(key, val) })
}

func (e *multiEvent) IPAddr(key string, val net.IP) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.IPAddr(key, val) })
}

func (e *multiEvent) Interface(key string, val interface{}) LogEvent {
	return e.each(func(ev *zerolog.Event) { ev.Interface(key, val) })
}

// Dict for nested objects
func (e *multiEvent) Dict(key string, dict func(LogEvent)) LogEvent {
	if len(e.events) == 0 {
		return e
	}
	dicts := make([]*zerolog.Event, len(e.events))
	for i := range dicts {
		dicts[i] = zerolog.Dict()
	}
	dict(&multiEvent{events: dicts})
	for i, ev := range e.events {
		ev.Dict(key, dicts[i])
	}
	return e
}

func (e *multiEvent) Msg(msg string) {
	e.finish(func() { e.each(func(ev *zerolog.Event) { ev.Msg(msg) }) }, msg)
}

func (e *multiEvent) Msgf(format string, v ...interface{}) {
	e.Msg(fmt.Sprintf(format, v...))
}

func (e *multiEvent) Send() {
	e.finish(func() { e.each(func(ev *zerolog.Event) { ev.Send() }) }, emptyString)
}

// finish writes the event once, releases the in-flight slot and then applies
// fatal or panic semantics.
func (e *multiEvent) finish(write func(), msg string) {
	if e.done == nil {
		write()
		return
	}
	if !e.finished.CompareAndSwap(false, true) {
		return
	}
	func() {
		defer e.done()
		write()
	}()
	e.metrics.eventWritten(e.level)

	switch e.level {
	case zerolog.FatalLevel:
		exitFunc(1)
	case zerolog.PanicLevel:
		panic(msg)
	}
}

// logContext builds one zerolog.Context per transport of the owning logger.
type logContext struct {
	contexts []zerolog.Context
	owner    *Logger
	set      *transportSet
}

func (c *logContext) apply(fn func(zerolog.Context) zerolog.Context) LogContext {
	for i := range c.contexts {
		c.contexts[i] = fn(c.contexts[i])
	}
	return c
}

func (c *logContext) Str(key, val string) LogContext {
	return c.apply(func(ctx zerolog.Context) zerolog.Context { return ctx.Str(key, val) })
}

func (c *logContext) Strs(key string, vals []string) LogContext {
	return c.apply(func(ctx zerolog.Context) zerolog.Context { return ctx.Strs(key, vals) })
}

func (c *logContext) Int(key string, val int) LogContext {
	return c.apply(func(ctx zerolog.Context) zerolog.Context { return ctx.Int(key, val) })
}

func (c *logContext) Int64(key string, val int64) LogContext {
	return c.apply(func(ctx zerolog.Context) zerolog.Context { return ctx.Int64(key, val) })
}

func (c *logContext) Uint64(key string, val uint64) LogContext {
	return c.apply(func(ctx zerolog.Context) zerolog.Context { return ctx.Uint64(key, val) })
}

func (c *logContext) Float64(key string, val float64) LogContext {
	return c.apply(func(ctx zerolog.Context) zerolog.Context { return ctx.Float64(key, val) })
}

func (c *logContext) Bool(key string, val bool) LogContext {
	return c.apply(func(ctx zerolog.Context) zerolog.Context { return ctx.Bool(key, val) })
}

func (c *logContext) Time(key string, val time.Time) LogContext {
	return c.apply(func(ctx zerolog.Context) zerolog.Context { return ctx.Time(key, val) })
}

func (c *logContext) Err(err error) LogContext {
	return c.apply(func(ctx zerolog.Context) zerolog.Context { return ctx.Err(err) })
}

func (c *logContext) Interface(key string, val interface{}) LogContext {
	return c.apply(func(ctx zerolog.Context) zerolog.Context { return ctx.Interface(key, val) })
}

func (c *logContext) Logger() EventLogger {
	loggers := make([]*zerolog.Logger, len(c.contexts))
	for i, ctx := range c.contexts {
		l := ctx.Logger()
		loggers[i] = &l
	}
	return &contextLogger{owner: c.owner, set: c.set, loggers: loggers}
}

// contextLogger writes through loggers derived from one transport set of its
// owner. Once the owner swaps or closes that set the context logger goes quiet.
type contextLogger struct {
	owner   *Logger
	set     *transportSet
	loggers []*zerolog.Logger
}

func (cl *contextLogger) TraceWith() LogEvent {
	return cl.owner.event(zerolog.TraceLevel, cl.set, cl.loggers)
}
func (cl *contextLogger) DebugWith() LogEvent {
	return cl.owner.event(zerolog.DebugLevel, cl.set, cl.loggers)
}
func (cl *contextLogger) InfoWith() LogEvent {
	return cl.owner.event(zerolog.InfoLevel, cl.set, cl.loggers)
}
func (cl *contextLogger) WarnWith() LogEvent {
	return cl.owner.event(zerolog.WarnLevel, cl.set, cl.loggers)
}
func (cl *contextLogger) ErrorWith() LogEvent {
	return cl.owner.event(zerolog.ErrorLevel, cl.set, cl.loggers)
}
func (cl *contextLogger) FatalWith() LogEvent {
	return cl.owner.event(zerolog.FatalLevel, cl.set, cl.loggers)
}
func (cl *contextLogger) PanicWith() LogEvent {
	return cl.owner.event(zerolog.PanicLevel, cl.set, cl.loggers)
}
func (cl *contextLogger) With() LogContext {
	return cl.owner.context(cl.set, cl.loggers)
}

// noopLogContext is a no-op implementation of LogContext
type noopLogContext struct{}

func (n *noopLogContext) Str(key, val string) LogContext             { return n }
func (n *noopLogContext) Strs(key string, vals []string) LogContext  { return n }
func (n *noopLogContext) Int(key string, val int) LogContext         { return n }
func (n *noopLogContext) Int64(key string, val int64) LogContext     { return n }
func (n *noopLogContext) Uint64(key string, val uint64) LogContext   { return n }
func (n *noopLogContext) Float64(key string, val float64) LogContext { return n }
func (n *noopLogContext) Bool(key string, val bool) LogContext       { return n }
func (n *noopLogContext) Time(key string, val time.Time) LogContext  { return n }
func (n *noopLogContext) Err(err error) LogContext                   { return n }
func (n *noopLogContext) Interface(key string, val interface{}) LogContext {
	return n
}
func (n *noopLogContext) Logger() EventLogger { return &noopLogger{} }

// noopLogger is a no-op implementation of EventLogger
type noopLogger struct{}

func (n *noopLogger) TraceWith() LogEvent { return noopEvent }
func (n *noopLogger) DebugWith() LogEvent { return noopEvent }
func (n *noopLogger) InfoWith() LogEvent  { return noopEvent }
func (n *noopLogger) WarnWith() LogEvent  { return noopEvent }
func (n *noopLogger) ErrorWith() LogEvent { return noopEvent }
func (n *noopLogger) FatalWith() LogEvent { return unwrittenEvent(zerolog.FatalLevel) }
func (n *noopLogger) PanicWith() LogEvent { return unwrittenEvent(zerolog.PanicLevel) }
func (n *noopLogger) With() LogContext    { return &noopLogContext{} }
