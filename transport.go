package logfactory

import (
	"io"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Constructor builds a transport from its effective option bag.
type Constructor func(opts Options) (Transport, error)

// TransportType describes a kind of transport. Resolution hands out the
// registered pointer, so two lookups that find the same type compare equal.
type TransportType struct {
	Name string
	New  Constructor
}

// Transport is one configured log destination.
type Transport interface {
	Name() string
	Label() string
	Level() zerolog.Level
	Silent() bool
	// Options returns a copy of the options the transport was built from.
	Options() Options
	// Logger returns the labeled zerolog logger writing to this destination.
	Logger() *zerolog.Logger
	Close() error
}

// CloserFunc adapts a function to io.Closer.
type CloserFunc func() error

func (f CloserFunc) Close() error { return f() }

// Base implements the Transport bookkeeping shared by every transport. Concrete
// transports embed *Base and supply the destination writer.
type Base struct {
	name    string
	options Options
	base    BaseOptions
	level   zerolog.Level
	logger  zerolog.Logger
	closer  io.Closer
	closed  atomic.Bool
}

// NewBase binds a zerolog logger for w using the common options in base.
// closer, when not nil, is called once on Close.
func NewBase(name string, opts Options, base BaseOptions, w io.Writer, closer io.Closer) (*Base, error) {
	level, err := parseLevel(base.Level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = io.Discard
	}

	ctx := zerolog.New(w).With()
	if base.Label != emptyString {
		ctx = ctx.Str(LabelFieldName, base.Label)
	}
	if base.Timestamp {
		ctx = ctx.Timestamp()
	}
	logger := ctx.Logger().Level(level)
	if base.Silent {
		logger = logger.Level(zerolog.Disabled)
	}

	return &Base{
		name:    name,
		options: opts.Clone(),
		base:    base,
		level:   level,
		logger:  logger,
		closer:  closer,
	}, nil
}

func (b *Base) Name() string         { return b.name }
func (b *Base) Label() string        { return b.base.Label }
func (b *Base) Level() zerolog.Level { return b.level }
func (b *Base) Silent() bool         { return b.base.Silent }
func (b *Base) Options() Options     { return b.options.Clone() }

// Logger returns a copy of the transport's logger; a closed transport returns a disabled one.
func (b *Base) Logger() *zerolog.Logger {
	if b.closed.Load() {
		l := zerolog.Nop()
		return &l
	}
	l := b.logger
	return &l
}

// Closed reports whether Close has been called.
func (b *Base) Closed() bool { return b.closed.Load() }

// Close releases the destination. Only the first call reaches the closer.
func (b *Base) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}
