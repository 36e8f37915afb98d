// Package sentry provides a logfactory transport that forwards events to Sentry.
//
// Register it with a registry to make it available to factory configurations:
//
//	reg.Register(sentry.Type, logfactory.Options{"dsn": dsn})
//
// Every event at or above the transport level becomes one Sentry event. The
// logger label is sent as the "label" tag and as the Sentry logger name; all
// other fields travel as extra data.
package sentry

import (
	"encoding/json"
	"time"

	"github.com/Station-Manager/logfactory"
	sentrygo "github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

// Name is the name the transport type registers under.
const Name = "Sentry"

const labelTag = "label"

type Options struct {
	logfactory.BaseOptions `mapstructure:",squash"`
	DSN                    string `mapstructure:"dsn"`
	Environment            string `mapstructure:"environment"`
	Release                string `mapstructure:"release"`
	FlushTimeoutMS         int    `mapstructure:"flushTimeoutMS" validate:"gte=0"`
}

func DefaultOptions() Options {
	return Options{
		BaseOptions:    logfactory.BaseOptions{Level: "error"},
		FlushTimeoutMS: 2000,
	}
}

// Option adjusts the Sentry client options before the client is created.
type Option func(*sentrygo.ClientOptions)

// WithTransport replaces the Sentry HTTP transport, for instance with a test double.
func WithTransport(t sentrygo.Transport) Option {
	return func(o *sentrygo.ClientOptions) { o.Transport = t }
}

// Type is the Sentry transport type using the default Sentry client options.
var Type = NewType()

func NewType(opts ...Option) *logfactory.TransportType {
	return &logfactory.TransportType{
		Name: Name,
		New: func(o logfactory.Options) (logfactory.Transport, error) {
			return New(o, opts...)
		},
	}
}

// Transport forwards log events to a Sentry hub of its own.
type Transport struct {
	*logfactory.Base
	cfg Options
	hub *sentrygo.Hub
}

func New(o logfactory.Options, opts ...Option) (*Transport, error) {
	cfg := DefaultOptions()
	if err := logfactory.DecodeOptions(o, &cfg); err != nil {
		return nil, err
	}

	clientOpts := sentrygo.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
	}
	for _, opt := range opts {
		opt(&clientOpts)
	}

	client, err := sentrygo.NewClient(clientOpts)
	if err != nil {
		return nil, err
	}
	hub := sentrygo.NewHub(client, sentrygo.NewScope())

	timeout := time.Duration(cfg.FlushTimeoutMS) * time.Millisecond
	closer := logfactory.CloserFunc(func() error {
		hub.Flush(timeout)
		client.Close()
		return nil
	})

	base, err := logfactory.NewBase(Name, o, cfg.BaseOptions, &eventWriter{hub: hub}, closer)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &Transport{Base: base, cfg: cfg, hub: hub}, nil
}

// Config returns the decoded Sentry options.
func (t *Transport) Config() Options { return t.cfg }

// Flush waits up to the configured flush timeout for queued events to be sent.
func (t *Transport) Flush() bool {
	return t.hub.Flush(time.Duration(t.cfg.FlushTimeoutMS) * time.Millisecond)
}

// eventWriter turns each zerolog JSON line into a Sentry event.
type eventWriter struct {
	hub *sentrygo.Hub
}

func (w *eventWriter) Write(p []byte) (int, error) {
	var fields map[string]any
	if err := json.Unmarshal(p, &fields); err != nil {
		return 0, err
	}

	event := sentrygo.NewEvent()
	event.Timestamp = time.Now()

	if lvl, ok := fields[zerolog.LevelFieldName].(string); ok {
		event.Level = sentryLevel(lvl)
		delete(fields, zerolog.LevelFieldName)
	}
	if msg, ok := fields[zerolog.MessageFieldName].(string); ok {
		event.Message = msg
		delete(fields, zerolog.MessageFieldName)
	}
	if label, ok := fields[logfactory.LabelFieldName].(string); ok && label != "" {
		event.Logger = label
		event.Tags[labelTag] = label
		delete(fields, logfactory.LabelFieldName)
	}
	delete(fields, zerolog.TimestampFieldName)

	for k, v := range fields {
		event.Extra[k] = v
	}

	w.hub.CaptureEvent(event)
	return len(p), nil
}

func sentryLevel(level string) sentrygo.Level {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return sentrygo.LevelInfo
	}
	switch l {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return sentrygo.LevelDebug
	case zerolog.WarnLevel:
		return sentrygo.LevelWarning
	case zerolog.ErrorLevel:
		return sentrygo.LevelError
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return sentrygo.LevelFatal
	default:
		return sentrygo.LevelInfo
	}
}
