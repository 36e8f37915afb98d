package logfactory

// EventLogger is the structured logging surface shared by factory loggers and
// the context loggers derived from them. Every event is written to each
// transport whose level admits it.
type EventLogger interface {
	TraceWith() LogEvent
	DebugWith() LogEvent
	InfoWith() LogEvent
	WarnWith() LogEvent
	ErrorWith() LogEvent
	// FatalWith exits the process after the event is written, also when no
	// transport admits the event.
	FatalWith() LogEvent
	// PanicWith panics with the message after the event is written, also when
	// no transport admits the event.
	PanicWith() LogEvent

	// With starts a context logger whose fields are added to every event.
	// Example: reqLogger := logger.With().Str("request_id", id).Logger()
	With() LogContext
}
