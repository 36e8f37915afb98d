package logfactory

import stderrs "errors"

const (
	// ServiceName is the DI/service locator name for the logger factory service.
	ServiceName = "logfactory"
	emptyString = ""
)

const (
	// MergeKey is the reserved TransportConfig key that carries merge directives.
	// It is never resolved as a transport.
	MergeKey = "$merge"
	// MergeStrategyKey is the option inside the MergeKey entry naming the strategy.
	MergeStrategyKey = "strategy"
	// MergeReplace makes an override set replace the default set instead of merging over it.
	MergeReplace = "replace"

	// LabelOption is the option every transport receives its label through.
	LabelOption = "label"
	// LabelFieldName is the event field carrying a transport's label.
	LabelFieldName = "label"
	// CategoryFieldName is the event field carrying the logger category.
	CategoryFieldName = "category"

	childLabelSeparator = ":"
)

const (
	defaultLevel             = "info"
	defaultDiagnosticLevel   = "warn"
	defaultShutdownTimeoutMS = 500
	defaultEnvPrefix         = "LOGFACTORY_"
)

const (
	errMsgNilConfig      = "Logger factory config is nil."
	errMsgNilService     = "Logger factory service is nil."
	errMsgConfigInvalid  = "Logger factory configuration is invalid."
	errMsgOptionsInvalid = "Transport options are invalid."
	errMsgOptionsDecode  = "Transport options could not be decoded."
	errMsgNotInitialized = "Logger factory service is not initialized."
)

var (
	// ErrNotSupported is returned when a transport name resolves to nothing.
	ErrNotSupported = stderrs.New("transport not supported")
	// ErrCategoryRequired is returned when a logger operation is given no category.
	ErrCategoryRequired = stderrs.New("must provide a category for the logger")
	// ErrLabelRequired is returned when a child logger is requested without a label.
	ErrLabelRequired = stderrs.New("must provide a label for the child logger")
	// ErrNilCallback is returned by Setup when no completion callback is given.
	ErrNilCallback = stderrs.New("setup requires a completion callback")
	// ErrInvalidTransportType is returned when registering an incomplete transport type.
	ErrInvalidTransportType = stderrs.New("transport type must have a name and a constructor")
	// ErrNoFactory is returned by CreateChild on a logger that was not created by a Factory.
	ErrNoFactory = stderrs.New("logger was not created by a factory")
)
