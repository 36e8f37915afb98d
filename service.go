package logfactory

import (
	"context"
	stderrs "errors"
	"os"
	"sync"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Service owns one registry, container and factory. Independent services do
// not share any state.
type Service struct {
	Config *Config

	registry  *Registry
	container *Container
	factory   *Factory
	metrics   *Metrics
	watcher   *Watcher
	diag      zerolog.Logger
	cancel    context.CancelFunc

	mu            sync.Mutex
	initOnce      sync.Once
	initErr       error
	isInitialized atomic.Bool
}

// Registration is a transport type offered to Setup by another component.
type Registration struct {
	Type     *TransportType
	Defaults Options
}

// Imports are what other components hand to Setup.
type Imports struct {
	Transports []Registration
}

// RegisterFunc receives the outcome of Setup: an error, or the ready service.
type RegisterFunc func(err error, svc *Service)

func NewService(cfg *Config) *Service {
	return &Service{Config: cfg}
}

// Setup initializes a Service from cfg, registers the imported transport
// types and reports the result through register, which is called exactly once.
// A nil register returns ErrNilCallback and does nothing else.
func Setup(cfg *Config, imports Imports, register RegisterFunc) error {
	if register == nil {
		return ErrNilCallback
	}

	svc := NewService(cfg)
	if err := svc.Initialize(); err != nil {
		register(err, nil)
		return err
	}

	for _, r := range imports.Transports {
		if err := svc.registry.Register(r.Type, r.Defaults); err != nil {
			_ = svc.Close()
			register(err, nil)
			return err
		}
	}

	register(nil, svc)
	return nil
}

// Initialize validates the config and builds the service. It is safe to call
// more than once; later calls return the first result.
func (s *Service) Initialize() error {
	const op errors.Op = "logfactory.Service.Initialize"
	if s == nil {
		return errors.New(op).Msg(errMsgNilService)
	}

	s.initOnce.Do(func() {
		s.initErr = s.initialize()
	})
	return s.initErr
}

func (s *Service) initialize() error {
	if err := validateConfig(s.Config); err != nil {
		return err
	}
	cfg := s.Config

	s.diag = newDiagnostics(cfg)

	metrics, err := NewMetrics(cfg.Registerer)
	if err != nil {
		return err
	}
	s.metrics = metrics

	s.registry = NewRegistry(WithDiagnostics(s.diag), WithMetrics(metrics))
	s.container = NewContainer(s.registry,
		WithShutdownTimeout(time.Duration(cfg.ShutdownTimeoutMS)*time.Millisecond, cfg.ShutdownTimeoutWarning),
		WithContainerDiagnostics(s.diag),
		WithContainerMetrics(metrics),
	)

	transports := cfg.Transports
	if transports == nil {
		transports = DefaultTransportConfig()
	}
	s.factory = NewFactory(s.container, transports)

	if cfg.WatchConfig && cfg.ConfigFile != emptyString {
		if err = s.startWatcher(cfg.ConfigFile); err != nil {
			metrics.unregister()
			return err
		}
	}

	s.isInitialized.Store(true)
	return nil
}

func newDiagnostics(cfg *Config) zerolog.Logger {
	out := cfg.Diagnostics
	if out == nil {
		out = os.Stderr
	}
	level, err := parseLevel(cfg.DiagnosticLevel)
	if err != nil || cfg.DiagnosticLevel == emptyString {
		level = zerolog.WarnLevel
	}
	w := zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339}
	return zerolog.New(w).With().Timestamp().Str("component", ServiceName).Logger().Level(level)
}

func (s *Service) startWatcher(path string) error {
	load := func() (*Config, error) {
		return NewLoader(WithConfigFile(path)).Load()
	}
	onChange := func(cfg *Config) {
		s.factory.SetDefaultTransports(cfg.Transports)
		s.diag.Info().Str("path", path).Msg("default transports reloaded")
	}

	w, err := NewWatcher(path, load, onChange, s.diag)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.StartAsync(ctx)
	s.watcher = w
	s.cancel = cancel
	return nil
}

// Close destroys every logger and stops the config watcher. It is safe to
// call more than once and on a nil Service.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	if !s.isInitialized.CompareAndSwap(true, false) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.cancel != nil {
		s.cancel()
	}
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.container.CloseAll(); err != nil {
		errs = append(errs, err)
	}
	s.metrics.unregister()
	return stderrs.Join(errs...)
}

// Create is Factory().Create on an initialized service.
func (s *Service) Create(category, label string, overrides TransportConfig) (*Logger, error) {
	const op errors.Op = "logfactory.Service.Create"
	if !s.Initialized() {
		return nil, errors.New(op).Msg(errMsgNotInitialized)
	}
	return s.factory.Create(category, label, overrides)
}

// Initialized reports whether Initialize succeeded and Close has not been called.
func (s *Service) Initialized() bool {
	return s != nil && s.isInitialized.Load()
}

func (s *Service) Registry() *Registry { return s.registry }

func (s *Service) Container() *Container { return s.container }

func (s *Service) Factory() *Factory { return s.factory }

func (s *Service) Metrics() *Metrics { return s.metrics }

// Diagnostics returns the logger the service reports its own problems to.
func (s *Service) Diagnostics() zerolog.Logger { return s.diag }
