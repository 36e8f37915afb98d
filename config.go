package logfactory

import (
	"fmt"
	"io"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	koanfenv "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Config configures a Service.
type Config struct {
	// Transports is the default transport configuration every Create starts from.
	Transports             TransportConfig `koanf:"transports" yaml:"transports"`
	DiagnosticLevel        string          `koanf:"diagnosticLevel" yaml:"diagnosticLevel" validate:"loglevel"`
	ShutdownTimeoutMS      int             `koanf:"shutdownTimeoutMS" yaml:"shutdownTimeoutMS" validate:"gte=0"`
	ShutdownTimeoutWarning bool            `koanf:"shutdownTimeoutWarning" yaml:"shutdownTimeoutWarning"`
	ConfigFile             string          `koanf:"configFile" yaml:"configFile,omitempty"`
	// WatchConfig reloads Transports whenever ConfigFile changes.
	WatchConfig bool `koanf:"watchConfig" yaml:"watchConfig"`

	// Diagnostics receives the factory's own warnings. Defaults to stderr.
	Diagnostics io.Writer `koanf:"-" yaml:"-"`
	// Registerer receives the factory's metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer `koanf:"-" yaml:"-"`
}

// DefaultTransportConfig is a single console transport with its default options.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{"console": Options{}}
}

func DefaultConfig() *Config {
	return &Config{
		Transports:             DefaultTransportConfig(),
		DiagnosticLevel:        defaultDiagnosticLevel,
		ShutdownTimeoutMS:      defaultShutdownTimeoutMS,
		ShutdownTimeoutWarning: true,
	}
}

func defaultsMap() map[string]any {
	return map[string]any{
		"diagnosticLevel":        defaultDiagnosticLevel,
		"shutdownTimeoutMS":      defaultShutdownTimeoutMS,
		"shutdownTimeoutWarning": true,
	}
}

// envKeys restores the spelling of top-level keys that environment variable
// names cannot carry.
var envKeys = map[string]string{
	"diagnosticlevel":        "diagnosticLevel",
	"shutdowntimeoutms":      "shutdownTimeoutMS",
	"shutdowntimeoutwarning": "shutdownTimeoutWarning",
	"configfile":             "configFile",
	"watchconfig":            "watchConfig",
}

// Loader layers configuration sources. Later sources override earlier ones:
//  1. built-in defaults
//  2. the YAML config file, if any
//  3. environment variables
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
}

type LoaderOption func(*Loader)

func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

func WithConfigFile(path string) LoaderOption {
	return func(l *Loader) {
		l.filePath = path
	}
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: defaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every source and returns the resulting Config. Transports falls
// back to DefaultTransportConfig when no source names any.
func (l *Loader) Load() (*Config, error) {
	if err := l.k.Load(mapProvider(defaultsMap()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if l.filePath != emptyString {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load file %s: %w", l.filePath, err)
		}
	}

	// LOGFACTORY_TRANSPORTS_CONSOLE_LEVEL -> transports.console.level
	transform := func(s string) string {
		s = strings.TrimPrefix(s, l.envPrefix)
		s = strings.ToLower(s)
		if key, ok := envKeys[s]; ok {
			return key
		}
		return strings.ReplaceAll(s, "_", ".")
	}
	if err := l.k.Load(koanfenv.Provider(l.envPrefix, ".", transform), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := l.k.Unmarshal(emptyString, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Transports == nil {
		cfg.Transports = DefaultTransportConfig()
	}
	if cfg.ConfigFile == emptyString {
		cfg.ConfigFile = l.filePath
	}
	return cfg, nil
}

// LoadConfig loads the Config from defaults, the config file and the
// environment. Process knobs read by LoadEnv pick the file when no
// WithConfigFile option is given and override the diagnostic level and
// watch flag.
func LoadConfig(opts ...LoaderOption) (*Config, error) {
	knobs, err := LoadEnv()
	if err != nil {
		return nil, err
	}

	if knobs.ConfigFile != emptyString {
		opts = append([]LoaderOption{WithConfigFile(knobs.ConfigFile)}, opts...)
	}

	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		return nil, err
	}

	if knobs.DiagnosticLevel != emptyString {
		cfg.DiagnosticLevel = knobs.DiagnosticLevel
	}
	if knobs.Watch {
		cfg.WatchConfig = true
	}
	if err = validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnvConfig are process-level knobs read from LOGFACTORY_* variables.
type EnvConfig struct {
	ConfigFile      string `env:"CONFIG_FILE"`
	DiagnosticLevel string `env:"DIAGNOSTIC_LEVEL"`
	Watch           bool   `env:"WATCH"`
}

func LoadEnv() (EnvConfig, error) {
	var knobs EnvConfig
	if err := env.ParseWithOptions(&knobs, env.Options{Prefix: defaultEnvPrefix}); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return knobs, nil
}

// mapProvider serves an in-memory map as a koanf provider.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("map provider does not support ReadBytes")
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
