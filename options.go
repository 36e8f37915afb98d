package logfactory

import (
	"github.com/Station-Manager/errors"
	"github.com/go-viper/mapstructure/v2"
)

// Options is the open option bag of a single transport: option name -> value.
// It is the form options take in configuration files, environment overrides and
// merges. Typed views are obtained with DecodeOptions.
type Options map[string]any

// Clone returns a deep copy of o.
func (o Options) Clone() Options {
	return Options(cloneTree(plainMap(o)))
}

// TransportConfig maps a transport type name to that transport's options.
// The MergeKey entry, when present, is a merge directive and is never built.
type TransportConfig map[string]Options

// Clone returns a deep copy of c.
func (c TransportConfig) Clone() TransportConfig {
	return fromTree(cloneTree(toTree(c)))
}

// Strategy returns the merge strategy requested through the MergeKey entry.
func (c TransportConfig) Strategy() string {
	directive, ok := c[MergeKey]
	if !ok {
		return emptyString
	}
	s, _ := directive[MergeStrategyKey].(string)
	return s
}

// ReplaceDefaults returns a copy of c that replaces the default transport set
// instead of being merged over it when passed to Factory.Create.
func (c TransportConfig) ReplaceDefaults() TransportConfig {
	out := c.Clone()
	if out == nil {
		out = TransportConfig{}
	}
	out[MergeKey] = Options{MergeStrategyKey: MergeReplace}
	return out
}

// BaseOptions are the options every transport understands.
type BaseOptions struct {
	Level     string `mapstructure:"level" validate:"loglevel"`
	Silent    bool   `mapstructure:"silent"`
	Label     string `mapstructure:"label"`
	Timestamp bool   `mapstructure:"timestamp"`
	JSON      bool   `mapstructure:"json"`
}

// ConsoleOptions configure the Console transport.
type ConsoleOptions struct {
	BaseOptions `mapstructure:",squash"`
	Colorize    bool   `mapstructure:"colorize"`
	Stream      string `mapstructure:"stream" validate:"oneof=stdout stderr"`
	TimeFormat  string `mapstructure:"timeFormat"`
}

// FileOptions configure the File transport. Rotation is handled by lumberjack.
type FileOptions struct {
	BaseOptions `mapstructure:",squash"`
	Filename    string `mapstructure:"filename" validate:"required"`
	MaxSizeMB   int    `mapstructure:"maxSizeMB" validate:"gte=0"`
	MaxBackups  int    `mapstructure:"maxBackups" validate:"gte=0"`
	MaxAgeDays  int    `mapstructure:"maxAgeDays" validate:"gte=0"`
	Compress    bool   `mapstructure:"compress"`
}

// MemoryOptions configure the Memory transport. A zero Capacity keeps every line.
type MemoryOptions struct {
	BaseOptions `mapstructure:",squash"`
	Capacity    int `mapstructure:"capacity" validate:"gte=0"`
}

func DefaultConsoleOptions() ConsoleOptions {
	return ConsoleOptions{
		BaseOptions: BaseOptions{Level: defaultLevel},
		Stream:      "stderr",
	}
}

func DefaultFileOptions() FileOptions {
	return FileOptions{
		BaseOptions: BaseOptions{Level: defaultLevel, JSON: true, Timestamp: true},
		MaxSizeMB:   100,
	}
}

func DefaultMemoryOptions() MemoryOptions {
	return MemoryOptions{
		BaseOptions: BaseOptions{Level: defaultLevel, JSON: true},
	}
}

// DecodeOptions decodes the option bag onto target and validates the result.
// target must be a pointer to an option struct already holding its defaults;
// keys absent from opts leave those defaults untouched. Keys the struct does
// not declare are ignored.
func DecodeOptions(opts Options, target any) error {
	const op errors.Op = "logfactory.DecodeOptions"

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           target,
		TagName:          "mapstructure",
	})
	if err != nil {
		return errors.New(op).Err(err).Msg(errMsgOptionsDecode)
	}

	if err = decoder.Decode(plainMap(opts)); err != nil {
		return errors.New(op).Err(err).Msg(errMsgOptionsDecode)
	}

	return validateOptions(target)
}
