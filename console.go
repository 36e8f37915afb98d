package logfactory

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ConsoleName is the registered name of the built-in console transport.
const ConsoleName = "Console"

// Console writes to the process's standard streams.
var Console = NewConsoleType(os.Stdout, os.Stderr)

// NewConsoleType returns a console transport type bound to the given streams
// instead of the process's own. Tests use it to capture console output.
func NewConsoleType(stdout, stderr io.Writer) *TransportType {
	return &TransportType{
		Name: ConsoleName,
		New: func(opts Options) (Transport, error) {
			return newConsoleTransport(opts, stdout, stderr)
		},
	}
}

// ConsoleTransport renders events with zerolog.ConsoleWriter, or as raw JSON lines when json is set.
type ConsoleTransport struct {
	*Base
	cfg ConsoleOptions
}

func newConsoleTransport(opts Options, stdout, stderr io.Writer) (*ConsoleTransport, error) {
	cfg := DefaultConsoleOptions()
	if err := DecodeOptions(opts, &cfg); err != nil {
		return nil, err
	}

	out := stderr
	if cfg.Stream == "stdout" {
		out = stdout
	}

	var w io.Writer = out
	if !cfg.JSON {
		w = consoleWriter(out, cfg)
	}

	base, err := NewBase(ConsoleName, opts, cfg.BaseOptions, w, nil)
	if err != nil {
		return nil, err
	}
	return &ConsoleTransport{Base: base, cfg: cfg}, nil
}

// Config returns the decoded console options.
func (c *ConsoleTransport) Config() ConsoleOptions { return c.cfg }

func consoleWriter(out io.Writer, cfg ConsoleOptions) zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{
		Out:           out,
		NoColor:       !cfg.Colorize,
		TimeFormat:    cfg.TimeFormat,
		FieldsExclude: []string{LabelFieldName},
	}
	if !cfg.Timestamp {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	if label := cfg.Label; label != emptyString {
		cw.FormatMessage = func(i interface{}) string {
			if i == nil {
				return "[" + label + "]"
			}
			return fmt.Sprintf("[%s] %v", label, i)
		}
	}
	return cw
}
