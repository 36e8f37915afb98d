package logfactory

import (
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the registered name of the built-in rolling file transport.
const FileName = "File"

// File writes to a size-rotated file.
var File = &TransportType{
	Name: FileName,
	New: func(opts Options) (Transport, error) {
		return newFileTransport(opts)
	},
}

// FileTransport writes JSON lines (or console-formatted lines when json is
// false) to a lumberjack rolling file.
type FileTransport struct {
	*Base
	cfg    FileOptions
	writer *lumberjack.Logger
}

func newFileTransport(opts Options) (*FileTransport, error) {
	cfg := DefaultFileOptions()
	if err := DecodeOptions(opts, &cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Filename), os.ModePerm); err != nil {
		return nil, err
	}

	writer := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	var base *Base
	var err error
	if cfg.JSON {
		base, err = NewBase(FileName, opts, cfg.BaseOptions, writer, writer)
	} else {
		cw := consoleWriter(writer, ConsoleOptions{BaseOptions: cfg.BaseOptions})
		base, err = NewBase(FileName, opts, cfg.BaseOptions, cw, writer)
	}
	if err != nil {
		_ = writer.Close()
		return nil, err
	}

	return &FileTransport{Base: base, cfg: cfg, writer: writer}, nil
}

// Filename returns the path of the active log file.
func (f *FileTransport) Filename() string { return f.cfg.Filename }

// Config returns the decoded file options.
func (f *FileTransport) Config() FileOptions { return f.cfg }

// Rotate closes the current file and starts a new one.
func (f *FileTransport) Rotate() error { return f.writer.Rotate() }
