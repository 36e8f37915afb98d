package logfactory

import (
	"bytes"
	"encoding/json"
	"sync"
)

// MemoryName is the registered name of the built-in in-process transport.
const MemoryName = "Memory"

// Memory keeps rendered lines in process. Every build gets its own buffer.
var Memory = &TransportType{
	Name: MemoryName,
	New: func(opts Options) (Transport, error) {
		return newMemoryTransport(opts)
	},
}

// MemoryTransport records every line written to it.
type MemoryTransport struct {
	*Base
	cfg MemoryOptions
	buf *lineBuffer
}

func newMemoryTransport(opts Options) (*MemoryTransport, error) {
	cfg := DefaultMemoryOptions()
	if err := DecodeOptions(opts, &cfg); err != nil {
		return nil, err
	}

	buf := &lineBuffer{capacity: cfg.Capacity}
	var base *Base
	var err error
	if cfg.JSON {
		base, err = NewBase(MemoryName, opts, cfg.BaseOptions, buf, nil)
	} else {
		cw := consoleWriter(buf, ConsoleOptions{BaseOptions: cfg.BaseOptions})
		base, err = NewBase(MemoryName, opts, cfg.BaseOptions, cw, nil)
	}
	if err != nil {
		return nil, err
	}
	return &MemoryTransport{Base: base, cfg: cfg, buf: buf}, nil
}

// Config returns the decoded memory options.
func (m *MemoryTransport) Config() MemoryOptions { return m.cfg }

// Lines returns the recorded lines, oldest first, without trailing newlines.
func (m *MemoryTransport) Lines() []string { return m.buf.lines() }

// Entries decodes the recorded JSON lines. Lines that are not JSON objects are skipped.
func (m *MemoryTransport) Entries() []map[string]any {
	lines := m.buf.lines()
	out := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Reset drops every recorded line.
func (m *MemoryTransport) Reset() { m.buf.reset() }

type lineBuffer struct {
	mu       sync.Mutex
	capacity int
	data     []string
}

func (b *lineBuffer) Write(p []byte) (int, error) {
	line := string(bytes.TrimRight(p, "\n"))
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, line)
	if b.capacity > 0 && len(b.data) > b.capacity {
		b.data = b.data[len(b.data)-b.capacity:]
	}
	return len(p), nil
}

func (b *lineBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.data))
	copy(out, b.data)
	return out
}

func (b *lineBuffer) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
}
