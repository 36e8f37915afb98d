package logfactory

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newStubType returns a transport type that only understands the base options
// and keeps whatever else it is given in its option bag.
func newStubType(name string) *TransportType {
	return &TransportType{
		Name: name,
		New: func(opts Options) (Transport, error) {
			base := BaseOptions{Level: defaultLevel}
			if err := DecodeOptions(opts, &base); err != nil {
				return nil, err
			}
			b, err := NewBase(name, opts, base, io.Discard, nil)
			if err != nil {
				return nil, err
			}
			return b, nil
		},
	}
}

// newTestService returns an initialized service whose diagnostics go to the returned buffer.
func newTestService(t testing.TB, transports TransportConfig) (*Service, *syncBuffer) {
	t.Helper()
	diag := &syncBuffer{}
	cfg := DefaultConfig()
	cfg.Transports = transports
	cfg.Diagnostics = diag
	cfg.ShutdownTimeoutMS = 50

	svc := NewService(cfg)
	require.NoError(t, svc.Initialize())
	t.Cleanup(func() { _ = svc.Close() })
	return svc, diag
}

func memoryTransport(t testing.TB, l *Logger, name string) *MemoryTransport {
	t.Helper()
	tr, ok := l.Transport(name)
	require.True(t, ok, "transport %q missing", name)
	mem, ok := tr.(*MemoryTransport)
	require.True(t, ok, "transport %q is %T", name, tr)
	return mem
}
