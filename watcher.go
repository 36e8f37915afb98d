package logfactory

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads a config file whenever it is written and hands the result to onChange.
type Watcher struct {
	path     string
	load     func() (*Config, error)
	onChange func(*Config)
	diag     zerolog.Logger

	fsw      *fsnotify.Watcher
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopErr  error
}

// NewWatcher watches path. The containing directory is watched so that
// editors replacing the file by rename are seen as well.
func NewWatcher(path string, load func() (*Config, error), onChange func(*Config), diag zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	path = filepath.Clean(path)
	if err = fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return &Watcher{
		path:     path,
		load:     load,
		onChange: onChange,
		diag:     diag,
		fsw:      fsw,
	}, nil
}

// Start runs the event loop until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.diag.Warn().Err(err).Str("path", w.path).Msg("config watcher error")
		}
	}
}

// StartAsync runs Start on its own goroutine.
func (w *Watcher) StartAsync(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.Start(ctx)
	}()
}

func (w *Watcher) reload() {
	cfg, err := w.load()
	if err != nil {
		w.diag.Warn().Err(err).Str("path", w.path).Msg("config reload failed")
		return
	}
	w.onChange(cfg)
}

// Stop closes the underlying watcher and waits for a StartAsync loop to exit.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		w.stopErr = w.fsw.Close()
		w.wg.Wait()
	})
	return w.stopErr
}
