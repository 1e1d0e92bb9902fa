package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/omnikeys/internal/ir"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	path     string
	format   Format
	debounce time.Duration
	fs       *fsnotify.Watcher
}

// Reload is the outcome of one reload. Data holds the exact bytes Config was
// decoded from; it is nil when the file could not be read.
type Reload struct {
	Data   []byte
	Config *ir.Config
	Err    error
}

// NewWatcher watches the directory holding path and decodes every reload as
// format, whatever the file extension. Watching the directory rather than the
// file survives editors that save by rename.
func NewWatcher(path string, format Format) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(path)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	return &Watcher{path: path, format: format, debounce: DefaultDebounce, fs: fs}, nil
}

// SetDebounce changes the quiet period before a reload.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run blocks until ctx is done. After each debounced change it reloads the file
// and calls onChange with the result. onChange runs on the Run goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(Reload)) error {
	fire := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			onChange(w.load())

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			onChange(Reload{Err: fmt.Errorf("watch %s: %w", w.path, err)})
		}
	}
}

func (w *Watcher) load() Reload {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return Reload{Err: &LoadError{Code: CodeReadFailed, File: w.path, Message: err.Error()}}
	}
	cfg, err := LoadBytes(data, w.format, w.path)
	return Reload{Data: data, Config: cfg, Err: err}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
