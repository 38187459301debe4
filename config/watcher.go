package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/gr/internal/logging"
)

// DefaultDebounce is the quiet period after the last file event before a
// reload.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a configuration file when it changes.
//
// The directory of the file is watched rather than the file, so editors that
// save by renaming a temporary file are handled. Bursts of events are
// coalesced into one reload.
type Watcher struct {
	fsw      *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func(*Config)
	onError  func(error)

	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce interval. Values <= 0 keep the default.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithErrorHandler receives reload and watch errors. Without one, errors are
// logged.
func WithErrorHandler(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// Watch starts watching path. onChange runs on the watcher goroutine with
// every successfully parsed new configuration; files that fail to parse are
// reported to the error handler and the previous configuration stays in
// effect.
func Watch(path string, onChange func(*Config), opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watch: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}

	w := &Watcher{
		fsw:      fsw,
		path:     path,
		debounce: DefaultDebounce,
		onChange: onChange,
		onError: func(err error) {
			logging.L().Warn("config: reload failed", "path", path, "err", err)
		},
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher and waits for its goroutine. Close is idempotent.
func (w *Watcher) Close() error {
	w.once.Do(func() { close(w.stop) })
	<-w.stopped
	return nil
}

func (w *Watcher) loop() {
	defer close(w.stopped)
	defer w.fsw.Close()

	base := filepath.Base(w.path)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case <-fire:
			timer, fire = nil, nil
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.onError(err)
		return
	}
	logging.L().Debug("config: reloaded", "path", w.path)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
