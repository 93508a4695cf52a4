package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is invoked with the old and newly-loaded configuration
// each time the watched file changes.
type ChangeCallback func(oldCfg, newCfg *RuntimeConfig)

// Watcher hot-reloads a RuntimeConfig from disk on file-change events,
// adapted from najoast-sngo's config.Watcher: a debounced fsnotify loop
// guarding a mutex-protected current value plus a callback list.
type Watcher struct {
	path   string
	loader *Loader

	mu  sync.RWMutex
	cfg *RuntimeConfig

	fsWatcher *fsnotify.Watcher

	callbacksMu sync.Mutex
	callbacks   []ChangeCallback

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher loads path once synchronously and prepares a Watcher able to
// reload it whenever it changes on disk. Call Start to begin watching.
func NewWatcher(path string, loader *Loader) (*Watcher, error) {
	if loader == nil {
		loader = NewLoader()
	}

	cfg, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		path:      path,
		loader:    loader,
		cfg:       cfg,
		fsWatcher: fsWatcher,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *RuntimeConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

// OnChange registers a callback invoked after every successful reload.
func (w *Watcher) OnChange(cb ChangeCallback) {
	w.callbacksMu.Lock()
	defer w.callbacksMu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins watching the config file for changes on a background
// goroutine. It is a no-op if the watcher's path is empty.
func (w *Watcher) Start() error {
	if w.path == "" {
		return nil
	}
	if err := w.fsWatcher.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch config file %s: %w", w.path, err)
	}

	w.wg.Add(1)
	go w.watchLoop()

	return nil
}

// Stop cancels the watch loop and releases the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()

	const debounce = 250 * time.Millisecond
	var timer *time.Timer

	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, w.reload)

		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) reload() {
	newCfg, err := w.loader.Load(w.path)
	if err != nil {
		return
	}

	w.mu.Lock()
	oldCfg := w.cfg
	w.cfg = newCfg
	w.mu.Unlock()

	w.callbacksMu.Lock()
	callbacks := append([]ChangeCallback(nil), w.callbacks...)
	w.callbacksMu.Unlock()

	for _, cb := range callbacks {
		cb(oldCfg, newCfg)
	}
}
