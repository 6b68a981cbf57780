package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const sessionWatchDebounce = 150 * time.Millisecond

// sessionWatcher calls onChange after the session file is created, written,
// renamed or removed by anyone, this process included. It watches the
// parent directory because the file may not exist yet.
type sessionWatcher struct {
	targetPath string
	parentPath string
	onChange   func()
	debounce   time.Duration
	watcher    *fsnotify.Watcher
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.Mutex
	running    bool
}

func newSessionWatcher(targetPath string, onChange func()) (*sessionWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create session watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	targetPath = filepath.Clean(targetPath)

	return &sessionWatcher{
		targetPath: targetPath,
		parentPath: filepath.Dir(targetPath),
		onChange:   onChange,
		debounce:   sessionWatchDebounce,
		watcher:    fsw,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

func (w *sessionWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.parentPath, sessionDirMode); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	if err := w.watcher.Add(w.parentPath); err != nil {
		return fmt.Errorf("watch session directory: %w", err)
	}

	go w.watchLoop()
	return nil
}

func (w *sessionWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.running = false
	w.cancel()
	return w.watcher.Close()
}

func (w *sessionWatcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case <-w.ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.targetPath {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			log.Debug().Str("path", w.targetPath).Str("op", event.Op.String()).Msg("Session file changed")
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.fire)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Session watcher error")
		}
	}
}

func (w *sessionWatcher) fire() {
	if w.ctx.Err() != nil {
		return
	}
	if w.onChange != nil {
		w.onChange()
	}
}
