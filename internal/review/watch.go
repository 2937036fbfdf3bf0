package review

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tribunal/internal/logging"
)

// LogWatcher observes a round directory and records the last write time per
// agent transcript. The orchestrator never reads agent output for control
// flow — this exists purely so the operator can see which agents are still
// producing text.
type LogWatcher struct {
	watcher *fsnotify.Watcher
	logger  *logging.Logger

	mu       sync.Mutex
	activity map[string]time.Time
	done     chan struct{}
}

// NewLogWatcher starts watching dir for agent log writes.
func NewLogWatcher(dir string, logger *logging.Logger) (*LogWatcher, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	lw := &LogWatcher{
		watcher:  w,
		logger:   logger,
		activity: make(map[string]time.Time),
		done:     make(chan struct{}),
	}
	go lw.loop()
	return lw, nil
}

func (lw *LogWatcher) loop() {
	for {
		select {
		case <-lw.done:
			return
		case ev, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, ".log") {
				continue
			}
			agentName := strings.TrimSuffix(name, ".log")
			lw.mu.Lock()
			lw.activity[agentName] = time.Now()
			lw.mu.Unlock()
		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			lw.logger.Warn("log watcher error", "error", err)
		}
	}
}

// Retarget switches the watched directory on a round transition.
func (lw *LogWatcher) Retarget(dir string) error {
	for _, old := range lw.watcher.WatchList() {
		_ = lw.watcher.Remove(old)
	}
	return lw.watcher.Add(dir)
}

// Activity returns a copy of the last-write times keyed by agent name.
func (lw *LogWatcher) Activity() map[string]time.Time {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	out := make(map[string]time.Time, len(lw.activity))
	for k, v := range lw.activity {
		out[k] = v
	}
	return out
}

// Close stops the watcher.
func (lw *LogWatcher) Close() error {
	close(lw.done)
	return lw.watcher.Close()
}
