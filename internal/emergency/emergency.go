// Package emergency watches for out-of-band requests to drop cursor blocking
package emergency

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/noreveal/internal/logger"
)

// TriggerFileName is the file `noreveal release` creates in the temp dir
const TriggerFileName = "noreveal-release"

// DefaultPollInterval is how often the trigger file is checked
const DefaultPollInterval = 1 * time.Second

// TriggerFile returns the path polled for a release request
func TriggerFile() string {
	return filepath.Join(os.TempDir(), TriggerFileName)
}

// Request creates the trigger file
func Request() error {
	return os.WriteFile(TriggerFile(), []byte("release"), 0600)
}

// Watcher calls onRelease when a release signal arrives or the trigger file
// shows up
type Watcher struct {
	onRelease    func(reason string)
	triggerFile  string
	pollInterval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures a Watcher
type Option func(*Watcher)

// WithTriggerFile overrides the trigger file path
func WithTriggerFile(path string) Option {
	return func(w *Watcher) { w.triggerFile = path }
}

// WithPollInterval overrides how often the trigger file is checked
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// NewWatcher creates a watcher. Start must be called to begin monitoring.
func NewWatcher(onRelease func(reason string), opts ...Option) *Watcher {
	w := &Watcher{
		onRelease:    onRelease,
		triggerFile:  TriggerFile(),
		pollInterval: DefaultPollInterval,
		stopChan:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins monitoring until ctx is done or Stop is called
func (w *Watcher) Start(ctx context.Context) {
	// A stale trigger from a previous run must not fire immediately
	_ = os.Remove(w.triggerFile)

	if sigs := releaseSignals(); len(sigs) > 0 {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, sigs...)
		w.wg.Add(1)
		go w.handleSignals(ctx, sigChan)
	}

	w.wg.Add(1)
	go w.monitorFileTrigger(ctx)

	logger.Debug("Emergency release watcher started", "trigger_file", w.triggerFile)
}

// Stop ends monitoring and waits for the watcher goroutines
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	w.wg.Wait()
}

func (w *Watcher) handleSignals(ctx context.Context, sigChan chan os.Signal) {
	defer w.wg.Done()
	defer signal.Stop(sigChan)

	for {
		select {
		case sig := <-sigChan:
			logger.Warnf("%v received - triggering emergency release", sig)
			w.trigger("signal")
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) monitorFileTrigger(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := os.Stat(w.triggerFile); err == nil {
				logger.Warn("Release file detected - triggering emergency release")
				if err := os.Remove(w.triggerFile); err != nil {
					logger.Warnf("Failed to remove release file: %v", err)
				}
				w.trigger("file")
			}
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) trigger(reason string) {
	if w.onRelease != nil {
		w.onRelease(reason)
	}
}
