package policypack

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures a FileWatcher.
type WatcherConfig struct {
	// Path is the pack file or directory to watch.
	Path string

	// Debounce is the quiet period after the last change before the
	// callback runs. Default: 250ms.
	Debounce time.Duration

	Extensions []string
	SkipHidden bool
}

// FileWatcher calls back when pack files change on disk.
type FileWatcher struct {
	config WatcherConfig
	logger *slog.Logger

	// file is set when Path is a single file. Its parent directory is
	// watched instead so atomic rename-over saves are seen.
	file string
}

// NewFileWatcher creates a watcher for config.Path.
func NewFileWatcher(config WatcherConfig, logger *slog.Logger) (*FileWatcher, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("watch path is required")
	}
	if config.Debounce <= 0 {
		config.Debounce = 250 * time.Millisecond
	}
	if len(config.Extensions) == 0 {
		config.Extensions = DefaultLoaderConfig().Extensions
	}
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(config.Path)
	if err != nil {
		return nil, statError(config.Path, err)
	}
	fw := &FileWatcher{config: config, logger: logger}
	if !info.IsDir() {
		fw.file = filepath.Clean(config.Path)
	}
	return fw, nil
}

// Watch blocks until ctx is done, calling onChange once per burst of
// relevant file events.
func (fw *FileWatcher) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer w.Close()

	if err := fw.addPaths(w); err != nil {
		return err
	}

	d := newDebouncer(fw.config.Debounce, onChange)
	defer d.stop()

	fw.logger.Info("policy watcher started",
		"path", fw.config.Path,
		"debounce_ms", fw.config.Debounce.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info("policy watcher stopped")
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Has(fsnotify.Create) && fw.file == "" {
				// New subdirectories of a pack directory are watched too.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !fw.hidden(event.Name) {
					_ = w.Add(event.Name)
				}
			}
			if !fw.relevant(event) {
				continue
			}
			fw.logger.Debug("policy file event", "path", event.Name, "op", event.Op.String())
			d.trigger()

		case err, ok := <-w.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			fw.logger.Error("policy watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) addPaths(w *fsnotify.Watcher) error {
	if fw.file != "" {
		dir := filepath.Dir(fw.file)
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %q: %w", dir, err)
		}
		return nil
	}

	root := fw.config.Path
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && fw.hidden(path) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		return nil
	})
}

func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if fw.file != "" {
		return filepath.Clean(event.Name) == fw.file
	}
	if fw.hidden(event.Name) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	for _, valid := range fw.config.Extensions {
		if ext == strings.ToLower(valid) {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) hidden(path string) bool {
	return fw.config.SkipHidden && strings.HasPrefix(filepath.Base(path), ".")
}

// debouncer runs fn once after interval has passed with no new trigger.
type debouncer struct {
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newDebouncer(interval time.Duration, fn func()) *debouncer {
	return &debouncer{interval: interval, fn: fn}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			d.fn()
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
