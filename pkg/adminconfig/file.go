package adminconfig

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FileSource loads the policy config from a local YAML (or JSON) file.
// It is the development-mode alternative to the remote admin API.
type FileSource struct {
	path string
}

// NewFileSource creates a file source for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads, parses, and compiles the config file. JSON files parse fine
// through the YAML decoder, so no format switch is needed.
func (s *FileSource) Load(ctx context.Context) (*Compiled, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy config file %q: %w", s.path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse policy config file %q: %w", s.path, err)
	}

	compiled, err := Compile(&cfg)
	if err != nil {
		return nil, fmt.Errorf("rejected policy config file %q: %w", s.path, err)
	}
	return compiled, nil
}

// Describe returns the file path this source reads from.
func (s *FileSource) Describe() string {
	return "file " + s.path
}

// Watcher invalidates a config cache when its backing file changes, so
// edits take effect on the next request instead of the next TTL expiry.
// Rapid successive writes (editors, atomic-save renames) are debounced.
type Watcher struct {
	path     string
	cache    *Cache
	logger   *slog.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for the given config file path.
func NewWatcher(path string, cache *Cache, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		cache:    cache,
		logger:   logger.With("component", "adminconfig.watcher"),
		debounce: 100 * time.Millisecond,
		watcher:  fw,
	}, nil
}

// Watch blocks processing file events until the context is cancelled.
// The parent directory is watched rather than the file itself so that
// atomic saves (write temp file, rename over target) are observed.
func (w *Watcher) Watch(ctx context.Context) error {
	defer w.watcher.Close()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("watching policy config file",
		"path", w.path,
		"debounce_ms", w.debounce.Milliseconds(),
	)

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("policy config watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerCh:
			timer = nil
			timerCh = nil
			w.logger.Info("policy config file changed, invalidating cache", "path", w.path)
			w.cache.Invalidate()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("policy config watcher error", "error", err)
		}
	}
}
