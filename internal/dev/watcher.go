package dev

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/densky-dev/densky/internal/config"
)

// ChangeType represents the kind of file that changed.
type ChangeType int

const (
	// ChangeRoute is a route source below a watched directory.
	ChangeRoute ChangeType = iota

	// ChangeConfig is one of the watched config files.
	ChangeConfig

	// ChangeOther is any other file below a watched directory.
	ChangeOther
)

func (t ChangeType) String() string {
	switch t {
	case ChangeRoute:
		return "route"
	case ChangeConfig:
		return "config"
	default:
		return "other"
	}
}

// Change represents a detected file change.
type Change struct {
	Path string
	Type ChangeType
	Op   fsnotify.Op
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Dirs are watched recursively. Directories created later are added.
	Dirs []string

	// Files are watched individually, e.g. the project config.
	Files []string

	// Extension marks route files.
	Extension string

	// Ignore patterns to skip: plain names match any path segment, globs
	// without a slash match the base name, globs with a slash match the
	// path relative to the watched directory.
	Ignore []string

	// Debounce is how long events accumulate before OnChange fires.
	Debounce time.Duration

	Logger *slog.Logger
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	config.DefaultOutput,
	".densky-*",
	"*.tmp",
	"*.swp",
	"*~",
}

// Watcher reports batches of file changes.
type Watcher struct {
	config   WatcherConfig
	logger   *slog.Logger
	onChange func([]Change)
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	files    map[string]struct{}
}

// NewWatcher creates a new file watcher.
func NewWatcher(cfg WatcherConfig) *Watcher {
	if cfg.Debounce == 0 {
		cfg.Debounce = config.DefaultDebounce
	}
	if cfg.Extension == "" {
		cfg.Extension = config.DefaultExtension
	}
	cfg.Ignore = append(append([]string(nil), DefaultIgnore...), cfg.Ignore...)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	files := make(map[string]struct{}, len(cfg.Files))
	for _, f := range cfg.Files {
		files[filepath.Clean(f)] = struct{}{}
	}

	return &Watcher{
		config: cfg,
		logger: logger.With("component", "watcher"),
		files:  files,
	}
}

// OnChange sets the callback for change batches. It runs on the watcher
// goroutine.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, dir := range w.config.Dirs {
		w.addRecursive(fsw, dir)
	}
	for dir := range w.fileDirs() {
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("cannot watch directory", "dir", dir, "error", err)
		}
	}

	pending := make(map[string]Change)
	var debounce *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return ctx.Err()

		case <-stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			change, ok := w.handleEvent(fsw, event)
			if !ok {
				continue
			}
			pending[change.Path] = change
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(w.config.Debounce)
			debounceCh = debounce.C

		case <-debounceCh:
			debounceCh = nil
			w.flush(pending)
			pending = make(map[string]Change)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) fileDirs() map[string]struct{} {
	dirs := make(map[string]struct{})
	for f := range w.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	return dirs
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) {
	filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.shouldIgnore(p) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			w.logger.Warn("cannot watch directory", "dir", p, "error", err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) (Change, bool) {
	path := filepath.Clean(event.Name)

	if _, ok := w.files[path]; ok {
		return Change{Path: path, Type: ChangeConfig, Op: event.Op}, true
	}
	if !w.inDirs(path) || w.shouldIgnore(path) {
		return Change{}, false
	}
	if event.Op == fsnotify.Chmod {
		return Change{}, false
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.addRecursive(fsw, path)
			// Files created together with the directory produce no events.
			return Change{Path: path, Type: ChangeRoute, Op: event.Op}, true
		}
	}

	return Change{Path: path, Type: w.classifyChange(path), Op: event.Op}, true
}

func (w *Watcher) flush(pending map[string]Change) {
	if len(pending) == 0 {
		return
	}
	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()
	if callback == nil {
		return
	}

	changes := make([]Change, 0, len(pending))
	for _, c := range pending {
		changes = append(changes, c)
	}
	callback(changes)
}

func (w *Watcher) inDirs(path string) bool {
	for _, dir := range w.config.Dirs {
		if isWithinDir(path, dir) {
			return true
		}
	}
	return false
}

// relative returns path relative to the watched directory containing it.
func (w *Watcher) relative(path string) string {
	for _, dir := range w.config.Dirs {
		if rel, err := filepath.Rel(dir, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

// shouldIgnore checks if a path should be ignored.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	normalized := filepath.ToSlash(fullPath)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if name == pattern {
			return true
		}

		hasPathSep := strings.Contains(pattern, "/")
		hasGlob := strings.ContainsAny(pattern, "*?[{")

		if hasGlob {
			if hasPathSep {
				if matched, _ := doublestar.Match(pattern, w.relative(fullPath)); matched {
					return true
				}
			} else if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
			continue
		}

		if hasPathSep {
			if pathMatchesSegments(normalized, pattern) {
				return true
			}
			continue
		}

		if pathHasSegment(normalized, pattern) {
			return true
		}
	}

	return false
}

func pathHasSegment(path, segment string) bool {
	for _, part := range splitPathSegments(path) {
		if part == segment {
			return true
		}
	}
	return false
}

func pathMatchesSegments(path, pattern string) bool {
	pathParts := splitPathSegments(path)
	patternParts := splitPathSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}

	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}

	return false
}

func splitPathSegments(path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}

func (w *Watcher) classifyChange(path string) ChangeType {
	if strings.EqualFold(filepath.Ext(path), w.config.Extension) {
		return ChangeRoute
	}
	return ChangeOther
}

func isWithinDir(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	absDir = filepath.Clean(absDir)
	if absPath == absDir {
		return true
	}
	if !strings.HasSuffix(absDir, string(os.PathSeparator)) {
		absDir += string(os.PathSeparator)
	}
	return strings.HasPrefix(absPath, absDir)
}

// CollectWatchPaths returns the directories and files dev mode watches for
// cfg: the routes directory and every possible config file.
func CollectWatchPaths(cfg *config.Config) (dirs, files []string) {
	dirs = []string{filepath.Clean(cfg.RoutesPath())}
	for _, name := range config.FileNames {
		files = append(files, filepath.Join(cfg.Dir(), name))
	}
	return dirs, files
}
