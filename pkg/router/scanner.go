package router

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/densky-dev/densky/pkg/routepath"
)

var (
	// ErrInvalidPattern is returned for a malformed discovery glob.
	ErrInvalidPattern = errors.New("invalid route pattern")

	// ErrRoutesDirMissing is returned when the routes directory does not
	// exist or is not a directory.
	ErrRoutesDirMissing = errors.New("routes directory not found")
)

// ScanOptions configures a Scanner.
type ScanOptions struct {
	// RoutesDir is the directory route files are discovered in.
	RoutesDir string

	// OutputDir is the directory artifacts are written to.
	OutputDir string

	// Extension of route files (default ".ts").
	Extension string

	// Pattern overrides the discovery glob, relative to RoutesDir.
	// Defaults to "**/*" + Extension.
	Pattern string
}

func (o ScanOptions) extension() string {
	if o.Extension == "" {
		return DefaultExtension
	}
	return o.Extension
}

func (o ScanOptions) pattern() string {
	if o.Pattern == "" {
		return "**/*" + o.extension()
	}
	return o.Pattern
}

// Scanner discovers route files.
type Scanner struct {
	opts    ScanOptions
	skipped int
}

// NewScanner creates a new route scanner.
func NewScanner(opts ScanOptions) *Scanner {
	return &Scanner{opts: opts}
}

// Skipped returns how many matched entries the last Scan could not use.
func (s *Scanner) Skipped() int {
	return s.skipped
}

// Scan globs the routes directory and returns one entry per route file,
// sorted by URL path. An invalid pattern or a missing routes directory
// aborts the scan; entries that cannot be inspected are skipped.
func (s *Scanner) Scan() ([]Entry, error) {
	s.skipped = 0

	pattern := s.opts.pattern()
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	routesDir, err := filepath.Abs(s.opts.RoutesDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoutesDirMissing, err)
	}
	info, err := os.Stat(routesDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRoutesDirMissing, routesDir)
	}

	outputDir, err := filepath.Abs(s.opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	var entries []Entry
	err = doublestar.GlobWalk(os.DirFS(routesDir), pattern, func(rel string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		if _, err := d.Info(); err != nil {
			s.skipped++
			return nil
		}

		entries = append(entries, Entry{
			Path:       s.urlPath(rel),
			FilePath:   filepath.Join(routesDir, filepath.FromSlash(rel)),
			OutputPath: routepath.JoinPaths(rel, routepath.ToSlash(outputDir)),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, doublestar.ErrBadPattern) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
		return nil, fmt.Errorf("scanning %s: %w", routesDir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// urlPath converts a routes-relative file path to its URL path:
//
//	index.ts          → /index
//	users/$id.ts      → /users/$id
//	users/_index.ts   → /users/_index
func (s *Scanner) urlPath(rel string) string {
	rel = routepath.ToSlash(rel)
	return routepath.Separator + strings.TrimSuffix(rel, path.Ext(rel))
}

// Discover scans opts.RoutesDir and inserts every entry into a new tree.
func Discover(ctx context.Context, opts ScanOptions, logger *slog.Logger) (*Tree, []Entry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	scanner := NewScanner(opts)
	entries, err := scanner.Scan()
	if err != nil {
		return nil, nil, err
	}
	if n := scanner.Skipped(); n > 0 {
		logger.Warn("skipped unreadable route entries", "count", n)
	}

	outputDir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving output directory: %w", err)
	}

	tree := NewTree(NewArena(outputDir, WithExtension(opts.extension())), logger)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		tree.AddLeaf(NewLeaf(entry.Path, entry.FilePath, entry.OutputPath))
	}

	return tree, entries, nil
}
