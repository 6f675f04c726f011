package output

import (
	"context"
	"os"
	"path/filepath"

	"github.com/densky-dev/densky/internal/errors"
)

// DirSink writes artifacts below a local directory.
type DirSink struct {
	root string
}

// NewDirSink creates a sink rooted at root. The directory is created on
// first write.
func NewDirSink(root string) *DirSink {
	return &DirSink{root: root}
}

// Root returns the output directory.
func (s *DirSink) Root() string {
	return s.root
}

// Write replaces the file atomically so a watching runtime never loads a
// half written dispatcher.
func (s *DirSink) Write(ctx context.Context, key string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Location(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.New("E140").WithLocation(path, 0, 0).Wrap(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".densky-*")
	if err != nil {
		return errors.New("E140").WithLocation(path, 0, 0).Wrap(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return errors.New("E140").WithLocation(path, 0, 0).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.New("E140").WithLocation(path, 0, 0).Wrap(err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.New("E140").WithLocation(path, 0, 0).Wrap(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.New("E140").WithLocation(path, 0, 0).Wrap(err)
	}
	return nil
}

// Clean removes the directory prefix below the root.
func (s *DirSink) Clean(_ context.Context, prefix string) error {
	target := s.root
	if key := cleanKey(prefix); key != "" {
		target = filepath.Join(s.root, filepath.FromSlash(key))
	}
	if err := os.RemoveAll(target); err != nil {
		return errors.New("E140").WithLocation(target, 0, 0).Wrap(err)
	}
	return nil
}

// Location returns the file path key is written to.
func (s *DirSink) Location(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(cleanKey(key)))
}
