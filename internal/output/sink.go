package output

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
)

// Sink receives generated artifacts. Keys are slash separated and
// relative to the output root, e.g. "http/users/$id.ts".
type Sink interface {
	// Write stores content under key, replacing what was there.
	Write(ctx context.Context, key string, content []byte) error

	// Clean removes every artifact whose key starts with prefix.
	Clean(ctx context.Context, prefix string) error

	// Location describes where key ends up, for logs and the CLI.
	Location(key string) string
}

func cleanKey(key string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(key, "\\", "/")), "/")
}

// MemorySink keeps artifacts in memory.
type MemorySink struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

func (s *MemorySink) Write(_ context.Context, key string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[cleanKey(key)] = append([]byte(nil), content...)
	return nil
}

func (s *MemorySink) Clean(_ context.Context, prefix string) error {
	prefix = cleanKey(prefix)
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.files {
		if hasKeyPrefix(key, prefix) {
			delete(s.files, key)
		}
	}
	return nil
}

func (s *MemorySink) Location(key string) string {
	return "memory:" + cleanKey(key)
}

// Get returns the content stored under key.
func (s *MemorySink) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.files[cleanKey(key)]
	return b, ok
}

// Keys returns the stored keys in order.
func (s *MemorySink) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.files))
	for k := range s.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func hasKeyPrefix(key, prefix string) bool {
	if prefix == "" {
		return true
	}
	return key == prefix || strings.HasPrefix(key, prefix+"/")
}
