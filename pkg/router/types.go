package router

import (
	"os"
	"sync"
)

// NodeID identifies a node in an Arena. Ids start at 1 and are never
// reused; NoNode means "none".
type NodeID int

// LeafID identifies a leaf in an Arena. NoLeaf means "none".
type LeafID int

const (
	NoNode NodeID = 0
	NoLeaf LeafID = 0
)

// Kind is the role a node plays in the tree.
type Kind int

const (
	// KindRoot is the single node every other node descends from.
	KindRoot Kind = iota

	// KindContainer groups routes sharing a URL prefix. It has no source
	// file of its own unless an _index leaf was adopted.
	KindContainer

	// KindRoute is backed by exactly one route file.
	KindRoute

	// KindFallback runs when no sibling route handled the request.
	KindFallback

	// KindMiddleware runs before the handlers of its parent.
	KindMiddleware
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindContainer:
		return "container"
	case KindRoute:
		return "route"
	case KindFallback:
		return "fallback"
	case KindMiddleware:
		return "middleware"
	default:
		return "unknown"
	}
}

// File name conventions that alter insertion.
const (
	IndexName      = "_index"
	FallbackName   = "_fallback"
	MiddlewareName = "_middleware"

	// DefaultExtension is the extension of route files and artifacts.
	DefaultExtension = ".ts"
)

// Relative paths given to convention nodes.
const (
	FallbackRelPath   = "<FALLBACK>"
	MiddlewareRelPath = "<MIDDLEWARE>"
)

// Node is one vertex of the routing tree. Relations to other nodes are
// ids resolved through the owning Arena.
type Node struct {
	ID     NodeID
	Parent NodeID
	Kind   Kind

	// Path is the absolute URL path ("/users/$id").
	Path string

	// RelPath is Path relative to the parent, or one of FallbackRelPath
	// and MiddlewareRelPath.
	RelPath string

	// OutputPath is where the node's dispatcher is written.
	OutputPath string

	// Children in insertion order. A merge replaces a child in place.
	Children []NodeID

	Middleware NodeID
	Fallback   NodeID
	Leaf       LeafID
}

// HasLeaf reports whether a route file backs the node.
func (n *Node) HasLeaf() bool {
	return n.Leaf != NoLeaf
}

// IsConvention reports whether the node is a fallback or middleware.
func (n *Node) IsConvention() bool {
	return n.Kind == KindFallback || n.Kind == KindMiddleware
}

// Leaf is one discovered route file.
type Leaf struct {
	ID LeafID

	// Path is the URL path derived from the file location.
	Path string

	// RelPath mirrors the RelPath of the node that owns the leaf.
	RelPath string

	FilePath   string
	OutputPath string

	mu      sync.Mutex
	content *string
}

// NewLeaf returns a leaf for the route file at filePath.
func NewLeaf(path, filePath, outputPath string) *Leaf {
	return &Leaf{
		Path:       path,
		RelPath:    path,
		FilePath:   filePath,
		OutputPath: outputPath,
	}
}

// SetContent caches content as the leaf source.
func (l *Leaf) SetContent(content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.content = &content
}

// CacheContent reads the source file once and keeps it in memory.
func (l *Leaf) CacheContent() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.content != nil {
		return nil
	}
	data, err := os.ReadFile(l.FilePath)
	if err != nil {
		return err
	}
	content := string(data)
	l.content = &content
	return nil
}

// Content returns the cached source, reading the file when nothing is
// cached yet.
func (l *Leaf) Content() (string, error) {
	if err := l.CacheContent(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.content, nil
}

// Entry is one route file found by the Scanner.
type Entry struct {
	// Path is the URL path: "/" plus the routes-relative file path without
	// its extension.
	Path string

	// FilePath is the absolute source path.
	FilePath string

	// OutputPath is the artifact path for the file.
	OutputPath string
}
