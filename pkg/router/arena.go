package router

import (
	"fmt"
	"strings"

	"github.com/densky-dev/densky/pkg/routepath"
)

// Arena owns every node and leaf of one tree. Everything else refers to
// them by id. Arena is not safe for concurrent mutation; Tree serializes
// access.
type Arena struct {
	outputDir string
	ext       string
	root      NodeID
	nodes     []*Node
	leaves    []*Leaf
}

// ArenaOption configures an Arena.
type ArenaOption func(*Arena)

// WithExtension sets the artifact extension (default ".ts").
func WithExtension(ext string) ArenaOption {
	return func(a *Arena) {
		if ext != "" {
			a.ext = ext
		}
	}
}

// NewArena returns an empty arena writing artifacts below outputDir.
func NewArena(outputDir string, opts ...ArenaOption) *Arena {
	a := &Arena{
		outputDir: routepath.ToSlash(outputDir),
		ext:       DefaultExtension,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OutputDir returns the artifact root.
func (a *Arena) OutputDir() string {
	return a.outputDir
}

// Extension returns the artifact extension.
func (a *Arena) Extension() string {
	return a.ext
}

// CreateRoot adds the root node. Calling it twice returns the same root.
func (a *Arena) CreateRoot() NodeID {
	if a.root != NoNode {
		return a.root
	}
	a.root = a.Add(&Node{
		Kind:       KindRoot,
		Path:       routepath.Separator,
		RelPath:    routepath.Separator,
		OutputPath: routepath.JoinPaths(IndexName+a.ext, a.outputDir),
	})
	return a.root
}

// Root returns the root id, NoNode before CreateRoot.
func (a *Arena) Root() NodeID {
	return a.root
}

// Add stores n, assigns its id and returns it.
func (a *Arena) Add(n *Node) NodeID {
	n.ID = NodeID(len(a.nodes) + 1)
	a.nodes = append(a.nodes, n)
	return n.ID
}

// AddLeaf stores l, assigns its id and returns it.
func (a *Arena) AddLeaf(l *Leaf) LeafID {
	l.ID = LeafID(len(a.leaves) + 1)
	a.leaves = append(a.leaves, l)
	return l.ID
}

// Node resolves id. An unknown id panics.
func (a *Arena) Node(id NodeID) *Node {
	if id <= NoNode || int(id) > len(a.nodes) {
		panic(fmt.Sprintf("router: invalid node id %d", id))
	}
	return a.nodes[id-1]
}

// Leaf resolves id. An unknown id panics.
func (a *Arena) Leaf(id LeafID) *Leaf {
	if id <= NoLeaf || int(id) > len(a.leaves) {
		panic(fmt.Sprintf("router: invalid leaf id %d", id))
	}
	return a.leaves[id-1]
}

// Len returns the number of nodes ever added.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// LeafLen returns the number of leaves ever added.
func (a *Arena) LeafLen() int {
	return len(a.leaves)
}

// containerOutput is the artifact path of a container at urlPath.
func (a *Arena) containerOutput(urlPath string) string {
	rel := strings.TrimPrefix(urlPath, routepath.Separator)
	if rel == "" {
		return routepath.JoinPaths(IndexName+a.ext, a.outputDir)
	}
	return routepath.JoinPaths(rel+routepath.Separator+IndexName+a.ext, a.outputDir)
}
