package router

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/densky-dev/densky/pkg/routepath"
)

// Tree is the merged routing tree built from discovered leaves.
//
// Insertion keeps the children of every node free of shared first
// segments: a route sharing a prefix with a sibling is merged with it
// under a new container at the common prefix, and a route below an
// existing container is pulled into it.
type Tree struct {
	mu     sync.Mutex
	arena  *Arena
	logger *slog.Logger

	ignored  []LeafID
	shadowed []LeafID
}

// NewTree returns a tree with a fresh root in arena.
func NewTree(arena *Arena, logger *slog.Logger) *Tree {
	if logger == nil {
		logger = slog.Default()
	}
	arena.CreateRoot()
	return &Tree{
		arena:  arena,
		logger: logger.With("component", "router"),
	}
}

// Arena returns the arena backing the tree.
func (t *Tree) Arena() *Arena {
	return t.arena
}

// Root returns the root id.
func (t *Tree) Root() NodeID {
	return t.arena.Root()
}

// Node resolves id.
func (t *Tree) Node(id NodeID) *Node {
	return t.arena.Node(id)
}

// Leaf resolves id.
func (t *Tree) Leaf(id LeafID) *Leaf {
	return t.arena.Leaf(id)
}

// Ignored returns leaves dropped because their name starts with "_"
// without being a convention.
func (t *Tree) Ignored() []LeafID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]LeafID(nil), t.ignored...)
}

// Shadowed returns leaves dropped because another leaf already backs the
// same node. The first inserted leaf wins.
func (t *Tree) Shadowed() []LeafID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]LeafID(nil), t.shadowed...)
}

// AddLeaf stores leaf in the arena and inserts it below the root.
func (t *Tree) AddLeaf(leaf *Leaf) LeafID {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.arena.AddLeaf(leaf)
	t.insert(t.arena.Root(), &Node{
		Kind:       KindRoute,
		Path:       leaf.Path,
		RelPath:    leaf.RelPath,
		OutputPath: leaf.OutputPath,
		Leaf:       id,
	})
	return id
}

// Insert places child below parent. A child with ID NoNode is added to
// the arena when it is placed.
func (t *Tree) Insert(parent NodeID, child *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.insert(parent, child)
}

func (t *Tree) insert(parentID NodeID, child *Node) {
	parent := t.arena.Node(parentID)

	if child.Kind != KindContainer {
		switch child.Path {
		case routepath.JoinURL(parent.Path, FallbackName):
			child.Kind = KindFallback
			t.setRelPath(child, FallbackRelPath)
			parent.Fallback = t.place(parentID, child)
			return
		case routepath.JoinURL(parent.Path, MiddlewareName):
			child.Kind = KindMiddleware
			t.setRelPath(child, MiddlewareRelPath)
			parent.Middleware = t.place(parentID, child)
			return
		case routepath.JoinURL(parent.Path, IndexName):
			if t.adopt(parent, child) {
				parent.OutputPath = t.arena.Leaf(child.Leaf).OutputPath
			}
			return
		}

		if last := routepath.LastSegment(child.Path); strings.HasPrefix(last, "_") && !isConventionName(last) {
			if child.HasLeaf() {
				t.ignored = append(t.ignored, child.Leaf)
			}
			t.logger.Debug("ignoring underscore route", "path", child.Path)
			return
		}
	}

	if child.Path == parent.Path {
		t.adopt(parent, child)
		return
	}

	rel := strings.TrimPrefix(strings.TrimPrefix(child.Path, parent.Path), routepath.Separator)
	t.setRelPath(child, rel)

	for idx, siblingID := range parent.Children {
		sibling := t.arena.Node(siblingID)
		common, ok := CommonPath(sibling.RelPath, rel)
		if !ok {
			continue
		}

		if child.Path == sibling.Path {
			t.collide(parent, idx, sibling, child)
			return
		}

		if sibling.Kind == KindContainer && strings.HasPrefix(child.Path, sibling.Path+routepath.Separator) {
			t.insert(siblingID, child)
			return
		}

		containerPath := routepath.JoinURL(parent.Path, common)
		containerID := t.arena.Add(&Node{
			Kind:       KindContainer,
			Parent:     parentID,
			Path:       containerPath,
			RelPath:    common,
			OutputPath: t.arena.containerOutput(containerPath),
		})
		parent.Children[idx] = containerID

		t.insert(containerID, sibling)
		t.insert(containerID, child)
		return
	}

	if child.Kind == KindRoute && isConventionName(routepath.LastSegment(child.Path)) {
		containerPath := routepath.ParentPath(child.Path)
		containerID := t.arena.Add(&Node{
			Kind:       KindContainer,
			Parent:     parentID,
			Path:       containerPath,
			RelPath:    routepath.ParentPath(rel),
			OutputPath: t.arena.containerOutput(containerPath),
		})
		parent.Children = append(parent.Children, containerID)
		t.insert(containerID, child)
		return
	}

	parent.Children = append(parent.Children, t.place(parentID, child))
}

// place adds child to the arena if needed and attaches it to parentID.
func (t *Tree) place(parentID NodeID, child *Node) NodeID {
	child.Parent = parentID
	if child.ID == NoNode {
		return t.arena.Add(child)
	}
	return child.ID
}

// adopt gives child's leaf to parent. It reports false when parent already
// has a leaf, in which case child's leaf is shadowed.
func (t *Tree) adopt(parent, child *Node) bool {
	if !child.HasLeaf() {
		return false
	}
	if parent.HasLeaf() {
		t.shadowed = append(t.shadowed, child.Leaf)
		t.logger.Warn("route shadowed by an earlier file",
			"path", parent.Path,
			"kept", t.arena.Leaf(parent.Leaf).FilePath,
			"dropped", t.arena.Leaf(child.Leaf).FilePath,
		)
		return false
	}

	parent.Leaf = child.Leaf
	t.arena.Leaf(child.Leaf).RelPath = parent.RelPath
	if child.ID != NoNode {
		child.Parent = parent.ID
	}
	return true
}

// collide handles a child whose path equals the path of the sibling at idx.
func (t *Tree) collide(parent *Node, idx int, sibling, child *Node) {
	if sibling.Kind == KindContainer {
		t.adopt(sibling, child)
		return
	}
	if child.Kind != KindContainer {
		t.adopt(sibling, child)
		return
	}

	// A container arriving at the path of a plain route takes its place
	// and its leaf.
	t.setRelPath(child, sibling.RelPath)
	parent.Children[idx] = t.place(parent.ID, child)
	t.adopt(child, sibling)
}

func (t *Tree) setRelPath(n *Node, rel string) {
	n.RelPath = rel
	if n.HasLeaf() {
		t.arena.Leaf(n.Leaf).RelPath = rel
	}
}

func isConventionName(name string) bool {
	return name == IndexName || name == FallbackName || name == MiddlewareName
}

// MiddlewareChain returns the middleware ids that apply to id, root first:
// the middleware of every ancestor followed by the node's own.
func (t *Tree) MiddlewareChain(id NodeID) []NodeID {
	var chain []NodeID
	for cur := id; cur != NoNode; {
		n := t.arena.Node(cur)
		if n.Middleware != NoNode {
			chain = append(chain, n.Middleware)
		}
		cur = n.Parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Walk visits the tree depth first: a node, its middleware, its children
// in order, then its fallback. Returning false from fn skips the node's
// descendants.
func (t *Tree) Walk(fn func(n *Node) bool) {
	t.walk(t.arena.Root(), fn)
}

func (t *Tree) walk(id NodeID, fn func(n *Node) bool) {
	n := t.arena.Node(id)
	if !fn(n) {
		return
	}
	if n.Middleware != NoNode {
		t.walk(n.Middleware, fn)
	}
	for _, child := range n.Children {
		t.walk(child, fn)
	}
	if n.Fallback != NoNode {
		t.walk(n.Fallback, fn)
	}
}

// Nodes returns every reachable node in Walk order.
func (t *Tree) Nodes() []*Node {
	var out []*Node
	t.Walk(func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out
}
