package router

import (
	"fmt"
	"io"
	"strings"
)

// Display writes the tree view:
//
//	☆ /
//	| ■ middleware
//	| ▲ about
//	| △ users
//	| | ▲ $id
//	| ...fallback
//
// ★ and ☆ mark the root with and without a leaf, ▲ and △ any other node.
func (t *Tree) Display(w io.Writer) error {
	_, err := io.WriteString(w, t.String())
	return err
}

// String renders the tree as Display does, without a trailing newline.
func (t *Tree) String() string {
	return strings.Join(t.lines(t.arena.Root()), "\n")
}

func (t *Tree) lines(id NodeID) []string {
	n := t.arena.Node(id)

	marker := "△"
	switch {
	case n.Kind == KindRoot && n.HasLeaf():
		marker = "★"
	case n.Kind == KindRoot:
		marker = "☆"
	case n.HasLeaf():
		marker = "▲"
	}

	out := []string{fmt.Sprintf("%s %s", marker, n.RelPath)}
	if n.Middleware != NoNode {
		out = append(out, "| ■ middleware")
	}
	for _, child := range n.Children {
		for _, line := range t.lines(child) {
			out = append(out, "| "+line)
		}
	}
	if n.Fallback != NoNode {
		out = append(out, "| ...fallback")
	}
	return out
}
