package router

import (
	"github.com/densky-dev/densky/pkg/matcher"
	"github.com/densky-dev/densky/pkg/routepath"
)

// Match is the node a request path dispatches to.
type Match struct {
	// Node is the route, container or fallback that handles the path.
	Node NodeID

	// Params are the captured variable segments.
	Params map[string]string

	// Middleware lists the middleware run before the handler, root first.
	Middleware []NodeID

	// Fallback is set when no route matched and a fallback took over.
	Fallback bool
}

// Match resolves urlPath the way generated dispatchers do, without
// looking at methods: the first leaf matching every segment wins, tried
// in specificity order, and the nearest fallback catches the rest.
func (t *Tree) Match(urlPath string) (Match, bool) {
	return t.match(t.arena.Root(), routepath.SplitSegments(urlPath), nil)
}

func (t *Tree) match(id NodeID, segs []string, params map[string]string) (Match, bool) {
	n := t.arena.Node(id)

	if n.Kind != KindRoot {
		um := matcher.New(n.RelPath)
		captured, ok := um.MatchStart(segs)
		if !ok {
			return Match{}, false
		}
		if len(captured) > 0 {
			merged := make(map[string]string, len(params)+len(captured))
			for k, v := range params {
				merged[k] = v
			}
			for k, v := range captured {
				merged[k] = v
			}
			params = merged
		}
		segs = um.Trim(segs)
	}

	if n.HasLeaf() && len(segs) == 0 {
		return Match{Node: id, Params: params, Middleware: t.MiddlewareChain(id)}, true
	}

	children := make([]*Node, 0, len(n.Children))
	for _, child := range n.Children {
		children = append(children, t.arena.Node(child))
	}
	SortBySpecificity(children)

	for _, child := range children {
		if m, ok := t.match(child.ID, segs, params); ok {
			return m, true
		}
	}

	if n.Fallback != NoNode {
		return Match{
			Node:       n.Fallback,
			Params:     params,
			Middleware: t.MiddlewareChain(n.Fallback),
			Fallback:   true,
		}, true
	}

	return Match{}, false
}
