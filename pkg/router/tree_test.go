package router

import (
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTree(paths ...string) *Tree {
	tree := NewTree(NewArena("/out"), discardLogger())
	for _, p := range paths {
		tree.AddLeaf(NewLeaf(p, "/src/routes"+p+".ts", "/out"+p+".ts"))
	}
	return tree
}

// shape renders a node and its descendants with children sorted, so trees
// differing only in child order compare equal.
func shape(tree *Tree, id NodeID) string {
	n := tree.Node(id)
	s := n.RelPath
	if n.HasLeaf() {
		s += "*"
	}
	if n.Middleware != NoNode {
		s += "+mw"
	}
	if n.Fallback != NoNode {
		s += "+fb"
	}
	if len(n.Children) == 0 {
		return s
	}
	children := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		children = append(children, shape(tree, child))
	}
	sort.Strings(children)
	return s + "(" + strings.Join(children, ",") + ")"
}

func permutations(items []string) [][]string {
	if len(items) <= 1 {
		return [][]string{append([]string(nil), items...)}
	}
	var out [][]string
	for i := range items {
		rest := make([]string, 0, len(items)-1)
		rest = append(rest, items[:i]...)
		rest = append(rest, items[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]string{items[i]}, p...))
		}
	}
	return out
}

func TestCommonPath(t *testing.T) {
	tests := []struct {
		self, other string
		want        string
		wantOK      bool
	}{
		{"a/b/c/and/more", "a/b/some/other", "a/b", true},
		{"a/b", "a/b/c", "a/b", true},
		{"a/b/c", "a/b", "a/b", true},
		{"users", "users", "users", true},
		{"x/y", "a/b", "", false},
		{"ab", "a", "", false},
		{"a/b", "a//b", "", false},
		{"a", "/a", "", false},
		{"a", "a/", "", false},
	}

	for _, tt := range tests {
		got, ok := CommonPath(tt.self, tt.other)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("CommonPath(%q, %q) = %q, %v; want %q, %v", tt.self, tt.other, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestInsertSharedPrefixCreatesContainer(t *testing.T) {
	for _, order := range [][]string{{"/c/a", "/c/b"}, {"/c/b", "/c/a"}} {
		tree := newTestTree(order...)
		root := tree.Node(tree.Root())

		if len(root.Children) != 1 {
			t.Fatalf("%v: root children = %d, want 1", order, len(root.Children))
		}
		c := tree.Node(root.Children[0])
		if c.Kind != KindContainer || c.Path != "/c" || c.RelPath != "c" {
			t.Errorf("%v: container = %+v", order, c)
		}
		if c.Parent != tree.Root() {
			t.Errorf("%v: container parent = %d, want root", order, c.Parent)
		}
		if c.OutputPath != "/out/c/_index.ts" {
			t.Errorf("%v: container output = %q", order, c.OutputPath)
		}
		if got := shape(tree, c.ID); got != "c(a*,b*)" {
			t.Errorf("%v: shape = %q", order, got)
		}
		for _, child := range c.Children {
			if tree.Node(child).Parent != c.ID {
				t.Errorf("%v: child %d not re-parented", order, child)
			}
		}
	}
}

func TestInsertOrderIndependent(t *testing.T) {
	sets := [][]string{
		{"/a/b/c", "/a/b/d", "/a/e", "/a/b", "/f"},
		{"/a/b/c", "/a/b/d", "/a/e", "/a/_index", "/a/_middleware", "/f"},
		{"/x/y/z", "/x/y", "/x", "/x/w/v"},
	}

	for _, set := range sets {
		want := ""
		for _, order := range permutations(set) {
			tree := newTestTree(order...)
			got := shape(tree, tree.Root())
			if want == "" {
				want = got
				continue
			}
			if got != want {
				t.Fatalf("order %v: shape = %q, want %q", order, got, want)
			}
		}
	}
}

func TestInsertShapes(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{"flat", []string{"/a", "/b"}, "/(a*,b*)"},
		{"route becomes container", []string{"/users", "/users/$id"}, "/(users*($id*))"},
		{"deep common prefix", []string{"/a/b/c", "/a/b/d"}, "/(a/b(c*,d*))"},
		{"prefix is segment aligned", []string{"/ab", "/a"}, "/(a*,ab*)"},
		{"underscore dir kept", []string{"/_private/x", "/_private/y"}, "/(_private(x*,y*))"},
		{"conventions", []string{"/_fallback", "/_middleware", "/a"}, "/+mw+fb(a*)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := newTestTree(tt.paths...)
			if got := shape(tree, tree.Root()); got != tt.want {
				t.Errorf("shape = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIndexIntoContainerWithSibling(t *testing.T) {
	tree := newTestTree("/c/a", "/c/b")
	before := tree.Arena().Len()

	tree.AddLeaf(NewLeaf("/c/_index", "/src/routes/c/_index.ts", "/out/c/_index.ts"))

	if tree.Arena().Len() != before {
		t.Errorf("arena grew from %d to %d", before, tree.Arena().Len())
	}
	c := tree.Node(tree.Node(tree.Root()).Children[0])
	if !c.HasLeaf() {
		t.Fatal("container did not adopt the index leaf")
	}
	if len(c.Children) != 2 {
		t.Errorf("children = %d, want 2", len(c.Children))
	}
	leaf := tree.Leaf(c.Leaf)
	if leaf.RelPath != "c" {
		t.Errorf("leaf RelPath = %q, want c", leaf.RelPath)
	}
	if c.OutputPath != "/out/c/_index.ts" {
		t.Errorf("OutputPath = %q", c.OutputPath)
	}
}

func TestContainerTakesRouteLeaf(t *testing.T) {
	tree := newTestTree("/users")

	tree.Insert(tree.Root(), &Node{
		Kind:       KindContainer,
		Path:       "/users",
		OutputPath: "/out/users/_index.ts",
	})

	root := tree.Node(tree.Root())
	if len(root.Children) != 1 {
		t.Fatalf("root children = %d, want 1", len(root.Children))
	}
	c := tree.Node(root.Children[0])
	if c.Kind != KindContainer || c.RelPath != "users" {
		t.Errorf("child = %+v, want container users", c)
	}
	if !c.HasLeaf() {
		t.Fatal("container did not take the route's leaf")
	}
	if got := tree.Leaf(c.Leaf).FilePath; got != "/src/routes/users.ts" {
		t.Errorf("leaf FilePath = %q", got)
	}

	tree.AddLeaf(NewLeaf("/users/$id", "/src/routes/users/$id.ts", "/out/users/$id.ts"))
	if got := shape(tree, tree.Root()); got != "/(users*($id*))" {
		t.Errorf("shape = %q", got)
	}
}

func TestIndexIntoEmptyParent(t *testing.T) {
	tests := []struct {
		path    string
		wantRel string
	}{
		{"/docs/_index", "docs"},
		{"/a/b/_index", "a/b"},
	}

	for _, tt := range tests {
		tree := newTestTree(tt.path)
		root := tree.Node(tree.Root())

		if len(root.Children) != 1 {
			t.Fatalf("%s: root children = %d, want 1", tt.path, len(root.Children))
		}
		c := tree.Node(root.Children[0])
		if c.Kind != KindContainer || c.RelPath != tt.wantRel {
			t.Errorf("%s: container = %+v, want rel %q", tt.path, c, tt.wantRel)
		}
		if !c.HasLeaf() || len(c.Children) != 0 {
			t.Errorf("%s: container leaf=%v children=%d", tt.path, c.HasLeaf(), len(c.Children))
		}
		if got := tree.Leaf(c.Leaf).RelPath; got != tt.wantRel {
			t.Errorf("%s: leaf RelPath = %q", tt.path, got)
		}
	}
}

func TestRootIndex(t *testing.T) {
	tree := newTestTree("/_index")
	root := tree.Node(tree.Root())

	if !root.HasLeaf() || len(root.Children) != 0 {
		t.Fatalf("root leaf=%v children=%d", root.HasLeaf(), len(root.Children))
	}
	if root.OutputPath != "/out/_index.ts" {
		t.Errorf("root OutputPath = %q", root.OutputPath)
	}
	if !strings.HasPrefix(tree.String(), "★ /") {
		t.Errorf("display = %q", tree.String())
	}
}

func TestConventionNodes(t *testing.T) {
	tree := newTestTree("/_fallback", "/_middleware", "/users/_fallback", "/users/a")
	root := tree.Node(tree.Root())

	fb := tree.Node(root.Fallback)
	if fb.Kind != KindFallback || fb.RelPath != FallbackRelPath || fb.Parent != root.ID {
		t.Errorf("root fallback = %+v", fb)
	}
	mw := tree.Node(root.Middleware)
	if mw.Kind != KindMiddleware || mw.RelPath != MiddlewareRelPath {
		t.Errorf("root middleware = %+v", mw)
	}

	users := tree.Node(root.Children[0])
	if users.Path != "/users" || users.Fallback == NoNode {
		t.Errorf("users = %+v, want container with fallback", users)
	}
}

func TestUnderscoreRoutesIgnored(t *testing.T) {
	tree := newTestTree("/_helpers", "/a/_util", "/b")

	if got := shape(tree, tree.Root()); got != "/(b*)" {
		t.Errorf("shape = %q", got)
	}
	if n := len(tree.Ignored()); n != 2 {
		t.Errorf("Ignored() = %d, want 2", n)
	}
}

func TestDuplicateRouteFirstWins(t *testing.T) {
	for _, order := range [][]string{{"/users", "/users/_index"}, {"/users/_index", "/users"}} {
		tree := newTestTree(order...)
		users := tree.Node(tree.Node(tree.Root()).Children[0])

		if got := tree.Leaf(users.Leaf).Path; got != order[0] {
			t.Errorf("%v: kept %q, want %q", order, got, order[0])
		}
		if n := len(tree.Shadowed()); n != 1 {
			t.Errorf("%v: Shadowed() = %d, want 1", order, n)
		}
	}
}

func TestMiddlewareChain(t *testing.T) {
	tree := newTestTree("/_middleware", "/a/_middleware", "/a/b", "/a/c")
	root := tree.Node(tree.Root())
	a := tree.Node(root.Children[0])

	var b *Node
	for _, id := range a.Children {
		if n := tree.Node(id); n.RelPath == "b" {
			b = n
		}
	}
	if b == nil {
		t.Fatalf("node b not found in %s", shape(tree, a.ID))
	}

	chain := tree.MiddlewareChain(b.ID)
	if len(chain) != 2 || chain[0] != root.Middleware || chain[1] != a.Middleware {
		t.Errorf("MiddlewareChain = %v, want [%d %d]", chain, root.Middleware, a.Middleware)
	}
	if got := tree.MiddlewareChain(a.ID); len(got) != 2 {
		t.Errorf("container chain = %v", got)
	}
}

func TestDisplay(t *testing.T) {
	tree := newTestTree(
		"/convention/some-route",
		"/convention/with-index",
		"/convention/with-index/index-child",
		"/_middleware",
		"/_fallback",
	)

	want := strings.Join([]string{
		"☆ /",
		"| ■ middleware",
		"| △ convention",
		"| | ▲ some-route",
		"| | ▲ with-index",
		"| | | ▲ index-child",
		"| ...fallback",
	}, "\n")

	if got := tree.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}

	var sb strings.Builder
	if err := tree.Display(&sb); err != nil {
		t.Fatal(err)
	}
	if sb.String() != want {
		t.Error("Display and String differ")
	}
}

func TestWalkVisitsConventions(t *testing.T) {
	tree := newTestTree("/_middleware", "/a", "/_fallback")

	var kinds []Kind
	tree.Walk(func(n *Node) bool {
		kinds = append(kinds, n.Kind)
		return true
	})

	want := []Kind{KindRoot, KindMiddleware, KindRoute, KindFallback}
	if len(kinds) != len(want) {
		t.Fatalf("visited %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("visit %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestMatch(t *testing.T) {
	tree := newTestTree("/users/$id", "/users/list", "/users/_index", "/_fallback", "/$org/$repo")

	tests := []struct {
		path       string
		wantPath   string
		wantParams map[string]string
		fallback   bool
	}{
		{"/users/list", "/users/list", nil, false},
		{"/users/42", "/users/$id", map[string]string{"id": "42"}, false},
		{"/users", "/users", nil, false},
		{"/acme/web", "/$org/$repo", map[string]string{"org": "acme", "repo": "web"}, false},
		{"/nope", "/_fallback", nil, true},
	}

	for _, tt := range tests {
		m, ok := tree.Match(tt.path)
		if !ok {
			t.Errorf("Match(%q) found nothing", tt.path)
			continue
		}
		if got := tree.Node(m.Node).Path; got != tt.wantPath {
			t.Errorf("Match(%q) node = %q, want %q", tt.path, got, tt.wantPath)
		}
		if m.Fallback != tt.fallback {
			t.Errorf("Match(%q) fallback = %v", tt.path, m.Fallback)
		}
		for k, v := range tt.wantParams {
			if m.Params[k] != v {
				t.Errorf("Match(%q) params[%s] = %q, want %q", tt.path, k, m.Params[k], v)
			}
		}
	}
}

func TestArenaInvalidIDPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown id")
		}
	}()
	NewArena("/out").Node(42)
}
