package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/densky-dev/densky/pkg/matcher"
	"github.com/densky-dev/densky/pkg/parser"
	"github.com/densky-dev/densky/pkg/routepath"
)

// GeneratedHeader opens every artifact.
const GeneratedHeader = "// Code generated by densky. DO NOT EDIT."

// NewCacheHash returns a fresh value for GeneratorOptions.CacheHash.
func NewCacheHash() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// GeneratorOptions configures a Generator.
type GeneratorOptions struct {
	// RuntimeImport is imported as __runtime by every artifact when set.
	RuntimeImport string

	// CacheHash is appended as ?cache_hash= to relative imports between
	// artifacts so a rebuilt tree is never served from a module cache.
	CacheHash string

	// Extractor parses leaf sources. Defaults to one rooted at the process
	// working directory.
	Extractor *parser.Extractor

	Logger *slog.Logger
}

// Artifact is the generated dispatcher of one node.
type Artifact struct {
	Node       NodeID
	Kind       Kind
	Path       string
	OutputPath string
	Content    string

	// Methods answered by the node's own leaf.
	Methods []parser.Method

	// Empty is set when the leaf had nothing to extract.
	Empty bool
}

// Generator turns a Tree into dispatcher source files.
type Generator struct {
	tree   *Tree
	opts   GeneratorOptions
	logger *slog.Logger
}

// NewGenerator creates a generator for tree.
func NewGenerator(tree *Tree, opts GeneratorOptions) *Generator {
	if opts.Extractor == nil {
		opts.Extractor = &parser.Extractor{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		tree:   tree,
		opts:   opts,
		logger: logger.With("component", "generator"),
	}
}

// GenerateAll generates every reachable node. A failing node does not
// stop its siblings; all failures are joined into the returned error.
func (g *Generator) GenerateAll() ([]Artifact, error) {
	var (
		artifacts []Artifact
		errs      []error
	)
	for _, n := range g.tree.Nodes() {
		artifact, err := g.GenerateNode(n.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, errors.Join(errs...)
}

// GenerateNode generates the dispatcher for id.
func (g *Generator) GenerateNode(id NodeID) (Artifact, error) {
	n := g.tree.Node(id)
	artifact := Artifact{
		Node:       n.ID,
		Kind:       n.Kind,
		Path:       n.Path,
		OutputPath: n.OutputPath,
	}

	var file *parser.File
	if n.HasLeaf() {
		parsed, err := g.parseLeaf(n)
		switch {
		case errors.Is(err, parser.ErrEmpty):
			artifact.Empty = true
			g.logger.Debug("leaf has nothing to extract", "path", n.Path, "error", err)
		case err != nil:
			return Artifact{}, fmt.Errorf("generating %s: %w", n.Path, err)
		default:
			file = parsed
			artifact.Methods = parsed.Methods()
		}
	}

	children := make([]*Node, 0, len(n.Children))
	for _, child := range n.Children {
		children = append(children, g.tree.Node(child))
	}
	SortBySpecificity(children)

	w := &codeWriter{}
	w.line(GeneratedHeader)

	// Imports
	if g.opts.RuntimeImport != "" {
		w.line(`import * as __runtime from ` + strconv.Quote(g.opts.RuntimeImport) + `;`)
	}
	if n.Fallback != NoNode {
		w.line(`import __fallback from ` + strconv.Quote(g.importPath(n, g.tree.Node(n.Fallback))) + `;`)
	}
	for i, child := range children {
		w.line(`import ` + childIdent(i) + ` from ` + strconv.Quote(g.importPath(n, child)) + `;`)
	}
	if n.Middleware != NoNode {
		w.line(`import __middleware from ` + strconv.Quote(g.importPath(n, g.tree.Node(n.Middleware))) + `;`)
	}
	if file != nil && len(file.Imports) > 0 {
		w.line(file.ImportBlock())
	}

	um := matcher.New(n.RelPath)
	guarded := n.Kind != KindRoot && !n.IsConvention()

	if guarded {
		if serial := um.SerialDecl(); serial != "" {
			w.blank()
			w.line(strings.TrimRight(serial, "\n"))
		}
	}

	if file != nil && file.Rest != "" {
		w.blank()
		w.raw(file.Rest)
	}

	req := parser.ReqParam
	acc := req + "." + matcher.AccumulatorField

	w.blank()
	w.line(`export default async function dispatch(` + req + `) {`)
	w.indent()

	if n.Kind == KindRoot {
		w.line(`if (!` + acc + `) {`)
		w.indent()
		w.line(`const __segments = String(` + req + `.pathname ?? "").split("/").filter(Boolean);`)
		w.line(acc + ` = { segments: __segments, path: __segments.join("/") };`)
		w.dedent()
		w.line(`}`)
		w.line(`if (!` + req + `.params) ` + req + `.params = new Map();`)
	}

	if n.IsConvention() {
		if file != nil {
			w.raw(file.HandlerBlock())
		}
		w.line(`return undefined;`)
		w.dedent()
		w.line(`}`)
		artifact.Content = w.String()
		return artifact, nil
	}

	w.line(`const __snapshot = ` + acc + `.segments;`)

	if guarded {
		w.line(`if (` + um.StartDecl(req) + `) {`)
		w.indent()
		if update := um.UpdateDecl(req); update != "" {
			w.line(update)
		}
	}

	if n.Middleware != NoNode {
		w.line(`const __mw = await __middleware(` + req + `);`)
		w.line(`if (__mw) return __mw;`)
	}

	if file != nil {
		w.line(`if (` + um.ExactDecl(req) + `) {`)
		w.indent()
		w.raw(file.HandlerBlock())
		w.dedent()
		w.line(`}`)
	}

	for i := range children {
		result := "__r" + strconv.Itoa(i)
		w.line(`const ` + result + ` = await ` + childIdent(i) + `(` + req + `);`)
		w.line(`if (` + result + `) return ` + result + `;`)
	}

	if n.Fallback != NoNode {
		w.line(`const __fb = await __fallback(` + req + `);`)
		w.line(`if (__fb) return __fb;`)
	}

	if guarded {
		w.dedent()
		w.line(`}`)
	}

	w.line(acc + `.segments = __snapshot;`)
	w.line(acc + `.path = __snapshot.join("/");`)
	w.line(`return undefined;`)
	w.dedent()
	w.line(`}`)

	artifact.Content = w.String()
	return artifact, nil
}

func (g *Generator) parseLeaf(n *Node) (*parser.File, error) {
	leaf := g.tree.Leaf(n.Leaf)
	content, err := leaf.Content()
	if err != nil {
		return nil, &parser.ParseError{
			Kind:    parser.ErrEmpty,
			RelPath: leaf.FilePath,
			Message: "The file cannot be read",
			Err:     err,
		}
	}
	return g.opts.Extractor.Parse(content, leaf.FilePath, n.OutputPath)
}

// importPath is the specifier from's artifact uses to import to's.
func (g *Generator) importPath(from, to *Node) string {
	spec, ok := routepath.RelativePath(to.OutputPath, routepath.ParentPath(from.OutputPath))
	if !ok {
		spec = to.OutputPath
	}
	if g.opts.CacheHash != "" && strings.HasPrefix(spec, ".") {
		spec += "?cache_hash=" + g.opts.CacheHash
	}
	return spec
}

func childIdent(i int) string {
	return "__child_" + strconv.Itoa(i)
}

// codeWriter accumulates indented source lines.
type codeWriter struct {
	b     strings.Builder
	depth int
}

func (w *codeWriter) line(s string) {
	for _, l := range strings.Split(s, "\n") {
		if l == "" {
			w.b.WriteString("\n")
			continue
		}
		w.b.WriteString(strings.Repeat("  ", w.depth))
		w.b.WriteString(l)
		w.b.WriteString("\n")
	}
}

// raw writes s verbatim. User code goes through raw so no prefix lands
// inside multi-line strings and template literals.
func (w *codeWriter) raw(s string) {
	w.b.WriteString(s)
	if !strings.HasSuffix(s, "\n") {
		w.b.WriteString("\n")
	}
}

func (w *codeWriter) blank() {
	w.b.WriteString("\n")
}

func (w *codeWriter) indent() { w.depth++ }

func (w *codeWriter) dedent() {
	if w.depth > 0 {
		w.depth--
	}
}

func (w *codeWriter) String() string {
	return w.b.String()
}
