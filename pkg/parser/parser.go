// Package parser extracts HTTP handlers and imports from route files.
//
// A route file is plain JavaScript or TypeScript. Exported functions named
// after an HTTP method (GET, POST, ...) become method handlers and the
// default export becomes the ANY handler:
//
//	import { db } from "../db.ts";
//
//	export function GET(req) {
//	  return db.list();
//	}
//
//	export default (req) => {
//	  return new Response("not allowed", { status: 405 });
//	};
//
// The extractor rewrites relative imports so they resolve from the
// generated output file, lifts the handler bodies out, and returns the
// remaining top-level code untouched.
package parser

import (
	"os"
	"strings"

	"github.com/densky-dev/densky/pkg/routepath"
)

// MinContentLength is the size at or below which a route file is
// considered empty.
const MinContentLength = 10

// File is the extracted form of one route file.
type File struct {
	// Imports are the rewritten import statements, in source order.
	Imports []Import

	// Handlers are the extracted handlers, in source order.
	Handlers []Handler

	// Rest is the source without its imports and handlers.
	Rest string
}

// ImportBlock renders every import, one per line.
func (f *File) ImportBlock() string {
	stmts := make([]string, 0, len(f.Imports))
	for _, imp := range f.Imports {
		stmts = append(stmts, imp.Statement())
	}
	return strings.Join(stmts, "\n")
}

// HandlerBlock renders every handler. Method handlers come first in source
// order, the ANY handler last, so a specific method always wins.
func (f *File) HandlerBlock() string {
	var methods, fallthroughs []string
	for _, h := range f.Handlers {
		if h.Method == MethodANY {
			fallthroughs = append(fallthroughs, h.Code())
			continue
		}
		methods = append(methods, h.Code())
	}
	return strings.Join(append(methods, fallthroughs...), "\n")
}

// HasMethod reports whether the file answers method, directly or via ANY.
func (f *File) HasMethod(method Method) bool {
	for _, h := range f.Handlers {
		if h.Method == method || h.Method == MethodANY {
			return true
		}
	}
	return false
}

// Methods lists the distinct handler methods in source order.
func (f *File) Methods() []Method {
	seen := make(map[Method]bool, len(f.Handlers))
	var out []Method
	for _, h := range f.Handlers {
		if !seen[h.Method] {
			seen[h.Method] = true
			out = append(out, h.Method)
		}
	}
	return out
}

// Extractor parses route files. The zero value reports paths relative to
// the process working directory.
type Extractor struct {
	// WorkDir is the directory error paths are reported relative to.
	WorkDir string
}

// NewExtractor returns an Extractor reporting paths relative to workDir.
func NewExtractor(workDir string) *Extractor {
	return &Extractor{WorkDir: workDir}
}

// Parse extracts content, read from filePath, for a dispatcher written to
// outputPath.
//
// It returns ErrEmpty when content is too short or exports no handlers,
// ErrInvalidSyntax for malformed imports or unterminated bodies, and
// ErrCurrentDir when no working directory can be determined.
func (e *Extractor) Parse(content, filePath, outputPath string) (*File, error) {
	relPath, err := e.relPath(filePath)
	if err != nil {
		return nil, err
	}

	if len(content) <= MinContentLength {
		return nil, emptyError(relPath, "The file is empty or very short (less than 10 characters)")
	}

	imports, rest, err := extractImports(content, filePath, outputPath, relPath)
	if err != nil {
		return nil, err
	}

	handlers, rest, err := extractHandlers(rest, relPath)
	if err != nil {
		return nil, err
	}

	if len(handlers) == 0 {
		return nil, emptyError(relPath, "The file exports no HTTP handlers")
	}

	return &File{
		Imports:  imports,
		Handlers: handlers,
		Rest:     strings.TrimSpace(rest),
	}, nil
}

// ParseFile reads filePath and parses it.
func (e *Extractor) ParseFile(filePath, outputPath string) (*File, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		relPath, rerr := e.relPath(filePath)
		if rerr != nil {
			return nil, rerr
		}
		return nil, &ParseError{Kind: ErrEmpty, RelPath: relPath, Message: "The file cannot be read", Err: err}
	}
	return e.Parse(string(data), filePath, outputPath)
}

func (e *Extractor) relPath(filePath string) (string, error) {
	workDir := e.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", &ParseError{Kind: ErrCurrentDir, Err: err}
		}
		workDir = wd
	}

	rel, ok := routepath.RelativePath(routepath.ToSlash(filePath), routepath.ToSlash(workDir))
	if !ok {
		return filePath, nil
	}
	return strings.TrimPrefix(rel, "./"), nil
}
