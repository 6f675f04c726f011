package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func parse(t *testing.T, content string) *File {
	t.Helper()
	f, err := NewExtractor("/root").Parse(content, "/root/routes/a/b.ts", "/root/out/a/b.ts")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return f
}

func TestParseNamedHandler(t *testing.T) {
	f := parse(t, "export function GET(req) { return 1; }")

	if len(f.Handlers) != 1 {
		t.Fatalf("len(Handlers) = %d, want 1", len(f.Handlers))
	}
	h := f.Handlers[0]
	if h.Method != MethodGET {
		t.Errorf("Method = %q, want GET", h.Method)
	}
	if h.Param != "req" {
		t.Errorf("Param = %q, want req", h.Param)
	}
	if h.Body != "return 1;" {
		t.Errorf("Body = %q, want %q", h.Body, "return 1;")
	}
}

func TestParseDefaultArrow(t *testing.T) {
	f := parse(t, "export default (req) => { return 2; }")

	if len(f.Handlers) != 1 {
		t.Fatalf("len(Handlers) = %d, want 1", len(f.Handlers))
	}
	h := f.Handlers[0]
	if h.Method != MethodANY {
		t.Errorf("Method = %q, want ANY", h.Method)
	}
	if h.Body != "return 2;" {
		t.Errorf("Body = %q, want %q", h.Body, "return 2;")
	}
}

func TestParseNestedBraces(t *testing.T) {
	f := parse(t, "export function POST(req) { const o = { a: 1 }; return o; }\nconst after = 1;")

	if got, want := f.Handlers[0].Body, "const o = { a: 1 }; return o;"; got != want {
		t.Errorf("Body = %q, want %q", got, want)
	}
	if f.Rest != "const after = 1;" {
		t.Errorf("Rest = %q", f.Rest)
	}
}

func TestParseHandlerForms(t *testing.T) {
	tests := []struct {
		name   string
		source string
		method Method
		param  string
	}{
		{"async function", "export async function PUT(ctx) {\n  return ctx;\n}", MethodPUT, "ctx"},
		{"typed param", "export function PATCH(req: Request): Response {\n  return req;\n}", MethodPATCH, "req"},
		{"arrow const", "export const DELETE = async (r) => {\n  return r;\n};", MethodDELETE, "r"},
		{"no param", "export function OPTIONS() {\n  return null;\n}", MethodOPTIONS, ""},
		{"default function", "export default async function handler(req) {\n  return req;\n}", MethodANY, "req"},
		{"anonymous default", "export default function (req) {\n  return req;\n}", MethodANY, "req"},
		{"named ANY", "export function ANY(req) {\n  return 3;\n}", MethodANY, "req"},
		{"arrow ANY", "export const ANY = (req) => {\n  return 3;\n};", MethodANY, "req"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parse(t, tt.source)
			if len(f.Handlers) != 1 {
				t.Fatalf("len(Handlers) = %d, want 1", len(f.Handlers))
			}
			if f.Handlers[0].Method != tt.method {
				t.Errorf("Method = %q, want %q", f.Handlers[0].Method, tt.method)
			}
			if f.Handlers[0].Param != tt.param {
				t.Errorf("Param = %q, want %q", f.Handlers[0].Param, tt.param)
			}
			if strings.Contains(f.Rest, "export") {
				t.Errorf("handler left in Rest: %q", f.Rest)
			}
		})
	}
}

func TestParseKeepsNonMethodExports(t *testing.T) {
	src := "export function helper(x) { return x * 2; }\nexport function GET(req) { return helper(1); }"
	f := parse(t, src)

	if len(f.Handlers) != 1 || f.Handlers[0].Method != MethodGET {
		t.Fatalf("Handlers = %+v", f.Handlers)
	}
	if !strings.Contains(f.Rest, "function helper(x) { return x * 2; }") {
		t.Errorf("helper missing from Rest: %q", f.Rest)
	}
}

func TestHandlerCode(t *testing.T) {
	h := Handler{Method: MethodGET, Param: "req", Body: "return 1;"}
	got := h.Code()

	if !strings.HasPrefix(got, `if (__req_param__.method == "GET") {`) {
		t.Errorf("missing method guard:\n%s", got)
	}
	if !strings.Contains(got, "let req = __req_param__;") {
		t.Errorf("missing param binding:\n%s", got)
	}

	multi := Handler{Method: MethodPOST, Param: ReqParam, Body: "return `a\nb`;"}
	if got := multi.Code(); !strings.Contains(got, "return `a\nb`;") {
		t.Errorf("body re-indented:\n%s", got)
	}

	catchAll := Handler{Method: MethodANY, Param: ReqParam, Body: "return 2;"}
	if got := catchAll.Code(); got != "return 2;" {
		t.Errorf("ANY Code() = %q, want unguarded body without binding", got)
	}
}

func TestHandlerBlockPutsAnyLast(t *testing.T) {
	f := parse(t, "export default (req) => { return 0; }\nexport function GET(req) { return 1; }")

	block := f.HandlerBlock()
	get := strings.Index(block, `"GET"`)
	rest := strings.Index(block, "return 0;")
	if get == -1 || rest == -1 || get > rest {
		t.Errorf("GET handler must precede ANY:\n%s", block)
	}
	if !f.HasMethod(MethodPOST) {
		t.Error("ANY handler should answer POST")
	}
}

func TestParseImports(t *testing.T) {
	src := `import { db } from "../utils.ts";
import * as path from 'node:path';
import "./side-effect.ts";
import Default, { named } from "/root/lib/x.ts";

export function GET(req) { return db; }
`
	f := parse(t, src)

	want := []Import{
		{Clause: "{ db }", Path: "../../routes/utils.ts", Original: "../utils.ts"},
		{Clause: "* as path", Path: "node:path", Original: "node:path"},
		{Clause: "", Path: "../../routes/a/side-effect.ts", Original: "./side-effect.ts"},
		{Clause: "Default, { named }", Path: "../../lib/x.ts", Original: "/root/lib/x.ts"},
	}
	if len(f.Imports) != len(want) {
		t.Fatalf("len(Imports) = %d, want %d: %+v", len(f.Imports), len(want), f.Imports)
	}
	for i := range want {
		if f.Imports[i] != want[i] {
			t.Errorf("Imports[%d] = %+v, want %+v", i, f.Imports[i], want[i])
		}
	}
	if strings.Contains(f.Rest, "import") {
		t.Errorf("imports left in Rest: %q", f.Rest)
	}
	if !strings.Contains(f.ImportBlock(), `import { db } from "../../routes/utils.ts";`) {
		t.Errorf("ImportBlock() = %q", f.ImportBlock())
	}
}

func TestResolveImport(t *testing.T) {
	tests := []struct {
		specifier, file, out, want string
	}{
		{"../utils.ts", "/root/routes/a/b.ts", "/root/out/a/b.ts", "../../routes/utils.ts"},
		{"./c.ts", "/p/routes/x.ts", "/p/routes/x.ts", "./c.ts"},
		{"lodash", "/p/routes/x.ts", "/p/out/x.ts", "lodash"},
		{"/p/lib/db.ts", "/p/routes/x.ts", "/p/out/x.ts", "../lib/db.ts"},
	}
	for _, tt := range tests {
		got, ok := ResolveImport(tt.specifier, tt.file, tt.out)
		if !ok || got != tt.want {
			t.Errorf("ResolveImport(%q) = %q, %v; want %q", tt.specifier, got, ok, tt.want)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	for _, src := range []string{"", "// hi", "0123456789"} {
		_, err := NewExtractor("/root").Parse(src, "/root/routes/x.ts", "/root/out/x.ts")
		if !errors.Is(err, ErrEmpty) {
			t.Errorf("Parse(%q) error = %v, want ErrEmpty", src, err)
		}
		if errors.Is(err, ErrInvalidSyntax) {
			t.Errorf("Parse(%q) must not be InvalidSyntax", src)
		}
	}

	_, err := NewExtractor("/root").Parse("const x = 1; // no handlers here", "/root/routes/x.ts", "/root/out/x.ts")
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("no handlers: error = %v, want ErrEmpty", err)
	}
}

func TestParseInvalidSyntax(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing from", "import { a } \"./a.ts\";\nexport function GET(req) { return 1; }"},
		{"missing closing quote", "import { a } from \"./a.ts\nexport function GET(req) { return 1; }"},
		{"unterminated body", "export function GET(req) { if (x) { return 1; }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor("/root").Parse(tt.src, "/root/routes/x.ts", "/root/out/x.ts")
			if !errors.Is(err, ErrInvalidSyntax) {
				t.Fatalf("error = %v, want ErrInvalidSyntax", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not *ParseError", err)
			}
			if pe.RelPath != "routes/x.ts" {
				t.Errorf("RelPath = %q, want routes/x.ts", pe.RelPath)
			}
			if !strings.HasPrefix(err.Error(), "[routes/x.ts] ") {
				t.Errorf("Error() = %q", err.Error())
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.ts")
	if err := os.WriteFile(path, []byte("export function GET(req) { return 1; }"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := NewExtractor(dir).ParseFile(path, filepath.Join(dir, "out", "index.ts"))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(f.Handlers) != 1 {
		t.Errorf("len(Handlers) = %d", len(f.Handlers))
	}

	_, err = NewExtractor(dir).ParseFile(filepath.Join(dir, "missing.ts"), "out.ts")
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("missing file error = %v, want ErrEmpty", err)
	}
}
