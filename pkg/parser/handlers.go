package parser

import (
	"regexp"
	"sort"
	"strings"
)

// ReqParam is the canonical request parameter of generated dispatchers.
// Handlers that name their parameter differently get a binding to it.
const ReqParam = "__req_param__"

// Method is an HTTP method a handler answers to. MethodANY answers all.
type Method string

const (
	MethodGET     Method = "GET"
	MethodPOST    Method = "POST"
	MethodPUT     Method = "PUT"
	MethodPATCH   Method = "PATCH"
	MethodDELETE  Method = "DELETE"
	MethodHEAD    Method = "HEAD"
	MethodOPTIONS Method = "OPTIONS"
	MethodANY     Method = "ANY"
)

// ParseMethod maps an exported function name to its method.
// The match is case-sensitive: only upper-case names are handlers.
func ParseMethod(name string) (Method, bool) {
	switch m := Method(name); m {
	case MethodGET, MethodPOST, MethodPUT, MethodPATCH, MethodDELETE, MethodHEAD, MethodOPTIONS, MethodANY:
		return m, true
	}
	return "", false
}

var (
	// handlerRe matches the header of a named exported function or arrow
	// function, up to and including the opening brace of its body.
	// Groups: 1 function name, 2 function param, 3 const name, 4 const param.
	handlerRe = regexp.MustCompile(
		`export\s+(?:async\s+)?function\s+(\w+)\s*\(\s*(?:(\w+)\s*(?::[^)]+)?)?\)(?:\s*:[^{]+)?\s*\{` +
			`|export\s+const\s+(\w+)\s*=\s*(?:async\s*)?\(\s*(?:(\w+)\s*(?::[^)]+)?)?\)(?:\s*:[^{=]+)?\s*=>\s*\{`)

	// defaultRe matches the header of the default export.
	// Groups: 1 function param, 2 arrow param.
	defaultRe = regexp.MustCompile(
		`export\s+default\s+(?:async\s+)?function\s*\w*\s*\(\s*(?:(\w+)\s*(?::[^)]+)?)?\)(?:\s*:[^{]+)?\s*\{` +
			`|export\s+default\s+(?:async\s*)?\(\s*(?:(\w+)\s*(?::[^)]+)?)?\)(?:\s*:[^{=]+)?\s*=>\s*\{`)
)

// Handler is one extracted HTTP handler.
type Handler struct {
	// Method is the HTTP method, MethodANY for an ANY export or the
	// default export.
	Method Method

	// Param is the request parameter name as declared, possibly empty.
	Param string

	// Body is the trimmed text between the body braces.
	Body string
}

// Code renders the handler for inclusion in a dispatcher: the parameter
// binding followed by the body, guarded by a method test unless the
// handler answers every method.
func (h Handler) Code() string {
	body := h.Body
	if h.Param != "" && h.Param != ReqParam {
		body = "let " + h.Param + " = " + ReqParam + ";\n" + body
	}
	if h.Method == MethodANY {
		return body
	}
	return "if (" + ReqParam + ".method == \"" + string(h.Method) + "\") {\n" +
		body + "\n}"
}

type declaration struct {
	start     int
	bodyStart int
	method    Method
	param     string
	handler   bool
}

// extractHandlers removes every exported method handler and the default
// export from content. Exported functions that are not methods stay in the
// returned rest so they remain callable from the handlers.
func extractHandlers(content, relPath string) ([]Handler, string, error) {
	var decls []declaration

	for _, m := range handlerRe.FindAllStringSubmatchIndex(content, -1) {
		name, param := group(content, m, 1), group(content, m, 2)
		if name == "" {
			name, param = group(content, m, 3), group(content, m, 4)
		}
		method, ok := ParseMethod(name)
		decls = append(decls, declaration{
			start:     m[0],
			bodyStart: m[1],
			method:    method,
			param:     param,
			handler:   ok,
		})
	}

	if m := defaultRe.FindStringSubmatchIndex(content); m != nil {
		param := group(content, m, 1)
		if param == "" {
			param = group(content, m, 2)
		}
		decls = append(decls, declaration{
			start:     m[0],
			bodyStart: m[1],
			method:    MethodANY,
			param:     param,
			handler:   true,
		})
	}

	sort.SliceStable(decls, func(i, j int) bool { return decls[i].start < decls[j].start })

	var (
		handlers []Handler
		rest     strings.Builder
		pos      int
	)

	for _, d := range decls {
		if d.start < pos {
			continue
		}

		end, ok := scanBody(content, d.bodyStart)
		if !ok {
			return nil, "", syntaxError(relPath, "Unterminated function body. Missing closing '}'")
		}

		if !d.handler {
			rest.WriteString(content[pos:end])
			pos = end
			continue
		}

		handlers = append(handlers, Handler{
			Method: d.method,
			Param:  d.param,
			Body:   strings.TrimSpace(content[d.bodyStart : end-1]),
		})

		if end < len(content) && content[end] == ';' {
			end++
		}
		rest.WriteString(content[pos:d.start])
		pos = end
	}

	rest.WriteString(content[pos:])
	return handlers, rest.String(), nil
}

// scanBody walks from just after an opening brace to its matching closing
// brace and returns the index right after it.
func scanBody(content string, start int) (int, bool) {
	depth := 1
	i := start
	for depth > 0 {
		idx := strings.IndexAny(content[i:], "{}")
		if idx == -1 {
			return 0, false
		}
		if content[i+idx] == '{' {
			depth++
		} else {
			depth--
		}
		i += idx + 1
	}
	return i, true
}

func group(s string, m []int, n int) string {
	if 2*n+1 >= len(m) || m[2*n] < 0 {
		return ""
	}
	return s[m[2*n]:m[2*n+1]]
}
