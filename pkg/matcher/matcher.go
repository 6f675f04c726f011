// Package matcher turns a route's relative URL path into the segment
// matching code used by generated dispatchers.
//
// A path such as "users/$id/posts" is split on "/". Segments starting
// with "$" are variables that capture one request segment under the name
// after the "$"; every other segment is static and must match byte for
// byte.
//
// The generated runtime keeps a per-request accumulator of the segments
// not yet consumed by ancestor matchers:
//
//	req.__accumulator__ = { segments: ["users", "42", "posts"], path: "users/42/posts" }
//
// StartDecl tests whether the accumulator begins with the route,
// UpdateDecl trims the consumed segments before descending into children,
// and ExactDecl tests whether nothing is left. SerialDecl emits the
// serialized segment list plus the shared helpers, once, for routes with
// variables.
package matcher

import (
	"strconv"
	"strings"
)

const (
	// SerialName is the identifier of the serialized segment list.
	SerialName = "__matcher_serial"

	// HelperPrefix prefixes the generated EXACT and START helpers.
	HelperPrefix = "__matcher_matcher_"

	// AccumulatorField is the request field holding the remaining path.
	AccumulatorField = "__accumulator__"
)

// Segment is one "/"-delimited component of a route path.
type Segment struct {
	// Raw is the segment as written, "$" included for variables.
	Raw string

	// Var is the captured name for variable segments, empty otherwise.
	Var string
}

// IsVar reports whether the segment captures a value.
func (s Segment) IsVar() bool {
	return s.Var != ""
}

// JSON returns the segment literal used in SerialDecl.
func (s Segment) JSON() string {
	if s.IsVar() {
		return "{ raw: " + strconv.Quote(s.Raw) + ", isVar: true, varname: " + strconv.Quote(s.Var) + " }"
	}
	return "{ raw: " + strconv.Quote(s.Raw) + ", isVar: false }"
}

// URLMatcher holds the parsed form of one relative route path.
type URLMatcher struct {
	// URL is the relative path the matcher was built from.
	URL string

	// Segments are all segments of URL, empty ones included.
	Segments []Segment

	// HasVariables is true when at least one segment is a variable.
	HasVariables bool
}

// New parses url into a URLMatcher.
func New(url string) *URLMatcher {
	m := &URLMatcher{URL: url}
	for _, raw := range strings.Split(url, "/") {
		seg := Segment{Raw: raw}
		if len(raw) > 1 && raw[0] == '$' {
			seg.Var = raw[1:]
			m.HasVariables = true
		}
		m.Segments = append(m.Segments, seg)
	}
	return m
}

// MatchSegments returns the segments that take part in matching.
// Empty segments produced by leading, trailing or doubled separators
// never consume a request segment.
func (m *URLMatcher) MatchSegments() []Segment {
	out := make([]Segment, 0, len(m.Segments))
	for _, seg := range m.Segments {
		if seg.Raw != "" {
			out = append(out, seg)
		}
	}
	return out
}

// Consumed is the number of request segments a successful match removes.
func (m *URLMatcher) Consumed() int {
	return len(m.MatchSegments())
}

// staticPrefix is the accumulator path a static route must start with.
func (m *URLMatcher) staticPrefix() string {
	parts := make([]string, 0, len(m.Segments))
	for _, seg := range m.MatchSegments() {
		parts = append(parts, seg.Raw)
	}
	return strings.Join(parts, "/")
}

func accumulator(req string) string {
	return req + "." + AccumulatorField
}

// ExactDecl returns an expression that is true when every request segment
// has been consumed.
func (m *URLMatcher) ExactDecl(req string) string {
	return accumulator(req) + ".segments.length === 0"
}

// StartDecl returns an expression that is true when the remaining request
// segments begin with this route. With variables the expression also
// stores the captured values in req.params.
func (m *URLMatcher) StartDecl(req string) string {
	if m.HasVariables {
		return HelperPrefix + "START(" + accumulator(req) + ".segments, " + SerialName + ", " + req + ".params, new Map())"
	}

	prefix := m.staticPrefix()
	if prefix == "" {
		return "true"
	}
	acc := accumulator(req)
	return "(" + acc + ".path === " + strconv.Quote(prefix) + " || " + acc + ".path.startsWith(" + strconv.Quote(prefix+"/") + "))"
}

// UpdateDecl returns the statements that drop the consumed segments from
// the accumulator. It is empty when the route consumes nothing.
func (m *URLMatcher) UpdateDecl(req string) string {
	n := m.Consumed()
	if n == 0 {
		return ""
	}
	acc := accumulator(req)
	return acc + ".segments = " + acc + ".segments.slice(" + strconv.Itoa(n) + ");\n" +
		acc + ".path = " + acc + ".segments.join(\"/\");"
}

// SerialDecl returns the serialized segments and the shared matching
// helpers. Routes without variables need neither, so the result is empty.
func (m *URLMatcher) SerialDecl() string {
	if !m.HasVariables {
		return ""
	}

	segs := m.MatchSegments()
	items := make([]string, 0, len(segs))
	for _, seg := range segs {
		items = append(items, seg.JSON())
	}

	var b strings.Builder
	b.WriteString("const " + SerialName + " = [" + strings.Join(items, ", ") + "];\n")
	b.WriteString(strings.ReplaceAll(exactHelper, "{{prefix}}", HelperPrefix))
	b.WriteString("\n")
	b.WriteString(strings.ReplaceAll(startHelper, "{{prefix}}", HelperPrefix))
	return b.String()
}

const exactHelper = `const {{prefix}}EXACT = (target, serial, resultMap, paramMap) => {
  if (target.length !== serial.length) return false;

  for (let i = 0; i < target.length; i++) {
    const targetParam = target[i];
    const serialParam = serial[i];

    if (serialParam.isVar) {
      if (!targetParam) return false;
      paramMap.set(serialParam.varname, targetParam);
    } else if (serialParam.raw !== targetParam) {
      return false;
    }
  }

  for (const [key, value] of paramMap) {
    resultMap.set(key, value);
  }

  return true;
};
`

const startHelper = `const {{prefix}}START = (target, serial, resultMap, paramMap) => {
  if (target.length < serial.length) return false;

  for (let i = 0; i < serial.length; i++) {
    if (!target[i]) return false;

    const serialParam = serial[i];
    const targetParam = target[i];

    if (serialParam.isVar) {
      paramMap.set(serialParam.varname, targetParam);
    } else if (serialParam.raw !== targetParam) {
      return false;
    }
  }

  for (const [key, value] of paramMap.entries()) {
    resultMap.set(key, value);
  }

  return true;
};
`
