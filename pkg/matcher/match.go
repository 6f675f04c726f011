package matcher

// MatchStart evaluates StartDecl in Go. It reports whether target begins
// with the route and returns the captured variables.
func (m *URLMatcher) MatchStart(target []string) (map[string]string, bool) {
	segs := m.MatchSegments()
	if len(target) < len(segs) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range segs {
		value := target[i]
		if value == "" {
			return nil, false
		}
		if seg.IsVar() {
			if params == nil {
				params = make(map[string]string)
			}
			params[seg.Var] = value
			continue
		}
		if seg.Raw != value {
			return nil, false
		}
	}
	return params, true
}

// MatchExact reports whether target is exactly the route, segment for
// segment, and returns the captured variables.
func (m *URLMatcher) MatchExact(target []string) (map[string]string, bool) {
	if len(target) != m.Consumed() {
		return nil, false
	}
	return m.MatchStart(target)
}

// Trim returns target without the segments this route consumes.
func (m *URLMatcher) Trim(target []string) []string {
	n := m.Consumed()
	if n > len(target) {
		return nil
	}
	return target[n:]
}
