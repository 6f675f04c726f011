package routepath

import (
	"strings"
)

// Separator is the only separator routepath understands.
const Separator = "/"

// IsAbs reports whether p is rooted.
func IsAbs(p string) bool {
	return strings.HasPrefix(p, Separator)
}

// JoinPaths applies target on top of base.
//
// An absolute target is returned unchanged. Otherwise every segment of
// target is applied to base in order: "." is skipped, ".." drops the last
// segment of base (never above the root), anything else is appended.
func JoinPaths(target, base string) string {
	if IsAbs(target) {
		return target
	}

	result := base
	if len(result) > 1 {
		result = strings.TrimRight(result, Separator)
		if result == "" {
			result = Separator
		}
	}

	for _, seg := range strings.Split(target, Separator) {
		switch seg {
		case "", ".":
			continue
		case "..":
			result = ParentPath(result)
		default:
			switch result {
			case "":
				result = seg
			case Separator:
				result = Separator + seg
			default:
				result = result + Separator + seg
			}
		}
	}

	return result
}

// RelativePath returns target expressed relative to the directory base.
//
// The result always starts with "." so it can be used verbatim as a
// relative module specifier ("./x", "../x", "."). The boolean is false
// when no lexical answer exists: a relative target under an absolute base,
// or a base that climbs out of the shared prefix with "..".
func RelativePath(target, base string) (string, bool) {
	if IsAbs(target) != IsAbs(base) {
		if IsAbs(target) {
			return target, true
		}
		return "", false
	}

	targetSegs := cleanSegments(target)
	baseSegs := cleanSegments(base)

	common := 0
	for common < len(targetSegs) && common < len(baseSegs) && targetSegs[common] == baseSegs[common] {
		common++
	}

	parts := make([]string, 0, len(baseSegs)-common+len(targetSegs)-common)
	for _, seg := range baseSegs[common:] {
		if seg == ".." {
			return "", false
		}
		parts = append(parts, "..")
	}
	parts = append(parts, targetSegs[common:]...)

	if len(parts) == 0 {
		return ".", true
	}

	rel := strings.Join(parts, Separator)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel, true
}

// cleanSegments splits p into segments with "." and empty entries removed
// and ".." resolved where possible.
func cleanSegments(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, Separator) {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
			} else if !IsAbs(p) {
				out = append(out, "..")
			}
		default:
			out = append(out, seg)
		}
	}
	return out
}

// JoinURL appends rel to the URL path parent.
func JoinURL(parent, rel string) string {
	if parent == Separator || parent == "" {
		return Separator + strings.TrimPrefix(rel, Separator)
	}
	if rel == "" {
		return parent
	}
	return parent + Separator + strings.TrimPrefix(rel, Separator)
}

// LastSegment returns the final segment of p ("" for the root).
func LastSegment(p string) string {
	p = strings.TrimRight(p, Separator)
	if idx := strings.LastIndex(p, Separator); idx != -1 {
		return p[idx+1:]
	}
	return p
}

// ParentPath returns p without its final segment.
// The parent of a top-level absolute path is "/", the parent of a bare
// name is "".
func ParentPath(p string) string {
	if p == Separator {
		return Separator
	}
	p = strings.TrimRight(p, Separator)
	idx := strings.LastIndex(p, Separator)
	switch {
	case idx == -1:
		return ""
	case idx == 0:
		return Separator
	default:
		return p[:idx]
	}
}

// SplitSegments splits p into its non-empty segments.
func SplitSegments(p string) []string {
	p = strings.Trim(p, Separator)
	if p == "" {
		return nil
	}
	return strings.Split(p, Separator)
}

// TrimExt removes the extension ext from p when present.
func TrimExt(p, ext string) string {
	if ext == "" {
		return p
	}
	return strings.TrimSuffix(p, ext)
}

// ToSlash converts Windows separators to "/".
func ToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", Separator)
}
