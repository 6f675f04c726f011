package router

import "strings"

// CommonPath returns the longest leading run of otherRel's segments that
// selfRel also starts with, compared segment by segment:
//
//	CommonPath("a/b/c/and/more", "a/b/some/other") // "a/b", true
//	CommonPath("a/b", "a/b/c")                     // "a/b", true
//	CommonPath("ab", "a")                          // "", false
//
// It reports false when the first segment differs or otherRel contains an
// empty segment ("a//b", "/a", "a/").
func CommonPath(selfRel, otherRel string) (string, bool) {
	var acc string

	for _, seg := range strings.Split(otherRel, "/") {
		if seg == "" {
			return "", false
		}

		next := seg
		if acc != "" {
			next = acc + "/" + seg
		}

		if selfRel != next && !strings.HasPrefix(selfRel, next+"/") {
			if acc == "" {
				return "", false
			}
			return acc, true
		}
		acc = next
	}

	return otherRel, true
}
