package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Request path errors.
var (
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// CanonicalizeRequestPath normalizes an incoming request path and returns
// it together with its decoded segments.
//
// The query string is dropped, slashes are collapsed, "." segments are
// removed and ".." segments are resolved. A ".." that would climb above
// the root, a backslash, or a NUL byte is rejected.
func CanonicalizeRequestPath(input string) (string, []string, error) {
	p, _, _ := strings.Cut(input, "?")
	if p == "" {
		return Separator, nil, nil
	}
	if strings.Contains(p, "\\") {
		return "", nil, ErrBackslashInPath
	}
	if strings.Contains(p, "\x00") || strings.Contains(strings.ToUpper(p), "%00") {
		return "", nil, ErrNullByteInPath
	}

	var segments []string
	for _, seg := range strings.Split(p, Separator) {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(segments) == 0 {
				return "", nil, ErrPathEscapesRoot
			}
			segments = segments[:len(segments)-1]
		default:
			decoded, err := url.PathUnescape(seg)
			if err != nil {
				return "", nil, ErrInvalidPercentEscape
			}
			segments = append(segments, decoded)
		}
	}

	return Separator + strings.Join(segments, Separator), segments, nil
}
