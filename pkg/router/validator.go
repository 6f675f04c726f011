package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/densky-dev/densky/pkg/routepath"
)

// =============================================================================
// Route Validation
// =============================================================================

// Validator checks discovered entries for routes that resolve to the same
// URL. The tree keeps the first such leaf and shadows the rest, so these
// are reported rather than fatal.
type Validator struct {
	entries []Entry
	errors  []ValidationError
}

// ValidationError represents a route validation error.
type ValidationError struct {
	// Type is the error category
	Type ValidationErrorType

	// Message is the human-readable error message
	Message string

	// Files are the source files involved, the one that wins first
	Files []string

	// Path is the conflicting URL path
	Path string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ValidationErrorType categorizes validation errors.
type ValidationErrorType string

const (
	// ErrorDuplicateRoute indicates multiple files resolve to the same URL.
	// Example: users.ts and users/_index.ts both serve /users
	ErrorDuplicateRoute ValidationErrorType = "DUPLICATE_ROUTE"

	// ErrorDuplicateIndex indicates one directory holds several _index files.
	// Example: users/_index.ts and users/_index.js
	ErrorDuplicateIndex ValidationErrorType = "DUPLICATE_INDEX"
)

// MultiValidationError wraps multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d route validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// NewValidator creates a validator over entries in insertion order.
func NewValidator(entries []Entry) *Validator {
	return &Validator{entries: entries}
}

// Validate returns nil if no two entries serve the same URL, or a
// *MultiValidationError listing every conflict.
func (v *Validator) Validate() error {
	v.errors = nil

	byPath := make(map[string][]Entry)
	var order []string
	for _, entry := range v.entries {
		served, ok := servedPath(entry.Path)
		if !ok {
			continue
		}
		if _, seen := byPath[served]; !seen {
			order = append(order, served)
		}
		byPath[served] = append(byPath[served], entry)
	}

	for _, served := range order {
		group := byPath[served]
		if len(group) < 2 {
			continue
		}

		files := make([]string, 0, len(group))
		indexes := 0
		for _, entry := range group {
			files = append(files, entry.FilePath)
			if routepath.LastSegment(entry.Path) == IndexName {
				indexes++
			}
		}

		if indexes > 1 {
			v.errors = append(v.errors, ValidationError{
				Type:    ErrorDuplicateIndex,
				Message: fmt.Sprintf("%d index files for %s", indexes, served),
				Files:   files,
				Path:    served,
			})
			continue
		}

		v.errors = append(v.errors, ValidationError{
			Type:    ErrorDuplicateRoute,
			Message: fmt.Sprintf("%d files serve %s", len(group), served),
			Files:   files,
			Path:    served,
		})
	}

	if len(v.errors) > 0 {
		return &MultiValidationError{Errors: v.errors}
	}
	return nil
}

// servedPath is the URL a route file answers: an _index file serves its
// directory. Convention and ignored files serve nothing.
func servedPath(urlPath string) (string, bool) {
	last := routepath.LastSegment(urlPath)
	switch {
	case last == IndexName:
		parent := routepath.ParentPath(urlPath)
		if parent == "" {
			parent = routepath.Separator
		}
		return parent, true
	case strings.HasPrefix(last, "_"):
		return "", false
	}
	return urlPath, true
}

// =============================================================================
// Route Specificity Sorting
// =============================================================================

// SortBySpecificity orders sibling nodes for dispatch.
//
// Order (most specific first):
//  1. Static first segment (about, users/list)
//  2. Variable first segment ($id)
//
// Within each group nodes with more static segments come first, then
// nodes with more segments. Equal nodes keep insertion order.
func SortBySpecificity(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return calculateSpecificity(nodes[i].RelPath) > calculateSpecificity(nodes[j].RelPath)
	})
}

// calculateSpecificity returns a numeric score for a relative path.
// Higher scores are matched first.
func calculateSpecificity(rel string) int {
	segments := routepath.SplitSegments(rel)
	if len(segments) == 0 {
		return 0
	}

	score := 0
	if !isVariable(segments[0]) {
		score += 10000
	}
	for _, seg := range segments {
		if isVariable(seg) {
			score += 10
		} else {
			score += 100
		}
	}
	return score
}

func isVariable(seg string) bool {
	return len(seg) > 1 && seg[0] == '$'
}

// FormatValidationError formats a validation error for display:
//
//	ERROR: 2 files serve /users
//	  /app/routes/users.ts → /users
//	  /app/routes/users/_index.ts → /users
func FormatValidationError(err ValidationError) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("ERROR: %s\n", err.Message))
	for _, file := range err.Files {
		sb.WriteString(fmt.Sprintf("  %s → %s\n", file, err.Path))
	}

	return sb.String()
}
