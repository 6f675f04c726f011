package router

import (
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// Duplicate Route Detection Tests
// =============================================================================

func TestValidateDuplicateRoutes(t *testing.T) {
	entries := []Entry{
		{Path: "/users", FilePath: "/routes/users.ts"},
		{Path: "/users/_index", FilePath: "/routes/users/_index.ts"},
	}

	err := NewValidator(entries).Validate()
	if err == nil {
		t.Fatal("Expected validation error for duplicate routes")
	}

	var multiErr *MultiValidationError
	if !errors.As(err, &multiErr) {
		t.Fatalf("Expected MultiValidationError, got %T", err)
	}
	if len(multiErr.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(multiErr.Errors))
	}

	got := multiErr.Errors[0]
	if got.Type != ErrorDuplicateRoute {
		t.Errorf("Expected ErrorDuplicateRoute, got %s", got.Type)
	}
	if got.Path != "/users" {
		t.Errorf("Path = %q, want /users", got.Path)
	}
	if len(got.Files) != 2 || got.Files[0] != "/routes/users.ts" {
		t.Errorf("Files = %v", got.Files)
	}
}

func TestValidateDuplicateIndex(t *testing.T) {
	entries := []Entry{
		{Path: "/docs/_index", FilePath: "/routes/docs/_index.js"},
		{Path: "/docs/_index", FilePath: "/routes/docs/_index.ts"},
	}

	err := NewValidator(entries).Validate()
	var multiErr *MultiValidationError
	if !errors.As(err, &multiErr) {
		t.Fatalf("Expected MultiValidationError, got %v", err)
	}
	if multiErr.Errors[0].Type != ErrorDuplicateIndex {
		t.Errorf("Type = %s, want %s", multiErr.Errors[0].Type, ErrorDuplicateIndex)
	}
}

func TestValidateRootIndex(t *testing.T) {
	entries := []Entry{
		{Path: "/_index", FilePath: "/routes/_index.ts"},
		{Path: "/about", FilePath: "/routes/about.ts"},
	}
	if err := NewValidator(entries).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateIgnoresConventions(t *testing.T) {
	entries := []Entry{
		{Path: "/_middleware", FilePath: "/routes/_middleware.ts"},
		{Path: "/_fallback", FilePath: "/routes/_fallback.ts"},
		{Path: "/_helpers", FilePath: "/routes/_helpers.ts"},
		{Path: "/a", FilePath: "/routes/a.ts"},
	}
	if err := NewValidator(entries).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestMultiValidationErrorMessage(t *testing.T) {
	err := &MultiValidationError{Errors: []ValidationError{
		{Type: ErrorDuplicateRoute, Message: "2 files serve /a"},
		{Type: ErrorDuplicateRoute, Message: "2 files serve /b"},
	}}

	msg := err.Error()
	if !strings.HasPrefix(msg, "2 route validation errors:") {
		t.Errorf("Error() = %q", msg)
	}
	if !strings.Contains(msg, "  2. DUPLICATE_ROUTE: 2 files serve /b") {
		t.Errorf("Error() = %q", msg)
	}
}

func TestFormatValidationError(t *testing.T) {
	out := FormatValidationError(ValidationError{
		Type:    ErrorDuplicateRoute,
		Message: "2 files serve /users",
		Files:   []string{"users.ts", "users/_index.ts"},
		Path:    "/users",
	})

	if !strings.HasPrefix(out, "ERROR: 2 files serve /users\n") {
		t.Errorf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "  users/_index.ts → /users\n") {
		t.Errorf("missing file line:\n%s", out)
	}
}

// =============================================================================
// Specificity Sorting Tests
// =============================================================================

func TestSortBySpecificity(t *testing.T) {
	nodes := []*Node{
		{RelPath: "$slug"},
		{RelPath: "about"},
		{RelPath: "$org/$repo"},
		{RelPath: "users/$id"},
		{RelPath: "$id/edit"},
	}

	SortBySpecificity(nodes)

	want := []string{"users/$id", "about", "$id/edit", "$org/$repo", "$slug"}
	for i, n := range nodes {
		if n.RelPath != want[i] {
			t.Errorf("nodes[%d] = %q, want %q", i, n.RelPath, want[i])
		}
	}
}
