package errors

import (
	"bufio"
	"fmt"
	"os"
)

// Category groups error codes by the pipeline stage that raises them.
type Category string

const (
	CategoryDiscovery  Category = "discovery"
	CategoryParse      Category = "parse"
	CategoryConfig     Category = "config"
	CategoryValidation Category = "validation"
	CategoryOutput     Category = "output"
	CategoryCLI        Category = "cli"
)

// Severity tells the CLI whether an error stops the build.
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Location is a position in a route source file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns file:line[:column]. A location without a line is just
// the file.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	switch {
	case l.Line <= 0:
		return l.File
	case l.Column > 0:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	default:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
}

// DenskyError is a coded error with optional location and fix hints.
type DenskyError struct {
	// Code is the registry identifier, e.g. "E111".
	Code string

	Category Category
	Severity Severity

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation.
	Detail string

	// Location is the source file the error refers to.
	Location *Location

	// Context holds the source lines around Location.Line.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *DenskyError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *DenskyError) Unwrap() error {
	return e.Wrapped
}

// Fatal reports whether the error stops the build.
func (e *DenskyError) Fatal() bool {
	return e.Severity == SeverityFatal
}

// WithLocation points the error at file. A positive line also loads the
// surrounding source lines.
func (e *DenskyError) WithLocation(file string, line, column int) *DenskyError {
	e.Location = &Location{File: file, Line: line, Column: column}
	if line > 0 {
		e.Context = readContextLines(file, line, 5)
	}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *DenskyError) WithSuggestion(s string) *DenskyError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the registered explanation.
func (e *DenskyError) WithDetail(d string) *DenskyError {
	e.Detail = d
	return e
}

// WithMessage replaces the registered message.
func (e *DenskyError) WithMessage(format string, args ...any) *DenskyError {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *DenskyError) Wrap(err error) *DenskyError {
	e.Wrapped = err
	return e
}

func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a DenskyError from a registered code.
func New(code string) *DenskyError {
	template, ok := registry[code]
	if !ok {
		return &DenskyError{
			Code:     code,
			Severity: SeverityError,
			Message:  "Unknown error",
		}
	}
	return &DenskyError{
		Code:     code,
		Category: template.Category,
		Severity: template.Severity,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates an uncoded error with a formatted message.
func Newf(category Category, format string, args ...any) *DenskyError {
	return &DenskyError{
		Category: category,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err under code unless it already is a DenskyError.
func FromError(err error, code string) *DenskyError {
	if err == nil {
		return nil
	}
	if de, ok := err.(*DenskyError); ok {
		return de
	}
	return New(code).Wrap(err)
}
