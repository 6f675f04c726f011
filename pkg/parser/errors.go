package parser

import (
	"errors"
	"fmt"
)

// Parse outcomes other than success. Match them with errors.Is.
var (
	// ErrEmpty marks a file with nothing to generate: it is too short or
	// exports no handlers. Callers skip the leaf, it is not a failure.
	ErrEmpty = errors.New("empty route file")

	// ErrInvalidSyntax marks a malformed import or an unterminated
	// handler body.
	ErrInvalidSyntax = errors.New("invalid route syntax")

	// ErrCurrentDir marks a failure to resolve the working directory used
	// to report relative paths. It cannot be recovered locally.
	ErrCurrentDir = errors.New("cannot resolve current directory")
)

// ParseError describes why a route file could not be extracted.
type ParseError struct {
	// Kind is one of ErrEmpty, ErrInvalidSyntax or ErrCurrentDir.
	Kind error

	// RelPath is the source file relative to the working directory.
	RelPath string

	// Message is the human readable reason.
	Message string

	// Err is the underlying error, if any.
	Err error
}

func (e *ParseError) Error() string {
	if e.Kind == ErrCurrentDir {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return e.Kind.Error()
	}
	return fmt.Sprintf("[%s] %s", e.RelPath, e.Message)
}

// Is makes errors.Is(err, ErrEmpty) and friends work.
func (e *ParseError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

func emptyError(relPath, message string) *ParseError {
	return &ParseError{Kind: ErrEmpty, RelPath: relPath, Message: message}
}

func syntaxError(relPath, message string) *ParseError {
	return &ParseError{Kind: ErrInvalidSyntax, RelPath: relPath, Message: message}
}
