package errors

import (
	stderrors "errors"
	"io/fs"
	"strings"

	"github.com/densky-dev/densky/pkg/parser"
	"github.com/densky-dev/densky/pkg/router"
)

// Classify maps a pipeline error to its registry code. It returns nil for
// nil and leaves DenskyErrors as they are; anything unrecognised is
// returned uncoded.
func Classify(err error) *DenskyError {
	if err == nil {
		return nil
	}

	var de *DenskyError
	if stderrors.As(err, &de) {
		return de
	}

	var pe *parser.ParseError
	if stderrors.As(err, &pe) {
		return fromParseError(pe)
	}

	var ve router.ValidationError
	if stderrors.As(err, &ve) {
		return FromValidationError(ve)
	}

	switch {
	case stderrors.Is(err, router.ErrInvalidPattern):
		return New("E100").Wrap(err)
	case stderrors.Is(err, router.ErrRoutesDirMissing):
		return New("E102").Wrap(err).
			WithSuggestion("Create the directory or set routes.dir in densky.json")
	case stderrors.Is(err, fs.ErrNotExist), stderrors.Is(err, fs.ErrPermission):
		return New("E101").Wrap(err)
	}

	return &DenskyError{Severity: SeverityError, Message: err.Error(), Wrapped: err}
}

func fromParseError(pe *parser.ParseError) *DenskyError {
	var de *DenskyError
	switch pe.Kind {
	case parser.ErrEmpty:
		de = New("E110")
	case parser.ErrCurrentDir:
		return New("E112").Wrap(pe.Err)
	default:
		de = New("E111")
	}
	if pe.Message != "" {
		de.Detail = pe.Message
	}
	if pe.RelPath != "" {
		de.WithLocation(pe.RelPath, 0, 0)
	}
	return de
}

// FromValidationError converts one route conflict into an E130 warning
// located at the file that wins.
func FromValidationError(ve router.ValidationError) *DenskyError {
	de := New("E130").WithMessage("%s", ve.Message)
	if len(ve.Files) > 0 {
		de.WithLocation(ve.Files[0], 0, 0)
		if len(ve.Files) > 1 {
			de.WithSuggestion("Remove or rename " + strings.Join(ve.Files[1:], ", "))
		}
	}
	return de
}
