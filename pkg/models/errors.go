package models

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentParse marks a malformed document. Fatal for that document only.
	ErrDocumentParse = errors.New("document parse error")
	// ErrConceptNotFound means no candidate tag matched. Not an error at record level.
	ErrConceptNotFound = errors.New("concept not found")
	// ErrValidationRejected means a candidate value failed a plausibility check.
	ErrValidationRejected = errors.New("validation rejected")
	// ErrMergeConflict means two sources disagreed on a field.
	ErrMergeConflict = errors.New("merge conflict")
)

// DocumentParseError carries the failing document's identity.
type DocumentParseError struct {
	Path   string
	Format DocumentFormat
	Err    error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("parse %s document %s: %v", e.Format, e.Path, e.Err)
}

func (e *DocumentParseError) Unwrap() []error {
	return []error{ErrDocumentParse, e.Err}
}
