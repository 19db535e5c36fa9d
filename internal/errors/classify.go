package errors

import (
	"context"
	"errors"
)

// Category represents the kind of error for rendering and metrics.
type Category int

const (
	// CategoryUnknown is the default for unclassified errors.
	CategoryUnknown Category = iota
	// CategoryParse indicates the text did not match any command shape.
	CategoryParse
	// CategoryAmbiguous indicates several candidates matched.
	CategoryAmbiguous
	// CategoryNotFound indicates no candidate matched.
	CategoryNotFound
	// CategoryConflict indicates a scheduling conflict.
	CategoryConflict
	// CategoryUser indicates other input the user can fix.
	CategoryUser
	// CategoryUpstream indicates an external collaborator failed.
	CategoryUpstream
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryParse:
		return "parse"
	case CategoryAmbiguous:
		return "ambiguous"
	case CategoryNotFound:
		return "not_found"
	case CategoryConflict:
		return "conflict"
	case CategoryUser:
		return "user"
	case CategoryUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Classify determines the category of an error.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	switch {
	case errors.Is(err, ErrParseFailure):
		return CategoryParse
	case errors.Is(err, ErrAmbiguous):
		return CategoryAmbiguous
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrConflict):
		return CategoryConflict
	case errors.Is(err, ErrPastTime), errors.Is(err, ErrInvalidInput):
		return CategoryUser
	case errors.Is(err, ErrUpstream):
		return CategoryUpstream
	}

	// Timeouts at a collaborator boundary count as upstream failures.
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryUpstream
	}

	return CategoryUnknown
}

// IsUserCategory returns true if the user can resolve the error by rephrasing.
func IsUserCategory(err error) bool {
	switch Classify(err) {
	case CategoryParse, CategoryAmbiguous, CategoryNotFound, CategoryConflict, CategoryUser:
		return true
	}
	return false
}
