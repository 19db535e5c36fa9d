// Package errors provides the error taxonomy for the escape bot.
// Command handling distinguishes parse failures, ambiguous references,
// missing matches, scheduling conflicts and upstream failures, and renders
// each one to a user message instead of failing the chat event.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Standard sentinel errors for common conditions.
var (
	ErrParseFailure = errors.New("command not recognized")
	ErrNotFound     = errors.New("no match found")
	ErrAmbiguous    = errors.New("reference is ambiguous")
	ErrConflict     = errors.New("time slot already taken")
	ErrUpstream     = errors.New("upstream service failed")
	ErrPastTime     = errors.New("event time is in the past")
	ErrInvalidInput = errors.New("invalid input")
)

// UserError represents an error the chat participant can fix by rephrasing.
type UserError struct {
	Message    string // What happened
	Suggestion string // How to fix it
	Cause      error  // Sentinel the error classifies as (optional)
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

// NewUserError creates a new UserError.
func NewUserError(message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Suggestion: suggestion,
		Cause:      ErrInvalidInput,
	}
}

// AmbiguousError is returned when a reference matches several candidates.
// Options lists the candidates to show, in their original order.
type AmbiguousError struct {
	Subject string
	Options []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q matches %d candidates", e.Subject, len(e.Options))
}

// Is reports sentinel equivalence for errors.Is.
func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguous
}

// NotFoundError is returned when nothing matches a reference.
type NotFoundError struct {
	Subject string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%q: %s", e.Subject, ErrNotFound.Error())
}

// Is reports sentinel equivalence for errors.Is.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError is returned when a new event is too close to an existing one.
type ConflictError struct {
	Existing time.Time
	Window   time.Duration
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("existing event at %s is within %s", e.Existing.Format(time.RFC3339), e.Window)
}

// Is reports sentinel equivalence for errors.Is.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// UpstreamError wraps a failure of an external collaborator.
type UpstreamError struct {
	Service string // "catalog", "store", "summarizer", "line"
	Op      string // The operation that failed
	Cause   error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Cause)
	}
	return fmt.Sprintf("%s %s failed", e.Service, e.Op)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// Is reports sentinel equivalence for errors.Is.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Upstream wraps err as an UpstreamError. Returns nil for a nil err.
func Upstream(service, op string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Service: service, Op: op, Cause: err}
}

// AsAmbiguous extracts an AmbiguousError from an error chain.
func AsAmbiguous(err error) (*AmbiguousError, bool) {
	var ae *AmbiguousError
	ok := errors.As(err, &ae)
	return ae, ok
}

// AsConflict extracts a ConflictError from an error chain.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	ok := errors.As(err, &ce)
	return ce, ok
}

// AsUpstream extracts an UpstreamError from an error chain.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	ok := errors.As(err, &ue)
	return ue, ok
}

// AsUserError extracts a UserError from an error chain.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	ok := errors.As(err, &ue)
	return ue, ok
}

// Is is re-exported from the standard errors package for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is re-exported from the standard errors package for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New is re-exported from the standard errors package for convenience.
func New(text string) error {
	return errors.New(text)
}
