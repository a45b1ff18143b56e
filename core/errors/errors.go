// Package errors defines the error taxonomy shared by the render core, the
// render store and the outer surfaces. Every typed error unwraps to one of
// the sentinels, so callers branch with Is instead of type switches.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: a stored render, job or file is missing.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput: malformed markup or a rejected argument.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmpty: well-formed input with nothing to draw. Not a failure.
	ErrEmpty = errors.New("empty")
	// ErrInternal: a bug surfaced at runtime, such as a recovered panic.
	ErrInternal = errors.New("internal error")
	// ErrUnsupported: a file type or request kind that is not handled.
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string // "render", "job"
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError reports a rejected argument or field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// IOError wraps a failed file or database operation.
type IOError struct {
	Op   string // "read", "write", "mkdir"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError reports markup that could not be read. Line is 1-based, 0 when
// the position is unknown.
type ParseError struct {
	Format  string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %s", e.Format, e.Line, e.Message)
	}
	return fmt.Sprintf("parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error { return ErrInvalidInput }

// UnsupportedError names what is not handled and what would be.
type UnsupportedError struct {
	Feature string
	Reason  string
}

func (e *UnsupportedError) Error() string {
	if e.Reason == "" {
		return "unsupported " + e.Feature
	}
	return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func NewIO(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

func NewParse(format string, line int, message string) *ParseError {
	return &ParseError{Format: format, Line: line, Message: message}
}

func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{Feature: feature, Reason: reason}
}

// Wrap prefixes err with message. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is is errors.Is, re-exported so callers need only this package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As, re-exported so callers need only this package.
func As(err error, target any) bool {
	return errors.As(err, target)
}
