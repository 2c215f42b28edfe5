package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so transport adapters can map it uniformly.
type Kind string

const (
	// KindNotFound indicates a referenced identifier does not exist.
	KindNotFound Kind = "not_found"
	// KindValidation indicates caller-supplied data violates a field constraint.
	KindValidation Kind = "validation"
	// KindInsufficientFunds indicates a coin charge exceeds the buyer balance.
	KindInsufficientFunds Kind = "insufficient_funds"
	// KindInvalidOperation indicates a semantically disallowed request.
	KindInvalidOperation Kind = "invalid_operation"
	// KindUnauthorized indicates a missing or unusable caller identity.
	KindUnauthorized Kind = "unauthorized"
	// KindInternal indicates an unexpected storage or infrastructure failure.
	KindInternal Kind = "internal"
)

// Error is the typed failure returned by every service operation.
type Error struct {
	kind Kind
	code string
	err  error
}

// New constructs an Error from a dotted operation code, e.g. "notes.toggle_like.note_missing".
func New(kind Kind, operation, reason string) *Error {
	return &Error{kind: kind, code: fmt.Sprintf("%s.%s", operation, reason)}
}

// Wrap constructs an Error that preserves the underlying cause.
func Wrap(kind Kind, operation, reason string, cause error) *Error {
	return &Error{kind: kind, code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Kind exposes the failure classification.
func (e *Error) Kind() Kind {
	return e.kind
}

// Code exposes the dotted operation code.
func (e *Error) Code() string {
	return e.code
}

// InsufficientFundsError reports a rejected coin charge with the amounts involved.
type InsufficientFundsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %d, available %d", e.Required, e.Available)
}

// KindOf extracts the Kind from an error chain, defaulting to KindInternal.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.kind
	}
	return KindInternal
}

// IsKind reports whether the error chain carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
