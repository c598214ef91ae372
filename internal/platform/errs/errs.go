// Package errs defines the error-kind taxonomy shared by every VMP component.
//
// Every operation that can fail across a trust boundary (HTTP, object store,
// relational store) returns a *Error carrying one of the Kinds below instead
// of an ad-hoc sentinel. Handlers at the HTTP boundary map Kind to a status
// code; internal logs keep the full chain via Unwrap.
package errs

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error categories the system ever returns to a
// boundary. It is a sum type: every switch over Kind must be exhaustive.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindAuthz        Kind = "authorization"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindIntegrity    Kind = "integrity"
	KindUnavailable  Kind = "timeout_unavailable"
	KindInternal     Kind = "internal"
)

// Error is the concrete error type produced by VMP components. Message is
// the human sentence safe to show a caller; cause is logged but never
// rendered verbatim across a trust boundary.
type Error struct {
	Kind    Kind
	Reason  string // short machine-readable reason, e.g. "case_not_found"
	Message string // human sentence
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error with no wrapped cause.
func New(kind Kind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

// Wrap attaches a kind and reason to an underlying cause, preserving it for
// Unwrap/errors.Is chains while giving the boundary a safe message.
func Wrap(kind Kind, reason, message string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message, cause: cause}
}

func Validation(reason, message string) *Error { return New(KindValidation, reason, message) }
func Authz(reason, message string) *Error      { return New(KindAuthz, reason, message) }
func NotFound(reason, message string) *Error   { return New(KindNotFound, reason, message) }
func Conflict(reason, message string) *Error   { return New(KindConflict, reason, message) }
func Integrity(reason, message string) *Error  { return New(KindIntegrity, reason, message) }

// KindOf extracts the Kind from err, defaulting to KindInternal for errors
// that did not originate from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err (or something it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
