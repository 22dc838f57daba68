package domain

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error category clients can branch on.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindModerationRejected Kind = "moderation_rejected"
	KindLockedOut          Kind = "locked_out"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindNeedsVerification  Kind = "needs_verification"
	KindDependency         Kind = "dependency"
	KindInternal           Kind = "internal"
)

// Error is a categorized failure. Field names the offending input for
// validation and moderation errors.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error of the same Kind, so the sentinels below can be used
// with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrValidation         = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict           = &Error{Kind: KindConflict, Message: "conflict"}
	ErrModerationRejected = &Error{Kind: KindModerationRejected, Message: "content rejected"}
	ErrLockedOut          = &Error{Kind: KindLockedOut, Message: "too many login attempts"}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrNeedsVerification  = &Error{Kind: KindNeedsVerification, Message: "account is not verified"}
	ErrDependency         = &Error{Kind: KindDependency, Message: "dependency failure"}
)

func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func ModerationRejected(field, msg string) *Error {
	return &Error{Kind: KindModerationRejected, Field: field, Message: msg}
}

func LockedOut(msg string) *Error {
	return &Error{Kind: KindLockedOut, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NeedsVerification(msg string) *Error {
	return &Error{Kind: KindNeedsVerification, Message: msg}
}

// Dependency wraps a failed call to the store, blob store, mail transport or
// moderation service.
func Dependency(msg string, cause error) *Error {
	return &Error{Kind: KindDependency, Message: msg, cause: cause}
}

// KindOf returns the Kind of err, or KindInternal for uncategorized errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FieldOf returns the offending field name carried by err, if any.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
