package core

import (
	"errors"
)

// Kind classifies an error for the transport boundary. The values match the
// error_type field used in structured logs.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindAuth         Kind = "auth_error"
	KindNotFound     Kind = "not_found_error"
	KindConflict     Kind = "conflict_error"
	KindStore        Kind = "database_error"
	KindNotification Kind = "notification_error"
	KindInternal     Kind = "internal_error"
)

// Error carries a kind and a caller-safe message. Err holds the cause, which
// is never shown to API clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Invalid wraps a validation failure; its message is safe to return.
func Invalid(err error) error {
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindAuth, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// StoreFailure marks a persistence error. op describes what was attempted.
func StoreFailure(op string, err error) error {
	return &Error{Kind: KindStore, Message: op, Err: err}
}

func NotificationFailure(msg string, err error) error {
	return &Error{Kind: KindNotification, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage returns the message that may be shown to a client.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindStore, KindInternal, KindNotification:
			return "Internal server error"
		}
		return e.Message
	}
	return "Internal server error"
}
