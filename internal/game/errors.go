package game

import (
	"errors"
	"fmt"
)

// Kind classifies a recoverable game error so that callers can branch on it.
type Kind string

const (
	// KindNotFound means a session, room, player or pending id is absent.
	KindNotFound Kind = "not_found"

	// KindPrecondition means the request is well-formed but not allowed in
	// the current state (wrong turn, no movement left, blocked door, ...).
	KindPrecondition Kind = "precondition"

	// KindValidation means the request itself is malformed.
	KindValidation Kind = "validation"
)

// Error is a structured, recoverable game error. Details carries diagnostic
// context such as the valid alternatives the caller may try instead.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
}

// Error implements [error].
func (e *Error) Error() string { return e.Message }

// With attaches a diagnostic detail and returns e for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Payload renders the error as the flat map returned to callers:
// {"error": message, "kind": kind, ...details}.
func (e *Error) Payload() map[string]any {
	out := make(map[string]any, len(e.Details)+2)
	for k, v := range e.Details {
		out[k] = v
	}
	out["error"] = e.Message
	out["kind"] = string(e.Kind)
	return out
}

// AsError reports whether err wraps a *[Error] and returns it.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// IsKind reports whether err is a game error of the given kind.
func IsKind(err error, kind Kind) bool {
	ge, ok := AsError(err)
	return ok && ge.Kind == kind
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func precondition(format string, args ...any) *Error {
	return &Error{Kind: KindPrecondition, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// SessionNotFound is the error reported for an unknown session id.
func SessionNotFound(sessionID string) *Error {
	return notFound("Session not found: %s", sessionID).With("sessionId", sessionID)
}

// SessionExists is the error reported when creating a session whose id is
// already taken.
func SessionExists(sessionID string) *Error {
	return invalid("Session already exists: %s", sessionID).With("sessionId", sessionID)
}
