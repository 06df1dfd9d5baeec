package apierrors

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the error type returned by every package of the client.
type Error struct {
	Kind Kind

	// Code and Message come from the service error envelope, when there is one.
	Code    string
	Message string

	// StatusCode and Body are set for transport level failures.
	StatusCode int
	Body       string

	// Envelope holds the full decoded response for ServiceError.
	Envelope map[string]any

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("otrs: ")
	b.WriteString(string(e.Kind))
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// FromEnvelope builds the classified error for a service error envelope.
// envelope is attached only for ServiceError, where the caller needs it to
// diagnose an unknown code.
func FromEnvelope(code, message string, envelope map[string]any) *Error {
	kind := Registry.Classify(code)
	e := &Error{Kind: kind, Code: code, Message: message}
	if kind == KindServiceError {
		e.Envelope = envelope
	}
	return e
}

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
