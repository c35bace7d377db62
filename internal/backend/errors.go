package backend

import "fmt"

// ErrorKind classifies backend failures. The repository layer treats every
// kind the same way (fall back to the local cache) but the distinction is
// kept for logging and tests.
type ErrorKind int

const (
	KindUnauthorized ErrorKind = iota
	KindResponse
	KindConnection
	KindPayload
	KindInvalidURL
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindResponse:
		return "response"
	case KindConnection:
		return "connection"
	case KindPayload:
		return "payload"
	case KindInvalidURL:
		return "invalid-url"
	default:
		return "unknown"
	}
}

// Error is a classified backend failure.
type Error struct {
	Kind   ErrorKind
	Status int // HTTP status, when one was received
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend %s error: %v", e.Kind, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("backend %s error: status %d", e.Kind, e.Status)
	}
	return fmt.Sprintf("backend %s error", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func newStatusError(kind ErrorKind, status int) *Error {
	return &Error{Kind: kind, Status: status}
}
