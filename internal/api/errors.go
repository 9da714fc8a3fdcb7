package api

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Kind classifies a failed operation. List reads surface these instead
// of silently degrading to an empty result, so callers can tell "no
// data" from "request failed".
type Kind int

const (
	// KindUnreachable means the connection was refused.
	KindUnreachable Kind = iota + 1
	// KindTimeout covers connect and read deadlines.
	KindTimeout
	// KindHostNotFound is a DNS resolution failure.
	KindHostNotFound
	// KindNetwork is any other transport-level failure.
	KindNetwork
	// KindHTTP is a non-2xx response; Status carries the code.
	KindHTTP
	// KindParse is a 2xx response whose body was not the expected JSON.
	KindParse
	// KindValidation is a caller-side input error, rejected before any
	// network call is attempted.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindTimeout:
		return "timeout"
	case KindHostNotFound:
		return "host not found"
	case KindNetwork:
		return "network error"
	case KindHTTP:
		return "http error"
	case KindParse:
		return "parse error"
	case KindValidation:
		return "validation error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the typed failure returned by every client operation.
type Error struct {
	Kind   Kind
	Status int // HTTP status, set when Kind is KindHTTP
	Op     string
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTP {
		return fmt.Sprintf("%s: server returned HTTP %d", e.Op, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrKind extracts the Kind from err, or 0 if err is not a client error.
func ErrKind(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// classify maps a transport error onto the failure taxonomy.
func classify(op string, err error) *Error {
	kind := KindNetwork

	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.As(err, &dnsErr):
		kind = KindHostNotFound
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		kind = KindUnreachable
	}

	return &Error{Kind: kind, Op: op, Err: err}
}

func httpError(op string, status int) *Error {
	return &Error{Kind: KindHTTP, Status: status, Op: op}
}

func parseError(op string, err error) *Error {
	return &Error{Kind: KindParse, Op: op, Err: err}
}
