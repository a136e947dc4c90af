package pap

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
)

// Error represents a PAP client error
type Error struct {
	// Kind is the error category
	Kind ErrorKind

	// Op names the protocol step that failed (e.g. "read status")
	Op string

	// Message is a human-readable error message
	Message string

	// Status is the raw status byte for ErrRemoteOperationFailed
	Status byte

	// Err is the underlying cause, if any
	Err error
}

// ErrorKind categorizes PAP errors
type ErrorKind int

const (
	// ErrConnectFailure indicates the TCP connection could not be established
	ErrConnectFailure ErrorKind = iota

	// ErrConnectionClosed indicates the peer closed mid-frame or mid-handshake
	ErrConnectionClosed

	// ErrInvalidFrameLength indicates a frame length outside [1, 4096]
	ErrInvalidFrameLength

	// ErrRemoteOperationFailed indicates a non-zero status byte from the peer
	ErrRemoteOperationFailed

	// ErrLocalFileNotFound indicates a missing upload source
	ErrLocalFileNotFound

	// ErrTimeout indicates a read or write deadline expired
	ErrTimeout

	// ErrIO indicates a local or socket I/O failure
	ErrIO

	// ErrProtocol indicates malformed data or an invalid request
	ErrProtocol
)

func (e *Error) Error() string {
	msg := "pap " + e.Kind.String()
	if e.Op != "" {
		msg += " (" + e.Op + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so callers can compare
// against a bare &Error{Kind: ...}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Err == nil
}

func (k ErrorKind) String() string {
	switch k {
	case ErrConnectFailure:
		return "connect failure"
	case ErrConnectionClosed:
		return "connection closed"
	case ErrInvalidFrameLength:
		return "invalid frame length"
	case ErrRemoteOperationFailed:
		return "remote operation failed"
	case ErrLocalFileNotFound:
		return "local file not found"
	case ErrTimeout:
		return "timeout"
	case ErrIO:
		return "I/O error"
	case ErrProtocol:
		return "protocol error"
	default:
		return "unknown error"
	}
}

// NewError creates a new PAP error
func NewError(kind ErrorKind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// KindOf returns the kind of a PAP error anywhere in err's chain.
// The second result is false when err is not a PAP error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func isKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsConnectFailure checks if an error is a connect failure
func IsConnectFailure(err error) bool {
	return isKind(err, ErrConnectFailure)
}

// IsConnectionClosed checks if the peer closed the connection early
func IsConnectionClosed(err error) bool {
	return isKind(err, ErrConnectionClosed)
}

// IsInvalidFrameLength checks if an error is a frame length violation
func IsInvalidFrameLength(err error) bool {
	return isKind(err, ErrInvalidFrameLength)
}

// IsRemoteOperationFailed checks if the peer reported failure
func IsRemoteOperationFailed(err error) bool {
	return isKind(err, ErrRemoteOperationFailed)
}

// IsLocalFileNotFound checks if an upload source was missing
func IsLocalFileNotFound(err error) bool {
	return isKind(err, ErrLocalFileNotFound)
}

// IsTimeout checks if an error is a deadline expiry
func IsTimeout(err error) bool {
	return isKind(err, ErrTimeout)
}

// ioError classifies a socket error raised while performing op.
// Errors that are already PAP errors pass through untouched.
func ioError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}

	kind := ErrIO
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		kind = ErrConnectionClosed
	case errors.Is(err, os.ErrDeadlineExceeded):
		kind = ErrTimeout
	default:
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			kind = ErrTimeout
		}
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func frameLengthError(op string, n int, max int) *Error {
	return &Error{
		Kind:    ErrInvalidFrameLength,
		Op:      op,
		Message: fmt.Sprintf("length %d outside [1, %d]", n, max),
	}
}
