// Package h2uds is a gRPC client specialized to a single transport: cleartext
// HTTP/2 with prior knowledge (no HTTP/1.1 Upgrade) over a Unix domain
// socket. It performs exactly the request shape the Workload API needs — one
// POST per call, unary or server-streaming response — and leaves everything
// else (TLS, connection pooling, client-side streaming) unimplemented.
package h2uds

import (
	"fmt"
	"time"
)

// errKind classifies a transport failure for internal diagnostics. Unary and
// Stream collapse it into a status.Status before returning; only Dial hands
// it back as a Go error.
type errKind string

const (
	errDial     errKind = "dial"
	errHandshake errKind = "handshake"
	errProtocol errKind = "protocol"
	errIO       errKind = "io"
	errTimeout  errKind = "timeout"
)

// transportError is the structured error classification used internally by
// Connection and the call paths. Its Error() string is exactly the message
// carried by the INTERNAL status returned to the caller.
type transportError struct {
	kind    errKind
	op      string
	message string
	cause   error
}

func (e *transportError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.kind, e.op)
	if e.message != "" {
		s += ": " + e.message
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

func (e *transportError) Unwrap() error {
	return e.cause
}

func newDialError(cause error) *transportError {
	return &transportError{kind: errDial, op: "dial", message: "failed to connect to workload API socket", cause: cause}
}

func newHandshakeError(op string, cause error) *transportError {
	return &transportError{kind: errHandshake, op: op, message: "HTTP/2 handshake failed", cause: cause}
}

func newProtocolError(op string, cause error) *transportError {
	return &transportError{kind: errProtocol, op: op, cause: cause}
}

func newIOError(op string, cause error) *transportError {
	return &transportError{kind: errIO, op: op, cause: cause}
}

func newTimeoutError(op string, timeout time.Duration) *transportError {
	return &transportError{kind: errTimeout, op: op, message: fmt.Sprintf("operation timed out after %v", timeout)}
}
