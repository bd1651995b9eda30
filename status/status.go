// Package status carries the library's gRPC-flavored (code, message) result
// across the transport and adapter boundary. It is returned by value from
// every public operation; the library never panics and never uses Go errors
// as its primary failure channel.
package status

import "fmt"

// Code is a canonical gRPC status code.
type Code int

// Canonical gRPC codes. Unknown codes render as UNKNOWN_STATUS_CODE.
const (
	OK                 Code = 0
	Canceled           Code = 1
	Unknown            Code = 2
	InvalidArgument    Code = 3
	DeadlineExceeded   Code = 4
	NotFound           Code = 5
	AlreadyExists      Code = 6
	PermissionDenied   Code = 7
	ResourceExhausted  Code = 8
	FailedPrecondition Code = 9
	Aborted            Code = 10
	OutOfRange         Code = 11
	Unimplemented      Code = 12
	Internal           Code = 13
	Unavailable        Code = 14
	DataLoss           Code = 15
	Unauthenticated    Code = 16
)

var codeNames = map[Code]string{
	OK:                 "OK",
	Canceled:           "CANCELLED",
	Unknown:            "UNKNOWN",
	InvalidArgument:    "INVALID_ARGUMENT",
	DeadlineExceeded:   "DEADLINE_EXCEEDED",
	NotFound:           "NOT_FOUND",
	AlreadyExists:      "ALREADY_EXISTS",
	PermissionDenied:   "PERMISSION_DENIED",
	ResourceExhausted:  "RESOURCE_EXHAUSTED",
	FailedPrecondition: "FAILED_PRECONDITION",
	Aborted:            "ABORTED",
	OutOfRange:         "OUT_OF_RANGE",
	Unimplemented:      "UNIMPLEMENTED",
	Internal:           "INTERNAL",
	Unavailable:        "UNAVAILABLE",
	DataLoss:           "DATA_LOSS",
	Unauthenticated:    "UNAUTHENTICATED",
}

// String returns the canonical name for c, or UNKNOWN_STATUS_CODE if c isn't
// one of the codes above.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN_STATUS_CODE"
}

// Status is a (code, message) pair. The zero value is OK.
type Status struct {
	Code    Code
	Message string
}

// OKStatus is the canonical success status.
var OKStatus = Status{Code: OK}

// New builds a Status from a code and message.
func New(code Code, message string) Status {
	return Status{Code: code, Message: message}
}

// Newf builds a Status with a formatted message.
func Newf(code Code, format string, args ...interface{}) Status {
	return Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsOK reports whether s.Code == OK.
func (s Status) IsOK() bool {
	return s.Code == OK
}

// Error implements the error interface so a Status can be returned or
// wrapped wherever ordinary Go code expects one, without making error the
// library's primary result channel.
func (s Status) Error() string {
	return fmt.Sprintf("%s: %s", s.Code.String(), s.Message)
}
