package errors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/status"
)

// Error is a domain failure carrying a code and optional metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

// Is matches any *Error with the same code, so errors.Is works against the
// sentinels below regardless of message or metadata.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// GRPCStatus lets status.FromError and status.Code see the mapped code.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Code.GRPCCode(), e.Error())
}

var (
	ErrInsufficientCurrency = &Error{Code: CodeInsufficientCurrency, Message: "insufficient currency"}
	ErrInsufficientEnergy   = &Error{Code: CodeInsufficientEnergy, Message: "insufficient energy"}
	ErrNoActiveSession      = &Error{Code: CodeNoActiveSession, Message: "no active combat session"}
	ErrUnknownSet           = &Error{Code: CodeUnknownSet, Message: "unknown artifact set"}
	ErrBusy                 = &Error{Code: CodeBusy, Message: "another operation is in progress for this player"}
	ErrInvalidArgument      = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
)

// New creates a domain error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithMetadata returns a copy of e carrying the given key/value pairs.
func (e *Error) WithMetadata(kv ...string) *Error {
	md := make(map[string]string, len(e.Metadata)+len(kv)/2)
	for k, v := range e.Metadata {
		md[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		md[kv[i]] = kv[i+1]
	}
	return &Error{Code: e.Code, Message: e.Message, Metadata: md}
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HandleError converts an error into a gRPC status error. Non-domain errors
// are reported as Internal with a generic message.
func HandleError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e.GRPCStatus().Err()
	}
	return status.Error(CodeInternal.GRPCCode(), "an unexpected error occurred")
}
