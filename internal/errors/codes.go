// Package errors defines the typed failures of the progression core and how
// they map onto transport status codes.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Ledger preconditions
	CodeInsufficientCurrency Code = "INSUFFICIENT_CURRENCY"
	CodeInsufficientEnergy   Code = "INSUFFICIENT_ENERGY"

	// Combat
	CodeNoActiveSession Code = "NO_ACTIVE_SESSION"

	// Catalog lookups
	CodeUnknownSet Code = "UNKNOWN_SET"

	// Per-player serialization
	CodeBusy Code = "BUSY"

	// Input validation
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Storage and other collaborator faults
	CodeInternal Code = "INTERNAL"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeInsufficientCurrency, CodeInsufficientEnergy, CodeNoActiveSession:
		return codes.FailedPrecondition
	case CodeUnknownSet:
		return codes.NotFound
	case CodeBusy:
		return codes.Aborted
	case CodeInvalidArgument:
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInsufficientCurrency, CodeInsufficientEnergy, CodeNoActiveSession:
		return http.StatusConflict
	case CodeUnknownSet:
		return http.StatusNotFound
	case CodeBusy:
		return http.StatusTooManyRequests
	case CodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Recoverable reports whether the caller can retry, prompt or ignore the
// failure without any corrective action on the ledger.
func (c Code) Recoverable() bool {
	return c != CodeInternal && c != CodeUnknown
}
