package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
)

// Domain error codes raised by the receivable core
const (
	// ErrCodeNotFound is used when the referenced receivable is absent
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeAlreadySettled is used when settling a fully paid receivable
	ErrCodeAlreadySettled = "ALREADY_SETTLED"
	// ErrCodeInvalidAmount is used when a settlement amount fails validation
	ErrCodeInvalidAmount = "INVALID_AMOUNT"
	// ErrCodeMismatchedIdentifiers is used when an edit's body id conflicts with its target
	ErrCodeMismatchedIdentifiers = "MISMATCHED_IDENTIFIERS"
	// ErrCodeUnmodifiable is used when an edit targets a missing receivable
	ErrCodeUnmodifiable = "UNMODIFIABLE"
	// ErrCodeConcurrencyConflict is used when optimistic locking loses every retry
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	// ErrCodeCommunicationFailure is used when a required external lookup fails
	ErrCodeCommunicationFailure = "COMMUNICATION_FAILURE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeNotFound:              http.StatusNotFound,
	ErrCodeAlreadySettled:        http.StatusUnprocessableEntity,
	ErrCodeInvalidAmount:         http.StatusUnprocessableEntity,
	ErrCodeMismatchedIdentifiers: http.StatusNotAcceptable,
	ErrCodeUnmodifiable:          http.StatusNotAcceptable,
	ErrCodeConcurrencyConflict:   http.StatusConflict,
	ErrCodeCommunicationFailure:  http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 422: they come from domain validation, not from
// infrastructure failures.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
