package receivable

import "github.com/finvera/receivables/internal/domain/shared"

// Errors raised by the receivable aggregate and its services
var (
	// ErrNotFound is returned when the referenced receivable does not exist
	ErrNotFound = shared.NewDomainError("NOT_FOUND", "Receivable not found")

	// ErrAlreadySettled is returned when a settlement is attempted on a fully paid receivable
	ErrAlreadySettled = shared.NewDomainError("ALREADY_SETTLED", "Receivable is already fully settled")

	// ErrInvalidAmount is returned when a settlement amount is not positive or
	// exceeds the remaining balance or the total amount
	ErrInvalidAmount = shared.NewDomainError("INVALID_AMOUNT", "Settlement amount is invalid for this receivable")

	// ErrMismatchedIdentifiers is returned when an edit payload identifier
	// conflicts with the target identifier
	ErrMismatchedIdentifiers = shared.NewDomainError("MISMATCHED_IDENTIFIERS", "Payload identifier does not match target identifier")

	// ErrUnmodifiable is returned when an edit targets a receivable that does not exist
	ErrUnmodifiable = shared.NewDomainError("UNMODIFIABLE", "Receivable does not exist and cannot be modified")
)
