package errs

import "errors"

// Common sentinel errors for cross-layer signaling. All are caller-recoverable;
// the caller layer maps them to presentation text.
var (
	ErrNotFound = errors.New("account_not_found")
	// ErrInvalidAmount covers non-positive deposits, withdrawals, transfers,
	// charges and interest rates.
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInsufficientFunds = errors.New("insufficient_funds")
	// ErrSameAccount rejects transfers where sender and recipient coincide.
	ErrSameAccount = errors.New("same_account")
	// ErrInvalidPhone indicates a contact number that is not exactly 10 digits.
	ErrInvalidPhone   = errors.New("invalid_phone")
	ErrDuplicatePhone = errors.New("duplicate_phone")
	// ErrCapacityExceeded indicates the store is at its configured maximum.
	ErrCapacityExceeded = errors.New("capacity_exceeded")
	// ErrCurrencyMismatch indicates an amount in a currency other than the
	// account's.
	ErrCurrencyMismatch = errors.New("currency_mismatch")
	// ErrInvalid is used for generic validation failures (missing name, etc.)
	ErrInvalid = errors.New("invalid")
)
