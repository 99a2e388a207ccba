package loan

import "errors"

var (
	ErrNotFound          = errors.New("loan not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrLoanNotActive     = errors.New("loan is not active")
	ErrOverRepayment     = errors.New("repayment exceeds outstanding balance")
	ErrNotMatured        = errors.New("loan term has not elapsed")

	// ErrConcurrencyConflict means the caller lost the per-loan lock race.
	// Nothing was applied; the operation is safe to retry.
	ErrConcurrencyConflict = errors.New("concurrent update on loan, retry")
)
