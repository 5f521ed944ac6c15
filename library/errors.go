package library

import "errors"

// Typed failures surfaced by the three services. Callers branch on these
// with errors.Is; the display layer decides how to word them.
var (
	// ErrValidation wraps malformed-input failures. The wrapped message
	// names the offending field.
	ErrValidation = errors.New("validation failed")

	ErrBookNotFound        = errors.New("book does not exist")
	ErrMemberNotFound      = errors.New("member does not exist")
	ErrTransactionNotFound = errors.New("transaction does not exist")

	// ErrBookUnavailable means no copies are left to lend.
	ErrBookUnavailable = errors.New("book is not available for issue")

	// ErrDuplicateLoan means the member already holds an open loan for
	// this book.
	ErrDuplicateLoan = errors.New("member already has this book issued")

	// ErrAlreadyReturned means the transaction is not in the ISSUED state.
	ErrAlreadyReturned = errors.New("book already returned")
)
