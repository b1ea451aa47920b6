package library

import (
	"errors"
	"fmt"
)

// Circulation failures. All are precondition failures raised before any store
// mutation; none leave the store partially updated.
var (
	// ErrNotFound indicates the book or user id is unknown to the store.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyBorrowed indicates a borrow attempt on a book that is on loan.
	ErrAlreadyBorrowed = errors.New("book is already borrowed")

	// ErrNotBorrowed indicates a return attempt on a book that is on the shelf.
	ErrNotBorrowed = errors.New("book is not borrowed")

	// ErrHasActiveLoans indicates a delete-user attempt while the user still
	// has books out.
	ErrHasActiveLoans = errors.New("user has books currently borrowed")
)

// LimitExceededError is returned when a borrow attempt would push a user past
// their role's borrowing limit. It carries the role, the limit, and the
// current active-loan count so the caller can surface all three.
type LimitExceededError struct {
	Role  Role
	Limit int
	Count int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s borrowing limit of %d books reached (%d currently borrowed)", e.Role, e.Limit, e.Count)
}
