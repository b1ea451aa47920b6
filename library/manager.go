package library

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LibraryManager orchestrates circulation against a Store: who may borrow
// what, for how long, what a late return costs, and how borrowing history is
// kept consistent with book state. All policy decisions live here, never in
// the storage layer.
//
// Every operation checks its preconditions before touching the store, so a
// failed call never leaves the store partially updated. Operations that
// depend on the calendar take an explicit asOf date instead of reading the
// clock, keeping the engine deterministic.
type LibraryManager struct {
	store  Store
	logger *slog.Logger
}

// NewLibraryManager wraps the given store. A nil logger falls back to
// slog.Default.
func NewLibraryManager(store Store, logger *slog.Logger) *LibraryManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryManager{store: store, logger: logger}
}

// Close closes the underlying store.
func (lm *LibraryManager) Close() error { return lm.store.Close() }

// ReturnReceipt reports the outcome of a return for user-facing disclosure.
type ReturnReceipt struct {
	BookID      string
	BookTitle   string
	UserID      string
	UserName    string
	DaysOverdue int
	Fine        float64
}

// ------------------ Books ------------------

// AddBook catalogs a new book with a fresh id, available for borrowing.
func (lm *LibraryManager) AddBook(title, author string, genre Genre, coverImage string) (*Book, error) {
	if err := validateBookFields(title, author, genre); err != nil {
		return nil, err
	}
	book := &Book{
		ID:         uuid.NewString(),
		Title:      strings.TrimSpace(title),
		Author:     strings.TrimSpace(author),
		Genre:      genre,
		CoverImage: coverImage,
	}
	if err := lm.store.AddBook(book); err != nil {
		return nil, err
	}
	return book, nil
}

// UpdateBook edits catalog metadata only. Borrower and due date are owned by
// the circulation operations and are never touched here.
func (lm *LibraryManager) UpdateBook(id, title, author string, genre Genre, coverImage string) (*Book, error) {
	if err := validateBookFields(title, author, genre); err != nil {
		return nil, err
	}
	book, err := lm.store.GetBook(id)
	if err != nil {
		return nil, err
	}
	book.Title = strings.TrimSpace(title)
	book.Author = strings.TrimSpace(author)
	book.Genre = genre
	book.CoverImage = coverImage
	if err := lm.store.UpdateBook(book); err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook removes the book unconditionally. Borrowing histories keep their
// title snapshots, so past loans of the book remain readable.
func (lm *LibraryManager) DeleteBook(id string) error {
	return lm.store.DeleteBook(id)
}

func (lm *LibraryManager) GetBook(id string) (*Book, error) { return lm.store.GetBook(id) }
func (lm *LibraryManager) GetAllBooks() ([]*Book, error)    { return lm.store.GetAllBooks() }

// SearchBooks matches the query against title and author, case-insensitively.
func (lm *LibraryManager) SearchBooks(query string) ([]*Book, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []*Book{}, nil
	}
	books, err := lm.store.GetAllBooks()
	if err != nil {
		return nil, err
	}
	var results []*Book
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.Title), query) ||
			strings.Contains(strings.ToLower(b.Author), query) {
			results = append(results, b)
		}
	}
	return results, nil
}

// ------------------ Users ------------------

// AddUser registers a new patron with no fines and an empty history.
func (lm *LibraryManager) AddUser(name string, role Role) (*User, error) {
	if err := validateUserFields(name, role); err != nil {
		return nil, err
	}
	user := &User{
		ID:   uuid.NewString(),
		Name: strings.TrimSpace(name),
		Role: role,
	}
	if err := lm.store.AddUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser edits name and role only. Fines and history are owned by the
// circulation operations.
func (lm *LibraryManager) UpdateUser(id, name string, role Role) (*User, error) {
	if err := validateUserFields(name, role); err != nil {
		return nil, err
	}
	user, err := lm.store.GetUser(id)
	if err != nil {
		return nil, err
	}
	user.Name = strings.TrimSpace(name)
	user.Role = role
	if err := lm.store.UpdateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user and their history. It fails with
// ErrHasActiveLoans while any book is still out under their name.
func (lm *LibraryManager) DeleteUser(id string) error {
	if _, err := lm.store.GetUser(id); err != nil {
		return err
	}
	active, err := lm.activeLoanCount(id)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("%w (%d active)", ErrHasActiveLoans, active)
	}
	return lm.store.DeleteUser(id)
}

func (lm *LibraryManager) GetUser(id string) (*User, error) { return lm.store.GetUser(id) }
func (lm *LibraryManager) GetAllUsers() ([]*User, error)    { return lm.store.GetAllUsers() }

// History returns the user's borrowing records, oldest first.
func (lm *LibraryManager) History(userID string) ([]BorrowingRecord, error) {
	return lm.store.History(userID)
}

// ------------------ Circulation ------------------

// BorrowBook lends the book to the user as of the given date. The due date
// follows the user's role and an open borrowing record is appended with the
// book's title snapshotted at this instant.
func (lm *LibraryManager) BorrowBook(bookID, userID string, asOf time.Time) (*Book, error) {
	book, err := lm.store.GetBook(bookID)
	if err != nil {
		return nil, err
	}
	if !book.Available() {
		return nil, fmt.Errorf("%q: %w", book.Title, ErrAlreadyBorrowed)
	}
	user, err := lm.store.GetUser(userID)
	if err != nil {
		return nil, err
	}

	active, err := lm.activeLoanCount(userID)
	if err != nil {
		return nil, err
	}
	if limit := BorrowLimit(user.Role); active >= limit {
		return nil, &LimitExceededError{Role: user.Role, Limit: limit, Count: active}
	}

	due := DueDateFor(user.Role, asOf)
	book.BorrowedBy = &user.ID
	book.DueDate = &due
	if err := lm.store.UpdateBook(book); err != nil {
		return nil, err
	}
	rec := BorrowingRecord{
		BookID:       book.ID,
		BookTitle:    book.Title,
		BorrowedDate: atMidnight(asOf),
	}
	if err := lm.store.AppendRecord(user.ID, rec); err != nil {
		return nil, err
	}
	return book, nil
}

// ReturnBook takes the book back as of the given date. An overdue return adds
// the fine to the borrower before the open history record is closed and the
// book is cleared. A missing open record means history and book state
// diverged; the book is still returned and the divergence is logged rather
// than surfaced.
func (lm *LibraryManager) ReturnBook(bookID string, asOf time.Time) (*ReturnReceipt, error) {
	book, err := lm.store.GetBook(bookID)
	if err != nil {
		return nil, err
	}
	if book.Available() {
		return nil, fmt.Errorf("%q: %w", book.Title, ErrNotBorrowed)
	}

	receipt := &ReturnReceipt{
		BookID:    book.ID,
		BookTitle: book.Title,
		UserID:    *book.BorrowedBy,
	}

	user, err := lm.store.GetUser(*book.BorrowedBy)
	switch {
	case err == nil:
		receipt.UserName = user.Name
		receipt.DaysOverdue = DaysOverdue(*book.DueDate, asOf)
		receipt.Fine = FineForOverdue(*book.DueDate, asOf)
		if receipt.Fine > 0 {
			user.Fines += receipt.Fine
			if err := lm.store.UpdateUser(user); err != nil {
				return nil, err
			}
		}
		closed, err := lm.store.CloseOpenRecord(user.ID, book.ID, atMidnight(asOf))
		if err != nil {
			return nil, err
		}
		if !closed {
			lm.logger.Warn("no open borrowing record for returned book",
				"book_id", book.ID, "user_id", user.ID)
		}
	case errors.Is(err, ErrNotFound):
		// Borrower vanished from the store; take the book back anyway.
		lm.logger.Warn("returned book references unknown borrower",
			"book_id", book.ID, "user_id", *book.BorrowedBy)
	default:
		return nil, err
	}

	book.BorrowedBy = nil
	book.DueDate = nil
	if err := lm.store.UpdateBook(book); err != nil {
		return nil, err
	}
	return receipt, nil
}

// PayFines settles the user's outstanding fines in full and returns the
// amount paid. Partial payment is not supported.
func (lm *LibraryManager) PayFines(userID string) (float64, error) {
	user, err := lm.store.GetUser(userID)
	if err != nil {
		return 0, err
	}
	paid := user.Fines
	user.Fines = 0
	if err := lm.store.UpdateUser(user); err != nil {
		return 0, err
	}
	return paid, nil
}

// Notifications derives the current overdue-loan alerts as of the given date.
func (lm *LibraryManager) Notifications(asOf time.Time) ([]Notification, error) {
	return DeriveNotifications(lm.store, asOf)
}

// ------------------ Helpers ------------------

// activeLoanCount counts books currently out under the user's name.
func (lm *LibraryManager) activeLoanCount(userID string) (int, error) {
	books, err := lm.store.GetAllBooks()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, b := range books {
		if b.BorrowedBy != nil && *b.BorrowedBy == userID {
			count++
		}
	}
	return count, nil
}

func validateBookFields(title, author string, genre Genre) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if strings.TrimSpace(author) == "" {
		return fmt.Errorf("author cannot be empty")
	}
	if !genre.Valid() {
		return fmt.Errorf("unknown genre %q", genre)
	}
	return nil
}

func validateUserFields(name string, role Role) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	return nil
}
