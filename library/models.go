package library

import "time"

// Role determines a patron's loan duration and borrowing limit.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleFaculty
}

// Genre is a catalog category. The set is fixed.
type Genre string

const (
	GenreFiction         Genre = "Fiction"
	GenreNonFiction      Genre = "Non-Fiction"
	GenreScienceFiction  Genre = "Science Fiction"
	GenreFantasy         Genre = "Fantasy"
	GenreMystery         Genre = "Mystery"
	GenreComputerScience Genre = "Computer Science"
)

// Genres lists every valid genre, in display order.
var Genres = []Genre{
	GenreFiction,
	GenreNonFiction,
	GenreScienceFiction,
	GenreFantasy,
	GenreMystery,
	GenreComputerScience,
}

// Valid reports whether g is one of the known genres.
func (g Genre) Valid() bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

// Book represents a single circulating copy. A book is either fully available
// (BorrowedBy and DueDate both nil) or fully on loan (both set) -- there is no
// partial state.
type Book struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	Genre      Genre      `json:"genre"`
	CoverImage string     `json:"cover_image,omitempty"`
	BorrowedBy *string    `json:"borrowed_by,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

// Available reports whether the book is on the shelf.
func (b *Book) Available() bool {
	return b.BorrowedBy == nil
}

// User represents a registered patron. Fines accumulate across returns until
// explicitly settled. History is append-only except for closing the open
// record when a book comes back.
type User struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Role    Role              `json:"role"`
	Fines   float64           `json:"fines"`
	History []BorrowingRecord `json:"history,omitempty"`
}

// BorrowingRecord is one entry in a user's borrowing history. BookTitle is a
// snapshot taken at borrow time so the history survives edits and deletion of
// the book itself. A nil ReturnedDate marks the loan as still open.
type BorrowingRecord struct {
	BookID       string     `json:"book_id"`
	BookTitle    string     `json:"book_title"`
	BorrowedDate time.Time  `json:"borrowed_date"`
	ReturnedDate *time.Time `json:"returned_date,omitempty"`
}

// Open reports whether the record's loan has not been returned yet.
func (r BorrowingRecord) Open() bool {
	return r.ReturnedDate == nil
}

// Notification is an overdue-loan alert. Notifications are derived from store
// state on demand and never persisted.
type Notification struct {
	BookID      string `json:"book_id"`
	BookTitle   string `json:"book_title"`
	UserName    string `json:"user_name"`
	DaysOverdue int    `json:"days_overdue"`
}
