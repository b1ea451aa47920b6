package library

import (
	"sort"
	"sync"
	"time"
)

// Store holds the current collections of books and users. It has no
// circulation behavior of its own; the LibraryManager decides what may change
// and when. Implementations return ErrNotFound for unknown ids.
//
// Borrowing history is maintained only through AppendRecord and
// CloseOpenRecord; UpdateUser persists Name, Role and Fines. GetAllUsers
// omits history for quick listing -- use GetUser or History for the full
// record.
type Store interface {
	AddBook(b *Book) error
	GetBook(id string) (*Book, error)
	GetAllBooks() ([]*Book, error)
	UpdateBook(b *Book) error
	DeleteBook(id string) error

	AddUser(u *User) error
	GetUser(id string) (*User, error)
	GetAllUsers() ([]*User, error)
	UpdateUser(u *User) error
	DeleteUser(id string) error

	// AppendRecord adds an open borrowing record to the user's history.
	AppendRecord(userID string, rec BorrowingRecord) error
	// CloseOpenRecord stamps the most recent open record for (userID, bookID)
	// with the returned date. It reports false when no open record exists.
	CloseOpenRecord(userID, bookID string, returned time.Time) (bool, error)
	// History returns the user's borrowing records, oldest first.
	History(userID string) ([]BorrowingRecord, error)

	Close() error
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps all state in process memory. Records are copied on the
// way in and out, so callers never share pointers with the store and every
// mutation goes through an explicit Update call.
type MemoryStore struct {
	mu    sync.Mutex
	books map[string]*Book
	users map[string]*User
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books: make(map[string]*Book),
		users: make(map[string]*User),
	}
}

func (m *MemoryStore) AddBook(b *Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[b.ID] = cloneBook(b)
	return nil
}

func (m *MemoryStore) GetBook(id string) (*Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBook(b), nil
}

func (m *MemoryStore) GetAllBooks() ([]*Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	books := make([]*Book, 0, len(m.books))
	for _, b := range m.books {
		books = append(books, cloneBook(b))
	}
	sortBooks(books)
	return books, nil
}

func (m *MemoryStore) UpdateBook(b *Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[b.ID]; !ok {
		return ErrNotFound
	}
	m.books[b.ID] = cloneBook(b)
	return nil
}

func (m *MemoryStore) DeleteBook(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return ErrNotFound
	}
	delete(m.books, id)
	return nil
}

func (m *MemoryStore) AddUser(u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *MemoryStore) GetUser(id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *MemoryStore) GetAllUsers() ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		c := cloneUser(u)
		c.History = nil
		users = append(users, c)
	}
	sortUsers(users)
	return users, nil
}

func (m *MemoryStore) UpdateUser(u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	// History changes only via AppendRecord / CloseOpenRecord.
	cur.Name = u.Name
	cur.Role = u.Role
	cur.Fines = u.Fines
	return nil
}

func (m *MemoryStore) DeleteUser(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MemoryStore) AppendRecord(userID string, rec BorrowingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.History = append(u.History, cloneRecord(rec))
	return nil
}

func (m *MemoryStore) CloseOpenRecord(userID, bookID string, returned time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return false, ErrNotFound
	}
	for i := len(u.History) - 1; i >= 0; i-- {
		rec := &u.History[i]
		if rec.BookID == bookID && rec.Open() {
			t := returned
			rec.ReturnedDate = &t
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) History(userID string) ([]BorrowingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	history := make([]BorrowingRecord, 0, len(u.History))
	for _, rec := range u.History {
		history = append(history, cloneRecord(rec))
	}
	return history, nil
}

func (m *MemoryStore) Close() error { return nil }

// Listing order is stable: title then id for books, name then id for users.

func sortBooks(books []*Book) {
	sort.Slice(books, func(i, j int) bool {
		if books[i].Title != books[j].Title {
			return books[i].Title < books[j].Title
		}
		return books[i].ID < books[j].ID
	})
}

func sortUsers(users []*User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
}

// ---------------------------------------------------------------------------
// Copy helpers
// ---------------------------------------------------------------------------

func cloneBook(b *Book) *Book {
	c := *b
	if b.BorrowedBy != nil {
		id := *b.BorrowedBy
		c.BorrowedBy = &id
	}
	if b.DueDate != nil {
		d := *b.DueDate
		c.DueDate = &d
	}
	return &c
}

func cloneUser(u *User) *User {
	c := *u
	c.History = make([]BorrowingRecord, 0, len(u.History))
	for _, rec := range u.History {
		c.History = append(c.History, cloneRecord(rec))
	}
	return &c
}

func cloneRecord(rec BorrowingRecord) BorrowingRecord {
	if rec.ReturnedDate != nil {
		t := *rec.ReturnedDate
		rec.ReturnedDate = &t
	}
	return rec
}
