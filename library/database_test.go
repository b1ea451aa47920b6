package library

import (
	"path/filepath"
	"testing"
	"time"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	if err := db.AddBook(&Book{ID: "b1", Title: "Persisted", Author: "A", Genre: GenreFiction}); err != nil {
		t.Fatalf("add book: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Opening again re-runs migrations; they must be idempotent and the data
	// must still be there.
	db, err = NewDatabase(path)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	defer db.Close()

	book, err := db.GetBook("b1")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if book.Title != "Persisted" {
		t.Fatalf("unexpected title %q", book.Title)
	}
}

func TestCloseOpenRecordPicksMostRecent(t *testing.T) {
	db := tempDB(t)

	if err := db.AddUser(&User{ID: "u1", Name: "Alice", Role: RoleStudent}); err != nil {
		t.Fatalf("add user: %v", err)
	}

	day := func(n int) time.Time {
		return time.Date(2026, time.March, 1+n, 0, 0, 0, 0, time.UTC)
	}

	// Closed earlier loan and a newer open loan of the same book.
	closedAt := day(2)
	if err := db.AppendRecord("u1", BorrowingRecord{
		BookID: "b1", BookTitle: "Book", BorrowedDate: day(0), ReturnedDate: &closedAt,
	}); err != nil {
		t.Fatalf("append record: %v", err)
	}
	if err := db.AppendRecord("u1", BorrowingRecord{
		BookID: "b1", BookTitle: "Book", BorrowedDate: day(3),
	}); err != nil {
		t.Fatalf("append record: %v", err)
	}

	closed, err := db.CloseOpenRecord("u1", "b1", day(5))
	if err != nil {
		t.Fatalf("close record: %v", err)
	}
	if !closed {
		t.Fatal("expected the open record to close")
	}

	history, err := db.History("u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("want 2 records, got %d", len(history))
	}
	if history[0].ReturnedDate == nil || !history[0].ReturnedDate.Equal(day(2)) {
		t.Fatalf("first record must keep its original return date: %+v", history[0])
	}
	if history[1].ReturnedDate == nil || !history[1].ReturnedDate.Equal(day(5)) {
		t.Fatalf("second record must be closed at day 5: %+v", history[1])
	}
}

func TestDeleteUserRemovesHistory(t *testing.T) {
	db := tempDB(t)

	if err := db.AddUser(&User{ID: "u1", Name: "Alice", Role: RoleStudent}); err != nil {
		t.Fatalf("add user: %v", err)
	}
	if err := db.AppendRecord("u1", BorrowingRecord{
		BookID: "b1", BookTitle: "Book", BorrowedDate: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("append record: %v", err)
	}

	if err := db.DeleteUser("u1"); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	var count int
	if err := db.db.QueryRow(`SELECT COUNT(*) FROM borrow_records WHERE user_id='u1'`).Scan(&count); err != nil {
		t.Fatalf("count records: %v", err)
	}
	if count != 0 {
		t.Fatalf("want 0 records after user delete, got %d", count)
	}
}

func TestManagerOverSQLite(t *testing.T) {
	// End-to-end lend/return against the SQLite store, mirroring the
	// in-memory engine tests at a smoke-test level.
	db := tempDB(t)
	lm := NewLibraryManager(db, nil)

	user, err := lm.AddUser("Alice", RoleStudent)
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	book, err := lm.AddBook("Dune", "Frank Herbert", GenreScienceFiction, "")
	if err != nil {
		t.Fatalf("add book: %v", err)
	}

	day0 := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if _, err := lm.BorrowBook(book.ID, user.ID, day0); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	receipt, err := lm.ReturnBook(book.ID, day0.AddDate(0, 0, 20))
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if receipt.Fine != 3.00 {
		t.Fatalf("want fine 3.00, got %.2f", receipt.Fine)
	}

	got, err := lm.GetUser(user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Fines != 3.00 {
		t.Fatalf("want fines 3.00, got %.2f", got.Fines)
	}
	if len(got.History) != 1 || got.History[0].Open() {
		t.Fatalf("want one closed record, got %+v", got.History)
	}
}
