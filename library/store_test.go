package library

import (
	"errors"
	"testing"
	"time"
)

// testStore exercises the Store contract shared by every implementation.
func testStore(t *testing.T, store Store) {
	t.Helper()

	// Books
	book := &Book{ID: "b1", Title: "Dune", Author: "Frank Herbert", Genre: GenreScienceFiction}
	if err := store.AddBook(book); err != nil {
		t.Fatalf("add book: %v", err)
	}

	got, err := store.GetBook("b1")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if got.Title != "Dune" || !got.Available() {
		t.Fatalf("unexpected book: %+v", got)
	}

	if _, err := store.GetBook("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	// Users
	user := &User{ID: "u1", Name: "Alice", Role: RoleStudent}
	if err := store.AddUser(user); err != nil {
		t.Fatalf("add user: %v", err)
	}

	// Mark the book borrowed and verify pointer fields round-trip.
	due := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	got.BorrowedBy = &user.ID
	got.DueDate = &due
	if err := store.UpdateBook(got); err != nil {
		t.Fatalf("update book: %v", err)
	}
	got, err = store.GetBook("b1")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if got.BorrowedBy == nil || *got.BorrowedBy != "u1" {
		t.Fatalf("borrowed_by not persisted: %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("due_date not persisted: %+v", got)
	}

	// History: append an open record, then close it.
	borrowed := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	rec := BorrowingRecord{BookID: "b1", BookTitle: "Dune", BorrowedDate: borrowed}
	if err := store.AppendRecord("u1", rec); err != nil {
		t.Fatalf("append record: %v", err)
	}

	history, err := store.History("u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || !history[0].Open() || !history[0].BorrowedDate.Equal(borrowed) {
		t.Fatalf("unexpected history: %+v", history)
	}

	closed, err := store.CloseOpenRecord("u1", "b1", due)
	if err != nil {
		t.Fatalf("close record: %v", err)
	}
	if !closed {
		t.Fatal("expected an open record to close")
	}
	closed, err = store.CloseOpenRecord("u1", "b1", due)
	if err != nil {
		t.Fatalf("close record again: %v", err)
	}
	if closed {
		t.Fatal("no open record should remain")
	}

	// GetUser carries history; GetAllUsers omits it.
	gotUser, err := store.GetUser("u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(gotUser.History) != 1 {
		t.Fatalf("want history on GetUser, got %+v", gotUser)
	}
	users, err := store.GetAllUsers()
	if err != nil {
		t.Fatalf("get all users: %v", err)
	}
	if len(users) != 1 || len(users[0].History) != 0 {
		t.Fatalf("want 1 user without history, got %+v", users)
	}

	// UpdateUser persists name/role/fines but never history.
	gotUser.Name = "Alice Cooper"
	gotUser.Fines = 2.50
	gotUser.History = nil
	if err := store.UpdateUser(gotUser); err != nil {
		t.Fatalf("update user: %v", err)
	}
	gotUser, err = store.GetUser("u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if gotUser.Name != "Alice Cooper" || gotUser.Fines != 2.50 {
		t.Fatalf("user fields not persisted: %+v", gotUser)
	}
	if len(gotUser.History) != 1 {
		t.Fatalf("history must survive UpdateUser: %+v", gotUser)
	}

	// Deletes
	if err := store.DeleteBook("b1"); err != nil {
		t.Fatalf("delete book: %v", err)
	}
	if err := store.DeleteBook("b1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound on double delete, got %v", err)
	}
	if err := store.DeleteUser("u1"); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := store.GetUser("u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestDatabaseStore(t *testing.T) {
	testStore(t, tempDB(t))
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	store := NewMemoryStore()
	book := &Book{ID: "b1", Title: "Original", Author: "A", Genre: GenreFiction}
	if err := store.AddBook(book); err != nil {
		t.Fatalf("add book: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	book.Title = "Mutated"
	got, _ := store.GetBook("b1")
	if got.Title != "Original" {
		t.Fatalf("store shared caller's pointer: %q", got.Title)
	}

	// Mutating a fetched copy must not leak either.
	got.Title = "Mutated Again"
	again, _ := store.GetBook("b1")
	if again.Title != "Original" {
		t.Fatalf("store leaked internal pointer: %q", again.Title)
	}
}
