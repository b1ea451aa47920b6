package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var _ Store = (*Database)(nil)

// Database is a SQLite-backed Store. The on-disk tables mirror the Book,
// User and BorrowingRecord shapes; dates are stored as YYYY-MM-DD strings.
type Database struct {
	db *sql.DB

	insertBookStmt   *sql.Stmt
	insertUserStmt   *sql.Stmt
	appendRecordStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	for _, stmt := range []*sql.Stmt{d.insertBookStmt, d.insertUserStmt, d.appendRecordStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            role TEXT NOT NULL,
            fines REAL NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS books (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            genre TEXT NOT NULL,
            cover_image TEXT NOT NULL DEFAULT '',
            borrowed_by TEXT REFERENCES users(id),
            due_date TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS borrow_records (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            book_id TEXT NOT NULL,
            book_title TEXT NOT NULL,
            borrowed_date TEXT NOT NULL,
            returned_date TEXT
        );`,
		`CREATE INDEX IF NOT EXISTS idx_borrow_records_user ON borrow_records(user_id);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.insertBookStmt, err = d.db.Prepare(
		`INSERT INTO books(id,title,author,genre,cover_image,borrowed_by,due_date) VALUES(?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	if d.insertUserStmt, err = d.db.Prepare(
		`INSERT INTO users(id,name,role,fines) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	if d.appendRecordStmt, err = d.db.Prepare(
		`INSERT INTO borrow_records(user_id,book_id,book_title,borrowed_date,returned_date) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

func (d *Database) AddBook(b *Book) error {
	_, err := d.insertBookStmt.Exec(b.ID, b.Title, b.Author, string(b.Genre), b.CoverImage,
		nullString(b.BorrowedBy), nullDate(b.DueDate))
	return err
}

func (d *Database) GetBook(id string) (*Book, error) {
	row := d.db.QueryRow(
		`SELECT id,title,author,genre,cover_image,borrowed_by,due_date FROM books WHERE id=?`, id)
	return scanBook(row)
}

func (d *Database) GetAllBooks() ([]*Book, error) {
	rows, err := d.db.Query(
		`SELECT id,title,author,genre,cover_image,borrowed_by,due_date FROM books ORDER BY title, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (d *Database) UpdateBook(b *Book) error {
	res, err := d.db.Exec(
		`UPDATE books SET title=?, author=?, genre=?, cover_image=?, borrowed_by=?, due_date=? WHERE id=?`,
		b.Title, b.Author, string(b.Genre), b.CoverImage, nullString(b.BorrowedBy), nullDate(b.DueDate), b.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (d *Database) DeleteBook(id string) error {
	res, err := d.db.Exec(`DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (d *Database) AddUser(u *User) error {
	_, err := d.insertUserStmt.Exec(u.ID, u.Name, string(u.Role), u.Fines)
	return err
}

func (d *Database) GetUser(id string) (*User, error) {
	var u User
	err := d.db.QueryRow(`SELECT id,name,role,fines FROM users WHERE id=?`, id).
		Scan(&u.ID, &u.Name, (*string)(&u.Role), &u.Fines)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	history, err := d.History(id)
	if err != nil {
		return nil, err
	}
	u.History = history
	return &u, nil
}

// GetAllUsers returns users without their borrowing history, for quick listing.
func (d *Database) GetAllUsers() ([]*User, error) {
	rows, err := d.db.Query(`SELECT id,name,role,fines FROM users ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, (*string)(&u.Role), &u.Fines); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (d *Database) UpdateUser(u *User) error {
	res, err := d.db.Exec(`UPDATE users SET name=?, role=?, fines=? WHERE id=?`,
		u.Name, string(u.Role), u.Fines, u.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteUser removes the user and their borrowing history in one transaction.
func (d *Database) DeleteUser(id string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM borrow_records WHERE user_id=?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Borrowing records
// ---------------------------------------------------------------------------

func (d *Database) AppendRecord(userID string, rec BorrowingRecord) error {
	var exists bool
	if err := d.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE id=?)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	_, err := d.appendRecordStmt.Exec(userID, rec.BookID, rec.BookTitle,
		formatDate(rec.BorrowedDate), nullDate(rec.ReturnedDate))
	return err
}

func (d *Database) CloseOpenRecord(userID, bookID string, returned time.Time) (bool, error) {
	res, err := d.db.Exec(
		`UPDATE borrow_records SET returned_date=? WHERE id = (
            SELECT id FROM borrow_records
            WHERE user_id=? AND book_id=? AND returned_date IS NULL
            ORDER BY id DESC LIMIT 1
        )`, formatDate(returned), userID, bookID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *Database) History(userID string) ([]BorrowingRecord, error) {
	rows, err := d.db.Query(
		`SELECT book_id,book_title,borrowed_date,returned_date FROM borrow_records WHERE user_id=? ORDER BY id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]BorrowingRecord, 0)
	for rows.Next() {
		var (
			rec      BorrowingRecord
			borrowed string
			returned sql.NullString
		)
		if err := rows.Scan(&rec.BookID, &rec.BookTitle, &borrowed, &returned); err != nil {
			return nil, err
		}
		if rec.BorrowedDate, err = parseDate(borrowed); err != nil {
			return nil, err
		}
		if returned.Valid {
			t, err := parseDate(returned.String)
			if err != nil {
				return nil, err
			}
			rec.ReturnedDate = &t
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}

// ---------------------------------------------------------------------------
// Scan and null helpers
// ---------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*Book, error) {
	var (
		b          Book
		borrowedBy sql.NullString
		dueDate    sql.NullString
	)
	err := row.Scan(&b.ID, &b.Title, &b.Author, (*string)(&b.Genre), &b.CoverImage, &borrowedBy, &dueDate)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if borrowedBy.Valid {
		b.BorrowedBy = &borrowedBy.String
	}
	if dueDate.Valid {
		t, err := parseDate(dueDate.String)
		if err != nil {
			return nil, err
		}
		b.DueDate = &t
	}
	return &b, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatDate(*t)
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
