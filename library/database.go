package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// dateLayout is how dates are written to the DATE columns. The driver
// parses the same layout back into time.Time (UTC) on scan.
const dateLayout = "2006-01-02"

// Database provides high-level helpers around a SQLite connection.
type Database struct {
	db *sqlx.DB

	addBookStmt   *sqlx.Stmt
	addMemberStmt *sqlx.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies
// schema migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
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
	if d.addBookStmt != nil {
		d.addBookStmt.Close()
	}
	if d.addMemberStmt != nil {
		d.addMemberStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
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
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            available INTEGER NOT NULL,
            total INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            email TEXT NOT NULL,
            phone TEXT NOT NULL,
            reg_date DATE NOT NULL
        );`,
		// Backs the case-insensitive uniqueness check in Membership.Add.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_members_email ON members (LOWER(email));`,
		`CREATE TABLE IF NOT EXISTS transactions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            member_id INTEGER NOT NULL REFERENCES members(id),
            book_id INTEGER NOT NULL REFERENCES books(id),
            issue_date DATE NOT NULL,
            due_date DATE NOT NULL,
            return_date DATE,
            status TEXT NOT NULL DEFAULT 'ISSUED',
            fine INTEGER NOT NULL DEFAULT 0,
            days_overdue INTEGER NOT NULL DEFAULT 0
        );`,
		// A member can hold at most one open loan per book.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_open_loan
            ON transactions (member_id, book_id) WHERE status = 'ISSUED';`,
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
	if d.addBookStmt, err = d.db.Preparex(`INSERT INTO books(title,author,available,total) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	if d.addMemberStmt, err = d.db.Preparex(`INSERT INTO members(name,email,phone,reg_date) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Book helpers
// ---------------------------------------------------------------------------

// AddBook inserts a book with available = total = quantity.
func (d *Database) AddBook(title, author string, quantity int) (int64, error) {
	res, err := d.addBookStmt.Exec(title, author, quantity, quantity)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *Database) GetBook(id int64) (*Book, error) {
	var b Book
	err := d.db.Get(&b, `SELECT id,title,author,available,total FROM books WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (d *Database) GetAllBooks() ([]Book, error) {
	var books []Book
	if err := d.db.Select(&books, `SELECT id,title,author,available,total FROM books ORDER BY id`); err != nil {
		return nil, err
	}
	return books, nil
}

func (d *Database) BookExists(id int64) (bool, error) {
	var exists bool
	err := d.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM books WHERE id=?)`, id)
	return exists, err
}

// BookAvailable reports whether the book has copies left. A missing
// book yields false, not an error.
func (d *Database) BookAvailable(id int64) (bool, error) {
	var avail int
	err := d.db.Get(&avail, `SELECT available FROM books WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return avail > 0, nil
}

// AdjustAvailability applies available += delta. The caller is
// responsible for the delta sign and for keeping 0 <= available <= total.
func (d *Database) AdjustAvailability(id int64, delta int) error {
	_, err := d.db.Exec(`UPDATE books SET available = available + ? WHERE id=?`, delta, id)
	return err
}

// ---------------------------------------------------------------------------
// Member helpers
// ---------------------------------------------------------------------------

func (d *Database) AddMember(name, email, phone string, regDate time.Time) (int64, error) {
	res, err := d.addMemberStmt.Exec(name, email, phone, regDate.Format(dateLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("%w: member with this email already exists", ErrValidation)
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (d *Database) GetMember(id int64) (*Member, error) {
	var m Member
	err := d.db.Get(&m, `SELECT id,name,email,phone,reg_date FROM members WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (d *Database) GetAllMembers() ([]Member, error) {
	var members []Member
	if err := d.db.Select(&members, `SELECT id,name,email,phone,reg_date FROM members ORDER BY id`); err != nil {
		return nil, err
	}
	return members, nil
}

func (d *Database) MemberExists(id int64) (bool, error) {
	var exists bool
	err := d.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM members WHERE id=?)`, id)
	return exists, err
}

func (d *Database) MemberEmailExists(email string) (bool, error) {
	var exists bool
	err := d.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM members WHERE LOWER(email)=LOWER(?))`, email)
	return exists, err
}

// ---------------------------------------------------------------------------
// Loan lifecycle
// ---------------------------------------------------------------------------

// IssueBook validates and records a loan in one transaction: the member
// and book must exist, a copy must be available, and the member must not
// already hold this book. On success the transaction row is inserted and
// availability decremented atomically.
func (d *Database) IssueBook(memberID, bookID int64, issueDate, dueDate time.Time) (int64, error) {
	tx, err := d.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM members WHERE id=?)`, memberID); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrMemberNotFound
	}

	if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM books WHERE id=?)`, bookID); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrBookNotFound
	}

	var avail int
	if err := tx.Get(&avail, `SELECT available FROM books WHERE id=?`, bookID); err != nil {
		return 0, err
	}
	if avail <= 0 {
		return 0, ErrBookUnavailable
	}

	if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM transactions WHERE member_id=? AND book_id=? AND status=?)`,
		memberID, bookID, StatusIssued); err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrDuplicateLoan
	}

	res, err := tx.Exec(`INSERT INTO transactions(member_id,book_id,issue_date,due_date,status) VALUES(?,?,?,?,?)`,
		memberID, bookID, issueDate.Format(dateLayout), dueDate.Format(dateLayout), StatusIssued)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrDuplicateLoan
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	// Guarded decrement keeps available from going negative even if the
	// check above raced with another writer.
	upd, err := tx.Exec(`UPDATE books SET available = available - 1 WHERE id=? AND available > 0`, bookID)
	if err != nil {
		return 0, err
	}
	if n, err := upd.RowsAffected(); err != nil {
		return 0, err
	} else if n == 0 {
		return 0, ErrBookUnavailable
	}

	return id, tx.Commit()
}

// ReturnBook finalizes a loan in one transaction. The fine is computed
// from the due date and today, frozen on the row, and the copy goes
// back into circulation.
func (d *Database) ReturnBook(transactionID int64, today time.Time) (fine int64, daysOverdue int, err error) {
	tx, err := d.db.Beginx()
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	var row struct {
		DueDate time.Time `db:"due_date"`
		BookID  int64     `db:"book_id"`
		Status  string    `db:"status"`
	}
	err = tx.Get(&row, `SELECT due_date, book_id, status FROM transactions WHERE id=?`, transactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrTransactionNotFound
	}
	if err != nil {
		return 0, 0, err
	}
	if row.Status != StatusIssued {
		return 0, 0, ErrAlreadyReturned
	}

	daysOverdue, fine = fineFor(row.DueDate, today)

	if _, err := tx.Exec(`UPDATE transactions SET return_date=?, fine=?, days_overdue=?, status=? WHERE id=?`,
		today.Format(dateLayout), fine, daysOverdue, StatusReturned, transactionID); err != nil {
		return 0, 0, err
	}
	if _, err := tx.Exec(`UPDATE books SET available = available + 1 WHERE id=?`, row.BookID); err != nil {
		return 0, 0, err
	}

	return fine, daysOverdue, tx.Commit()
}

// RecomputeFines refreshes the persisted fine and days-overdue of every
// open loan from today's date. Loans not yet due are reset to zero, so
// the sweep is idempotent. Returns the number of overdue loans.
func (d *Database) RecomputeFines(today time.Time) (int, error) {
	tx, err := d.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var open []struct {
		ID      int64     `db:"id"`
		DueDate time.Time `db:"due_date"`
	}
	if err := tx.Select(&open, `SELECT id, due_date FROM transactions WHERE status=?`, StatusIssued); err != nil {
		return 0, err
	}

	overdue := 0
	for _, loan := range open {
		days, fine := fineFor(loan.DueDate, today)
		if days > 0 {
			overdue++
		}
		if _, err := tx.Exec(`UPDATE transactions SET fine=?, days_overdue=? WHERE id=?`, fine, days, loan.ID); err != nil {
			return 0, err
		}
	}

	return overdue, tx.Commit()
}

// ---------------------------------------------------------------------------
// Reporting queries
// ---------------------------------------------------------------------------

// ListTransactions returns every transaction joined with member name and
// book title, ordered by transaction id.
func (d *Database) ListTransactions() ([]TransactionRecord, error) {
	var records []TransactionRecord
	err := d.db.Select(&records, `
        SELECT t.id, m.name AS member_name, b.title AS book_title,
               t.issue_date, t.due_date, t.return_date, t.status, t.fine, t.days_overdue
        FROM transactions t
        JOIN members m ON m.id = t.member_id
        JOIN books b ON b.id = t.book_id
        ORDER BY t.id ASC`)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListOverdue returns open loans strictly past due as of today, oldest
// due date first. The caller fills in the computed fine columns.
func (d *Database) ListOverdue(today time.Time) ([]OverdueEntry, error) {
	var entries []OverdueEntry
	err := d.db.Select(&entries, `
        SELECT t.id, b.title AS book_title, m.name AS member_name, t.issue_date, t.due_date
        FROM transactions t
        JOIN books b ON b.id = t.book_id
        JOIN members m ON m.id = t.member_id
        WHERE t.status = ? AND t.due_date < ?
        ORDER BY t.due_date ASC`, StatusIssued, today.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListFines returns the condensed fines view rows for the same filter
// as ListOverdue.
func (d *Database) ListFines(today time.Time) ([]FineEntry, error) {
	var entries []FineEntry
	err := d.db.Select(&entries, `
        SELECT t.id, m.name AS member_name, b.title AS book_title, t.due_date
        FROM transactions t
        JOIN books b ON b.id = t.book_id
        JOIN members m ON m.id = t.member_id
        WHERE t.status = ? AND t.due_date < ?`, StatusIssued, today.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// GetTransaction fetches a single transaction row.
func (d *Database) GetTransaction(id int64) (*Transaction, error) {
	var t Transaction
	err := d.db.Get(&t, `SELECT id,member_id,book_id,issue_date,due_date,return_date,status,fine,days_overdue
        FROM transactions WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
