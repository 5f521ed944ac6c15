package library

import "time"

// Transaction status values as persisted in the transactions table.
const (
	StatusIssued   = "ISSUED"
	StatusReturned = "RETURNED"
)

// Lending constants. Both are fixed; there is no configuration surface
// for them.
const (
	FinePerDay     = 5
	LoanPeriodDays = 14
)

// Book represents a title in the catalog together with its copy counts.
// Invariant: 0 <= Available <= Total.
type Book struct {
	ID        int64  `db:"id" json:"id"`
	Title     string `db:"title" json:"title"`
	Author    string `db:"author" json:"author"`
	Available int    `db:"available" json:"available"`
	Total     int    `db:"total" json:"total"`
}

// Member represents a registered library member.
type Member struct {
	ID      int64     `db:"id" json:"id"`
	Name    string    `db:"name" json:"name"`
	Email   string    `db:"email" json:"email"`
	Phone   string    `db:"phone" json:"phone"`
	RegDate time.Time `db:"reg_date" json:"reg_date"`
}

// Transaction is a single loan of one book copy to one member.
// While Status is ISSUED the fine fields hold the values of the last
// sweep; once RETURNED they are frozen at the values computed on return.
type Transaction struct {
	ID          int64      `db:"id" json:"id"`
	MemberID    int64      `db:"member_id" json:"member_id"`
	BookID      int64      `db:"book_id" json:"book_id"`
	IssueDate   time.Time  `db:"issue_date" json:"issue_date"`
	DueDate     time.Time  `db:"due_date" json:"due_date"`
	ReturnDate  *time.Time `db:"return_date" json:"return_date,omitempty"`
	Status      string     `db:"status" json:"status"`
	Fine        int64      `db:"fine" json:"fine"`
	DaysOverdue int        `db:"days_overdue" json:"days_overdue"`
}

// TransactionRecord is a transaction joined with the member and book it
// references, for listing.
type TransactionRecord struct {
	ID          int64      `db:"id" json:"id"`
	MemberName  string     `db:"member_name" json:"member_name"`
	BookTitle   string     `db:"book_title" json:"book_title"`
	IssueDate   time.Time  `db:"issue_date" json:"issue_date"`
	DueDate     time.Time  `db:"due_date" json:"due_date"`
	ReturnDate  *time.Time `db:"return_date" json:"return_date,omitempty"`
	Status      string     `db:"status" json:"status"`
	Fine        int64      `db:"fine" json:"fine"`
	DaysOverdue int        `db:"days_overdue" json:"days_overdue"`
}

// OverdueEntry is one row of the overdue report. DaysOverdue and Fine
// are computed from the current date, not read from the stored row.
type OverdueEntry struct {
	TransactionID int64     `db:"id" json:"transaction_id"`
	BookTitle     string    `db:"book_title" json:"book_title"`
	MemberName    string    `db:"member_name" json:"member_name"`
	IssueDate     time.Time `db:"issue_date" json:"issue_date"`
	DueDate       time.Time `db:"due_date" json:"due_date"`
	DaysOverdue   int       `db:"-" json:"days_overdue"`
	Fine          int64     `db:"-" json:"fine"`
}

// FineEntry is one row of the condensed fines view.
type FineEntry struct {
	TransactionID int64     `db:"id" json:"transaction_id"`
	MemberName    string    `db:"member_name" json:"member_name"`
	BookTitle     string    `db:"book_title" json:"book_title"`
	DueDate       time.Time `db:"due_date" json:"-"`
	DaysOverdue   int       `db:"-" json:"days_overdue"`
	Fine          int64     `db:"-" json:"fine"`
}
