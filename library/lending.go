package library

import "time"

// Lending owns the loan lifecycle: ISSUED is the initial state,
// RETURNED the terminal one, and there is no transition out of
// RETURNED. Fines accrue at FinePerDay per whole day past the due date.
type Lending struct {
	db    *Database
	clock Clock
}

func NewLending(db *Database, clock Clock) *Lending {
	return &Lending{db: db, clock: clock}
}

// Issue lends a book to a member. The member and book must exist, a
// copy must be available, and the member must not already hold an open
// loan for this book. Returns the transaction id and the due date.
func (l *Lending) Issue(memberID, bookID int64) (int64, time.Time, error) {
	today := l.clock.Today()
	due := today.AddDate(0, 0, LoanPeriodDays)

	id, err := l.db.IssueBook(memberID, bookID, today, due)
	if err != nil {
		return 0, time.Time{}, err
	}
	return id, due, nil
}

// Return finalizes an open loan: the fine and days overdue are computed
// from today, frozen on the transaction, and the copy goes back into
// circulation. A missing transaction and an already-returned one fail
// with distinct errors.
func (l *Lending) Return(transactionID int64) (fine int64, daysOverdue int, err error) {
	return l.db.ReturnBook(transactionID, l.clock.Today())
}

// RecomputeFines refreshes the persisted fines of all open loans from
// today's date. Running it twice on the same day changes nothing.
// Returns the number of overdue loans.
func (l *Lending) RecomputeFines() (int, error) {
	return l.db.RecomputeFines(l.clock.Today())
}

// OverdueReport lists open loans strictly past due, oldest due date
// first. Fines are computed live from today rather than read from the
// stored rows.
func (l *Lending) OverdueReport() ([]OverdueEntry, error) {
	today := l.clock.Today()
	entries, err := l.db.ListOverdue(today)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].DaysOverdue, entries[i].Fine = fineFor(entries[i].DueDate, today)
	}
	return entries, nil
}

// FineSummary is the condensed fines view over the same filter as
// OverdueReport.
func (l *Lending) FineSummary() ([]FineEntry, error) {
	today := l.clock.Today()
	entries, err := l.db.ListFines(today)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].DaysOverdue, entries[i].Fine = fineFor(entries[i].DueDate, today)
	}
	return entries, nil
}

// Transactions runs the fine sweep and then lists every transaction
// with its member and book names, ordered by id.
func (l *Lending) Transactions() ([]TransactionRecord, error) {
	if _, err := l.RecomputeFines(); err != nil {
		return nil, err
	}
	return l.db.ListTransactions()
}

// Get fetches a single transaction row.
func (l *Lending) Get(transactionID int64) (*Transaction, error) {
	return l.db.GetTransaction(transactionID)
}
