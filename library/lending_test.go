package library

import (
	"errors"
	"path/filepath"
	"testing"
)

func newLibrary(t *testing.T) (*Library, *fakeClock) {
	t.Helper()
	clock := &fakeClock{today: date(2024, 3, 1)}
	lib, err := NewLibrary(filepath.Join(t.TempDir(), "lib.db"), WithClock(clock))
	if err != nil {
		t.Fatalf("new library: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib, clock
}

// seedLoan adds one member and one book and returns their ids.
func seedLoan(t *testing.T, lib *Library, quantity int) (memberID, bookID int64) {
	t.Helper()
	memberID, err := lib.Membership.Add("Alice", "alice@example.com", "1234567890")
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	bookID, err = lib.Catalog.Add("Dune", "Frank Herbert", quantity)
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	return memberID, bookID
}

func TestIssueSetsDatesAndDecrements(t *testing.T) {
	lib, clock := newLibrary(t)
	memberID, bookID := seedLoan(t, lib, 2)

	id, due, err := lib.Lending.Issue(memberID, bookID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if want := clock.today.AddDate(0, 0, LoanPeriodDays); !due.Equal(want) {
		t.Fatalf("due date = %v, want %v", due, want)
	}

	tx, err := lib.Lending.Get(id)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if tx.Status != StatusIssued || tx.Fine != 0 || tx.DaysOverdue != 0 {
		t.Fatalf("unexpected new transaction: %+v", tx)
	}
	if !tx.IssueDate.Equal(clock.today) || !tx.DueDate.Equal(due) {
		t.Fatalf("dates not persisted: %+v", tx)
	}
	if tx.ReturnDate != nil {
		t.Fatalf("new transaction has return date")
	}

	b, _ := lib.Catalog.Get(bookID)
	if b.Available != 1 {
		t.Fatalf("available = %d, want 1", b.Available)
	}
}

func TestIssueFailures(t *testing.T) {
	lib, _ := newLibrary(t)
	memberID, bookID := seedLoan(t, lib, 1)

	if _, _, err := lib.Lending.Issue(memberID+99, bookID); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("want ErrMemberNotFound, got %v", err)
	}
	if _, _, err := lib.Lending.Issue(memberID, bookID+99); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("want ErrBookNotFound, got %v", err)
	}

	if _, _, err := lib.Lending.Issue(memberID, bookID); err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Same member, same book, loan still open.
	if _, _, err := lib.Lending.Issue(memberID, bookID); !errors.Is(err, ErrDuplicateLoan) {
		t.Fatalf("want ErrDuplicateLoan, got %v", err)
	}

	// Last copy is out, so another member is turned away.
	bobID, err := lib.Membership.Add("Bob", "bob@example.com", "0987654321")
	if err != nil {
		t.Fatalf("add bob: %v", err)
	}
	if _, _, err := lib.Lending.Issue(bobID, bookID); !errors.Is(err, ErrBookUnavailable) {
		t.Fatalf("want ErrBookUnavailable, got %v", err)
	}
}

func TestIssueReturnRoundTrip(t *testing.T) {
	lib, _ := newLibrary(t)
	memberID, bookID := seedLoan(t, lib, 3)

	before, _ := lib.Catalog.Get(bookID)

	id, _, err := lib.Lending.Issue(memberID, bookID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := lib.Lending.Return(id); err != nil {
		t.Fatalf("return: %v", err)
	}

	after, _ := lib.Catalog.Get(bookID)
	if after.Available != before.Available {
		t.Fatalf("available = %d, want %d", after.Available, before.Available)
	}
}

func TestReturnLateComputesFine(t *testing.T) {
	lib, clock := newLibrary(t)
	memberID, bookID := seedLoan(t, lib, 1)

	id, _, err := lib.Lending.Issue(memberID, bookID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// 14-day loan returned on day 20: 6 days overdue, 6 * 5 = 30.
	clock.advance(20)
	fine, days, err := lib.Lending.Return(id)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if days != 6 || fine != 30 {
		t.Fatalf("got %d days / %d fine, want 6 / 30", days, fine)
	}

	tx, _ := lib.Lending.Get(id)
	if tx.Status != StatusReturned {
		t.Fatalf("status = %q, want %q", tx.Status, StatusReturned)
	}
	if tx.ReturnDate == nil || !tx.ReturnDate.Equal(clock.today) {
		t.Fatalf("return date not persisted: %+v", tx)
	}
	if tx.Fine != 30 || tx.DaysOverdue != 6 {
		t.Fatalf("frozen fine = %d/%d, want 30/6", tx.Fine, tx.DaysOverdue)
	}

	// The frozen values must survive later sweeps.
	clock.advance(30)
	if _, err := lib.Lending.RecomputeFines(); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	tx, _ = lib.Lending.Get(id)
	if tx.Fine != 30 || tx.DaysOverdue != 6 {
		t.Fatalf("returned transaction was reswept: %+v", tx)
	}
}

func TestReturnOnTimeNoFine(t *testing.T) {
	lib, clock := newLibrary(t)
	memberID, bookID := seedLoan(t, lib, 1)

	id, _, err := lib.Lending.Issue(memberID, bookID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Returned exactly on the due date.
	clock.advance(LoanPeriodDays)
	fine, days, err := lib.Lending.Return(id)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if fine != 0 || days != 0 {
		t.Fatalf("on-time return fined: %d fine / %d days", fine, days)
	}
}

func TestReturnFailures(t *testing.T) {
	lib, _ := newLibrary(t)
	memberID, bookID := seedLoan(t, lib, 1)

	if _, _, err := lib.Lending.Return(42); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("want ErrTransactionNotFound, got %v", err)
	}

	id, _, _ := lib.Lending.Issue(memberID, bookID)
	if _, _, err := lib.Lending.Return(id); err != nil {
		t.Fatalf("return: %v", err)
	}
	// RETURNED is terminal.
	if _, _, err := lib.Lending.Return(id); !errors.Is(err, ErrAlreadyReturned) {
		t.Fatalf("want ErrAlreadyReturned, got %v", err)
	}
}

func TestRecomputeFinesIdempotent(t *testing.T) {
	lib, clock := newLibrary(t)
	memberID, bookID := seedLoan(t, lib, 1)

	id, _, err := lib.Lending.Issue(memberID, bookID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.advance(16) // 2 days overdue
	overdue, err := lib.Lending.RecomputeFines()
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if overdue != 1 {
		t.Fatalf("overdue count = %d, want 1", overdue)
	}
	tx, _ := lib.Lending.Get(id)
	if tx.Fine != 10 || tx.DaysOverdue != 2 {
		t.Fatalf("fine = %d/%d, want 10/2", tx.Fine, tx.DaysOverdue)
	}

	// Same day, same result.
	if _, err := lib.Lending.RecomputeFines(); err != nil {
		t.Fatalf("recompute again: %v", err)
	}
	tx2, _ := lib.Lending.Get(id)
	if tx2.Fine != tx.Fine || tx2.DaysOverdue != tx.DaysOverdue {
		t.Fatalf("sweep not idempotent: %+v vs %+v", tx, tx2)
	}
}

func TestOverdueReportOrderingAndFilter(t *testing.T) {
	lib, clock := newLibrary(t)
	memberID, bookA := seedLoan(t, lib, 1)
	bookB, err := lib.Catalog.Add("Hyperion", "Dan Simmons", 1)
	if err != nil {
		t.Fatalf("add book: %v", err)
	}

	idA, _, err := lib.Lending.Issue(memberID, bookA) // due day 14
	if err != nil {
		t.Fatalf("issue a: %v", err)
	}
	clock.advance(5)
	idB, _, err := lib.Lending.Issue(memberID, bookB) // due day 19
	if err != nil {
		t.Fatalf("issue b: %v", err)
	}

	// Day 16: only the first loan is overdue.
	clock.advance(11)
	report, err := lib.Lending.OverdueReport()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report) != 1 || report[0].TransactionID != idA {
		t.Fatalf("want only loan %d overdue, got %+v", idA, report)
	}
	if report[0].DaysOverdue != 2 || report[0].Fine != 10 {
		t.Fatalf("loan a: %d days / %d fine, want 2 / 10", report[0].DaysOverdue, report[0].Fine)
	}

	// Day 21: both overdue, oldest due date first.
	clock.advance(5)
	report, err = lib.Lending.OverdueReport()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("want 2 entries, got %d", len(report))
	}
	if report[0].TransactionID != idA || report[1].TransactionID != idB {
		t.Fatalf("wrong order: %+v", report)
	}
	if report[0].Fine != 35 || report[1].Fine != 10 {
		t.Fatalf("fines = %d/%d, want 35/10", report[0].Fine, report[1].Fine)
	}
	if report[0].BookTitle != "Dune" || report[0].MemberName != "Alice" {
		t.Fatalf("join columns wrong: %+v", report[0])
	}
}

func TestFineSummary(t *testing.T) {
	lib, clock := newLibrary(t)
	memberID, bookID := seedLoan(t, lib, 1)

	id, _, err := lib.Lending.Issue(memberID, bookID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.advance(17) // 3 days overdue
	summary, err := lib.Lending.FineSummary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 1 {
		t.Fatalf("want 1 entry, got %d", len(summary))
	}
	e := summary[0]
	if e.TransactionID != id || e.MemberName != "Alice" || e.BookTitle != "Dune" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.DaysOverdue != 3 || e.Fine != 15 {
		t.Fatalf("got %d days / %d fine, want 3 / 15", e.DaysOverdue, e.Fine)
	}

	// Nothing due yet means an empty summary, not an error.
	lib2, _ := newLibrary(t)
	m2, b2 := seedLoan(t, lib2, 1)
	if _, _, err := lib2.Lending.Issue(m2, b2); err != nil {
		t.Fatalf("issue: %v", err)
	}
	empty, err := lib2.Lending.FineSummary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("want empty summary, got %+v", empty)
	}
}

func TestTransactionsListingRunsSweep(t *testing.T) {
	lib, clock := newLibrary(t)
	memberID, bookID := seedLoan(t, lib, 2)

	id, _, err := lib.Lending.Issue(memberID, bookID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.advance(18) // 4 days overdue
	records, err := lib.Lending.Transactions()
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("want 1 record, got %d", len(records))
	}
	r := records[0]
	if r.ID != id || r.MemberName != "Alice" || r.BookTitle != "Dune" {
		t.Fatalf("unexpected record: %+v", r)
	}
	// The listing sweeps first, so the persisted fine is current.
	if r.Status != StatusIssued || r.Fine != 20 || r.DaysOverdue != 4 {
		t.Fatalf("sweep did not run: %+v", r)
	}
}
