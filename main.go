package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"librarydesk/config"
	"librarydesk/httpapi"
	"librarydesk/library"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "librarydesk",
	Short: "Library circulation desk",
	Long: `librarydesk manages a small library: the book catalog, member
registrations and the loan lifecycle with overdue fines. State lives in
a local SQLite database; "serve" exposes the same operations over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "librarydesk.toml", "Path to the TOML config file")

	rootCmd.AddCommand(addBookCmd)
	rootCmd.AddCommand(listBooksCmd)
	rootCmd.AddCommand(addMemberCmd)
	rootCmd.AddCommand(listMembersCmd)
	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(returnCmd)
	rootCmd.AddCommand(transactionsCmd)
	rootCmd.AddCommand(overdueCmd)
	rootCmd.AddCommand(finesCmd)
	rootCmd.AddCommand(serveCmd)
}

// openLibrary loads the config and opens the library database.
func openLibrary() (*library.Library, config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, config.Config{}, err
	}
	lib, err := library.NewLibrary(cfg.Database.Path)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("open database: %w", err)
	}
	return lib, cfg, nil
}

// ─── Catalog ────────────────────────────────────────────────────────────────

var addBookCmd = &cobra.Command{
	Use:   "add-book TITLE AUTHOR QUANTITY",
	Short: "Add a book to the catalog",
	Args:  cobra.ExactArgs(3),
	RunE:  runAddBook,
}

func runAddBook(cmd *cobra.Command, args []string) error {
	quantity, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("quantity must be a number: %q", args[2])
	}

	lib, _, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	id, err := lib.Catalog.Add(args[0], args[1], quantity)
	if err != nil {
		return err
	}
	fmt.Printf("Added book #%d: %s by %s (%d copies)\n", id, args[0], args[1], quantity)
	return nil
}

var listBooksCmd = &cobra.Command{
	Use:   "list-books",
	Short: "List all books in the catalog",
	Args:  cobra.NoArgs,
	RunE:  runListBooks,
}

func runListBooks(cmd *cobra.Command, args []string) error {
	lib, _, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	books, err := lib.Catalog.List()
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Println("No books in the catalog.")
		return nil
	}

	fmt.Printf("%-5s %-35s %-25s %-10s %s\n", "ID", "Title", "Author", "Available", "Total")
	for _, b := range books {
		fmt.Printf("%-5d %-35s %-25s %-10d %d\n",
			b.ID,
			truncateString(b.Title, 35),
			truncateString(b.Author, 25),
			b.Available,
			b.Total,
		)
	}
	return nil
}

// ─── Membership ─────────────────────────────────────────────────────────────

var addMemberCmd = &cobra.Command{
	Use:   "add-member NAME EMAIL PHONE",
	Short: "Register a new member",
	Args:  cobra.ExactArgs(3),
	RunE:  runAddMember,
}

func runAddMember(cmd *cobra.Command, args []string) error {
	lib, _, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	id, err := lib.Membership.Add(args[0], args[1], args[2])
	if err != nil {
		return err
	}
	fmt.Printf("Registered member #%d: %s <%s>\n", id, args[0], args[1])
	return nil
}

var listMembersCmd = &cobra.Command{
	Use:   "list-members",
	Short: "List all registered members",
	Args:  cobra.NoArgs,
	RunE:  runListMembers,
}

func runListMembers(cmd *cobra.Command, args []string) error {
	lib, _, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	members, err := lib.Membership.List()
	if err != nil {
		return err
	}
	if len(members) == 0 {
		fmt.Println("No registered members.")
		return nil
	}

	fmt.Printf("%-5s %-25s %-30s %-12s %s\n", "ID", "Name", "Email", "Phone", "Registered")
	for _, m := range members {
		fmt.Printf("%-5d %-25s %-30s %-12s %s\n",
			m.ID,
			truncateString(m.Name, 25),
			truncateString(m.Email, 30),
			m.Phone,
			formatDate(m.RegDate),
		)
	}
	return nil
}

// ─── Lending ────────────────────────────────────────────────────────────────

var issueCmd = &cobra.Command{
	Use:   "issue MEMBER_ID BOOK_ID",
	Short: "Issue a book to a member",
	Args:  cobra.ExactArgs(2),
	RunE:  runIssue,
}

func runIssue(cmd *cobra.Command, args []string) error {
	memberID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("member id must be a number: %q", args[0])
	}
	bookID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("book id must be a number: %q", args[1])
	}

	lib, _, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	id, due, err := lib.Lending.Issue(memberID, bookID)
	if err != nil {
		return err
	}
	fmt.Printf("Issued transaction #%d, due on %s\n", id, formatDate(due))
	return nil
}

var returnCmd = &cobra.Command{
	Use:   "return TRANSACTION_ID",
	Short: "Return a book and settle its fine",
	Args:  cobra.ExactArgs(1),
	RunE:  runReturn,
}

func runReturn(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("transaction id must be a number: %q", args[0])
	}

	lib, _, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	fine, days, err := lib.Lending.Return(id)
	if err != nil {
		return err
	}
	if fine > 0 {
		fmt.Printf("Returned transaction #%d: %d day(s) overdue, fine ₹%d\n", id, days, fine)
	} else {
		fmt.Printf("Returned transaction #%d: on time, no fine\n", id)
	}
	return nil
}

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "List all loan transactions",
	Args:  cobra.NoArgs,
	RunE:  runTransactions,
}

func runTransactions(cmd *cobra.Command, args []string) error {
	lib, _, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	records, err := lib.Lending.Transactions()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No transactions recorded.")
		return nil
	}

	fmt.Printf("%-5s %-25s %-30s %-12s %-12s %-12s %-10s %s\n",
		"ID", "Member", "Book", "Issued", "Due", "Returned", "Status", "Fine")
	for _, r := range records {
		returned := "-"
		if r.ReturnDate != nil {
			returned = formatDate(*r.ReturnDate)
		}
		fmt.Printf("%-5d %-25s %-30s %-12s %-12s %-12s %-10s ₹%d\n",
			r.ID,
			truncateString(r.MemberName, 25),
			truncateString(r.BookTitle, 30),
			formatDate(r.IssueDate),
			formatDate(r.DueDate),
			returned,
			r.Status,
			r.Fine,
		)
	}
	return nil
}

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Show currently overdue loans",
	Args:  cobra.NoArgs,
	RunE:  runOverdue,
}

func runOverdue(cmd *cobra.Command, args []string) error {
	lib, _, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	entries, err := lib.Lending.OverdueReport()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No overdue loans.")
		return nil
	}

	fmt.Printf("%-5s %-30s %-25s %-12s %-12s %-10s %s\n",
		"ID", "Book", "Member", "Issued", "Due", "Days Late", "Fine")
	for _, e := range entries {
		fmt.Printf("%-5d %-30s %-25s %-12s %-12s %-10d ₹%d\n",
			e.TransactionID,
			truncateString(e.BookTitle, 30),
			truncateString(e.MemberName, 25),
			formatDate(e.IssueDate),
			formatDate(e.DueDate),
			e.DaysOverdue,
			e.Fine,
		)
	}
	return nil
}

var finesCmd = &cobra.Command{
	Use:   "fines",
	Short: "Show accrued fines on open loans",
	Args:  cobra.NoArgs,
	RunE:  runFines,
}

func runFines(cmd *cobra.Command, args []string) error {
	lib, _, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	entries, err := lib.Lending.FineSummary()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No fines outstanding.")
		return nil
	}

	var total int64
	fmt.Printf("%-5s %-25s %-30s %-10s %s\n", "ID", "Member", "Book", "Days Late", "Fine")
	for _, e := range entries {
		fmt.Printf("%-5d %-25s %-30s %-10d ₹%d\n",
			e.TransactionID,
			truncateString(e.MemberName, 25),
			truncateString(e.BookTitle, 30),
			e.DaysOverdue,
			e.Fine,
		)
		total += e.Fine
	}
	fmt.Printf("Total outstanding: ₹%d\n", total)
	return nil
}

// ─── Server ─────────────────────────────────────────────────────────────────

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	lib, cfg, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	srv := httpapi.NewServer(lib, log)
	if cfg.API.Metrics {
		srv.EnableMetrics()
	}

	log.Info("listening", "addr", cfg.API.Addr(), "db", cfg.Database.Path)
	return http.ListenAndServe(cfg.API.Addr(), srv.Handler())
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
