package library

import (
	"fmt"
	"strings"
)

// Catalog owns book records and their availability counters.
type Catalog struct {
	db *Database
}

func NewCatalog(db *Database) *Catalog { return &Catalog{db: db} }

// Add validates and creates a book with available = total = quantity.
func (c *Catalog) Add(title, author string, quantity int) (int64, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" {
		return 0, fmt.Errorf("%w: book title cannot be empty", ErrValidation)
	}
	if author == "" {
		return 0, fmt.Errorf("%w: author name cannot be empty", ErrValidation)
	}
	if quantity <= 0 {
		return 0, fmt.Errorf("%w: quantity must be greater than 0", ErrValidation)
	}
	return c.db.AddBook(title, author, quantity)
}

func (c *Catalog) Exists(bookID int64) (bool, error) {
	return c.db.BookExists(bookID)
}

// IsAvailable reports whether a copy is left to lend. A missing book
// yields false, not an error.
func (c *Catalog) IsAvailable(bookID int64) (bool, error) {
	return c.db.BookAvailable(bookID)
}

// AdjustAvailability applies available += delta without validating the
// resulting bound; the lending flows are the only callers and preserve
// 0 <= available <= total themselves.
func (c *Catalog) AdjustAvailability(bookID int64, delta int) error {
	return c.db.AdjustAvailability(bookID, delta)
}

func (c *Catalog) Get(bookID int64) (*Book, error) {
	return c.db.GetBook(bookID)
}

func (c *Catalog) List() ([]Book, error) {
	return c.db.GetAllBooks()
}
