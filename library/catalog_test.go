package library

import (
	"errors"
	"testing"
)

func TestCatalogAdd(t *testing.T) {
	c := NewCatalog(tempDB(t))

	id, err := c.Add("  The Hobbit  ", " J.R.R. Tolkien ", 4)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	b, err := c.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.Title != "The Hobbit" || b.Author != "J.R.R. Tolkien" {
		t.Fatalf("inputs not trimmed: %q by %q", b.Title, b.Author)
	}
	if b.Available != 4 || b.Total != 4 {
		t.Fatalf("want available=total=4, got %d/%d", b.Available, b.Total)
	}
}

func TestCatalogAddValidation(t *testing.T) {
	c := NewCatalog(tempDB(t))

	cases := []struct {
		name     string
		title    string
		author   string
		quantity int
	}{
		{"empty title", "  ", "Author", 1},
		{"empty author", "Title", "", 1},
		{"zero quantity", "Title", "Author", 0},
		{"negative quantity", "Title", "Author", -3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Add(tc.title, tc.author, tc.quantity); !errors.Is(err, ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
		})
	}

	// Rejected adds must not mutate the store.
	books, err := c.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 0 {
		t.Fatalf("want empty catalog, got %d books", len(books))
	}
}

func TestCatalogExistsAndAvailability(t *testing.T) {
	c := NewCatalog(tempDB(t))
	id, _ := c.Add("Book", "Author", 1)

	if ok, _ := c.Exists(id); !ok {
		t.Fatalf("book should exist")
	}
	if ok, _ := c.Exists(id + 1); ok {
		t.Fatalf("unknown id should not exist")
	}

	if ok, _ := c.IsAvailable(id); !ok {
		t.Fatalf("book should be available")
	}
	// Absent book: false, not an error.
	ok, err := c.IsAvailable(9999)
	if err != nil {
		t.Fatalf("availability of missing book: %v", err)
	}
	if ok {
		t.Fatalf("missing book reported available")
	}

	if err := c.AdjustAvailability(id, -1); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if ok, _ := c.IsAvailable(id); ok {
		t.Fatalf("book should be out of copies")
	}
}
