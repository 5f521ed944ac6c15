package library

import (
	"path/filepath"
	"testing"
)

func TestNewLibrary(t *testing.T) {
	dir := t.TempDir()
	lib, err := NewLibrary(filepath.Join(dir, "lib.db"))
	if err != nil {
		t.Fatalf("new library: %v", err)
	}
	t.Cleanup(func() { lib.Close() })

	if lib.Catalog == nil || lib.Membership == nil || lib.Lending == nil {
		t.Fatalf("services not wired")
	}
}

func TestLibraryPersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.db")

	lib, err := NewLibrary(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := lib.Catalog.Add("Dune", "Frank Herbert", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	lib.Close()

	lib2, err := NewLibrary(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer lib2.Close()

	books, err := lib2.Catalog.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 1 || books[0].Title != "Dune" {
		t.Fatalf("catalog not persisted: %+v", books)
	}
}
