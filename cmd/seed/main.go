// Command seed rebuilds the database with demo data for local testing.
package main

import (
	"fmt"
	"os"

	"librarydesk/library"
)

const dbFile = "library.db"

type seedBook struct {
	title    string
	author   string
	quantity int
}

type seedMember struct {
	name  string
	email string
	phone string
}

func main() {
	// Start from a clean slate, including SQLite WAL side files.
	for _, file := range []string{dbFile, dbFile + "-shm", dbFile + "-wal"} {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: could not remove %s: %v\n", file, err)
		}
	}

	lib, err := library.NewLibrary(dbFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating database: %v\n", err)
		os.Exit(1)
	}
	defer lib.Close()

	books := []seedBook{
		{"1984", "George Orwell", 3},
		{"Animal Farm", "George Orwell", 2},
		{"The Fellowship of the Ring", "J.R.R. Tolkien", 2},
		{"The Two Towers", "J.R.R. Tolkien", 2},
		{"The Return of the King", "J.R.R. Tolkien", 2},
		{"Romeo and Juliet", "William Shakespeare", 1},
		{"The Art of War", "Sun Tzu", 1},
		{"The Three Musketeers", "Alexandre Dumas", 2},
	}
	bookIDs := make([]int64, 0, len(books))
	for _, b := range books {
		id, err := lib.Catalog.Add(b.title, b.author, b.quantity)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error adding book %q: %v\n", b.title, err)
			os.Exit(1)
		}
		bookIDs = append(bookIDs, id)
	}

	members := []seedMember{
		{"Alice Johnson", "alice@example.com", "5550001111"},
		{"Bob Martinez", "bob@example.com", "5550002222"},
		{"Carol White", "carol@example.com", "5550003333"},
	}
	memberIDs := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := lib.Membership.Add(m.name, m.email, m.phone)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error adding member %q: %v\n", m.name, err)
			os.Exit(1)
		}
		memberIDs = append(memberIDs, id)
	}

	// A few open loans so the reports have something to show.
	loans := [][2]int{{0, 0}, {1, 2}, {2, 5}}
	for _, loan := range loans {
		id, due, err := lib.Lending.Issue(memberIDs[loan[0]], bookIDs[loan[1]])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error issuing loan: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Issued transaction #%d (member %d, book %d), due %s\n",
			id, memberIDs[loan[0]], bookIDs[loan[1]], due.Format("2006-01-02"))
	}

	fmt.Printf("\nSeeded %d books, %d members, %d open loans into %s\n",
		len(books), len(members), len(loans), dbFile)
}
