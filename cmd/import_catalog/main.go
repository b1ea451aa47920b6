// Command import_catalog bulk-loads a JSON catalog file into the library
// database. The file holds an array of {title, author, genre, cover_image}
// entries; each row is reported individually so a bad entry never aborts the
// whole import.
package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/Aniketkasana25/library-management/library"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type catalogEntry struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	Genre      string `json:"genre"`
	CoverImage string `json:"cover_image"`
}

func main() {
	dbPath := "library.db"
	catalogPath := "catalog.json"
	switch len(os.Args) {
	case 1:
	case 2:
		catalogPath = os.Args[1]
	case 3:
		catalogPath = os.Args[1]
		dbPath = os.Args[2]
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [catalog.json [library.db]]\n", os.Args[0])
		os.Exit(2)
	}

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading catalog: %v\n", err)
		os.Exit(1)
	}

	var entries []catalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing catalog: %v\n", err)
		os.Exit(1)
	}

	db, err := library.NewDatabase(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	manager := library.NewLibraryManager(db, nil)
	defer manager.Close()

	fmt.Printf("Importing %d entries from %s...\n", len(entries), catalogPath)

	successCount := 0
	errorCount := 0

	for _, entry := range entries {
		fmt.Printf("Importing: %s by %s... ", entry.Title, entry.Author)

		book, err := manager.AddBook(entry.Title, entry.Author, library.Genre(entry.Genre), entry.CoverImage)
		if err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}

		fmt.Printf("SUCCESS (ID: %s)\n", book.ID)
		successCount++
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)
}
