package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Aniketkasana25/library-management/library"
)

var (
	// Global flags
	dbPath   string
	asOfFlag string

	manager *library.LibraryManager
	asOf    time.Time
)

var (
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	dueSoonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	fineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

var rootCmd = &cobra.Command{
	Use:   "library",
	Short: "Library circulation management",
	Long: `Manage a library's circulating inventory and patrons: cataloging,
borrowing, returns, overdue detection, and fine settlement.

The --as-of flag overrides the reference date for borrow, return, and
notification commands, which makes overdue behavior reproducible.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		asOf = time.Now()
		if asOfFlag != "" {
			if asOf, err = time.Parse(time.DateOnly, asOfFlag); err != nil {
				return fmt.Errorf("invalid --as-of date %q (want YYYY-MM-DD)", asOfFlag)
			}
		}
		db, err := library.NewDatabase(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		manager = library.NewLibraryManager(db, nil)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if manager != nil {
			manager.Close()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "library.db", "Path to the SQLite database")
	rootCmd.PersistentFlags().StringVar(&asOfFlag, "as-of", "", "Reference date (YYYY-MM-DD), defaults to today")

	rootCmd.AddCommand(
		addBookCmd(),
		updateBookCmd(),
		deleteBookCmd(),
		listBooksCmd(),
		searchCmd(),
		addUserCmd(),
		updateUserCmd(),
		deleteUserCmd(),
		listUsersCmd(),
		historyCmd(),
		borrowCmd(),
		returnCmd(),
		payFinesCmd(),
		notificationsCmd(),
	)
}

// ------------------ Book commands ------------------

func addBookCmd() *cobra.Command {
	var genre, cover string
	cmd := &cobra.Command{
		Use:   "add-book <title> <author>",
		Short: "Catalog a new book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := manager.AddBook(args[0], args[1], library.Genre(genre), cover)
			if err != nil {
				return err
			}
			fmt.Printf("Added book %q (ID %s)\n", book.Title, book.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&genre, "genre", string(library.GenreFiction), genreUsage())
	cmd.Flags().StringVar(&cover, "cover", "", "Cover image reference (URL), optional")
	return cmd
}

func updateBookCmd() *cobra.Command {
	var genre, cover string
	cmd := &cobra.Command{
		Use:   "update-book <book-id> <title> <author>",
		Short: "Edit a book's catalog fields",
		Long:  "Edits title, author, genre, and cover only; loan state is never touched.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := manager.UpdateBook(args[0], args[1], args[2], library.Genre(genre), cover)
			if err != nil {
				return err
			}
			fmt.Printf("Updated book %q\n", book.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&genre, "genre", string(library.GenreFiction), genreUsage())
	cmd.Flags().StringVar(&cover, "cover", "", "Cover image reference (URL), optional")
	return cmd
}

func deleteBookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-book <book-id>",
		Short: "Remove a book from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := manager.DeleteBook(args[0]); err != nil {
				return err
			}
			fmt.Println("Book deleted. Borrowing histories keep their title snapshots.")
			return nil
		},
	}
}

func listBooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-books",
		Short: "List the catalog with availability and due dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := manager.GetAllBooks()
			if err != nil {
				return err
			}
			printBooks(books)
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search books by title or author",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := manager.SearchBooks(args[0])
			if err != nil {
				return err
			}
			if len(books) == 0 {
				fmt.Printf("No books found matching %q.\n", args[0])
				return nil
			}
			printBooks(books)
			return nil
		},
	}
}

// ------------------ User commands ------------------

func addUserCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "add-user <name>",
		Short: "Register a new patron",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := manager.AddUser(args[0], library.Role(role))
			if err != nil {
				return err
			}
			fmt.Printf("Added %s %q (ID %s)\n", user.Role, user.Name, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(library.RoleStudent), "Patron role: student or faculty")
	return cmd
}

func updateUserCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "update-user <user-id> <name>",
		Short: "Edit a patron's name and role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := manager.UpdateUser(args[0], args[1], library.Role(role))
			if err != nil {
				return err
			}
			fmt.Printf("Updated user %q\n", user.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(library.RoleStudent), "Patron role: student or faculty")
	return cmd
}

func deleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <user-id>",
		Short: "Remove a patron",
		Long:  "Fails while the patron still has books out; return them first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := manager.DeleteUser(args[0]); err != nil {
				return err
			}
			fmt.Println("User deleted.")
			return nil
		},
	}
}

func listUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "List patrons with active loans and outstanding fines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := manager.GetAllUsers()
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Println("No users registered.")
				return nil
			}

			books, err := manager.GetAllBooks()
			if err != nil {
				return err
			}
			activeLoans := make(map[string]int)
			for _, b := range books {
				if b.BorrowedBy != nil {
					activeLoans[*b.BorrowedBy]++
				}
			}

			fmt.Printf("%-38s %-25s %-10s %-8s %s\n", "ID", "Name", "Role", "Loans", "Fines")
			fmt.Println(strings.Repeat("-", 95))
			for _, u := range users {
				fines := fmt.Sprintf("$%.2f", u.Fines)
				if u.Fines > 0 {
					fines = fineStyle.Render(fines)
				}
				fmt.Printf("%-38s %-25s %-10s %-8d %s\n",
					u.ID, truncateString(u.Name, 25), u.Role,
					activeLoans[u.ID], fines)
			}
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <user-id>",
		Short: "Show a patron's borrowing history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := manager.History(args[0])
			if err != nil {
				return err
			}
			if len(history) == 0 {
				fmt.Println("No borrowing history.")
				return nil
			}

			fmt.Printf("%-40s %-12s %-12s\n", "Title", "Borrowed", "Returned")
			fmt.Println(strings.Repeat("-", 68))
			for _, rec := range history {
				returned := "(open)"
				if rec.ReturnedDate != nil {
					returned = rec.ReturnedDate.Format(time.DateOnly)
				}
				fmt.Printf("%-40s %-12s %-12s\n",
					truncateString(rec.BookTitle, 40),
					rec.BorrowedDate.Format(time.DateOnly),
					returned)
			}
			return nil
		},
	}
}

// ------------------ Circulation commands ------------------

func borrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <book-id> <user-id>",
		Short: "Lend a book to a patron",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := manager.BorrowBook(args[0], args[1], asOf)
			if err != nil {
				var limitErr *library.LimitExceededError
				if errors.As(err, &limitErr) {
					return fmt.Errorf("borrowing limit reached: a %s may have at most %d books out (currently %d)",
						limitErr.Role, limitErr.Limit, limitErr.Count)
				}
				return err
			}
			fmt.Printf("Borrowed %q, due %s\n", book.Title, book.DueDate.Format(time.DateOnly))
			return nil
		},
	}
}

func returnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return <book-id>",
		Short: "Take a book back, applying any overdue fine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			receipt, err := manager.ReturnBook(args[0], asOf)
			if err != nil {
				return err
			}
			fmt.Printf("Returned %q from %s\n", receipt.BookTitle, receipt.UserName)
			if receipt.Fine > 0 {
				fmt.Printf("%s %d day(s) overdue, fine of $%.2f added\n",
					overdueStyle.Render("Overdue:"), receipt.DaysOverdue, receipt.Fine)
			} else {
				fmt.Println(okStyle.Render("Returned on time, no fine."))
			}
			return nil
		},
	}
}

func payFinesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay-fines <user-id>",
		Short: "Settle a patron's outstanding fines in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paid, err := manager.PayFines(args[0])
			if err != nil {
				return err
			}
			if paid == 0 {
				fmt.Println("No outstanding fines.")
				return nil
			}
			fmt.Printf("Settled $%.2f in fines.\n", paid)
			return nil
		},
	}
}

func notificationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "List currently overdue loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			notifications, err := manager.Notifications(asOf)
			if err != nil {
				return err
			}
			if len(notifications) == 0 {
				fmt.Println(okStyle.Render("No overdue loans."))
				return nil
			}
			for _, n := range notifications {
				fmt.Printf("%s %q borrowed by %s is %d day(s) overdue\n",
					overdueStyle.Render("!"), n.BookTitle, n.UserName, n.DaysOverdue)
			}
			return nil
		},
	}
}

// ------------------ Output helpers ------------------

func printBooks(books []*library.Book) {
	if len(books) == 0 {
		fmt.Println("No books in library.")
		return
	}

	fmt.Printf("%-38s %-32s %-22s %-18s %s\n", "ID", "Title", "Author", "Genre", "Status")
	fmt.Println(strings.Repeat("-", 130))
	for _, b := range books {
		fmt.Printf("%-38s %-32s %-22s %-18s %s\n",
			b.ID,
			truncateString(b.Title, 32),
			truncateString(b.Author, 22),
			b.Genre,
			bookStatus(b))
	}
}

// bookStatus renders availability and due-date urgency for one book.
func bookStatus(b *library.Book) string {
	if b.Available() {
		return okStyle.Render("Available")
	}
	days := daysUntil(*b.DueDate)
	switch {
	case days < 0:
		return overdueStyle.Render(fmt.Sprintf("%d day(s) overdue", -days))
	case days == 0:
		return dueSoonStyle.Render("Due today")
	case days <= 5:
		return dueSoonStyle.Render(fmt.Sprintf("Due in %d day(s)", days))
	default:
		return fmt.Sprintf("Due %s", b.DueDate.Format(time.DateOnly))
	}
}

// daysUntil returns the due date minus the reference date in whole days;
// negative values mean the loan is overdue.
func daysUntil(due time.Time) int {
	y1, m1, d1 := asOf.Date()
	y2, m2, d2 := due.Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func genreUsage() string {
	names := make([]string, len(library.Genres))
	for i, g := range library.Genres {
		names[i] = string(g)
	}
	return "Genre: one of " + strings.Join(names, ", ")
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}
