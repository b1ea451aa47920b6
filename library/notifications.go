package library

import (
	"errors"
	"time"
)

// DeriveNotifications recomputes the overdue-loan alerts from current store
// state: one entry per book on loan whose due date has passed as of asOf.
// The result is a pure projection -- discarding it changes neither fines nor
// book state -- and it is rebuilt wholesale on every call, never patched.
func DeriveNotifications(store Store, asOf time.Time) ([]Notification, error) {
	books, err := store.GetAllBooks()
	if err != nil {
		return nil, err
	}

	notifications := make([]Notification, 0)
	for _, b := range books {
		if b.BorrowedBy == nil || !IsOverdue(*b.DueDate, asOf) {
			continue
		}
		userName := ""
		user, err := store.GetUser(*b.BorrowedBy)
		switch {
		case err == nil:
			userName = user.Name
		case errors.Is(err, ErrNotFound):
			// Keep the alert even if the borrower record is gone.
		default:
			return nil, err
		}
		notifications = append(notifications, Notification{
			BookID:      b.ID,
			BookTitle:   b.Title,
			UserName:    userName,
			DaysOverdue: DaysOverdue(*b.DueDate, asOf),
		})
	}
	return notifications, nil
}
