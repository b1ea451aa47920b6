package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoanDurationDays(t *testing.T) {
	assert.Equal(t, 14, LoanDurationDays(RoleStudent))
	assert.Equal(t, 30, LoanDurationDays(RoleFaculty))
}

func TestBorrowLimit(t *testing.T) {
	assert.Equal(t, 5, BorrowLimit(RoleStudent))
	assert.Equal(t, 10, BorrowLimit(RoleFaculty))
}

func TestDueDateFor(t *testing.T) {
	borrowed := date(2026, time.March, 1)

	assert.Equal(t, date(2026, time.March, 15), DueDateFor(RoleStudent, borrowed))
	assert.Equal(t, date(2026, time.March, 31), DueDateFor(RoleFaculty, borrowed))
}

func TestFineForOverdue(t *testing.T) {
	due := date(2026, time.March, 15)

	assert.Equal(t, 0.0, FineForOverdue(due, due), "no fine on the due date itself")
	assert.Equal(t, 0.0, FineForOverdue(due, due.AddDate(0, 0, -1)))
	assert.Equal(t, 0.50, FineForOverdue(due, due.AddDate(0, 0, 1)))
	assert.Equal(t, 1.50, FineForOverdue(due, due.AddDate(0, 0, 3)))
}

func TestFineForOverdueIgnoresTimeOfDay(t *testing.T) {
	// Same calendar date late in the evening is still "on time".
	due := date(2026, time.March, 15)
	eveningOfDueDate := time.Date(2026, time.March, 15, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, 0.0, FineForOverdue(due, eveningOfDueDate))

	// Early morning one day late counts as a full overdue day.
	morningAfter := time.Date(2026, time.March, 16, 0, 15, 0, 0, time.UTC)
	assert.Equal(t, 0.50, FineForOverdue(due, morningAfter))
}

func TestIsOverdue(t *testing.T) {
	due := date(2026, time.March, 15)

	assert.False(t, IsOverdue(due, due))
	assert.False(t, IsOverdue(due, due.AddDate(0, 0, -1)))
	assert.True(t, IsOverdue(due, due.AddDate(0, 0, 1)))
}

func TestDaysOverdue(t *testing.T) {
	due := date(2026, time.March, 15)

	assert.Equal(t, 0, DaysOverdue(due, due))
	assert.Equal(t, 0, DaysOverdue(due, due.AddDate(0, 0, -3)))
	assert.Equal(t, 2, DaysOverdue(due, due.AddDate(0, 0, 2)))
}
