package library

import (
	"math"
	"time"
)

// Loan policy constants. Faculty get longer loans and a higher limit.
const (
	studentLoanDays    = 14
	facultyLoanDays    = 30
	studentBorrowLimit = 5
	facultyBorrowLimit = 10

	finePerOverdueDay = 0.50
)

// LoanDurationDays returns how many days a loan runs for the given role.
func LoanDurationDays(role Role) int {
	if role == RoleFaculty {
		return facultyLoanDays
	}
	return studentLoanDays
}

// BorrowLimit returns the maximum number of simultaneous active loans for the
// given role.
func BorrowLimit(role Role) int {
	if role == RoleFaculty {
		return facultyBorrowLimit
	}
	return studentBorrowLimit
}

// DueDateFor computes the due date for a loan starting on borrowed.
func DueDateFor(role Role, borrowed time.Time) time.Time {
	return atMidnight(borrowed).AddDate(0, 0, LoanDurationDays(role))
}

// IsOverdue reports whether a loan with the given due date has lapsed as of
// asOf. Comparison is at day granularity; a loan is not overdue on its due date.
func IsOverdue(due, asOf time.Time) bool {
	return atMidnight(asOf).After(atMidnight(due))
}

// DaysOverdue returns how many whole days past due the loan is, or 0 when it
// is not overdue.
func DaysOverdue(due, asOf time.Time) int {
	diff := atMidnight(asOf).Sub(atMidnight(due))
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// FineForOverdue computes the fine owed for returning a loan on asOf. Returns
// 0 when the loan is not overdue.
func FineForOverdue(due, asOf time.Time) float64 {
	return float64(DaysOverdue(due, asOf)) * finePerOverdueDay
}

// atMidnight normalizes t to midnight UTC on its calendar date, so that date
// arithmetic never drifts by partial days or DST offsets.
func atMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
