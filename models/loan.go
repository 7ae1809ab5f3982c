package models

import (
	"time"

	"github.com/google/uuid"
)

// LoanStatus represents the progress of a single borrowing episode.
type LoanStatus string

const (
	LoanStatusOut      LoanStatus = "OUT"
	LoanStatusReturned LoanStatus = "RETURNED"
)

// Loan is one borrowing of one book by one user.
// At most one loan per book may be OUT at any time.
type Loan struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	BookID       uuid.UUID  `db:"book_id" json:"book_id"`
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	CheckedOutAt time.Time  `db:"checked_out_at" json:"checked_out_at"`
	ReturnedAt   *time.Time `db:"returned_at" json:"returned_at"`
	Status       LoanStatus `db:"status" json:"status"`
}
