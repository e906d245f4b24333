// internal/circulation/domain.go
package circulation

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"campuslend/internal/catalog"
)

var (
	ErrNotFound        = errors.New("loan not found")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Status describes where a loan sits in its lifecycle. It is derived
// from the quantity fields, never stored.
type Status string

const (
	StatusBorrowed          Status = "borrowed"
	StatusPartiallyReturned Status = "partially_returned"
	StatusReturned          Status = "returned"
)

// Loan records quantity borrowed against an item. Remaining counts
// down on partial returns; the loan closes when it reaches zero and a
// closed loan never reopens.
type Loan struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	PatronID   uuid.UUID    `gorm:"type:uuid;index" json:"patron_id"`
	ItemID     uuid.UUID    `gorm:"type:uuid;index" json:"item_id"`
	ItemKind   catalog.Kind `gorm:"size:20" json:"item_kind"`
	Quantity   int          `json:"quantity"`
	Remaining  int          `json:"remaining"`
	DueDate    time.Time    `json:"due_date"`
	Returned   bool         `json:"returned"`
	ReturnedAt *time.Time   `json:"returned_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (Loan) TableName() string {
	return "loans"
}

// Status derives the lifecycle state.
func (l *Loan) Status() Status {
	switch {
	case l.Returned:
		return StatusReturned
	case l.Remaining < l.Quantity:
		return StatusPartiallyReturned
	default:
		return StatusBorrowed
	}
}

// IsLate reports whether the loan is overdue at the given instant.
// Re-evaluated on every call; a returned loan is never late.
func IsLate(l *Loan, now time.Time) bool {
	return !l.Returned && now.After(l.DueDate)
}
