// internal/circulation/service.go
package circulation

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the circulation service.
type Service interface {
	// Borrow opens a loan, decrementing the item's quantity. Complex
	// items are borrowed one whole unit per call regardless of quantity.
	Borrow(ctx context.Context, patronID, itemID uuid.UUID, quantity, durationDays int) (*Loan, error)

	// ReturnPortion hands back part or all of a loan, incrementing the
	// item's quantity. The loan closes when nothing remains.
	ReturnPortion(ctx context.Context, loanID uuid.UUID, quantity int) (*Loan, error)

	GetLoan(ctx context.Context, id uuid.UUID) (*Loan, error)
	ListLoansForPatron(ctx context.Context, patronID uuid.UUID) ([]Loan, error)
	ListOpenLoansForItem(ctx context.Context, itemID uuid.UUID) ([]Loan, error)
	ListOverdue(ctx context.Context) ([]Loan, error)
}
