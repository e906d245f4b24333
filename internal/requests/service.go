// internal/requests/service.go
package requests

import (
	"context"

	"github.com/google/uuid"

	"campuslend/internal/circulation"
)

// Service defines the interface for the request approval workflow.
type Service interface {
	SubmitBorrowRequest(ctx context.Context, patronID, itemID uuid.UUID, quantity int) (*BorrowRequest, error)

	// ApproveBorrowRequest opens the loan and marks the request
	// approved in one transaction. If the borrow fails the request
	// stays PENDING and the error surfaces to the librarian.
	ApproveBorrowRequest(ctx context.Context, requestID, librarianID uuid.UUID) (*circulation.Loan, error)
	RejectBorrowRequest(ctx context.Context, requestID, librarianID uuid.UUID) error

	SubmitCollectionRequest(ctx context.Context, patronID, collectionID uuid.UUID) (*CollectionRequest, error)
	ApproveCollectionRequest(ctx context.Context, requestID, librarianID uuid.UUID) error
	RejectCollectionRequest(ctx context.Context, requestID, librarianID uuid.UUID) error

	ListPendingBorrow(ctx context.Context) ([]BorrowRequest, error)
	ListPendingCollection(ctx context.Context) ([]CollectionRequest, error)
	ListBorrowForPatron(ctx context.Context, patronID uuid.UUID) ([]BorrowRequest, error)
}
