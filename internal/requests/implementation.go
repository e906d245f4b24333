// internal/requests/implementation.go
package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campuslend/internal/circulation"
	"campuslend/internal/collections"
	"campuslend/internal/messages"
	"campuslend/internal/storage"
)

// service implements the Service interface.
type service struct {
	db       *gorm.DB
	notifier messages.Notifier
	log      *zap.Logger
	loanDays int
	tracer   trace.Tracer
}

// NewService creates a new request workflow instance. loanDays is the
// duration applied to loans opened through approval.
func NewService(db *gorm.DB, notifier messages.Notifier, log *zap.Logger, loanDays int) Service {
	return &service{
		db:       db,
		notifier: notifier,
		log:      log,
		loanDays: loanDays,
		tracer:   otel.Tracer("campuslend/requests"),
	}
}

// SubmitBorrowRequest records a pending ask. No availability check
// here; it happens at approval time.
func (s *service) SubmitBorrowRequest(ctx context.Context, patronID, itemID uuid.UUID, quantity int) (*BorrowRequest, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: must request at least one", circulation.ErrInvalidQuantity)
	}

	req := &BorrowRequest{
		ID:       uuid.New(),
		PatronID: patronID,
		ItemID:   itemID,
		Quantity: quantity,
		Status:   StatusPending,
	}
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, fmt.Errorf("create borrow request: %w", err)
	}
	return req, nil
}

// ApproveBorrowRequest opens the loan and flips the request to
// APPROVED atomically. A failed borrow rolls the whole transaction
// back, so the request is still PENDING afterwards.
func (s *service) ApproveBorrowRequest(ctx context.Context, requestID, librarianID uuid.UUID) (*circulation.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "requests.approve_borrow",
		trace.WithAttributes(attribute.String("request.id", requestID.String())),
	)
	defer span.End()

	var (
		loan *circulation.Loan
		req  BorrowRequest
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRequest(tx, &req, requestID); err != nil {
			return err
		}

		now := time.Now()
		l, err := circulation.CreateLoanTx(tx, req.PatronID, req.ItemID, req.Quantity, s.loanDays, now)
		if err != nil {
			return err
		}
		loan = l

		return decide(tx, &req, StatusApproved, librarianID, now)
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("request.approved", false))
		return nil, err
	}

	s.notify(ctx, req.PatronID, "Borrow request approved",
		fmt.Sprintf("Your request for %d item(s) was approved. Due %s.", loan.Quantity, loan.DueDate.Format("Jan 2, 2006")),
		"/loans/"+loan.ID.String())
	return loan, nil
}

// RejectBorrowRequest is terminal and touches no inventory.
func (s *service) RejectBorrowRequest(ctx context.Context, requestID, librarianID uuid.UUID) error {
	var req BorrowRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRequest(tx, &req, requestID); err != nil {
			return err
		}
		return decide(tx, &req, StatusRejected, librarianID, time.Now())
	})
	if err != nil {
		return err
	}

	s.notify(ctx, req.PatronID, "Borrow request rejected",
		"Your borrow request was rejected by a librarian.", "/borrow-requests")
	return nil
}

// SubmitCollectionRequest records a pending access ask.
func (s *service) SubmitCollectionRequest(ctx context.Context, patronID, collectionID uuid.UUID) (*CollectionRequest, error) {
	req := &CollectionRequest{
		ID:           uuid.New(),
		PatronID:     patronID,
		CollectionID: collectionID,
		Status:       StatusPending,
	}
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, fmt.Errorf("create collection request: %w", err)
	}
	return req, nil
}

// ApproveCollectionRequest grants allow-list access atomically with
// the status flip.
func (s *service) ApproveCollectionRequest(ctx context.Context, requestID, librarianID uuid.UUID) error {
	var req CollectionRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRequest(tx, &req, requestID); err != nil {
			return err
		}
		if err := collections.GrantAccessTx(tx, req.CollectionID, req.PatronID); err != nil {
			return err
		}
		return decide(tx, &req, StatusApproved, librarianID, time.Now())
	})
	if err != nil {
		return err
	}

	s.notify(ctx, req.PatronID, "Collection access granted",
		"Your request to access a private collection was approved.",
		"/collections/"+req.CollectionID.String())
	return nil
}

// RejectCollectionRequest is terminal.
func (s *service) RejectCollectionRequest(ctx context.Context, requestID, librarianID uuid.UUID) error {
	var req CollectionRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRequest(tx, &req, requestID); err != nil {
			return err
		}
		return decide(tx, &req, StatusRejected, librarianID, time.Now())
	})
	if err != nil {
		return err
	}

	s.notify(ctx, req.PatronID, "Collection access rejected",
		"Your request to access a private collection was rejected.", "/collections")
	return nil
}

// ListPendingBorrow returns the librarian approval queue, oldest
// first.
func (s *service) ListPendingBorrow(ctx context.Context) ([]BorrowRequest, error) {
	var reqs []BorrowRequest
	err := s.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Order("created_at").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("list pending borrow requests: %w", err)
	}
	return reqs, nil
}

// ListPendingCollection returns pending access requests, oldest first.
func (s *service) ListPendingCollection(ctx context.Context) ([]CollectionRequest, error) {
	var reqs []CollectionRequest
	err := s.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Order("created_at").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("list pending collection requests: %w", err)
	}
	return reqs, nil
}

// ListBorrowForPatron returns a patron's own requests, newest first.
func (s *service) ListBorrowForPatron(ctx context.Context, patronID uuid.UUID) ([]BorrowRequest, error) {
	var reqs []BorrowRequest
	err := s.db.WithContext(ctx).
		Where("patron_id = ?", patronID).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("list borrow requests: %w", err)
	}
	return reqs, nil
}

// lockRequest loads a request row under lock and verifies it is still
// pending. Serializes two librarians deciding the same request.
func lockRequest[R any](tx *gorm.DB, req *R, id uuid.UUID) error {
	if err := storage.ForUpdate(tx).First(req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("lock request: %w", err)
	}
	if status(req) != StatusPending {
		return fmt.Errorf("%w: %s", ErrRequestDecided, id)
	}
	return nil
}

func status(req any) Status {
	switch r := req.(type) {
	case *BorrowRequest:
		return r.Status
	case *CollectionRequest:
		return r.Status
	}
	return ""
}

func decide(tx *gorm.DB, req any, st Status, librarianID uuid.UUID, now time.Time) error {
	updates := map[string]any{
		"status":     st,
		"decided_by": librarianID,
		"decided_at": now,
	}
	if err := tx.Model(req).Updates(updates).Error; err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	switch r := req.(type) {
	case *BorrowRequest:
		r.Status, r.DecidedBy, r.DecidedAt = st, &librarianID, &now
	case *CollectionRequest:
		r.Status, r.DecidedBy, r.DecidedAt = st, &librarianID, &now
	}
	return nil
}

// notify delivers best-effort; a failed notification never unwinds a
// decision that already committed.
func (s *service) notify(ctx context.Context, recipient uuid.UUID, subject, body, link string) {
	if err := s.notifier.Notify(ctx, recipient, subject, body, link); err != nil {
		s.log.Warn("notification failed",
			zap.Error(err),
			zap.String("recipient", recipient.String()),
			zap.String("subject", subject),
		)
	}
}
