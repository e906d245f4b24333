// internal/circulation/implementation.go
package circulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"campuslend/internal/catalog"
	"campuslend/internal/storage"
)

// service implements the Service interface.
type service struct {
	db          *gorm.DB
	tracer      trace.Tracer
	loansOpened metric.Int64Counter
}

// NewService creates a new circulation service instance.
func NewService(db *gorm.DB) Service {
	meter := otel.Meter("campuslend/circulation")
	loansOpened, _ := meter.Int64Counter("loans_opened_total",
		metric.WithDescription("Number of loans opened"))

	return &service{
		db:          db,
		tracer:      otel.Tracer("campuslend/circulation"),
		loansOpened: loansOpened,
	}
}

// CreateLoanTx opens a loan inside the given transaction. The item row
// lock taken by the quantity adjustment serializes concurrent borrows,
// so two approvals cannot both take the last unit.
func CreateLoanTx(tx *gorm.DB, patronID, itemID uuid.UUID, quantity, durationDays int, now time.Time) (*Loan, error) {
	item, err := catalog.GetForUpdateTx(tx, itemID)
	if err != nil {
		return nil, err
	}

	// A complex item moves as one unit per loan.
	if item.Kind == catalog.KindComplex {
		quantity = 1
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: must borrow at least one", ErrInvalidQuantity)
	}
	if durationDays < 1 {
		return nil, fmt.Errorf("%w: loan duration must be at least one day", ErrInvalidQuantity)
	}

	if _, err := catalog.AdjustQuantityTx(tx, itemID, -quantity); err != nil {
		return nil, err
	}

	loan := &Loan{
		ID:        uuid.New(),
		PatronID:  patronID,
		ItemID:    itemID,
		ItemKind:  item.Kind,
		Quantity:  quantity,
		Remaining: quantity,
		DueDate:   now.AddDate(0, 0, durationDays),
	}
	if err := tx.Create(loan).Error; err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}
	return loan, nil
}

// ReturnPortionTx hands back quantity units inside the given
// transaction.
func ReturnPortionTx(tx *gorm.DB, loanID uuid.UUID, quantity int, now time.Time) (*Loan, error) {
	var loan Loan
	if err := storage.ForUpdate(tx).First(&loan, "id = ?", loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("lock loan: %w", err)
	}

	if quantity <= 0 {
		return nil, fmt.Errorf("%w: must return at least one", ErrInvalidQuantity)
	}
	if loan.Returned || quantity > loan.Remaining {
		return nil, fmt.Errorf("%w: %d outstanding, %d returned", ErrInvalidQuantity, loan.Remaining, quantity)
	}

	if _, err := catalog.AdjustQuantityTx(tx, loan.ItemID, quantity); err != nil {
		return nil, err
	}

	loan.Remaining -= quantity
	updates := map[string]any{"remaining": loan.Remaining}
	if loan.Remaining == 0 {
		loan.Returned = true
		loan.ReturnedAt = &now
		updates["returned"] = true
		updates["returned_at"] = now
	}
	if err := tx.Model(&loan).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update loan: %w", err)
	}
	return &loan, nil
}

// Borrow opens a loan in its own transaction.
func (s *service) Borrow(ctx context.Context, patronID, itemID uuid.UUID, quantity, durationDays int) (*Loan, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.borrow",
		trace.WithAttributes(
			attribute.String("patron.id", patronID.String()),
			attribute.String("item.id", itemID.String()),
			attribute.Int("quantity", quantity),
		),
	)
	defer span.End()

	var loan *Loan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		loan, err = CreateLoanTx(tx, patronID, itemID, quantity, durationDays, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.loansOpened.Add(ctx, 1, metric.WithAttributes(attribute.String("item.kind", string(loan.ItemKind))))
	span.SetAttributes(attribute.String("loan.id", loan.ID.String()))
	return loan, nil
}

// ReturnPortion applies a partial or full return in its own
// transaction.
func (s *service) ReturnPortion(ctx context.Context, loanID uuid.UUID, quantity int) (*Loan, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.return",
		trace.WithAttributes(
			attribute.String("loan.id", loanID.String()),
			attribute.Int("quantity", quantity),
		),
	)
	defer span.End()

	var loan *Loan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		loan, err = ReturnPortionTx(tx, loanID, quantity, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("loan.closed", loan.Returned))
	return loan, nil
}

// GetLoan retrieves a loan by ID.
func (s *service) GetLoan(ctx context.Context, id uuid.UUID) (*Loan, error) {
	var loan Loan
	if err := s.db.WithContext(ctx).First(&loan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return &loan, nil
}

// ListLoansForPatron returns a patron's loans, newest first.
func (s *service) ListLoansForPatron(ctx context.Context, patronID uuid.UUID) ([]Loan, error) {
	var loans []Loan
	err := s.db.WithContext(ctx).
		Where("patron_id = ?", patronID).
		Order("created_at DESC").
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return loans, nil
}

// ListOpenLoansForItem returns the outstanding loans against an item.
func (s *service) ListOpenLoansForItem(ctx context.Context, itemID uuid.UUID) ([]Loan, error) {
	var loans []Loan
	err := s.db.WithContext(ctx).
		Where("item_id = ? AND returned = ?", itemID, false).
		Order("due_date").
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("list open loans: %w", err)
	}
	return loans, nil
}

// ListOverdue returns every unreturned loan past its due date.
func (s *service) ListOverdue(ctx context.Context) ([]Loan, error) {
	var loans []Loan
	err := s.db.WithContext(ctx).
		Where("returned = ? AND due_date < ?", false, time.Now()).
		Order("due_date").
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("list overdue loans: %w", err)
	}
	return loans, nil
}
