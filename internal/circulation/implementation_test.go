// internal/circulation/implementation_test.go
package circulation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"pgregory.net/rapid"

	"campuslend/internal/catalog"
	"campuslend/internal/circulation"
	"campuslend/internal/storage"
)

// testingT is the slice of testing.TB that both *testing.T and
// *rapid.T provide.
type testingT interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

func newTestDB(tb testingT) *gorm.DB {
	tb.Helper()
	db, err := storage.OpenEphemeral()
	require.NoError(tb, err)
	require.NoError(tb, storage.Migrate(db, &catalog.Item{}, &circulation.Loan{}))
	return db
}

func createItem(tb testingT, db *gorm.DB, kind catalog.Kind, quantity int) *catalog.Item {
	tb.Helper()
	item := &catalog.Item{
		ID:       uuid.New(),
		Name:     "Basketball",
		Kind:     kind,
		Category: catalog.CategoryBallsFrisbees,
		Quantity: quantity,
	}
	require.NoError(tb, db.Create(item).Error)
	return item
}

func TestBorrowAndReturnRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := circulation.NewService(db)
	item := createItem(t, db, catalog.KindSimple, 5)
	patron := uuid.New()

	loan, err := svc.Borrow(ctx, patron, item.ID, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, loan.Quantity)
	assert.Equal(t, 2, loan.Remaining)
	assert.Equal(t, circulation.StatusBorrowed, loan.Status())

	var got catalog.Item
	require.NoError(t, db.First(&got, "id = ?", item.ID).Error)
	assert.Equal(t, 3, got.Quantity)

	loan, err = svc.ReturnPortion(ctx, loan.ID, 2)
	require.NoError(t, err)
	assert.True(t, loan.Returned)
	assert.NotNil(t, loan.ReturnedAt)
	assert.Equal(t, circulation.StatusReturned, loan.Status())

	require.NoError(t, db.First(&got, "id = ?", item.ID).Error)
	assert.Equal(t, 5, got.Quantity, "everything handed back restores the shelf count")
}

func TestPartialReturnLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := circulation.NewService(db)
	item := createItem(t, db, catalog.KindSimple, 10)

	loan, err := svc.Borrow(ctx, uuid.New(), item.ID, 4, 7)
	require.NoError(t, err)

	loan, err = svc.ReturnPortion(ctx, loan.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, loan.Remaining)
	assert.Equal(t, circulation.StatusPartiallyReturned, loan.Status())
	assert.False(t, loan.Returned)

	loan, err = svc.ReturnPortion(ctx, loan.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, circulation.StatusReturned, loan.Status())

	// A closed loan never reopens.
	_, err = svc.ReturnPortion(ctx, loan.ID, 1)
	assert.ErrorIs(t, err, circulation.ErrInvalidQuantity)
}

func TestBorrowComplexItemTakesOneUnit(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := circulation.NewService(db)
	item := createItem(t, db, catalog.KindComplex, 3)

	// Requested quantity is ignored for complex items.
	loan, err := svc.Borrow(ctx, uuid.New(), item.ID, 4, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, loan.Quantity)

	var got catalog.Item
	require.NoError(t, db.First(&got, "id = ?", item.ID).Error)
	assert.Equal(t, 2, got.Quantity)
}

func TestBorrowValidation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := circulation.NewService(db)
	item := createItem(t, db, catalog.KindSimple, 2)

	_, err := svc.Borrow(ctx, uuid.New(), item.ID, 3, 7)
	assert.ErrorIs(t, err, catalog.ErrInsufficientQuantity)

	_, err = svc.Borrow(ctx, uuid.New(), item.ID, 0, 7)
	assert.ErrorIs(t, err, circulation.ErrInvalidQuantity)

	_, err = svc.Borrow(ctx, uuid.New(), item.ID, 1, 0)
	assert.ErrorIs(t, err, circulation.ErrInvalidQuantity)

	_, err = svc.Borrow(ctx, uuid.New(), uuid.New(), 1, 7)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	var got catalog.Item
	require.NoError(t, db.First(&got, "id = ?", item.ID).Error)
	assert.Equal(t, 2, got.Quantity, "failed borrows never touch inventory")
}

func TestReturnValidation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := circulation.NewService(db)
	item := createItem(t, db, catalog.KindSimple, 5)

	loan, err := svc.Borrow(ctx, uuid.New(), item.ID, 2, 7)
	require.NoError(t, err)

	_, err = svc.ReturnPortion(ctx, loan.ID, 0)
	assert.ErrorIs(t, err, circulation.ErrInvalidQuantity)

	_, err = svc.ReturnPortion(ctx, loan.ID, 3)
	assert.ErrorIs(t, err, circulation.ErrInvalidQuantity)

	_, err = svc.ReturnPortion(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, circulation.ErrNotFound)
}

func TestIsLate(t *testing.T) {
	now := time.Now()
	due := now.Add(-time.Hour)

	assert.True(t, circulation.IsLate(&circulation.Loan{DueDate: due}, now))
	assert.False(t, circulation.IsLate(&circulation.Loan{DueDate: now.Add(time.Hour)}, now))
	assert.False(t, circulation.IsLate(&circulation.Loan{DueDate: due, Returned: true}, now),
		"a returned loan is never late")
}

func TestListOverdue(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := circulation.NewService(db)
	item := createItem(t, db, catalog.KindSimple, 5)

	loan, err := svc.Borrow(ctx, uuid.New(), item.ID, 1, 7)
	require.NoError(t, err)
	require.NoError(t, db.Model(&circulation.Loan{}).
		Where("id = ?", loan.ID).
		Update("due_date", time.Now().Add(-48*time.Hour)).Error)

	// Current loan, not overdue.
	_, err = svc.Borrow(ctx, uuid.New(), item.ID, 1, 7)
	require.NoError(t, err)

	overdue, err := svc.ListOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, loan.ID, overdue[0].ID)
}

// The ledger conservation law: at every point in a loan's life, units
// on the shelf plus units outstanding equal the original stock.
func TestReturnLedgerConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		db := newTestDB(t)
		svc := circulation.NewService(db)

		initial := rapid.IntRange(1, 20).Draw(t, "initial")
		borrow := rapid.IntRange(1, initial).Draw(t, "borrow")
		item := createItem(t, db, catalog.KindSimple, initial)

		loan, err := svc.Borrow(ctx, uuid.New(), item.ID, borrow, 7)
		require.NoError(t, err)

		for !loan.Returned {
			portion := rapid.IntRange(1, loan.Remaining).Draw(t, "portion")
			loan, err = svc.ReturnPortion(ctx, loan.ID, portion)
			require.NoError(t, err)

			var got catalog.Item
			require.NoError(t, db.First(&got, "id = ?", item.ID).Error)
			require.GreaterOrEqual(t, got.Quantity, 0)
			require.Equal(t, initial, got.Quantity+loan.Remaining)
		}

		var got catalog.Item
		require.NoError(t, db.First(&got, "id = ?", item.ID).Error)
		require.Equal(t, initial, got.Quantity)
	})
}
