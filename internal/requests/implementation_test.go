// internal/requests/implementation_test.go
package requests_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campuslend/internal/catalog"
	"campuslend/internal/circulation"
	"campuslend/internal/collections"
	"campuslend/internal/membership"
	"campuslend/internal/messages"
	"campuslend/internal/requests"
	"campuslend/internal/storage"
)

func newTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := storage.OpenEphemeral()
	require.NoError(tb, err)
	require.NoError(tb, storage.Migrate(db,
		&membership.Patron{},
		&catalog.Item{},
		&collections.Collection{},
		&circulation.Loan{},
		&requests.BorrowRequest{},
		&requests.CollectionRequest{},
		&messages.Message{},
	))
	return db
}

func newWorkflow(tb testing.TB, db *gorm.DB) (requests.Service, messages.Service) {
	tb.Helper()
	inbox := messages.NewService(db)
	return requests.NewService(db, inbox, zap.NewNop(), 7), inbox
}

func createItem(tb testing.TB, db *gorm.DB, quantity int) *catalog.Item {
	tb.Helper()
	item := &catalog.Item{
		ID:       uuid.New(),
		Name:     "Basketball",
		Kind:     catalog.KindSimple,
		Category: catalog.CategoryBallsFrisbees,
		Quantity: quantity,
	}
	require.NoError(tb, db.Create(item).Error)
	return item
}

func TestApproveBorrowRequestOpensLoan(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc, inbox := newWorkflow(t, db)
	item := createItem(t, db, 5)
	patron := uuid.New()
	librarian := uuid.New()

	req, err := svc.SubmitBorrowRequest(ctx, patron, item.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, requests.StatusPending, req.Status)

	loan, err := svc.ApproveBorrowRequest(ctx, req.ID, librarian)
	require.NoError(t, err)
	assert.Equal(t, patron, loan.PatronID)
	assert.Equal(t, 2, loan.Quantity)

	var item2 catalog.Item
	require.NoError(t, db.First(&item2, "id = ?", item.ID).Error)
	assert.Equal(t, 3, item2.Quantity)

	var got requests.BorrowRequest
	require.NoError(t, db.First(&got, "id = ?", req.ID).Error)
	assert.Equal(t, requests.StatusApproved, got.Status)
	require.NotNil(t, got.DecidedBy)
	assert.Equal(t, librarian, *got.DecidedBy)
	assert.NotNil(t, got.DecidedAt)

	// The patron got word of it.
	msgs, err := inbox.ListForRecipient(ctx, patron)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Subject, "approved")
}

func TestFailedApprovalLeavesRequestPending(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc, _ := newWorkflow(t, db)
	item := createItem(t, db, 1)
	librarian := uuid.New()

	req, err := svc.SubmitBorrowRequest(ctx, uuid.New(), item.ID, 3)
	require.NoError(t, err)

	_, err = svc.ApproveBorrowRequest(ctx, req.ID, librarian)
	require.ErrorIs(t, err, catalog.ErrInsufficientQuantity)

	// Nothing moved: no loan, stock intact, request still decidable.
	var got requests.BorrowRequest
	require.NoError(t, db.First(&got, "id = ?", req.ID).Error)
	assert.Equal(t, requests.StatusPending, got.Status)
	assert.Nil(t, got.DecidedBy)

	var item2 catalog.Item
	require.NoError(t, db.First(&item2, "id = ?", item.ID).Error)
	assert.Equal(t, 1, item2.Quantity)

	var loans int64
	require.NoError(t, db.Model(&circulation.Loan{}).Count(&loans).Error)
	assert.Zero(t, loans)

	// After restocking, the same request approves cleanly.
	require.NoError(t, db.Model(&catalog.Item{}).Where("id = ?", item.ID).Update("quantity", 5).Error)
	_, err = svc.ApproveBorrowRequest(ctx, req.ID, librarian)
	require.NoError(t, err)
}

func TestDecisionsAreTerminal(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc, _ := newWorkflow(t, db)
	item := createItem(t, db, 5)
	librarian := uuid.New()

	req, err := svc.SubmitBorrowRequest(ctx, uuid.New(), item.ID, 1)
	require.NoError(t, err)
	require.NoError(t, svc.RejectBorrowRequest(ctx, req.ID, librarian))

	_, err = svc.ApproveBorrowRequest(ctx, req.ID, librarian)
	assert.ErrorIs(t, err, requests.ErrRequestDecided)
	assert.ErrorIs(t, svc.RejectBorrowRequest(ctx, req.ID, librarian), requests.ErrRequestDecided)

	// Rejection touched no inventory.
	var item2 catalog.Item
	require.NoError(t, db.First(&item2, "id = ?", item.ID).Error)
	assert.Equal(t, 5, item2.Quantity)
}

func TestApproveUnknownRequest(t *testing.T) {
	ctx := context.Background()
	svc, _ := newWorkflow(t, newTestDB(t))

	_, err := svc.ApproveBorrowRequest(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, requests.ErrNotFound)
}

func TestCollectionRequestGrantsAccess(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc, inbox := newWorkflow(t, db)
	colls := collections.NewService(db)
	librarian := uuid.New()

	creator := &membership.Patron{ID: uuid.New(), Subject: "test:creator", Email: "creator@campus.test"}
	asker := &membership.Patron{ID: uuid.New(), Subject: "test:asker", Email: "asker@campus.test"}
	require.NoError(t, db.Create(creator).Error)
	require.NoError(t, db.Create(asker).Error)

	private, err := colls.CreateCollection(ctx, collections.CreateCollectionParams{
		Title: "Stash", Private: true, CreatorID: creator.ID,
	})
	require.NoError(t, err)

	_, err = colls.GetCollection(ctx, membership.Principal{PatronID: asker.ID}, private.ID)
	require.ErrorIs(t, err, collections.ErrNotFound)

	req, err := svc.SubmitCollectionRequest(ctx, asker.ID, private.ID)
	require.NoError(t, err)
	require.NoError(t, svc.ApproveCollectionRequest(ctx, req.ID, librarian))

	_, err = colls.GetCollection(ctx, membership.Principal{PatronID: asker.ID}, private.ID)
	require.NoError(t, err)

	msgs, err := inbox.ListForRecipient(ctx, asker.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	n, err := inbox.UnreadCount(ctx, asker.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, inbox.MarkRead(ctx, asker.ID, msgs[0].ID))
	n, err = inbox.UnreadCount(ctx, asker.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRejectCollectionRequestGrantsNothing(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc, _ := newWorkflow(t, db)
	colls := collections.NewService(db)

	creator := uuid.New()
	asker := &membership.Patron{ID: uuid.New(), Subject: "test:asker", Email: "asker@campus.test"}
	require.NoError(t, db.Create(asker).Error)

	private, err := colls.CreateCollection(ctx, collections.CreateCollectionParams{
		Title: "Stash", Private: true, CreatorID: creator,
	})
	require.NoError(t, err)

	req, err := svc.SubmitCollectionRequest(ctx, asker.ID, private.ID)
	require.NoError(t, err)
	require.NoError(t, svc.RejectCollectionRequest(ctx, req.ID, uuid.New()))

	_, err = colls.GetCollection(ctx, membership.Principal{PatronID: asker.ID}, private.ID)
	assert.ErrorIs(t, err, collections.ErrNotFound)
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, uuid.UUID, string, string, string) error {
	return errors.New("inbox on fire")
}

func TestNotificationFailureDoesNotUnwindDecision(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := requests.NewService(db, failingNotifier{}, zap.NewNop(), 7)
	item := createItem(t, db, 5)

	req, err := svc.SubmitBorrowRequest(ctx, uuid.New(), item.ID, 1)
	require.NoError(t, err)

	loan, err := svc.ApproveBorrowRequest(ctx, req.ID, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, loan)

	var got requests.BorrowRequest
	require.NoError(t, db.First(&got, "id = ?", req.ID).Error)
	assert.Equal(t, requests.StatusApproved, got.Status)
}

func TestPendingQueuesAndHistory(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc, _ := newWorkflow(t, db)
	item := createItem(t, db, 10)
	patron := uuid.New()

	first, err := svc.SubmitBorrowRequest(ctx, patron, item.ID, 1)
	require.NoError(t, err)
	second, err := svc.SubmitBorrowRequest(ctx, patron, item.ID, 2)
	require.NoError(t, err)

	_, err = svc.ApproveBorrowRequest(ctx, first.ID, uuid.New())
	require.NoError(t, err)

	pending, err := svc.ListPendingBorrow(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	history, err := svc.ListBorrowForPatron(ctx, patron)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = svc.SubmitBorrowRequest(ctx, patron, item.ID, 0)
	assert.ErrorIs(t, err, circulation.ErrInvalidQuantity)
}
