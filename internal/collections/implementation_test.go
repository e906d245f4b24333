// internal/collections/implementation_test.go
package collections_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"campuslend/internal/catalog"
	"campuslend/internal/collections"
	"campuslend/internal/membership"
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
	))
	return db
}

func createItem(tb testing.TB, db *gorm.DB, name string) *catalog.Item {
	tb.Helper()
	item := &catalog.Item{
		ID:       uuid.New(),
		Name:     name,
		Kind:     catalog.KindSimple,
		Category: catalog.CategoryOther,
		Quantity: 1,
	}
	require.NoError(tb, db.Create(item).Error)
	return item
}

func createPatron(tb testing.TB, db *gorm.DB, name string) *membership.Patron {
	tb.Helper()
	p := &membership.Patron{ID: uuid.New(), Subject: "test:" + name, Name: name, Email: name + "@campus.test"}
	require.NoError(tb, db.Create(p).Error)
	return p
}

func TestPlacementDisjointness(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := collections.NewService(db)
	creator := createPatron(t, db, "creator")
	item := createItem(t, db, "Cones")

	private, err := svc.CreateCollection(ctx, collections.CreateCollectionParams{
		Title:     "Coach stash",
		Private:   true,
		CreatorID: creator.ID,
		ItemIDs:   []uuid.UUID{item.ID},
	})
	require.NoError(t, err)

	public, err := svc.CreateCollection(ctx, collections.CreateCollectionParams{
		Title:     "Training day",
		CreatorID: creator.ID,
	})
	require.NoError(t, err)

	// A privately held item may not join a public collection.
	err = svc.AddItem(ctx, public.ID, item.ID)
	assert.ErrorIs(t, err, collections.ErrPublicPrivateConflict)

	// Nor may it join a second private collection.
	private2, err := svc.CreateCollection(ctx, collections.CreateCollectionParams{
		Title: "Other stash", Private: true, CreatorID: creator.ID,
	})
	require.NoError(t, err)
	err = svc.AddItem(ctx, private2.ID, item.ID)
	assert.ErrorIs(t, err, collections.ErrPrivateCollectionConflict)

	// Removed from the private collection, the item moves freely again.
	require.NoError(t, svc.RemoveItem(ctx, private.ID, item.ID))
	require.NoError(t, svc.AddItem(ctx, public.ID, item.ID))

	// Public membership blocks private placement.
	err = svc.AddItem(ctx, private.ID, item.ID)
	assert.ErrorIs(t, err, collections.ErrPrivateCollectionConflict)

	// But other public collections still share it.
	public2, err := svc.CreateCollection(ctx, collections.CreateCollectionParams{
		Title: "Open day", CreatorID: creator.ID,
	})
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(ctx, public2.ID, item.ID))
}

func TestCreateCollectionRollsBackOnBadPlacement(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := collections.NewService(db)
	creator := createPatron(t, db, "creator")
	item := createItem(t, db, "Cones")

	_, err := svc.CreateCollection(ctx, collections.CreateCollectionParams{
		Title: "Stash", Private: true, CreatorID: creator.ID, ItemIDs: []uuid.UUID{item.ID},
	})
	require.NoError(t, err)

	_, err = svc.CreateCollection(ctx, collections.CreateCollectionParams{
		Title: "Broken", CreatorID: creator.ID, ItemIDs: []uuid.UUID{item.ID},
	})
	require.ErrorIs(t, err, collections.ErrPublicPrivateConflict)

	// The half-created collection was rolled back with its edges.
	var n int64
	require.NoError(t, db.Model(&collections.Collection{}).Where("title = ?", "Broken").Count(&n).Error)
	assert.Zero(t, n)
}

func TestVisibilityAndAccessGrants(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := collections.NewService(db)
	creator := createPatron(t, db, "creator")
	friend := createPatron(t, db, "friend")
	stranger := createPatron(t, db, "stranger")

	private, err := svc.CreateCollection(ctx, collections.CreateCollectionParams{
		Title: "Stash", Private: true, CreatorID: creator.ID,
	})
	require.NoError(t, err)

	// A hidden collection reads as missing, never as forbidden.
	_, err = svc.GetCollection(ctx, membership.Principal{PatronID: stranger.ID}, private.ID)
	assert.ErrorIs(t, err, collections.ErrNotFound)
	assert.NotErrorIs(t, err, collections.ErrPermissionDenied)

	require.NoError(t, svc.GrantAccess(ctx, private.ID, friend.ID))
	got, err := svc.GetCollection(ctx, membership.Principal{PatronID: friend.ID}, private.ID)
	require.NoError(t, err)
	assert.Equal(t, private.ID, got.ID)

	// Granting twice is harmless.
	require.NoError(t, svc.GrantAccess(ctx, private.ID, friend.ID))
	got, err = svc.GetCollection(ctx, membership.Principal{PatronID: creator.ID}, private.ID)
	require.NoError(t, err)
	assert.Len(t, got.AllowedUsers, 1)

	require.NoError(t, svc.RevokeAccess(ctx, private.ID, friend.ID))
	_, err = svc.GetCollection(ctx, membership.Principal{PatronID: friend.ID}, private.ID)
	assert.ErrorIs(t, err, collections.ErrNotFound)

	visible, err := svc.ListVisible(ctx, membership.Principal{PatronID: stranger.ID})
	require.NoError(t, err)
	assert.Empty(t, visible)

	visible, err = svc.ListVisible(ctx, membership.Principal{PatronID: creator.ID})
	require.NoError(t, err)
	assert.Len(t, visible, 1)
}

func TestFilterVisibleItems(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := collections.NewService(db)
	creator := createPatron(t, db, "creator")
	friend := createPatron(t, db, "friend")

	hidden := createItem(t, db, "Hidden cones")
	open := createItem(t, db, "Open ball")

	_, err := svc.CreateCollection(ctx, collections.CreateCollectionParams{
		Title:          "Stash",
		Private:        true,
		CreatorID:      creator.ID,
		AllowedUserIDs: []uuid.UUID{friend.ID},
		ItemIDs:        []uuid.UUID{hidden.ID},
	})
	require.NoError(t, err)

	items := []catalog.Item{*hidden, *open}

	got, err := svc.FilterVisibleItems(ctx, membership.AnonymousPrincipal, items)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, open.ID, got[0].ID)

	got, err = svc.FilterVisibleItems(ctx, membership.Principal{PatronID: friend.ID}, items)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.FilterVisibleItems(ctx, membership.Principal{PatronID: uuid.New(), Librarian: true}, items)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	ok, err := svc.CanViewItem(ctx, membership.AnonymousPrincipal, hidden.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CanViewItem(ctx, membership.Principal{PatronID: friend.ID}, hidden.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteCollectionLeavesItems(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := collections.NewService(db)
	creator := createPatron(t, db, "creator")
	stranger := createPatron(t, db, "stranger")
	item := createItem(t, db, "Cones")

	coll, err := svc.CreateCollection(ctx, collections.CreateCollectionParams{
		Title: "Stash", Private: true, CreatorID: creator.ID, ItemIDs: []uuid.UUID{item.ID},
	})
	require.NoError(t, err)

	err = svc.DeleteCollection(ctx, membership.Principal{PatronID: stranger.ID}, coll.ID)
	assert.ErrorIs(t, err, collections.ErrPermissionDenied)

	require.NoError(t, svc.DeleteCollection(ctx, membership.Principal{PatronID: creator.ID}, coll.ID))

	_, err = svc.GetCollection(ctx, membership.Principal{PatronID: creator.ID}, coll.ID)
	assert.ErrorIs(t, err, collections.ErrNotFound)

	var got catalog.Item
	require.NoError(t, db.First(&got, "id = ?", item.ID).Error)
	assert.Equal(t, item.Name, got.Name, "deleting a collection never deletes its items")
}
