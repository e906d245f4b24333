// internal/collections/implementation.go
package collections

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"campuslend/internal/catalog"
	"campuslend/internal/membership"
)

// service implements the Service interface.
type service struct {
	db     *gorm.DB
	tracer trace.Tracer
}

// NewService creates a new collections service instance.
func NewService(db *gorm.DB) Service {
	return &service{
		db:     db,
		tracer: otel.Tracer("campuslend/collections"),
	}
}

// AddItemTx adds a membership edge inside the given transaction. The
// item row is locked first so two concurrent placements of the same
// item serialize; the disjointness check then sees committed state.
func AddItemTx(tx *gorm.DB, collectionID, itemID uuid.UUID) error {
	var coll Collection
	if err := tx.First(&coll, "id = ?", collectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, collectionID)
		}
		return fmt.Errorf("load collection: %w", err)
	}

	item, err := catalog.GetForUpdateTx(tx, itemID)
	if err != nil {
		return err
	}

	containing, err := collectionsContaining(tx, itemID, collectionID)
	if err != nil {
		return err
	}
	if err := CheckPlacement(&coll, containing); err != nil {
		return err
	}

	err = tx.Exec(
		"INSERT INTO collection_items (collection_id, item_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		coll.ID, item.ID,
	).Error
	if err != nil {
		return fmt.Errorf("add membership edge: %w", err)
	}
	return nil
}

// GrantAccessTx adds a patron to a collection's allow-list inside the
// given transaction. Used directly by request approval.
func GrantAccessTx(tx *gorm.DB, collectionID, patronID uuid.UUID) error {
	var coll Collection
	if err := tx.First(&coll, "id = ?", collectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, collectionID)
		}
		return fmt.Errorf("load collection: %w", err)
	}

	err := tx.Exec(
		"INSERT INTO collection_allowed_users (collection_id, patron_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		collectionID, patronID,
	).Error
	if err != nil {
		return fmt.Errorf("grant access: %w", err)
	}
	return nil
}

func collectionsContaining(tx *gorm.DB, itemID uuid.UUID, exclude uuid.UUID) ([]Collection, error) {
	var containing []Collection
	err := tx.
		Joins("JOIN collection_items ci ON ci.collection_id = collections.id").
		Where("ci.item_id = ? AND collections.id <> ?", itemID, exclude).
		Find(&containing).Error
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	return containing, nil
}

// CreateCollection creates a collection with explicit allow-list and
// initial items, each placement validated.
func (s *service) CreateCollection(ctx context.Context, params CreateCollectionParams) (*Collection, error) {
	if params.Title == "" {
		return nil, errors.Join(ErrInvalidCollection, errors.New("title is required"))
	}

	ctx, span := s.tracer.Start(ctx, "collections.create",
		trace.WithAttributes(
			attribute.Bool("collection.private", params.Private),
			attribute.Int("collection.initial_items", len(params.ItemIDs)),
		),
	)
	defer span.End()

	coll := &Collection{
		ID:          uuid.New(),
		Title:       params.Title,
		Description: params.Description,
		Private:     params.Private,
		CreatorID:   params.CreatorID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(coll).Error; err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
		for _, patronID := range params.AllowedUserIDs {
			if err := GrantAccessTx(tx, coll.ID, patronID); err != nil {
				return err
			}
		}
		for _, itemID := range params.ItemIDs {
			if err := AddItemTx(tx, coll.ID, itemID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, coll.ID)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*Collection, error) {
	var coll Collection
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("AllowedUsers").
		First(&coll, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("load collection: %w", err)
	}
	return &coll, nil
}

// GetCollection loads a collection and enforces the visibility rules.
func (s *service) GetCollection(ctx context.Context, p membership.Principal, id uuid.UUID) (*Collection, error) {
	coll, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanViewCollection(p, coll) {
		// Indistinguishable from a missing collection, same as hidden
		// items on the catalog surface.
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return coll, nil
}

// ListVisible returns every collection the principal may see.
func (s *service) ListVisible(ctx context.Context, p membership.Principal) ([]Collection, error) {
	var all []Collection
	err := s.db.WithContext(ctx).Preload("AllowedUsers").Order("title").Find(&all).Error
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	visible := make([]Collection, 0, len(all))
	for i := range all {
		if CanViewCollection(p, &all[i]) {
			visible = append(visible, all[i])
		}
	}
	return visible, nil
}

// DeleteCollection removes a collection; only the creator or a
// librarian may do so. Items themselves are untouched.
func (s *service) DeleteCollection(ctx context.Context, p membership.Principal, id uuid.UUID) error {
	coll, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !p.Librarian && p.PatronID != coll.CreatorID {
		return fmt.Errorf("%w: collection %s", ErrPermissionDenied, id)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM collection_items WHERE collection_id = ?", id).Error; err != nil {
			return fmt.Errorf("clear memberships: %w", err)
		}
		if err := tx.Exec("DELETE FROM collection_allowed_users WHERE collection_id = ?", id).Error; err != nil {
			return fmt.Errorf("clear allow-list: %w", err)
		}
		if err := tx.Delete(&Collection{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
		return nil
	})
}

// AddItem adds an item to a collection under the disjointness rule.
func (s *service) AddItem(ctx context.Context, collectionID, itemID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "collections.add_item",
		trace.WithAttributes(
			attribute.String("collection.id", collectionID.String()),
			attribute.String("item.id", itemID.String()),
		),
	)
	defer span.End()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return AddItemTx(tx, collectionID, itemID)
	})
}

// RemoveItem drops a membership edge.
func (s *service) RemoveItem(ctx context.Context, collectionID, itemID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var coll Collection
		if err := tx.First(&coll, "id = ?", collectionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, collectionID)
			}
			return fmt.Errorf("load collection: %w", err)
		}
		err := tx.Exec(
			"DELETE FROM collection_items WHERE collection_id = ? AND item_id = ?",
			collectionID, itemID,
		).Error
		if err != nil {
			return fmt.Errorf("remove membership edge: %w", err)
		}
		return nil
	})
}

// GrantAccess adds a patron to the allow-list.
func (s *service) GrantAccess(ctx context.Context, collectionID, patronID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return GrantAccessTx(tx, collectionID, patronID)
	})
}

// RevokeAccess removes a patron from the allow-list.
func (s *service) RevokeAccess(ctx context.Context, collectionID, patronID uuid.UUID) error {
	err := s.db.WithContext(ctx).Exec(
		"DELETE FROM collection_allowed_users WHERE collection_id = ? AND patron_id = ?",
		collectionID, patronID,
	).Error
	if err != nil {
		return fmt.Errorf("revoke access: %w", err)
	}
	return nil
}

// CanViewItem resolves item visibility for a principal.
func (s *service) CanViewItem(ctx context.Context, p membership.Principal, itemID uuid.UUID) (bool, error) {
	if p.Librarian {
		return true, nil
	}

	var containing []Collection
	err := s.db.WithContext(ctx).
		Preload("AllowedUsers").
		Joins("JOIN collection_items ci ON ci.collection_id = collections.id").
		Where("ci.item_id = ? AND collections.private = ?", itemID, true).
		Find(&containing).Error
	if err != nil {
		return false, fmt.Errorf("query private memberships: %w", err)
	}
	return CanViewItem(p, containing), nil
}

// FilterVisibleItems drops items hidden from the principal. One pass
// over all private membership edges instead of a query per item.
func (s *service) FilterVisibleItems(ctx context.Context, p membership.Principal, items []catalog.Item) ([]catalog.Item, error) {
	if p.Librarian || len(items) == 0 {
		return items, nil
	}

	var edges []struct {
		CollectionID uuid.UUID
		ItemID       uuid.UUID
	}
	err := s.db.WithContext(ctx).
		Table("collection_items").
		Select("collection_items.collection_id, collection_items.item_id").
		Joins("JOIN collections c ON c.id = collection_items.collection_id").
		Where("c.private = ?", true).
		Scan(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("query private memberships: %w", err)
	}
	if len(edges) == 0 {
		return items, nil
	}

	collIDs := make([]uuid.UUID, 0, len(edges))
	seen := make(map[uuid.UUID]bool)
	for _, e := range edges {
		if !seen[e.CollectionID] {
			seen[e.CollectionID] = true
			collIDs = append(collIDs, e.CollectionID)
		}
	}

	var private []Collection
	err = s.db.WithContext(ctx).Preload("AllowedUsers").Find(&private, "id IN ?", collIDs).Error
	if err != nil {
		return nil, fmt.Errorf("load private collections: %w", err)
	}
	byID := make(map[uuid.UUID]*Collection, len(private))
	for i := range private {
		byID[private[i].ID] = &private[i]
	}

	hiddenIn := make(map[uuid.UUID][]Collection)
	for _, e := range edges {
		if c := byID[e.CollectionID]; c != nil {
			hiddenIn[e.ItemID] = append(hiddenIn[e.ItemID], *c)
		}
	}

	visible := make([]catalog.Item, 0, len(items))
	for _, item := range items {
		if CanViewItem(p, hiddenIn[item.ID]) {
			visible = append(visible, item)
		}
	}
	return visible, nil
}
