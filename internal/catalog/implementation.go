// internal/catalog/implementation.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"campuslend/internal/storage"
)

// service implements the Service interface.
type service struct {
	db     *gorm.DB
	tracer trace.Tracer
}

// NewService creates a new catalog service instance.
func NewService(db *gorm.DB) Service {
	return &service{
		db:     db,
		tracer: otel.Tracer("campuslend/catalog"),
	}
}

// GetForUpdateTx loads an item under a row-level lock inside the given
// transaction. Callers that check availability or membership before
// writing must hold this lock.
func GetForUpdateTx(tx *gorm.DB, id uuid.UUID) (*Item, error) {
	var item Item
	if err := storage.ForUpdate(tx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("lock item: %w", err)
	}
	return &item, nil
}

// AdjustQuantityTx applies a quantity delta inside the given
// transaction, failing if the result would go negative.
func AdjustQuantityTx(tx *gorm.DB, id uuid.UUID, delta int) (*Item, error) {
	item, err := GetForUpdateTx(tx, id)
	if err != nil {
		return nil, err
	}

	next := item.Quantity + delta
	if next < 0 {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientQuantity, item.Quantity, -delta)
	}

	if err := tx.Model(item).Update("quantity", next).Error; err != nil {
		return nil, fmt.Errorf("update quantity: %w", err)
	}
	item.Quantity = next
	return item, nil
}

// CreateItem adds a new item to the catalog.
func (s *service) CreateItem(ctx context.Context, params CreateItemParams) (*Item, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	item := &Item{
		ID:           uuid.New(),
		Name:         params.Name,
		Kind:         params.Kind,
		Category:     params.Category,
		Quantity:     params.Quantity,
		Location:     params.Location,
		Instructions: params.Instructions,
		Condition:    params.Condition,
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

// GetItem retrieves an item with its photos.
func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	var item Item
	err := s.db.WithContext(ctx).Preload("Photos").First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// ListItems returns items, optionally filtered by category.
func (s *service) ListItems(ctx context.Context, category Category) ([]Item, error) {
	q := s.db.WithContext(ctx).Order("name")
	if category != "" {
		if !category.Valid() {
			return nil, errors.Join(ErrInvalidItem, errors.New("unknown category"))
		}
		q = q.Where("category = ?", category)
	}

	var items []Item
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// UpdateItem replaces an item's descriptive attributes. Quantity is
// deliberately excluded; it only moves through AdjustQuantity.
func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, params CreateItemParams) (*Item, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Name = params.Name
	item.Kind = params.Kind
	item.Category = params.Category
	item.Location = params.Location
	item.Instructions = params.Instructions
	item.Condition = params.Condition

	err = s.db.WithContext(ctx).Model(item).Updates(map[string]any{
		"name":         item.Name,
		"kind":         item.Kind,
		"category":     item.Category,
		"location":     item.Location,
		"instructions": item.Instructions,
		"condition":    item.Condition,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return item, nil
}

// DeleteItem removes an item and all its dependent rows.
func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "catalog.delete_item",
		trace.WithAttributes(attribute.String("item.id", id.String())),
	)
	defer span.End()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := GetForUpdateTx(tx, id); err != nil {
			return err
		}
		for _, stmt := range []string{
			"DELETE FROM reviews WHERE item_id = ?",
			"DELETE FROM loans WHERE item_id = ?",
			"DELETE FROM collection_items WHERE item_id = ?",
			"DELETE FROM item_photos WHERE item_id = ?",
		} {
			if err := tx.Exec(stmt, id).Error; err != nil {
				return fmt.Errorf("cascade delete: %w", err)
			}
		}
		if err := tx.Delete(&Item{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
}

// AdjustQuantity applies a quantity delta in its own transaction.
func (s *service) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*Item, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.adjust_quantity",
		trace.WithAttributes(
			attribute.String("item.id", id.String()),
			attribute.Int("quantity.delta", delta),
		),
	)
	defer span.End()

	var item *Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = AdjustQuantityTx(tx, id, delta)
		return err
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("quantity.result", item.Quantity))
	return item, nil
}

// AddPhoto attaches a photo reference to an item.
func (s *service) AddPhoto(ctx context.Context, itemID uuid.UUID, blobRef, caption string) (*Photo, error) {
	if blobRef == "" {
		return nil, errors.Join(ErrInvalidItem, errors.New("blob_ref is required"))
	}
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}

	photo := &Photo{
		ID:      uuid.New(),
		ItemID:  itemID,
		BlobRef: blobRef,
		Caption: caption,
	}
	if err := s.db.WithContext(ctx).Create(photo).Error; err != nil {
		return nil, fmt.Errorf("add photo: %w", err)
	}
	return photo, nil
}

// ListPhotos returns an item's photo references.
func (s *service) ListPhotos(ctx context.Context, itemID uuid.UUID) ([]Photo, error) {
	var photos []Photo
	err := s.db.WithContext(ctx).Where("item_id = ?", itemID).Order("created_at").Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return photos, nil
}
