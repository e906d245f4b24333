// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the catalog service.
type Service interface {
	CreateItem(ctx context.Context, params CreateItemParams) (*Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, category Category) ([]Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, params CreateItemParams) (*Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error

	// AdjustQuantity is the only sanctioned mutation path for inventory
	// counts; borrow and return route through it.
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*Item, error)

	AddPhoto(ctx context.Context, itemID uuid.UUID, blobRef, caption string) (*Photo, error)
	ListPhotos(ctx context.Context, itemID uuid.UUID) ([]Photo, error)
}
