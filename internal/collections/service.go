// internal/collections/service.go
package collections

import (
	"context"

	"github.com/google/uuid"

	"campuslend/internal/catalog"
	"campuslend/internal/membership"
)

// Service defines the interface for the collections service.
type Service interface {
	CreateCollection(ctx context.Context, params CreateCollectionParams) (*Collection, error)
	GetCollection(ctx context.Context, p membership.Principal, id uuid.UUID) (*Collection, error)
	ListVisible(ctx context.Context, p membership.Principal) ([]Collection, error)
	DeleteCollection(ctx context.Context, p membership.Principal, id uuid.UUID) error

	AddItem(ctx context.Context, collectionID, itemID uuid.UUID) error
	RemoveItem(ctx context.Context, collectionID, itemID uuid.UUID) error

	GrantAccess(ctx context.Context, collectionID, patronID uuid.UUID) error
	RevokeAccess(ctx context.Context, collectionID, patronID uuid.UUID) error

	CanViewItem(ctx context.Context, p membership.Principal, itemID uuid.UUID) (bool, error)
	FilterVisibleItems(ctx context.Context, p membership.Principal, items []catalog.Item) ([]catalog.Item, error)
}
