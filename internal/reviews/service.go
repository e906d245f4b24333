// internal/reviews/service.go
package reviews

import (
	"context"

	"github.com/google/uuid"

	"campuslend/internal/membership"
)

// Service defines the interface for the reviews service.
type Service interface {
	Create(ctx context.Context, reviewerID, itemID uuid.UUID, rating int, comment string) (*Review, error)
	Update(ctx context.Context, reviewerID, reviewID uuid.UUID, rating int, comment string) (*Review, error)
	Delete(ctx context.Context, p membership.Principal, reviewID uuid.UUID) error
	ListForItem(ctx context.Context, itemID uuid.UUID) ([]Review, error)
}
