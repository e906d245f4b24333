// internal/reviews/domain.go
package reviews

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("review not found")
	ErrAlreadyExists    = errors.New("review already exists")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
)

// Review is one rating+comment per (item, reviewer) pair. Only patrons
// with a loan record for the item, open or historical, may review it.
type Review struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_reviews_item_reviewer" json:"item_id"`
	ReviewerID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_reviews_item_reviewer" json:"reviewer_id"`
	Rating     int       `json:"rating"`
	Comment    string    `gorm:"size:2000" json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}
