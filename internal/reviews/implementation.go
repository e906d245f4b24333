// internal/reviews/implementation.go
package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"campuslend/internal/circulation"
	"campuslend/internal/membership"
)

// service implements the Service interface.
type service struct {
	db *gorm.DB
}

// NewService creates a new reviews service instance.
func NewService(db *gorm.DB) Service {
	return &service{db: db}
}

// Create stores a review. The reviewer must have a loan record for the
// item; the unique index enforces one review per (item, reviewer).
func (s *service) Create(ctx context.Context, reviewerID, itemID uuid.UUID, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var n int64
	err := s.db.WithContext(ctx).Model(&circulation.Loan{}).
		Where("patron_id = ? AND item_id = ?", reviewerID, itemID).
		Count(&n).Error
	if err != nil {
		return nil, fmt.Errorf("check loan history: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: no loan history for this item", ErrPermissionDenied)
	}

	review := &Review{
		ID:         uuid.New(),
		ItemID:     itemID,
		ReviewerID: reviewerID,
		Rating:     rating,
		Comment:    comment,
	}
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: one review per item", ErrAlreadyExists)
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	return review, nil
}

// Update changes the reviewer's own review.
func (s *service) Update(ctx context.Context, reviewerID, reviewID uuid.UUID, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var review Review
	if err := s.db.WithContext(ctx).First(&review, "id = ?", reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, reviewID)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review.ReviewerID != reviewerID {
		return nil, fmt.Errorf("%w: not your review", ErrPermissionDenied)
	}

	review.Rating = rating
	review.Comment = comment
	err := s.db.WithContext(ctx).Model(&review).
		Updates(map[string]any{"rating": rating, "comment": comment}).Error
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	return &review, nil
}

// Delete removes a review; the reviewer or a librarian may do so.
func (s *service) Delete(ctx context.Context, p membership.Principal, reviewID uuid.UUID) error {
	var review Review
	if err := s.db.WithContext(ctx).First(&review, "id = ?", reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, reviewID)
		}
		return fmt.Errorf("get review: %w", err)
	}
	if !p.Librarian && p.PatronID != review.ReviewerID {
		return fmt.Errorf("%w: not your review", ErrPermissionDenied)
	}

	if err := s.db.WithContext(ctx).Delete(&review).Error; err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

// ListForItem returns an item's reviews, newest first.
func (s *service) ListForItem(ctx context.Context, itemID uuid.UUID) ([]Review, error) {
	var revs []Review
	err := s.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Find(&revs).Error
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return revs, nil
}
