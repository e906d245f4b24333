// internal/messages/implementation.go
package messages

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// service implements the Service interface.
type service struct {
	db *gorm.DB
}

// NewService creates a new messages service instance.
func NewService(db *gorm.DB) Service {
	return &service{db: db}
}

// Notify stores an in-app message for the recipient.
func (s *service) Notify(ctx context.Context, recipient uuid.UUID, subject, body, link string) error {
	msg := &Message{
		ID:          uuid.New(),
		RecipientID: recipient,
		Subject:     subject,
		Body:        body,
		Link:        link,
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("store message: %w", err)
	}
	return nil
}

// ListForRecipient returns a patron's messages, newest first.
func (s *service) ListForRecipient(ctx context.Context, recipientID uuid.UUID) ([]Message, error) {
	var msgs []Message
	err := s.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// UnreadCount returns the number of unread messages.
func (s *service) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Message{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// MarkRead marks one of the recipient's own messages as read.
func (s *service) MarkRead(ctx context.Context, recipientID, messageID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&Message{}).
		Where("id = ? AND recipient_id = ?", messageID, recipientID).
		Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("mark read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, messageID)
	}
	return nil
}
