// internal/messages/service.go
package messages

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the messages service. It doubles
// as the Notifier implementation handed to other components.
type Service interface {
	Notifier

	ListForRecipient(ctx context.Context, recipientID uuid.UUID) ([]Message, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, recipientID, messageID uuid.UUID) error
}
