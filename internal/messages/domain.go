// internal/messages/domain.go
package messages

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("message not found")

// Message is an in-app notification. Delivery beyond the inbox (email,
// push) is someone else's problem; we only persist and serve.
type Message struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID `gorm:"type:uuid;index" json:"recipient_id"`
	Subject     string    `gorm:"size:200" json:"subject"`
	Body        string    `gorm:"size:2000" json:"body"`
	Link        string    `gorm:"size:500" json:"link,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

// Notifier is the notification port consumed by the approval workflow.
type Notifier interface {
	Notify(ctx context.Context, recipient uuid.UUID, subject, body, link string) error
}
