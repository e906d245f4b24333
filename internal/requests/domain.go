// internal/requests/domain.go
package requests

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("request not found")

	// ErrRequestDecided guards the terminal states: an approved or
	// rejected request never transitions again.
	ErrRequestDecided = errors.New("request already decided")
)

// Status of a request. PENDING is the only state a decision can leave.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// BorrowRequest is a patron's ask to borrow quantity N of an item.
// Availability is not checked at submit time; quantity may change
// before a librarian gets to it.
type BorrowRequest struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PatronID  uuid.UUID  `gorm:"type:uuid;index" json:"patron_id"`
	ItemID    uuid.UUID  `gorm:"type:uuid;index" json:"item_id"`
	Quantity  int        `json:"quantity"`
	Status    Status     `gorm:"size:20;index" json:"status"`
	DecidedBy *uuid.UUID `gorm:"type:uuid" json:"decided_by,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (BorrowRequest) TableName() string {
	return "borrow_requests"
}

// CollectionRequest is a patron's ask for access to a private
// collection. Approval adds the patron to the allow-list, never to the
// item membership.
type CollectionRequest struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PatronID     uuid.UUID  `gorm:"type:uuid;index" json:"patron_id"`
	CollectionID uuid.UUID  `gorm:"type:uuid;index" json:"collection_id"`
	Status       Status     `gorm:"size:20;index" json:"status"`
	DecidedBy    *uuid.UUID `gorm:"type:uuid" json:"decided_by,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (CollectionRequest) TableName() string {
	return "collection_requests"
}
