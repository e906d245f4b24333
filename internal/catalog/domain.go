// internal/catalog/domain.go
package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound             = errors.New("item not found")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrInvalidItem          = errors.New("invalid item")
)

// Kind distinguishes fungible consumables from individually tracked
// equipment. A complex item is borrowed one whole unit at a time.
type Kind string

const (
	KindSimple  Kind = "simple"
	KindComplex Kind = "complex"
)

func (k Kind) Valid() bool {
	return k == KindSimple || k == KindComplex
}

// Category enumerates the equipment categories.
type Category string

const (
	CategoryBallsFrisbees Category = "balls_frisbees"
	CategorySticksRackets Category = "sticks_rackets"
	CategoryNetsGoals     Category = "nets_goals"
	CategoryOther         Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryBallsFrisbees, CategorySticksRackets, CategoryNetsGoals, CategoryOther:
		return true
	}
	return false
}

// Item is a lendable thing. Condition is only meaningful for complex
// items.
type Item struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:200" json:"name"`
	Kind         Kind      `gorm:"size:20" json:"kind"`
	Category     Category  `gorm:"size:40;index" json:"category"`
	Quantity     int       `json:"quantity"`
	Location     string    `gorm:"size:200" json:"location"`
	Instructions string    `gorm:"size:500" json:"instructions"`
	Condition    string    `gorm:"size:200" json:"condition,omitempty"`
	Photos       []Photo   `json:"photos,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Item) TableName() string {
	return "items"
}

// Photo is an opaque reference to an uploaded image; blob storage is
// external.
type Photo struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID    uuid.UUID `gorm:"type:uuid;index" json:"item_id"`
	BlobRef   string    `gorm:"size:500" json:"blob_ref"`
	Caption   string    `gorm:"size:200" json:"caption,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Photo) TableName() string {
	return "item_photos"
}

// CreateItemParams carries librarian input for a new item.
type CreateItemParams struct {
	Name         string   `json:"name"`
	Kind         Kind     `json:"kind"`
	Category     Category `json:"category"`
	Quantity     int      `json:"quantity"`
	Location     string   `json:"location"`
	Instructions string   `json:"instructions"`
	Condition    string   `json:"condition"`
}

func (p CreateItemParams) validate() error {
	if p.Name == "" {
		return errors.Join(ErrInvalidItem, errors.New("name is required"))
	}
	if !p.Kind.Valid() {
		return errors.Join(ErrInvalidItem, errors.New("unknown kind"))
	}
	if !p.Category.Valid() {
		return errors.Join(ErrInvalidItem, errors.New("unknown category"))
	}
	if p.Quantity < 0 {
		return errors.Join(ErrInvalidItem, errors.New("quantity must not be negative"))
	}
	if p.Kind == KindSimple && p.Condition != "" {
		return errors.Join(ErrInvalidItem, errors.New("condition applies to complex items only"))
	}
	return nil
}
