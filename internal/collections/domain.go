// internal/collections/domain.go
package collections

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"campuslend/internal/catalog"
	"campuslend/internal/membership"
)

var (
	ErrNotFound          = errors.New("collection not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidCollection = errors.New("invalid collection")

	// ErrPrivateCollectionConflict: an item joining a private collection
	// must not belong to any other collection.
	ErrPrivateCollectionConflict = errors.New("item already belongs to another collection")

	// ErrPublicPrivateConflict: an item held by a private collection may
	// not be added to a public one.
	ErrPublicPrivateConflict = errors.New("item belongs to a private collection")
)

// Collection is a named grouping of items. Private collections restrict
// visibility to the creator, librarians and the allow-list.
type Collection struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string              `gorm:"size:200" json:"title"`
	Description  string              `gorm:"size:500" json:"description"`
	Private      bool                `json:"private"`
	CreatorID    uuid.UUID           `gorm:"type:uuid;index" json:"creator_id"`
	Items        []catalog.Item      `gorm:"many2many:collection_items" json:"items,omitempty"`
	AllowedUsers []membership.Patron `gorm:"many2many:collection_allowed_users" json:"allowed_users,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func (Collection) TableName() string {
	return "collections"
}

// CreateCollectionParams carries input for a new collection. Allowed
// users are always explicit; nothing is granted implicitly on creation.
type CreateCollectionParams struct {
	Title          string
	Description    string
	Private        bool
	CreatorID      uuid.UUID
	AllowedUserIDs []uuid.UUID
	ItemIDs        []uuid.UUID
}

// CheckPlacement decides whether an item may be added to target, given
// the other collections that currently contain it. This is the
// disjointness rule: private collections never share items with any
// other collection.
func CheckPlacement(target *Collection, containing []Collection) error {
	if target.Private {
		if len(containing) > 0 {
			return ErrPrivateCollectionConflict
		}
		return nil
	}
	for _, c := range containing {
		if c.Private {
			return ErrPublicPrivateConflict
		}
	}
	return nil
}

// CanViewCollection is the access rule of the resolver. It is a pure
// predicate; AllowedUsers must be loaded on private collections.
func CanViewCollection(p membership.Principal, c *Collection) bool {
	if !c.Private {
		return true
	}
	if p.Anonymous {
		return false
	}
	if p.Librarian {
		return true
	}
	if p.PatronID == c.CreatorID {
		return true
	}
	for _, u := range c.AllowedUsers {
		if u.ID == p.PatronID {
			return true
		}
	}
	return false
}

// CanViewItem decides item visibility from the private collections that
// contain it. An item in no private collection is visible to everyone.
func CanViewItem(p membership.Principal, privateContaining []Collection) bool {
	if len(privateContaining) == 0 {
		return true
	}
	for i := range privateContaining {
		if CanViewCollection(p, &privateContaining[i]) {
			return true
		}
	}
	return false
}
