// internal/membership/domain.go
package membership

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("patron not found")
	ErrAlreadyExists      = errors.New("patron already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("too many attempts")
)

// Patron is a principal who can browse, request and borrow equipment.
// A librarian is a patron with elevated flags; promotion never replaces
// the row, so loans and reviews keep their owner.
type Patron struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Subject     string    `gorm:"uniqueIndex;size:200" json:"-"`
	Name        string    `gorm:"size:200" json:"name"`
	Email       string    `gorm:"uniqueIndex;size:200" json:"email"`
	PhotoRef    string    `gorm:"size:500" json:"photo_ref,omitempty"`
	Librarian   bool      `json:"librarian"`
	CanAddItems bool      `json:"can_add_items"`
	JoinedAt    time.Time `json:"joined_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Patron) TableName() string {
	return "patrons"
}

// Credential holds a patron's local login secret as an encoded
// argon2id hash.
type Credential struct {
	PatronID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	PasswordHash string    `gorm:"size:300" json:"-"`
	CreatedAt    time.Time `json:"-"`
}

func (Credential) TableName() string {
	return "credentials"
}

// Principal identifies the caller of an operation.
type Principal struct {
	PatronID    uuid.UUID
	Librarian   bool
	CanAddItems bool
	Anonymous   bool
}

// AnonymousPrincipal is the principal for unauthenticated requests.
var AnonymousPrincipal = Principal{Anonymous: true}

// PrincipalFor builds the principal acting as the given patron.
func PrincipalFor(p *Patron) Principal {
	return Principal{PatronID: p.ID, Librarian: p.Librarian, CanAddItems: p.CanAddItems}
}
