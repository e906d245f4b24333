// internal/membership/service.go
package membership

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the membership service.
type Service interface {
	// ResolvePrincipal maps an externally authenticated identity to a
	// patron, creating one on first login.
	ResolvePrincipal(ctx context.Context, subject, name, email string) (*Patron, error)

	Register(ctx context.Context, email, name, password string) (*Patron, error)
	Authenticate(ctx context.Context, email, password string) (*Patron, error)

	GetPatron(ctx context.Context, id uuid.UUID) (*Patron, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, email, photoRef string) (*Patron, error)

	// Promote layers the librarian role onto an existing patron;
	// Demote removes it. The patron row is never replaced.
	Promote(ctx context.Context, id uuid.UUID, canAddItems bool) error
	Demote(ctx context.Context, id uuid.UUID) error
}
