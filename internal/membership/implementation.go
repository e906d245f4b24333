// internal/membership/implementation.go
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// service implements the Service interface.
type service struct {
	db          *gorm.DB
	authLimiter *rate.Limiter
}

// NewService creates a new membership service instance.
func NewService(db *gorm.DB) Service {
	return &service{
		db:          db,
		authLimiter: rate.NewLimiter(rate.Every(time.Second), 10),
	}
}

// ResolvePrincipal looks up a patron by auth subject, creating one on
// first login.
func (s *service) ResolvePrincipal(ctx context.Context, subject, name, email string) (*Patron, error) {
	var patron Patron
	err := s.db.WithContext(ctx).First(&patron, "subject = ?", subject).Error
	if err == nil {
		return &patron, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup patron: %w", err)
	}

	patron = Patron{
		ID:       uuid.New(),
		Subject:  subject,
		Name:     name,
		Email:    email,
		JoinedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&patron).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a first-login race; the other request created the row.
			if err := s.db.WithContext(ctx).First(&patron, "subject = ?", subject).Error; err != nil {
				return nil, fmt.Errorf("lookup patron after race: %w", err)
			}
			return &patron, nil
		}
		return nil, fmt.Errorf("create patron: %w", err)
	}
	return &patron, nil
}

// Register creates a patron with local credentials.
func (s *service) Register(ctx context.Context, email, name, password string) (*Patron, error) {
	if !s.authLimiter.Allow() {
		return nil, ErrRateLimited
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	patron := Patron{
		ID:       uuid.New(),
		Subject:  "local:" + email,
		Name:     name,
		Email:    email,
		JoinedAt: time.Now(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&patron).Error; err != nil {
			return err
		}
		return tx.Create(&Credential{PatronID: patron.ID, PasswordHash: hash}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, email)
		}
		return nil, fmt.Errorf("register patron: %w", err)
	}
	return &patron, nil
}

// Authenticate verifies local credentials and returns the patron.
func (s *service) Authenticate(ctx context.Context, email, password string) (*Patron, error) {
	if !s.authLimiter.Allow() {
		return nil, ErrRateLimited
	}

	var patron Patron
	if err := s.db.WithContext(ctx).First(&patron, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup patron: %w", err)
	}

	var cred Credential
	if err := s.db.WithContext(ctx).First(&cred, "patron_id = ?", patron.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup credential: %w", err)
	}

	ok, err := verifyPassword(password, cred.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return &patron, nil
}

// GetPatron retrieves a patron by ID.
func (s *service) GetPatron(ctx context.Context, id uuid.UUID) (*Patron, error) {
	var patron Patron
	if err := s.db.WithContext(ctx).First(&patron, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get patron: %w", err)
	}
	return &patron, nil
}

// UpdateProfile changes a patron's display name, email or photo.
func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, name, email, photoRef string) (*Patron, error) {
	patron, err := s.GetPatron(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		patron.Name = name
	}
	if email != "" {
		patron.Email = email
	}
	if photoRef != "" {
		patron.PhotoRef = photoRef
	}
	if err := s.db.WithContext(ctx).Save(patron).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, email)
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return patron, nil
}

// Promote toggles the librarian role on.
func (s *service) Promote(ctx context.Context, id uuid.UUID, canAddItems bool) error {
	return s.setRole(ctx, id, true, canAddItems)
}

// Demote toggles the librarian role off.
func (s *service) Demote(ctx context.Context, id uuid.UUID) error {
	return s.setRole(ctx, id, false, false)
}

func (s *service) setRole(ctx context.Context, id uuid.UUID, librarian, canAddItems bool) error {
	res := s.db.WithContext(ctx).Model(&Patron{}).
		Where("id = ?", id).
		Updates(map[string]any{"librarian": librarian, "can_add_items": canAddItems})
	if res.Error != nil {
		return fmt.Errorf("update role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
