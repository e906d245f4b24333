// internal/collections/domain_test.go
package collections

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"campuslend/internal/membership"
)

func TestCheckPlacement(t *testing.T) {
	private := &Collection{ID: uuid.New(), Private: true}
	public := &Collection{ID: uuid.New()}

	t.Run("private target rejects any other membership", func(t *testing.T) {
		err := CheckPlacement(private, []Collection{{ID: uuid.New()}})
		assert.ErrorIs(t, err, ErrPrivateCollectionConflict)

		err = CheckPlacement(private, []Collection{{ID: uuid.New(), Private: true}})
		assert.ErrorIs(t, err, ErrPrivateCollectionConflict)
	})

	t.Run("private target accepts an unattached item", func(t *testing.T) {
		assert.NoError(t, CheckPlacement(private, nil))
	})

	t.Run("public target rejects privately held items", func(t *testing.T) {
		err := CheckPlacement(public, []Collection{{ID: uuid.New(), Private: true}})
		assert.ErrorIs(t, err, ErrPublicPrivateConflict)
	})

	t.Run("public collections share freely", func(t *testing.T) {
		assert.NoError(t, CheckPlacement(public, []Collection{{ID: uuid.New()}, {ID: uuid.New()}}))
	})
}

func TestCanViewCollection(t *testing.T) {
	creator := uuid.New()
	allowed := uuid.New()
	stranger := uuid.New()

	private := &Collection{
		ID:           uuid.New(),
		Private:      true,
		CreatorID:    creator,
		AllowedUsers: []membership.Patron{{ID: allowed}},
	}

	assert.True(t, CanViewCollection(membership.AnonymousPrincipal, &Collection{}),
		"public collections are visible to everyone")
	assert.False(t, CanViewCollection(membership.AnonymousPrincipal, private))
	assert.True(t, CanViewCollection(membership.Principal{PatronID: uuid.New(), Librarian: true}, private))
	assert.True(t, CanViewCollection(membership.Principal{PatronID: creator}, private))
	assert.True(t, CanViewCollection(membership.Principal{PatronID: allowed}, private))
	assert.False(t, CanViewCollection(membership.Principal{PatronID: stranger}, private))
}

func TestCanViewItem(t *testing.T) {
	allowed := uuid.New()
	private := Collection{
		ID:           uuid.New(),
		Private:      true,
		CreatorID:    uuid.New(),
		AllowedUsers: []membership.Patron{{ID: allowed}},
	}

	assert.True(t, CanViewItem(membership.AnonymousPrincipal, nil),
		"items outside private collections are visible to everyone")
	assert.True(t, CanViewItem(membership.Principal{PatronID: allowed}, []Collection{private}))
	assert.False(t, CanViewItem(membership.Principal{PatronID: uuid.New()}, []Collection{private}))
	assert.False(t, CanViewItem(membership.AnonymousPrincipal, []Collection{private}))
}
