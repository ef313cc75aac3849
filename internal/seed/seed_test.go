package seed

import (
	"testing"

	"github.com/example/ec-storefront/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducts(t *testing.T) {
	products := Products()

	require.NotEmpty(t, products)
	seen := make(map[string]bool)
	for _, p := range products {
		assert.NoError(t, p.Validate(), p.ID)
		assert.True(t, p.Price.IsPositive(), p.ID)
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
		assert.Zero(t, p.PurchaseCount)
	}
}

func TestProducts_ReturnsCopies(t *testing.T) {
	first := Products()
	first[0].Name = "changed"

	assert.NotEqual(t, "changed", Products()[0].Name)
}

func TestUsers_HasAdmin(t *testing.T) {
	users := Users()

	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, user.RoleAdmin, users[0].Role)
	assert.NoError(t, users[0].Validate())
}
