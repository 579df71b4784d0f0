package store

import (
	"context"
	"testing"
	"time"

	"go-storefront/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuestCartStore(t *testing.T) {
	s := NewMemoryGuestCartStore(time.Hour)
	ctx := context.Background()

	empty, err := s.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "h1", empty.Handle)
	assert.Empty(t, empty.Items)

	cart := &models.GuestCart{Handle: "h1"}
	cart.Add(models.ProductSnapshot{ID: "p1", Name: "Mug", Price: 3}, 2)
	require.NoError(t, s.Save(ctx, cart))

	cart.Add(models.ProductSnapshot{ID: "p2", Name: "Lamp", Price: 10}, 1)
	stored, err := s.Get(ctx, "h1")
	require.NoError(t, err)
	require.Len(t, stored.Items, 1, "saved carts are copied")
	assert.Equal(t, 2, stored.Items[0].Quantity)

	other, err := s.Get(ctx, "h2")
	require.NoError(t, err)
	assert.Empty(t, other.Items)

	require.NoError(t, s.Delete(ctx, "h1"))
	stored, err = s.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
}

func TestMemoryGuestCartStore_Expiry(t *testing.T) {
	s := NewMemoryGuestCartStore(time.Hour)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	for _, h := range []string{"old-1", "old-2"} {
		cart := &models.GuestCart{Handle: h}
		cart.Add(models.ProductSnapshot{ID: "p1", Name: "Mug", Price: 3}, 1)
		require.NoError(t, s.Save(ctx, cart))
	}

	clock = clock.Add(30 * time.Minute)
	kept, err := s.Get(ctx, "old-1")
	require.NoError(t, err)
	assert.Len(t, kept.Items, 1)

	clock = clock.Add(31 * time.Minute)
	gone, err := s.Get(ctx, "old-1")
	require.NoError(t, err)
	assert.Empty(t, gone.Items)

	require.NoError(t, s.Save(ctx, &models.GuestCart{Handle: "fresh"}))
	assert.Equal(t, 1, s.Len(), "expired carts are swept")
}
