package services

import (
	"context"
	"math"
	"testing"
	"time"

	"go-storefront/events"
	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type cartFixture struct {
	svc      *CartService
	carts    *storetest.Carts
	guests   *store.MemoryGuestCartStore
	products *storetest.Products
	events   *events.Recorder
	user     models.CartOwner
}

func newCartFixture() *cartFixture {
	f := &cartFixture{
		carts:    storetest.NewCarts(),
		guests:   store.NewMemoryGuestCartStore(time.Hour),
		products: storetest.NewProducts(),
		events:   &events.Recorder{},
		user:     models.UserOwner(primitive.NewObjectID()),
	}
	f.svc = NewCartService(f.carts, f.guests, f.products, f.events, zap.NewNop())
	return f
}

func quantities(v models.CartView) map[string]int {
	out := map[string]int{}
	for _, l := range v.Items {
		out[l.Product.ID] = l.Quantity
	}
	return out
}

func TestCartService_AddAccumulates(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	p := f.products.Add("Mug", 4.5)

	_, err := f.svc.Add(ctx, f.user, p.ID, 0)
	require.NoError(t, err)
	view, err := f.svc.Add(ctx, f.user, p.ID, 2)
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.InDelta(t, 13.5, view.Total, 1e-9)
	assert.Equal(t, 3, view.Count)
	assert.False(t, view.Guest)

	_, err = f.svc.Add(ctx, f.user, p.ID, -1)
	require.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.Add(ctx, f.user, primitive.NewObjectID(), 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_QuantityCap(t *testing.T) {
	tests := []struct {
		name  string
		owner models.CartOwner
	}{
		{name: "user", owner: models.UserOwner(primitive.NewObjectID())},
		{name: "guest", owner: models.GuestOwner("handle-1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCartFixture()
			ctx := context.Background()
			p := f.products.Add("Mug", 4.5)

			_, err := f.svc.Add(ctx, tt.owner, p.ID, math.MaxInt)
			require.ErrorIs(t, err, ErrValidation)

			_, err = f.svc.Add(ctx, tt.owner, p.ID, models.MaxQuantity)
			require.NoError(t, err)
			_, err = f.svc.Add(ctx, tt.owner, p.ID, 1)
			require.ErrorIs(t, err, ErrValidation)

			_, err = f.svc.SetQuantity(ctx, tt.owner, p.ID, models.MaxQuantity+1)
			require.ErrorIs(t, err, ErrValidation)

			view, err := f.svc.Get(ctx, tt.owner)
			require.NoError(t, err)
			require.Len(t, view.Items, 1)
			assert.Equal(t, models.MaxQuantity, view.Items[0].Quantity)
			assert.Greater(t, view.Total, 0.0)
		})
	}
}

func TestCartService_MergeQuantityCap(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	a := f.products.Add("A", 1)

	_, err := f.svc.Merge(ctx, f.user, []MergeItem{{ProductID: a.ID.Hex(), Quantity: math.MaxInt}})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Add(ctx, f.user, a.ID, models.MaxQuantity)
	require.NoError(t, err)
	view, err := f.svc.Merge(ctx, f.user, []MergeItem{{ProductID: a.ID.Hex(), Quantity: 5}})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{a.ID.Hex(): models.MaxQuantity}, quantities(view))
}

func TestCartService_SetQuantityBelowOneRemoves(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	a := f.products.Add("A", 1)
	b := f.products.Add("B", 2)

	_, err := f.svc.Add(ctx, f.user, a.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, f.user, b.ID, 2)
	require.NoError(t, err)

	view, err := f.svc.SetQuantity(ctx, f.user, a.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{b.ID.Hex(): 2}, quantities(view))

	view, err = f.svc.SetQuantity(ctx, f.user, b.ID, -1)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = f.svc.SetQuantity(ctx, f.user, a.ID, 0)
	require.NoError(t, err)
	_, err = f.svc.SetQuantity(ctx, f.user, a.ID, 3)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_DeletedProductDroppedFromView(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	a := f.products.Add("A", 1)
	b := f.products.Add("B", 2)

	_, err := f.svc.Add(ctx, f.user, a.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, f.user, b.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.products.Delete(ctx, a.ID))

	view, err := f.svc.Get(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{b.ID.Hex(): 1}, quantities(view))
	assert.InDelta(t, 2.0, view.Total, 1e-9)

	stored, err := f.carts.FindByUser(ctx, f.user.UserID())
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
}

func TestCartService_MergeIsNotIdempotent(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	a := f.products.Add("A", 1)
	b := f.products.Add("B", 2)
	items := []MergeItem{{ProductID: a.ID.Hex(), Quantity: 2}, {ProductID: b.ID.Hex(), Quantity: 1}}

	view, err := f.svc.Merge(ctx, f.user, items)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{a.ID.Hex(): 2, b.ID.Hex(): 1}, quantities(view))

	view, err = f.svc.Merge(ctx, f.user, items)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{a.ID.Hex(): 4, b.ID.Hex(): 2}, quantities(view))
	assert.Equal(t, []string{events.CartMerged, events.CartMerged}, f.events.Types())
}

func TestCartService_ClearThenMergeStartsOver(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	a := f.products.Add("A", 1)
	items := []MergeItem{{ProductID: a.ID.Hex(), Quantity: 2}}

	_, err := f.svc.Merge(ctx, f.user, items)
	require.NoError(t, err)
	require.NoError(t, f.svc.Clear(ctx, f.user))

	view, err := f.svc.Merge(ctx, f.user, items)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{a.ID.Hex(): 2}, quantities(view))
}

func TestCartService_MergeSkipsUnusableItems(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	a := f.products.Add("A", 1)

	view, err := f.svc.Merge(ctx, f.user, []MergeItem{
		{ProductID: "not-an-id", Quantity: 1},
		{ProductID: primitive.NewObjectID().Hex(), Quantity: 1},
		{ProductID: a.ID.Hex(), Quantity: 0},
		{ProductID: a.ID.Hex(), Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{a.ID.Hex(): 3}, quantities(view))
}

func TestCartService_MergeRequiresUser(t *testing.T) {
	f := newCartFixture()
	_, err := f.svc.Merge(context.Background(), models.GuestOwner("h"), nil)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestCartService_GuestCartKeepsSnapshots(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	guest := models.GuestOwner("handle-1")
	p := f.products.Add("Mug", 3)

	view, err := f.svc.Add(ctx, guest, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, view.Guest)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Mug", view.Items[0].Product.Name)

	require.NoError(t, f.products.Delete(ctx, p.ID))
	view, err = f.svc.Get(ctx, guest)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	view, err = f.svc.Remove(ctx, guest, p.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartService_MergeGuestDiscardsGuestCart(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	guest := models.GuestOwner("handle-1")
	a := f.products.Add("A", 1)

	_, err := f.svc.Add(ctx, guest, a.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, f.user, a.ID, 1)
	require.NoError(t, err)

	view, err := f.svc.MergeGuest(ctx, guest, f.user)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{a.ID.Hex(): 3}, quantities(view))

	left, err := f.guests.Get(ctx, "handle-1")
	require.NoError(t, err)
	assert.Empty(t, left.Items)

	view, err = f.svc.MergeGuest(ctx, guest, f.user)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{a.ID.Hex(): 3}, quantities(view))
}
