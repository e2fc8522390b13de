package memory

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
)

func setupStore(t *testing.T) (*Store, product.Product) {
	store := NewStore()
	p := store.PutProduct(product.Product{
		Name:  "Mug",
		Price: decimal.RequireFromString("10.00"),
	})
	return store, p
}

func TestStore_UpsertItem_InsertThenMerge(t *testing.T) {
	store, p := setupStore(t)
	ctx := context.Background()

	item, created, err := store.UpsertItem(ctx, "s1", p.ID, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, item.Quantity)

	merged, created, err := store.UpsertItem(ctx, "s1", p.ID, 3)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, item.ID, merged.ID)
	assert.Equal(t, 5, merged.Quantity)

	lines, err := store.ListLines(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Mug", lines[0].Name)
	assert.True(t, decimal.RequireFromString("50").Equal(lines[0].Subtotal()))
}

func TestStore_UpsertItem_UnknownProduct(t *testing.T) {
	store, _ := setupStore(t)

	_, _, err := store.UpsertItem(context.Background(), "s1", "missing", 1)
	assert.True(t, domain.IsNotFound(err))
}

func TestStore_ListLines_IsolatedBySessionAndOrdered(t *testing.T) {
	store, p1 := setupStore(t)
	p2 := store.PutProduct(product.Product{Name: "Apron", Price: decimal.RequireFromString("5.00")})
	ctx := context.Background()

	_, _, err := store.UpsertItem(ctx, "s1", p2.ID, 1)
	require.NoError(t, err)
	_, _, err = store.UpsertItem(ctx, "s1", p1.ID, 1)
	require.NoError(t, err)
	_, _, err = store.UpsertItem(ctx, "s2", p1.ID, 4)
	require.NoError(t, err)

	lines, err := store.ListLines(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, p2.ID, lines[0].ProductID)
	assert.Equal(t, p1.ID, lines[1].ProductID)

	other, err := store.ListLines(ctx, "s2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, 4, other[0].Quantity)
}

func TestStore_UpdateQuantity(t *testing.T) {
	store, p := setupStore(t)
	ctx := context.Background()

	item, _, err := store.UpsertItem(ctx, "s1", p.ID, 2)
	require.NoError(t, err)

	updated, err := store.UpdateQuantity(ctx, item.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)

	_, err = store.UpdateQuantity(ctx, "missing", 1)
	assert.True(t, domain.IsNotFound(err))
}

func TestStore_DeleteItem_Idempotent(t *testing.T) {
	store, p := setupStore(t)
	ctx := context.Background()

	item, _, err := store.UpsertItem(ctx, "s1", p.ID, 1)
	require.NoError(t, err)

	require.NoError(t, store.DeleteItem(ctx, item.ID))
	require.NoError(t, store.DeleteItem(ctx, item.ID))

	lines, err := store.ListLines(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestStore_ClearSession(t *testing.T) {
	store, p := setupStore(t)
	other := store.PutProduct(product.Product{Name: "Board", Price: decimal.RequireFromString("1.00")})
	ctx := context.Background()

	_, _, _ = store.UpsertItem(ctx, "s1", p.ID, 1)
	_, _, _ = store.UpsertItem(ctx, "s1", other.ID, 1)
	_, _, _ = store.UpsertItem(ctx, "s2", p.ID, 1)

	removed, err := store.ClearSession(ctx, "s1", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	lines, _ := store.ListLines(ctx, "s2")
	assert.Len(t, lines, 1)
}

func TestStore_ClearSession_KeepsItemsChangedAfterCutoff(t *testing.T) {
	store, p := setupStore(t)
	other := store.PutProduct(product.Product{Name: "Board", Price: decimal.RequireFromString("1.00")})
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cutoff := base.Add(time.Hour)

	store.now = func() time.Time { return base }
	_, _, err := store.UpsertItem(ctx, "s1", p.ID, 1)
	require.NoError(t, err)

	// Added after the janitor computed its cutoff
	store.now = func() time.Time { return cutoff.Add(time.Second) }
	fresh, _, err := store.UpsertItem(ctx, "s1", other.ID, 2)
	require.NoError(t, err)

	removed, err := store.ClearSession(ctx, "s1", cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	lines, err := store.ListLines(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, fresh.ID, lines[0].ItemID)
}

func TestStore_UpsertItem_QuantityLimit(t *testing.T) {
	store, p := setupStore(t)
	ctx := context.Background()

	_, _, err := store.UpsertItem(ctx, "s1", p.ID, 1)
	require.NoError(t, err)

	_, _, err = store.UpsertItem(ctx, "s1", p.ID, math.MaxInt)
	assert.ErrorIs(t, err, cart.ErrQuantityLimit)

	_, _, err = store.UpsertItem(ctx, "s2", p.ID, cart.MaxQuantity+1)
	assert.ErrorIs(t, err, cart.ErrQuantityLimit)

	lines, err := store.ListLines(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestStore_WithinTransaction_RollsBackOnError(t *testing.T) {
	store, p := setupStore(t)
	ctx := context.Background()

	item, _, err := store.UpsertItem(ctx, "s1", p.ID, 1)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithinTransaction(ctx, func(tx order.Tx) error {
		require.NoError(t, tx.CreateOrder(ctx, &order.Order{CustomerName: "Jane"}))
		require.NoError(t, tx.DeleteItems(ctx, []string{item.ID}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 0, store.CountOrders())
	lines, err := store.ListLines(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestStore_WithinTransaction_Commits(t *testing.T) {
	store, p := setupStore(t)
	ctx := context.Background()

	item, _, err := store.UpsertItem(ctx, "s1", p.ID, 1)
	require.NoError(t, err)

	o := &order.Order{
		CustomerName: "Jane",
		Items:        []order.LineItem{{ProductID: p.ID, Name: "Mug", Quantity: 1}},
	}
	err = store.WithinTransaction(ctx, func(tx order.Tx) error {
		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}
		return tx.DeleteItems(ctx, []string{item.ID})
	})
	require.NoError(t, err)
	require.NotEmpty(t, o.ID)

	stored, err := store.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", stored.CustomerName)

	// Returned orders are copies
	stored.Items[0].Name = "changed"
	again, err := store.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mug", again.Items[0].Name)
}

func TestStore_GetOrder_NotFound(t *testing.T) {
	store, _ := setupStore(t)

	_, err := store.GetOrder(context.Background(), "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestStore_SeedCatalog_OnlyWhenEmpty(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	n, err := store.SeedCatalog(ctx, product.DemoCatalog())
	require.NoError(t, err)
	assert.Equal(t, len(product.DemoCatalog()), n)

	n, err = store.SeedCatalog(ctx, product.DemoCatalog())
	require.NoError(t, err)
	assert.Zero(t, n)

	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, len(product.DemoCatalog()))
	for i := 1; i < len(products); i++ {
		assert.LessOrEqual(t, products[i-1].Name, products[i].Name)
	}
}

func TestStore_ConcurrentAdds(t *testing.T) {
	store, p := setupStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.UpsertItem(ctx, "s1", p.ID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	lines, err := store.ListLines(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 50, lines[0].Quantity)
}
