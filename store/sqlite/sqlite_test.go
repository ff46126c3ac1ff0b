package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsbin/stock-ledger/ledger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedItem(t *testing.T, store *Store, sku, name string, quantity float64) {
	t.Helper()
	err := store.CreateItem(context.Background(), ledger.Item{
		SKU:          sku,
		Name:         name,
		Category:     "engine",
		Vendor:       "ACME Parts",
		Quantity:     ledger.Qty(quantity),
		MinStock:     ledger.Qty(10),
		NormalStock:  ledger.Qty(100),
		CostPrice:    ledger.Money(5.50),
		SellingPrice: ledger.Money(9.95),
	})
	require.NoError(t, err)
}

// =============================================================================
// CRUD
// =============================================================================

func TestStore_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedItem(t, store, "EO-530", "Engine Oil 5W-30", 450)

	item, err := store.GetBySKU(ctx, "EO-530")
	require.NoError(t, err)
	assert.Equal(t, "Engine Oil 5W-30", item.Name)
	assert.Equal(t, "ACME Parts", item.Vendor)
	assert.True(t, item.Quantity.Equal(ledger.Qty(450)))
	assert.Equal(t, "9.95", item.SellingPrice.String())
	assert.False(t, item.CreatedAt.IsZero())
}

func TestStore_CreateDuplicateSKU(t *testing.T) {
	store := newTestStore(t)

	seedItem(t, store, "EO-530", "Engine Oil 5W-30", 450)

	err := store.CreateItem(context.Background(), ledger.Item{
		SKU: "EO-530", Name: "Engine Oil again",
		Quantity: ledger.Qty(1), MinStock: ledger.Qty(1), NormalStock: ledger.Qty(1),
		CostPrice: ledger.Money(1), SellingPrice: ledger.Money(1),
	})
	assert.ErrorIs(t, err, ledger.ErrDuplicateSKU)
}

func TestStore_GetUnknownSKU(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetBySKU(context.Background(), "ZZ-9999")
	assert.ErrorIs(t, err, ledger.ErrSKUNotFound)
}

func TestStore_UpdateItem_PreservesQuantity(t *testing.T) {
	// Quantity moves only through deltas; a catalog edit must not
	// overwrite it.
	store := newTestStore(t)
	ctx := context.Background()

	seedItem(t, store, "EO-530", "Engine Oil 5W-30", 450)

	err := store.UpdateItem(ctx, ledger.Item{
		SKU:          "EO-530",
		Name:         "Engine Oil 5W-30 Synthetic",
		Category:     "engine",
		Vendor:       "ACME Parts",
		Quantity:     ledger.Qty(0), // must be ignored
		MinStock:     ledger.Qty(50),
		NormalStock:  ledger.Qty(500),
		CostPrice:    ledger.Money(6.00),
		SellingPrice: ledger.Money(10.95),
	})
	require.NoError(t, err)

	item, err := store.GetBySKU(ctx, "EO-530")
	require.NoError(t, err)
	assert.Equal(t, "Engine Oil 5W-30 Synthetic", item.Name)
	assert.True(t, item.Quantity.Equal(ledger.Qty(450)))
	assert.True(t, item.MinStock.Equal(ledger.Qty(50)))
}

func TestStore_UpdateUnknownSKU(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateItem(context.Background(), ledger.Item{SKU: "ZZ-9999", Name: "Ghost"})
	assert.ErrorIs(t, err, ledger.ErrSKUNotFound)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedItem(t, store, "EO-530", "Engine Oil 5W-30", 450)
	require.NoError(t, store.DeleteItem(ctx, "EO-530"))
	require.NoError(t, store.DeleteItem(ctx, "EO-530"))

	_, err := store.GetBySKU(ctx, "EO-530")
	assert.ErrorIs(t, err, ledger.ErrSKUNotFound)
}

func TestStore_ListAndReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedItem(t, store, "OF-3300", "Oil Filter", 95)
	seedItem(t, store, "AF-1100", "Air Filter", 8)

	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "AF-1100", items[0].SKU, "list is ordered by sku")

	require.NoError(t, store.Reset(ctx))
	items, err = store.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

// =============================================================================
// BULK READ
// =============================================================================

func TestStore_GetBySKUs_UnknownSKUsAbsent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedItem(t, store, "EO-530", "Engine Oil 5W-30", 450)
	seedItem(t, store, "OF-3300", "Oil Filter", 95)

	items, err := store.GetBySKUs(ctx, []string{"EO-530", "GHOST", "OF-3300"})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Contains(t, items, "EO-530")
	assert.NotContains(t, items, "GHOST")
}

// =============================================================================
// SEARCH
// =============================================================================

func TestStore_Search_CaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedItem(t, store, "EO-530", "Engine Oil 5W-30", 450)
	seedItem(t, store, "OF-3300", "Oil Filter", 95)
	seedItem(t, store, "BP-2024", "Brake Pads", 24)

	items, err := store.Search(ctx, "OIL", 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "EO-530", items[0].SKU)
	assert.Equal(t, "OF-3300", items[1].SKU)
}

func TestStore_Search_CapsResults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedItem(t, store, "EO-530", "Engine Oil 5W-30", 450)
	seedItem(t, store, "EO-1040", "Engine Oil 10W-40", 200)
	seedItem(t, store, "OF-3300", "Oil Filter", 95)

	items, err := store.Search(ctx, "oil", 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestStore_Search_UncappedWhenLimitZero(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 12; i++ {
		seedItem(t, store, fmt.Sprintf("AF-%02d", i), "Air Filter", 5)
	}

	items, err := store.Search(context.Background(), "air", 0)
	require.NoError(t, err)
	assert.Len(t, items, 12)
}

func TestStore_Search_EscapesLikeWildcards(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedItem(t, store, "WB-100", "Wiper Blade 100%", 12)
	seedItem(t, store, "WB-200", "Wiper Blade Standard", 30)

	items, err := store.Search(ctx, "100%", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "WB-100", items[0].SKU)

	items, err = store.Search(ctx, "_", 10)
	require.NoError(t, err)
	assert.Empty(t, items, "underscore must not match any single character")
}

// =============================================================================
// DELTAS
// =============================================================================

func TestStore_ApplyDelta(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedItem(t, store, "EO-530", "Engine Oil 5W-30", 450)

	item, err := store.ApplyDelta(ctx, "EO-530", ledger.Qty(60).Neg())
	require.NoError(t, err)
	assert.True(t, item.Quantity.Equal(ledger.Qty(390)))

	item, err = store.GetBySKU(ctx, "EO-530")
	require.NoError(t, err)
	assert.True(t, item.Quantity.Equal(ledger.Qty(390)))
}

func TestStore_ApplyDelta_InsufficientStock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedItem(t, store, "AF-1100", "Air Filter", 8)

	_, err := store.ApplyDelta(ctx, "AF-1100", ledger.Qty(9).Neg())

	var insufficient *ledger.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Requested.Equal(ledger.Qty(9)))
	assert.True(t, insufficient.Available.Equal(ledger.Qty(8)))

	item, err := store.GetBySKU(ctx, "AF-1100")
	require.NoError(t, err)
	assert.True(t, item.Quantity.Equal(ledger.Qty(8)))
}

func TestStore_ApplyDeltas_AllOrNothing(t *testing.T) {
	// Second delta fails: first delta's write must be rolled back.
	store := newTestStore(t)
	ctx := context.Background()

	seedItem(t, store, "A", "Part A", 100)
	seedItem(t, store, "B", "Part B", 2)

	_, err := store.ApplyDeltas(ctx, []ledger.Delta{
		{SKU: "A", Change: ledger.Qty(10).Neg()},
		{SKU: "B", Change: ledger.Qty(5).Neg()},
	})
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)

	a, err := store.GetBySKU(ctx, "A")
	require.NoError(t, err)
	assert.True(t, a.Quantity.Equal(ledger.Qty(100)), "A must be rolled back")
}

func TestStore_ApplyDeltas_UnknownSKURollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedItem(t, store, "A", "Part A", 100)

	_, err := store.ApplyDeltas(ctx, []ledger.Delta{
		{SKU: "A", Change: ledger.Qty(10).Neg()},
		{SKU: "GHOST", Change: ledger.Qty(1).Neg()},
	})
	assert.ErrorIs(t, err, ledger.ErrSKUNotFound)

	a, err := store.GetBySKU(ctx, "A")
	require.NoError(t, err)
	assert.True(t, a.Quantity.Equal(ledger.Qty(100)))
}

func TestStore_ApplyDeltas_FractionalQuantities(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.CreateItem(ctx, ledger.Item{
		SKU: "HUL-25", Name: "Hydraulic Fluid (L)",
		Quantity: ledger.MustDecimal("25.5"), MinStock: ledger.Qty(5), NormalStock: ledger.Qty(50),
		CostPrice: ledger.Money(3), SellingPrice: ledger.Money(6),
	})
	require.NoError(t, err)

	updated, err := store.ApplyDeltas(ctx, []ledger.Delta{
		{SKU: "HUL-25", Change: ledger.MustDecimal("-0.75")},
	})
	require.NoError(t, err)
	assert.Equal(t, "24.75", updated[0].Quantity.String())

	item, err := store.GetBySKU(ctx, "HUL-25")
	require.NoError(t, err)
	assert.Equal(t, "24.75", item.Quantity.String())
}

func TestStore_ConcurrentSales_NeverOversell(t *testing.T) {
	// 10 units, 25 concurrent single-unit decrements: exactly 10 win.
	store := newTestStore(t)
	ctx := context.Background()

	seedItem(t, store, "SP-0042", "Spark Plug", 10)

	const submitters = 25
	var wg sync.WaitGroup
	results := make(chan error, submitters)
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ApplyDelta(ctx, "SP-0042", ledger.Qty(1).Neg())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ledger.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 10, wins)

	item, err := store.GetBySKU(ctx, "SP-0042")
	require.NoError(t, err)
	assert.True(t, item.Quantity.IsZero())
}
