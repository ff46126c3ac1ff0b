package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsbin/stock-ledger/ledger"
	"github.com/partsbin/stock-ledger/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestCatalog(t *testing.T, items ...ledger.Item) *store.Memory {
	t.Helper()
	catalog := store.NewMemory()
	ctx := context.Background()
	for _, item := range items {
		require.NoError(t, catalog.CreateItem(ctx, item))
	}
	return catalog
}

func pricedItem(sku, name string, quantity, price float64) ledger.Item {
	return ledger.Item{
		SKU:          sku,
		Name:         name,
		Quantity:     ledger.Qty(quantity),
		MinStock:     ledger.Qty(5),
		NormalStock:  ledger.Qty(50),
		SellingPrice: ledger.Money(price),
	}
}

// =============================================================================
// CART TESTS
// =============================================================================

func TestCart_AddSameSKUTwice_MergesLines(t *testing.T) {
	// GIVEN: brake pads in stock
	// WHEN: adding BP-2024 twice with quantity 1 each
	// THEN: one cart line with cartQuantity=2, not two lines

	catalog := newTestCatalog(t, pricedItem("BP-2024", "Brake Pad Set", 24, 44.99))
	cart := ledger.NewCart(catalog)
	ctx := context.Background()

	require.NoError(t, cart.AddLine(ctx, "BP-2024", ledger.Qty(1)))
	require.NoError(t, cart.AddLine(ctx, "BP-2024", ledger.Qty(1)))

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.True(t, lines[0].CartQuantity.Equal(ledger.Qty(2)))
	assert.Equal(t, 1, cart.LineCount())
}

func TestCart_AddUnknownSKU_Rejected(t *testing.T) {
	cart := ledger.NewCart(newTestCatalog(t))

	err := cart.AddLine(context.Background(), "NOPE", ledger.Qty(1))
	assert.ErrorIs(t, err, ledger.ErrSKUNotFound)
	assert.Equal(t, 0, cart.LineCount())
}

func TestCart_AddOutOfStockItem_Rejected(t *testing.T) {
	// Advisory check at add time: zero stock refuses the add so the
	// operator hears about it immediately.
	catalog := newTestCatalog(t, pricedItem("WB-2206", "Wiper Blade", 0, 11.00))
	cart := ledger.NewCart(catalog)

	err := cart.AddLine(context.Background(), "WB-2206", ledger.Qty(1))
	assert.ErrorIs(t, err, ledger.ErrOutOfStock)
	assert.Equal(t, 0, cart.LineCount())
}

func TestCart_DefaultQuantityIsOne(t *testing.T) {
	catalog := newTestCatalog(t, pricedItem("SP-0042", "Spark Plug", 120, 8.25))
	cart := ledger.NewCart(catalog)

	require.NoError(t, cart.AddLine(context.Background(), "SP-0042", ledger.Qty(0)))
	assert.True(t, cart.Lines()[0].CartQuantity.Equal(ledger.Qty(1)))
}

func TestCart_UpdateQuantityBelowOne_RemovesLine(t *testing.T) {
	catalog := newTestCatalog(t, pricedItem("AF-1100", "Air Filter", 8, 12.50))
	cart := ledger.NewCart(catalog)
	require.NoError(t, cart.AddLine(context.Background(), "AF-1100", ledger.Qty(3)))

	cart.UpdateQuantity("AF-1100", ledger.Qty(0))

	assert.Equal(t, 0, cart.LineCount())
}

func TestCart_UpdateQuantity_SetsExactValue(t *testing.T) {
	catalog := newTestCatalog(t, pricedItem("AF-1100", "Air Filter", 8, 12.50))
	cart := ledger.NewCart(catalog)
	require.NoError(t, cart.AddLine(context.Background(), "AF-1100", ledger.Qty(3)))

	cart.UpdateQuantity("AF-1100", ledger.Qty(5))

	assert.True(t, cart.Lines()[0].CartQuantity.Equal(ledger.Qty(5)))
}

func TestCart_RemoveLine_Idempotent(t *testing.T) {
	catalog := newTestCatalog(t, pricedItem("AF-1100", "Air Filter", 8, 12.50))
	cart := ledger.NewCart(catalog)
	require.NoError(t, cart.AddLine(context.Background(), "AF-1100", ledger.Qty(1)))

	cart.RemoveLine("AF-1100")
	cart.RemoveLine("AF-1100") // second removal is a no-op

	assert.Equal(t, 0, cart.LineCount())
}

func TestCart_Total_ExactDecimalArithmetic(t *testing.T) {
	// 3 x 9.95 must be exactly 29.85, not a float approximation.
	catalog := newTestCatalog(t,
		pricedItem("EO-530", "Engine Oil", 450, 9.95),
		pricedItem("OF-3300", "Oil Filter", 95, 5.95),
	)
	cart := ledger.NewCart(catalog)
	ctx := context.Background()
	require.NoError(t, cart.AddLine(ctx, "EO-530", ledger.Qty(3)))
	require.NoError(t, cart.AddLine(ctx, "OF-3300", ledger.Qty(1)))

	assert.Equal(t, "35.8", cart.Total().String())
	assert.True(t, cart.TotalUnits().Equal(ledger.Qty(4)))
	assert.Equal(t, 2, cart.LineCount())
}

func TestCart_Transaction_FreezesLines(t *testing.T) {
	catalog := newTestCatalog(t, pricedItem("BT-6012", "Battery 60Ah", 11, 94.50))
	cart := ledger.NewCart(catalog)
	require.NoError(t, cart.AddLine(context.Background(), "BT-6012", ledger.Qty(2)))

	tx := cart.Transaction(ledger.TxSale, "INV-1042")

	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, ledger.TxSale, tx.Kind)
	assert.Equal(t, "INV-1042", tx.InvoiceNumber)
	require.Len(t, tx.Lines, 1)
	assert.Equal(t, "BT-6012", tx.Lines[0].SKU)
	assert.True(t, tx.Lines[0].Quantity.Equal(ledger.Qty(2)))
	assert.True(t, tx.Lines[0].UnitPrice.Equal(ledger.Money(94.50)))
}
