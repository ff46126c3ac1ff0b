package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/partsbin/stock-ledger/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func stockedItem(sku string, quantity, minStock, normalStock float64) ledger.Item {
	return ledger.Item{
		SKU:         sku,
		Name:        sku,
		Quantity:    ledger.Qty(quantity),
		MinStock:    ledger.Qty(minStock),
		NormalStock: ledger.Qty(normalStock),
	}
}

// =============================================================================
// TIER BOUNDARY TESTS
// =============================================================================

func TestClassify_TierBoundaries(t *testing.T) {
	// minStock=20: the ratio boundaries sit exactly at quantity 20
	// (ratio 1.0, Critical) and quantity 30 (ratio 1.5, Low).
	cases := []struct {
		name     string
		quantity float64
		want     ledger.Tier
	}{
		{"at min stock is critical", 20, ledger.TierCritical},
		{"below min stock is critical", 12, ledger.TierCritical},
		{"one above min stock is low", 21, ledger.TierLow},
		{"exactly 1.5x min stock is low", 30, ledger.TierLow},
		{"above 1.5x min stock is healthy", 31, ledger.TierHealthy},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := ledger.Classify(stockedItem("X", tc.quantity, 20, 100))
			assert.Equal(t, tc.want, c.Tier)
		})
	}
}

func TestClassify_ZeroQuantityAlwaysCritical(t *testing.T) {
	for _, minStock := range []float64{1, 20, 500} {
		c := ledger.Classify(stockedItem("X", 0, minStock, 100))
		assert.Equal(t, ledger.TierCritical, c.Tier, "minStock=%v", minStock)
	}
}

func TestClassify_ZeroMinStockPolicy(t *testing.T) {
	// No minimum to be below: non-zero stock is Healthy, zero stock is
	// still Critical. Must not panic on the undefined ratio.
	assert.Equal(t, ledger.TierHealthy, ledger.Classify(stockedItem("X", 5, 0, 100)).Tier)
	assert.Equal(t, ledger.TierCritical, ledger.Classify(stockedItem("X", 0, 0, 100)).Tier)
}

func TestClassify_FractionalQuantities(t *testing.T) {
	// 1.5 liters against a minimum of 1 is ratio 1.5, still Low.
	c := ledger.Classify(stockedItem("CL-0750", 1.5, 1, 48))
	assert.Equal(t, ledger.TierLow, c.Tier)
}

// =============================================================================
// FILL PERCENT TESTS
// =============================================================================

func TestClassify_FillPercentClamps(t *testing.T) {
	c := ledger.Classify(stockedItem("X", 150, 20, 100))
	assert.True(t, c.FillPercent.Equal(ledger.Qty(100)), "got %s", c.FillPercent)
}

func TestClassify_FillPercentZeroNormalStock(t *testing.T) {
	c := ledger.Classify(stockedItem("X", 50, 20, 0))
	assert.True(t, c.FillPercent.IsZero())
	assert.Equal(t, 0, c.FillBand)
}

func TestClassify_FillPercent(t *testing.T) {
	c := ledger.Classify(stockedItem("EO-530", 450, 100, 500))
	assert.Equal(t, ledger.TierHealthy, c.Tier)
	assert.True(t, c.FillPercent.Equal(ledger.Qty(90)), "got %s", c.FillPercent)
}

// =============================================================================
// FILL BAND TESTS
// =============================================================================

func TestFillBandOf_ExactCutoffs(t *testing.T) {
	// The band cutoffs are inclusive (<=, not <).
	cases := []struct {
		pct  float64
		want int
	}{
		{0, 0},
		{0.5, 20},
		{20, 20},
		{20.01, 30},
		{30, 30},
		{40, 40},
		{50, 50},
		{60, 60},
		{70, 70},
		{80, 80},
		{80.01, 100},
		{100, 100},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ledger.FillBandOf(ledger.Qty(tc.pct)), "pct=%v", tc.pct)
	}
}

// =============================================================================
// ORDERING TESTS
// =============================================================================

func TestSortMostCriticalFirst(t *testing.T) {
	items := []ledger.Item{
		stockedItem("healthy", 200, 50, 300),  // ratio 4.0
		stockedItem("empty", 0, 50, 300),      // most critical
		stockedItem("low", 60, 50, 300),       // ratio 1.2
		stockedItem("no-min", 10, 0, 300),     // undefined ratio, sorts last
		stockedItem("critical", 25, 50, 300),  // ratio 0.5
	}

	ledger.SortMostCriticalFirst(items)

	got := make([]string, len(items))
	for i, item := range items {
		got[i] = item.SKU
	}
	assert.Equal(t, []string{"empty", "critical", "low", "healthy", "no-min"}, got)
}

func TestSortHealthiestFirst(t *testing.T) {
	items := []ledger.Item{
		stockedItem("critical", 25, 50, 300),
		stockedItem("healthy", 200, 50, 300),
		stockedItem("low", 60, 50, 300),
	}

	ledger.SortHealthiestFirst(items)

	assert.Equal(t, "healthy", items[0].SKU) // undefined-ratio items would lead; none here
	assert.Equal(t, "low", items[1].SKU)
	assert.Equal(t, "critical", items[2].SKU)
}
