/*
classify.go - Stock health classification

PURPOSE:
  Pure functions mapping an item's quantity and thresholds to a health
  tier and a fill percentage. Read-only: dashboards query this for
  display and nothing here ever mutates state.

TIERS:
  Critical  quantity == 0, or quantity/minStock <= 1.0
  Low       1.0 < quantity/minStock <= 1.5
  Healthy   quantity/minStock > 1.5

ZERO GUARDS:
  MinStock and NormalStock are user-set and may be zero. Division by
  zero is guarded with an explicit policy:
    - minStock == 0: Critical when quantity == 0, otherwise Healthy
      (an item with no minimum cannot be "below minimum")
    - normalStock == 0: fill percent is 0 (no target means no fill)

FILL BANDS:
  Fill percent buckets into nine display bands with inclusive cutoffs:
  0, <=20, <=30, <=40, <=50, <=60, <=70, <=80, >80. The cutoffs are
  exact (<=, not <) and load-bearing for visual regression tests.

SEE ALSO:
  - types.go: Item thresholds
*/
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIER
// =============================================================================

type Tier string

const (
	TierCritical Tier = "critical"
	TierLow      Tier = "low"
	TierHealthy  Tier = "healthy"
)

var (
	ratioLow     = decimal.NewFromInt(1)                  // tier boundary: ratio <= 1.0 is Critical
	ratioHealthy = decimal.RequireFromString("1.5")       // ratio <= 1.5 is Low
	hundred      = decimal.NewFromInt(100)
)

// Classification is the display-ready health of one item.
type Classification struct {
	Tier        Tier
	FillPercent decimal.Decimal // 0..100, clamped
	FillBand    int             // one of the nine display bands
}

// Classify maps an item's quantity and thresholds to its health.
// Pure; tolerates zero thresholds without panicking.
func Classify(item Item) Classification {
	pct := fillPercent(item.Quantity, item.NormalStock)
	return Classification{
		Tier:        tierOf(item.Quantity, item.MinStock),
		FillPercent: pct,
		FillBand:    FillBandOf(pct),
	}
}

func tierOf(quantity, minStock decimal.Decimal) Tier {
	if quantity.IsZero() {
		return TierCritical
	}
	if minStock.IsZero() {
		// No minimum to be below. Policy: non-zero stock is Healthy.
		return TierHealthy
	}
	ratio := quantity.Div(minStock)
	switch {
	case ratio.LessThanOrEqual(ratioLow):
		return TierCritical
	case ratio.LessThanOrEqual(ratioHealthy):
		return TierLow
	default:
		return TierHealthy
	}
}

func fillPercent(quantity, normalStock decimal.Decimal) decimal.Decimal {
	if normalStock.IsZero() {
		return decimal.Zero
	}
	pct := quantity.Div(normalStock).Mul(hundred)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	if pct.IsNegative() {
		return decimal.Zero
	}
	return pct
}

// fillBands holds the inclusive upper cutoffs of the middle bands.
var fillBands = []int64{20, 30, 40, 50, 60, 70, 80}

// FillBandOf buckets a fill percent into its display band. The band is
// named by its inclusive upper cutoff: 0 for empty, 20..80 for the
// middle bands, 100 for everything above 80.
func FillBandOf(pct decimal.Decimal) int {
	if pct.IsZero() {
		return 0
	}
	for _, cutoff := range fillBands {
		if pct.LessThanOrEqual(decimal.NewFromInt(cutoff)) {
			return int(cutoff)
		}
	}
	return 100
}

// =============================================================================
// CRITICALITY ORDERING
// =============================================================================

// SortMostCriticalFirst orders items ascending by quantity/minStock so
// the worst-stocked items lead. Items with no minimum sort after
// everything with a defined ratio, except zero-quantity items which
// always lead. Stable: ties keep insertion order.
func SortMostCriticalFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return compareCriticality(items[i], items[j]) < 0
	})
}

// SortHealthiestFirst is the descending counterpart.
func SortHealthiestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return compareCriticality(items[j], items[i]) < 0
	})
}

func compareCriticality(a, b Item) int {
	ra, aDefined := criticalityRatio(a)
	rb, bDefined := criticalityRatio(b)
	switch {
	case aDefined && bDefined:
		return ra.Cmp(rb)
	case aDefined:
		return -1 // defined ratios sort before undefined (healthy) ones
	case bDefined:
		return 1
	default:
		return 0
	}
}

// criticalityRatio returns quantity/minStock and whether it is defined.
// Zero quantity is the most critical state regardless of thresholds, so
// it reports a defined zero ratio.
func criticalityRatio(item Item) (decimal.Decimal, bool) {
	if item.Quantity.IsZero() {
		return decimal.Zero, true
	}
	if item.MinStock.IsZero() {
		return decimal.Zero, false
	}
	return item.Quantity.Div(item.MinStock), true
}
