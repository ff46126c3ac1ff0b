/*
applier.go - Atomic application of stock transactions

PURPOSE:
  The Applier is the single commit point of the stock engine. It takes
  a finished transaction, validates every line against a single bulk
  read of the catalog, and applies all deltas atomically - or rejects
  the whole transaction with the complete list of offending lines.

ALGORITHM:
  1. Validate shape: non-empty, positive quantities, directions set
  2. Bulk-read the distinct SKUs in one consistent pass (GetBySKUs)
  3. Net the signed deltas per SKU and check currentQty + delta >= 0
     for every line; any failure rejects the ENTIRE transaction with
     a RejectedLinesError listing all problems at once
  4. Hand the netted deltas to Catalog.ApplyDeltas, which re-checks
     non-negativity at mutation time and applies nothing on conflict
  5. Stamp the receipt and notify quantity observers

RACES:
  A competing writer can change a quantity between steps 2 and 4. The
  catalog's mutation-time re-check catches this; the Applier surfaces
  it as ErrConcurrentModification, which is retryable by resubmitting
  the same transaction. Under contention for the last unit of an item,
  exactly one submitter wins - the quantity never goes negative.

SEE ALSO:
  - catalog.go: ApplyDeltas atomicity contract
  - errors.go: RejectedLinesError, sentinels
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Applier validates and commits transactions against a catalog.
// The only component permitted to mutate catalog quantities.
type Applier struct {
	catalog  Catalog
	notifier *Notifier
	now      func() time.Time
}

// NewApplier creates an Applier over the given catalog. A nil notifier
// disables change notification.
func NewApplier(catalog Catalog, notifier *Notifier) *Applier {
	return &Applier{
		catalog:  catalog,
		notifier: notifier,
		now:      time.Now,
	}
}

// Apply validates and commits tx. On success every line's delta has
// been applied and a Receipt is returned. On failure nothing was
// applied; the error is one of:
//   - *ValidationError: malformed input
//   - *RejectedLinesError: unknown SKUs or insufficient stock, with
//     the full set of offending lines
//   - ErrConcurrentModification: a race was detected at mutation time
func (a *Applier) Apply(ctx context.Context, tx Transaction) (*Receipt, error) {
	if err := validateShape(tx); err != nil {
		return nil, err
	}

	// One consistent bulk read for the whole transaction. Validating
	// from per-line reads would widen the window between validation
	// and mutation.
	skus := distinctSKUs(tx.Lines)
	items, err := a.catalog.GetBySKUs(ctx, skus)
	if err != nil {
		return nil, fmt.Errorf("bulk read failed: %w", err)
	}

	deltas, rejected := validateLines(tx, items)
	if len(rejected) > 0 {
		return nil, &RejectedLinesError{Kind: tx.Kind, Lines: rejected}
	}

	updated, err := a.catalog.ApplyDeltas(ctx, deltas)
	if err != nil {
		// Validation passed, so a shortage or vanished SKU at mutation
		// time means a competing writer got there first.
		if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrSKUNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrConcurrentModification, err)
		}
		return nil, err
	}

	receipt := a.buildReceipt(tx, updated)
	if a.notifier != nil {
		for _, item := range updated {
			a.notifier.quantityChanged(item.SKU, item.Quantity)
		}
	}
	return receipt, nil
}

func validateShape(tx Transaction) error {
	if len(tx.Lines) == 0 {
		return &ValidationError{Field: "lines", Message: "transaction has no lines"}
	}
	switch tx.Kind {
	case TxSale, TxPurchase, TxAdjustment:
	default:
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", tx.Kind)}
	}
	for _, l := range tx.Lines {
		if l.SKU == "" {
			return &ValidationError{Field: "sku", Message: "line is missing a sku"}
		}
		if !l.Quantity.IsPositive() {
			return &ValidationError{Field: "quantity", Message: fmt.Sprintf("%s: must be positive", l.SKU)}
		}
		if tx.Kind == TxAdjustment && l.Direction != DirectionAdd && l.Direction != DirectionRemove {
			return &ValidationError{Field: "direction", Message: fmt.Sprintf("%s: adjustment line needs add or remove", l.SKU)}
		}
	}
	return nil
}

func distinctSKUs(lines []Line) []string {
	seen := make(map[string]bool, len(lines))
	var skus []string
	for _, l := range lines {
		if !seen[l.SKU] {
			seen[l.SKU] = true
			skus = append(skus, l.SKU)
		}
	}
	return skus
}

// validateLines nets the signed deltas per SKU (a transaction may
// reference a SKU more than once) and checks each against the bulk
// read. Returns the netted deltas in first-seen order and every line
// that failed.
func validateLines(tx Transaction, items map[string]*Item) ([]Delta, []RejectedLine) {
	net := make(map[string]decimal.Decimal, len(tx.Lines))
	rejectedSKUs := make(map[string]bool)
	var order []string
	var rejected []RejectedLine

	for _, l := range tx.Lines {
		item, ok := items[l.SKU]
		if !ok {
			if !rejectedSKUs[l.SKU] {
				rejectedSKUs[l.SKU] = true
				rejected = append(rejected, RejectedLine{
					SKU:       l.SKU,
					Requested: l.Quantity,
					Reason:    ErrSKUNotFound,
				})
			}
			continue
		}

		if _, seen := net[l.SKU]; !seen {
			order = append(order, l.SKU)
		}
		net[l.SKU] = net[l.SKU].Add(l.SignedDelta(tx.Kind))

		if item.Quantity.Add(net[l.SKU]).IsNegative() && !rejectedSKUs[l.SKU] {
			rejectedSKUs[l.SKU] = true
			rejected = append(rejected, RejectedLine{
				SKU:       l.SKU,
				Requested: net[l.SKU].Neg(),
				Available: item.Quantity,
				Reason:    ErrInsufficientStock,
			})
		}
	}

	if len(rejected) > 0 {
		return nil, rejected
	}

	deltas := make([]Delta, 0, len(order))
	for _, sku := range order {
		deltas = append(deltas, Delta{SKU: sku, Change: net[sku]})
	}
	return deltas, nil
}

func (a *Applier) buildReceipt(tx Transaction, updated []Item) *Receipt {
	bySKU := make(map[string]Item, len(updated))
	for _, item := range updated {
		bySKU[item.SKU] = item
	}

	receipt := &Receipt{
		TransactionID: tx.ID,
		Kind:          tx.Kind,
		Subtotal:      decimal.Zero,
		AppliedAt:     a.now(),
	}
	for _, l := range tx.Lines {
		item := bySKU[l.SKU]
		lineTotal := l.UnitPrice.Mul(l.Quantity)
		receipt.Lines = append(receipt.Lines, ReceiptLine{
			SKU:         l.SKU,
			Name:        item.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   lineTotal,
			NewQuantity: item.Quantity,
		})
		receipt.Subtotal = receipt.Subtotal.Add(lineTotal)
	}
	return receipt
}
