/*
cart.go - In-memory accumulation of an in-progress transaction

PURPOSE:
  A Cart collects (SKU, quantity) lines for a sale, purchase, or manual
  adjustment while the operator is still typing or scanning. It is a
  local draft: nothing in the catalog is locked or mutated until the
  finished line list is handed to the Applier.

KEYED BY SKU:
  Adding the same SKU twice increments the existing line rather than
  creating a duplicate row. Dropping a line's quantity below 1 removes
  the row entirely.

ADVISORY STOCK CHECK:
  AddLine refuses items whose catalog quantity is zero so the operator
  gets immediate feedback. This is advisory only - stock may change
  between add and submit, and the Applier re-validates authoritatively.

SEE ALSO:
  - applier.go: Authoritative validation and commit
*/
package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one row of an in-progress transaction. Name and UnitPrice
// are resolved from the catalog at add time; CartQuantity is mutable.
type CartLine struct {
	SKU          string
	Name         string
	UnitPrice    decimal.Decimal
	CartQuantity decimal.Decimal
}

// Cart accumulates lines for one pending transaction. Carts are private
// to the submitting session; a Cart is NOT safe for concurrent use.
type Cart struct {
	catalog Catalog
	lines   []CartLine // insertion order preserved for display
	index   map[string]int
}

// NewCart creates an empty cart reading prices and availability from
// the given catalog.
func NewCart(catalog Catalog) *Cart {
	return &Cart{
		catalog: catalog,
		index:   make(map[string]int),
	}
}

// AddLine resolves the SKU against the catalog and adds requestedQty
// units (1 if requestedQty is zero). If the SKU is already in the cart
// the existing line's quantity is incremented. Returns ErrOutOfStock
// when the catalog quantity is zero and ErrSKUNotFound for unknown
// SKUs; the cart is unchanged on error.
func (c *Cart) AddLine(ctx context.Context, sku string, requestedQty decimal.Decimal) error {
	if requestedQty.IsNegative() {
		return &ValidationError{Field: "quantity", Message: "must be positive"}
	}
	if requestedQty.IsZero() {
		requestedQty = decimal.NewFromInt(1)
	}

	item, err := c.catalog.GetBySKU(ctx, sku)
	if err != nil {
		return err
	}
	if item.Quantity.IsZero() {
		return ErrOutOfStock
	}

	if i, ok := c.index[sku]; ok {
		c.lines[i].CartQuantity = c.lines[i].CartQuantity.Add(requestedQty)
		return nil
	}

	c.index[sku] = len(c.lines)
	c.lines = append(c.lines, CartLine{
		SKU:          item.SKU,
		Name:         item.Name,
		UnitPrice:    item.SellingPrice,
		CartQuantity: requestedQty,
	})
	return nil
}

// UpdateQuantity sets a line's quantity. Anything below 1 removes the
// line. Unknown SKUs are a no-op.
func (c *Cart) UpdateQuantity(sku string, newQty decimal.Decimal) {
	i, ok := c.index[sku]
	if !ok {
		return
	}
	if newQty.LessThan(decimal.NewFromInt(1)) {
		c.removeAt(i)
		return
	}
	c.lines[i].CartQuantity = newQty
}

// RemoveLine removes a line if present. Idempotent.
func (c *Cart) RemoveLine(sku string) {
	if i, ok := c.index[sku]; ok {
		c.removeAt(i)
	}
}

func (c *Cart) removeAt(i int) {
	delete(c.index, c.lines[i].SKU)
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].SKU] = j
	}
}

// Lines returns a copy of the cart rows in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Total is the monetary sum of unitPrice * cartQuantity across lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.UnitPrice.Mul(l.CartQuantity))
	}
	return total
}

// LineCount returns the number of distinct SKUs in the cart.
func (c *Cart) LineCount() int {
	return len(c.lines)
}

// TotalUnits returns the sum of quantities across lines.
func (c *Cart) TotalUnits() decimal.Decimal {
	units := decimal.Zero
	for _, l := range c.lines {
		units = units.Add(l.CartQuantity)
	}
	return units
}

// Transaction freezes the cart into a submittable transaction of the
// given kind. Adjustment carts are add-only: every line carries
// DirectionAdd (counted stock coming in). Remove or mixed-direction
// adjustments are built as a Transaction directly, not via carts.
func (c *Cart) Transaction(kind TransactionKind, reference string) Transaction {
	tx := Transaction{
		ID:   uuid.NewString(),
		Kind: kind,
	}
	if kind == TxAdjustment {
		tx.Reason = reference
	} else {
		tx.InvoiceNumber = reference
	}
	for _, l := range c.lines {
		line := Line{SKU: l.SKU, Quantity: l.CartQuantity, UnitPrice: l.UnitPrice}
		if kind == TxAdjustment {
			line.Direction = DirectionAdd
		}
		tx.Lines = append(tx.Lines, line)
	}
	return tx
}
