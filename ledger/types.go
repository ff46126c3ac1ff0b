/*
Package ledger is the core stock engine for a single-location parts shop.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  inventory: classifying item health from stock thresholds, accumulating
  sale/purchase carts, and applying quantity-changing transactions
  against the catalog without ever overselling.

KEY CONCEPTS IN THIS FILE (types.go):
  - Item: A stock-keeping unit with quantity and thresholds
  - Transaction: A request to change one or more item quantities
  - Line: One (SKU, quantity, price) row of a transaction
  - Receipt: The summary returned after a transaction fully applies

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for quantities and money - no
     binary floating point in domain arithmetic
  2. Direction by kind: Line quantities are always positive magnitudes;
     Sale decrements, Purchase increments, Adjustment carries a flag
  3. Single writer path: Only the Applier mutates catalog quantities

USAGE:
  item, _ := catalog.GetBySKU(ctx, "BP-2024")
  cart := ledger.NewCart(catalog)
  cart.AddLine(ctx, item.SKU, ledger.Qty(2))
  receipt, err := applier.Apply(ctx, cart.Transaction(ledger.TxSale, "INV-001"))

SEE ALSO:
  - classify.go: Health tier and fill percentage
  - cart.go: In-progress transaction accumulation
  - applier.go: Atomic transaction application
  - catalog.go: Persistence interface
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ITEM - Stock-keeping unit
// =============================================================================

// Item is the durable record of one SKU. Quantity is the only field the
// ledger mutates as a side effect of transactions; everything else is
// edited through ordinary item management.
type Item struct {
	SKU      string
	Name     string
	Category string
	Vendor   string

	// Quantity is never negative. Fractional values are valid
	// (1.5 liters of oil is a real stock level).
	Quantity decimal.Decimal

	// MinStock is the threshold at or below which the item is Critical.
	// NormalStock is the target level used as the fill denominator.
	// Neither is validated for ordering; MinStock may exceed NormalStock.
	MinStock    decimal.Decimal
	NormalStock decimal.Decimal

	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Qty builds a decimal quantity from a float literal. Test and seed
// convenience; parsed input should go through decimal.NewFromString.
func Qty(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// Money builds a decimal monetary value from a float literal.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// MustDecimal parses s, returning zero on malformed input.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// TRANSACTION - Atomic request to change quantities
// =============================================================================

type TransactionKind string

const (
	TxSale       TransactionKind = "sale"       // Decrements stock
	TxPurchase   TransactionKind = "purchase"   // Increments stock
	TxAdjustment TransactionKind = "adjustment" // Either, per line Direction
)

// Direction disambiguates adjustment lines. Sale and Purchase lines
// ignore it; their direction is implied by the kind.
type Direction string

const (
	DirectionAdd    Direction = "add"
	DirectionRemove Direction = "remove"
)

// Line is one row of a transaction. Quantity is always a positive
// magnitude.
type Line struct {
	SKU       string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Direction Direction // adjustment lines only
}

// Transaction is built client-side (usually via Cart), submitted once,
// and either fully applied or fully rejected.
type Transaction struct {
	ID    string
	Kind  TransactionKind
	Lines []Line

	// InvoiceNumber annotates sales and purchases, Reason annotates
	// adjustments. Neither participates in any invariant.
	InvoiceNumber string
	Reason        string
}

// SignedDelta returns the signed quantity change this line requests
// under the given kind: negative for sales, positive for purchases,
// and per Direction for adjustments.
func (l Line) SignedDelta(kind TransactionKind) decimal.Decimal {
	switch kind {
	case TxSale:
		return l.Quantity.Neg()
	case TxPurchase:
		return l.Quantity
	case TxAdjustment:
		if l.Direction == DirectionRemove {
			return l.Quantity.Neg()
		}
		return l.Quantity
	}
	return decimal.Zero
}

// =============================================================================
// RECEIPT - Result of a fully applied transaction
// =============================================================================

// ReceiptLine records the outcome of one applied line.
type ReceiptLine struct {
	SKU         string
	Name        string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	NewQuantity decimal.Decimal // catalog quantity after the delta
}

// Receipt summarizes a successful transaction.
type Receipt struct {
	TransactionID string
	Kind          TransactionKind
	Lines         []ReceiptLine
	Subtotal      decimal.Decimal
	AppliedAt     time.Time
}
