/*
catalog.go - Persistence interface for the item catalog

PURPOSE:
  Defines the interface between the stock engine and whatever stores
  the items. The catalog is the single source of truth for quantities;
  ApplyDelta/ApplyDeltas are the ONLY mutation entry points for them.

KEY INTERFACES:
  Catalog:   Reads plus the delta-based quantity mutators
  ItemStore: Catalog plus full item CRUD (used by the API layer)

ATOMICITY CONTRACT:
  ApplyDeltas is all-or-nothing. Every line's non-negativity must be
  re-checked at mutation time, not just at validation time, because a
  second writer may race between the caller's bulk read and the write.
  Implementations satisfy this with either a lock held across the
  read-validate-write sequence (memory store) or a conditional update
  executed inside a database transaction (sqlite store).

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Durable SQLite catalog
  - ledger/store/memory.go: In-memory catalog for tests/dev

SEE ALSO:
  - applier.go: The only component allowed to call ApplyDeltas
  - lookup.go: Search-based resolution on top of Catalog
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG - Read and delta-apply interface
// =============================================================================

// Delta is one signed quantity change destined for a SKU.
type Delta struct {
	SKU    string
	Change decimal.Decimal
}

// Catalog is the contract every other component reads through.
// Quantities are mutated exclusively through ApplyDelta/ApplyDeltas.
type Catalog interface {
	// GetBySKU returns the item or ErrSKUNotFound.
	GetBySKU(ctx context.Context, sku string) (*Item, error)

	// GetBySKUs bulk-reads the given SKUs in a single consistent pass.
	// Unknown SKUs are simply absent from the result map.
	GetBySKUs(ctx context.Context, skus []string) (map[string]*Item, error)

	// Search returns up to limit items whose SKU or name contains term,
	// case-insensitive, ordered by SKU. A limit <= 0 returns every
	// match; ranking callers need the full set before they cut.
	Search(ctx context.Context, term string, limit int) ([]Item, error)

	// ApplyDelta applies one signed quantity change and refreshes the
	// item's UpdatedAt. Returns ErrSKUNotFound for unknown SKUs and
	// ErrInsufficientStock if the result would be negative; on either
	// error the stored quantity is untouched.
	ApplyDelta(ctx context.Context, sku string, change decimal.Decimal) (*Item, error)

	// ApplyDeltas applies every delta atomically. If any delta would
	// take its item negative or names an unknown SKU, nothing is
	// applied. Returns the updated items in delta order.
	ApplyDeltas(ctx context.Context, deltas []Delta) ([]Item, error)
}

// DefaultSearchLimit is the cap interactive surfaces apply to
// type-ahead suggestions.
const DefaultSearchLimit = 10

// =============================================================================
// ITEM STORE - Catalog plus item lifecycle
// =============================================================================

// ItemStore extends Catalog with the item CRUD the management surfaces
// need. The ledger itself never creates or deletes items.
type ItemStore interface {
	Catalog

	// CreateItem inserts a new item. Returns ErrDuplicateSKU if the SKU
	// is taken.
	CreateItem(ctx context.Context, item Item) error

	// UpdateItem rewrites the descriptive and threshold fields of an
	// existing item. Quantity is NOT written here; it moves only
	// through deltas.
	UpdateItem(ctx context.Context, item Item) error

	// DeleteItem removes an item. Idempotent.
	DeleteItem(ctx context.Context, sku string) error

	// ListItems returns every item ordered by SKU.
	ListItems(ctx context.Context) ([]Item, error)
}
