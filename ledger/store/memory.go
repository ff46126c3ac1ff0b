// Package store provides Catalog implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/partsbin/stock-ledger/ledger"
)

// =============================================================================
// MEMORY CATALOG - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is an in-memory ledger.ItemStore. The write lock is held
// across the whole validate-then-apply sequence of ApplyDeltas, which
// is what makes concurrent submissions against the same SKU safe: one
// of two competing oversells is guaranteed to see the other's write.
type Memory struct {
	mu    sync.RWMutex
	items map[string]ledger.Item
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]ledger.Item)}
}

// GetBySKU returns a copy of the item or ErrSKUNotFound.
func (m *Memory) GetBySKU(_ context.Context, sku string) (*ledger.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[sku]
	if !ok {
		return nil, ledger.ErrSKUNotFound
	}
	return &item, nil
}

// GetBySKUs bulk-reads under a single lock acquisition, so the returned
// quantities are mutually consistent.
func (m *Memory) GetBySKUs(_ context.Context, skus []string) (map[string]*ledger.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*ledger.Item, len(skus))
	for _, sku := range skus {
		if item, ok := m.items[sku]; ok {
			copied := item
			result[sku] = &copied
		}
	}
	return result, nil
}

// Search matches term against SKU and name, case-insensitive, capped
// at limit (limit <= 0 returns every match). Results come back in SKU
// order for determinism.
func (m *Memory) Search(_ context.Context, term string, limit int) ([]ledger.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lower := strings.ToLower(term)

	var matches []ledger.Item
	for _, item := range m.items {
		if strings.Contains(strings.ToLower(item.SKU), lower) ||
			strings.Contains(strings.ToLower(item.Name), lower) {
			matches = append(matches, item)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].SKU < matches[j].SKU })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// ApplyDelta applies one signed change, rejecting below-zero results.
func (m *Memory) ApplyDelta(_ context.Context, sku string, change decimal.Decimal) (*ledger.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[sku]
	if !ok {
		return nil, ledger.ErrSKUNotFound
	}
	next := item.Quantity.Add(change)
	if next.IsNegative() {
		return nil, &ledger.InsufficientStockError{
			SKU:       sku,
			Requested: change.Neg(),
			Available: item.Quantity,
		}
	}
	item.Quantity = next
	item.UpdatedAt = time.Now().UTC()
	m.items[sku] = item

	copied := item
	return &copied, nil
}

// ApplyDeltas validates every delta, then applies every delta, all
// under one write lock. Nothing is applied if any delta fails.
func (m *Memory) ApplyDeltas(_ context.Context, deltas []ledger.Delta) ([]ledger.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate all (atomic check)
	for _, d := range deltas {
		item, ok := m.items[d.SKU]
		if !ok {
			return nil, ledger.ErrSKUNotFound
		}
		if item.Quantity.Add(d.Change).IsNegative() {
			return nil, &ledger.InsufficientStockError{
				SKU:       d.SKU,
				Requested: d.Change.Neg(),
				Available: item.Quantity,
			}
		}
	}

	// Apply all (atomic write)
	now := time.Now().UTC()
	updated := make([]ledger.Item, 0, len(deltas))
	for _, d := range deltas {
		item := m.items[d.SKU]
		item.Quantity = item.Quantity.Add(d.Change)
		item.UpdatedAt = now
		m.items[d.SKU] = item
		updated = append(updated, item)
	}
	return updated, nil
}

// =============================================================================
// ITEM CRUD
// =============================================================================

func (m *Memory) CreateItem(_ context.Context, item ledger.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[item.SKU]; exists {
		return ledger.ErrDuplicateSKU
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	m.items[item.SKU] = item
	return nil
}

// UpdateItem rewrites descriptive and threshold fields. The stored
// quantity is kept; quantity moves only through deltas.
func (m *Memory) UpdateItem(_ context.Context, item ledger.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.items[item.SKU]
	if !ok {
		return ledger.ErrSKUNotFound
	}
	item.Quantity = existing.Quantity
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	m.items[item.SKU] = item
	return nil
}

func (m *Memory) DeleteItem(_ context.Context, sku string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, sku)
	return nil
}

// Reset clears all items (for testing/demo).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]ledger.Item)
	return nil
}

func (m *Memory) ListItems(_ context.Context) ([]ledger.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]ledger.Item, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	return items, nil
}
