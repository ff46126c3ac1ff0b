/*
Package sqlite provides a SQLite-backed implementation of the catalog.

PURPOSE:
  Implements ledger.ItemStore using SQLite. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

QUANTITY MUTATION:
  ApplyDelta/ApplyDeltas are the only writers of the quantity column.
  Two defenses keep concurrent oversells out:
  1. The store's write mutex is held across the whole read-validate-
     write sequence, serializing in-process submitters.
  2. Every UPDATE is a compare-and-swap on the previously read quantity
     (WHERE sku = ? AND quantity = ?). A zero-row update means another
     writer (possibly another process) got there first; the enclosing
     database transaction rolls back and nothing is applied.

DECIMAL STORAGE:
  Quantities and prices are stored as canonical decimal strings, never
  as REAL. All arithmetic happens in Go with shopspring/decimal; the
  CAS comparison is an exact string match, so there is no float drift.

CONCURRENCY:
  WAL mode: multiple readers don't block, single writer at a time,
  better crash recovery.

USAGE:
  store, err := sqlite.New("./data/parts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  applier := ledger.NewApplier(store, notifier)

SEE ALSO:
  - ledger/catalog.go: Interface definitions and atomicity contract
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/partsbin/stock-ledger/ledger"
)

// Store implements ledger.ItemStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		sku TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		vendor TEXT NOT NULL DEFAULT '',
		quantity TEXT NOT NULL,
		min_stock TEXT NOT NULL,
		normal_stock TEXT NOT NULL,
		cost_price TEXT NOT NULL,
		selling_price TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (CAST(quantity AS REAL) >= 0)
	);

	-- Interactive search hits sku and name
	CREATE INDEX IF NOT EXISTS idx_items_name ON items(name);
	CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);
	`

	_, err := s.db.Exec(schema)
	return err
}

const itemColumns = `sku, name, category, vendor, quantity, min_stock, normal_stock,
	cost_price, selling_price, created_at, updated_at`

// =============================================================================
// CATALOG READS (ledger.Catalog interface)
// =============================================================================

// GetBySKU returns the item or ledger.ErrSKUNotFound.
func (s *Store) GetBySKU(ctx context.Context, sku string) (*ledger.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE sku = ?`, sku)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrSKUNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// GetBySKUs bulk-reads the given SKUs in one query. Unknown SKUs are
// absent from the result.
func (s *Store) GetBySKUs(ctx context.Context, skus []string) (map[string]*ledger.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*ledger.Item, len(skus))
	if len(skus) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(skus)-1) + "?"
	args := make([]any, len(skus))
	for i, sku := range skus {
		args[i] = sku
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE sku IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk read items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		copied := item
		result[item.SKU] = &copied
	}
	return result, rows.Err()
}

// Search matches term against SKU and name, case-insensitive, capped
// at limit. A limit <= 0 returns every match.
func (s *Store) Search(ctx context.Context, term string, limit int) ([]ledger.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1 // sqlite: LIMIT -1 means no cap
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE LOWER(sku) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\'
		 ORDER BY sku ASC
		 LIMIT ?`,
		pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	defer rows.Close()

	var items []ledger.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// =============================================================================
// QUANTITY MUTATION (ledger.Catalog interface)
// =============================================================================

// ApplyDelta applies one signed quantity change.
func (s *Store) ApplyDelta(ctx context.Context, sku string, change decimal.Decimal) (*ledger.Item, error) {
	items, err := s.ApplyDeltas(ctx, []ledger.Delta{{SKU: sku, Change: change}})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ApplyDeltas applies every delta atomically inside one database
// transaction. The write mutex is held across read-validate-write;
// each UPDATE additionally compare-and-swaps on the quantity it read,
// so a racing external writer rolls the whole batch back with
// ledger.ErrConcurrentModification.
func (s *Store) ApplyDeltas(ctx context.Context, deltas []ledger.Delta) ([]ledger.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC()
	updated := make([]ledger.Item, 0, len(deltas))

	for _, d := range deltas {
		row := sqlTx.QueryRowContext(ctx,
			`SELECT `+itemColumns+` FROM items WHERE sku = ?`, d.SKU)
		item, err := scanItem(row)
		if err == sql.ErrNoRows {
			return nil, ledger.ErrSKUNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read item %s: %w", d.SKU, err)
		}

		next := item.Quantity.Add(d.Change)
		if next.IsNegative() {
			return nil, &ledger.InsufficientStockError{
				SKU:       d.SKU,
				Requested: d.Change.Neg(),
				Available: item.Quantity,
			}
		}

		res, err := sqlTx.ExecContext(ctx,
			`UPDATE items SET quantity = ?, updated_at = ? WHERE sku = ? AND quantity = ?`,
			next.String(), now.Format(time.RFC3339), d.SKU, item.Quantity.String())
		if err != nil {
			return nil, fmt.Errorf("failed to update item %s: %w", d.SKU, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, fmt.Errorf("%w: %s changed during apply", ledger.ErrConcurrentModification, d.SKU)
		}

		item.Quantity = next
		item.UpdatedAt = now
		updated = append(updated, item)
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deltas: %w", err)
	}
	return updated, nil
}

// =============================================================================
// ITEM CRUD (ledger.ItemStore interface)
// =============================================================================

// CreateItem inserts a new item. ledger.ErrDuplicateSKU if taken.
func (s *Store) CreateItem(ctx context.Context, item ledger.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.SKU, item.Name, item.Category, item.Vendor,
		item.Quantity.String(), item.MinStock.String(), item.NormalStock.String(),
		item.CostPrice.String(), item.SellingPrice.String(),
		createdAt.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateSKU
		}
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// UpdateItem rewrites descriptive and threshold fields. Quantity is
// deliberately not part of the SET list; it moves only through deltas.
func (s *Store) UpdateItem(ctx context.Context, item ledger.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET name = ?, category = ?, vendor = ?,
			min_stock = ?, normal_stock = ?, cost_price = ?, selling_price = ?,
			updated_at = ?
		 WHERE sku = ?`,
		item.Name, item.Category, item.Vendor,
		item.MinStock.String(), item.NormalStock.String(),
		item.CostPrice.String(), item.SellingPrice.String(),
		time.Now().UTC().Format(time.RFC3339),
		item.SKU,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrSKUNotFound
	}
	return nil
}

// DeleteItem removes an item. Idempotent.
func (s *Store) DeleteItem(ctx context.Context, sku string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE sku = ?`, sku)
	return err
}

// ListItems returns every item ordered by SKU.
func (s *Store) ListItems(ctx context.Context) ([]ledger.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY sku ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []ledger.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM items")
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (ledger.Item, error) {
	var (
		item                            ledger.Item
		quantity, minStock, normalStock string
		costPrice, sellingPrice         string
		createdAt, updatedAt            string
	)

	err := row.Scan(
		&item.SKU, &item.Name, &item.Category, &item.Vendor,
		&quantity, &minStock, &normalStock,
		&costPrice, &sellingPrice,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return item, err
	}

	item.Quantity = ledger.MustDecimal(quantity)
	item.MinStock = ledger.MustDecimal(minStock)
	item.NormalStock = ledger.MustDecimal(normalStock)
	item.CostPrice = ledger.MustDecimal(costPrice)
	item.SellingPrice = ledger.MustDecimal(sellingPrice)
	item.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	item.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return item, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
