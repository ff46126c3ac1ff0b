/*
Package factory provides JSON to Go item conversion.

PURPOSE:
  Converts JSON item definitions into ledger.Item values. This enables
  catalog seeding and bulk import without code changes - the shop owner
  can maintain item definitions in JSON and load them at startup or
  through the API.

JSON SCHEMA:
  {
    "sku": "EO-530",
    "name": "Engine Oil 5W-30",
    "category": "fluids",
    "vendor": "Castrol",
    "quantity": "450",
    "min_stock": "100",
    "normal_stock": "500",
    "cost_price": "6.20",
    "selling_price": "9.95"
  }

  Numeric fields are JSON strings and parsed as decimals; this keeps
  fractional quantities and money exact.

USAGE:
  factory := NewItemFactory()
  item, err := factory.ParseItem(jsonString)
  items, err := factory.ParseItems(jsonArrayString)

SEE ALSO:
  - ledger/types.go: Item definition
  - api/seed.go: Demo scenarios built on these definitions
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/partsbin/stock-ledger/ledger"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ItemJSON is the JSON representation of a catalog item.
type ItemJSON struct {
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Category     string `json:"category,omitempty"`
	Vendor       string `json:"vendor,omitempty"`
	Quantity     string `json:"quantity"`
	MinStock     string `json:"min_stock"`
	NormalStock  string `json:"normal_stock"`
	CostPrice    string `json:"cost_price,omitempty"`
	SellingPrice string `json:"selling_price"`
}

// =============================================================================
// FACTORY
// =============================================================================

// ItemFactory converts JSON item definitions into ledger items.
type ItemFactory struct{}

func NewItemFactory() *ItemFactory {
	return &ItemFactory{}
}

// ParseItem converts one JSON object into an item.
func (f *ItemFactory) ParseItem(jsonStr string) (ledger.Item, error) {
	var def ItemJSON
	if err := json.Unmarshal([]byte(jsonStr), &def); err != nil {
		return ledger.Item{}, fmt.Errorf("invalid item JSON: %w", err)
	}
	return f.Build(def)
}

// ParseItems converts a JSON array of definitions.
func (f *ItemFactory) ParseItems(jsonStr string) ([]ledger.Item, error) {
	var defs []ItemJSON
	if err := json.Unmarshal([]byte(jsonStr), &defs); err != nil {
		return nil, fmt.Errorf("invalid item list JSON: %w", err)
	}

	items := make([]ledger.Item, 0, len(defs))
	for i, def := range defs {
		item, err := f.Build(def)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Build validates a definition and produces an item.
func (f *ItemFactory) Build(def ItemJSON) (ledger.Item, error) {
	if def.SKU == "" {
		return ledger.Item{}, &ledger.ValidationError{Field: "sku", Message: "required"}
	}
	if def.Name == "" {
		return ledger.Item{}, &ledger.ValidationError{Field: "name", Message: "required"}
	}

	quantity, err := parseNonNegative("quantity", def.Quantity, true)
	if err != nil {
		return ledger.Item{}, err
	}
	minStock, err := parseNonNegative("min_stock", def.MinStock, true)
	if err != nil {
		return ledger.Item{}, err
	}
	normalStock, err := parseNonNegative("normal_stock", def.NormalStock, true)
	if err != nil {
		return ledger.Item{}, err
	}
	costPrice, err := parseNonNegative("cost_price", def.CostPrice, false)
	if err != nil {
		return ledger.Item{}, err
	}
	sellingPrice, err := parseNonNegative("selling_price", def.SellingPrice, false)
	if err != nil {
		return ledger.Item{}, err
	}

	return ledger.Item{
		SKU:          def.SKU,
		Name:         def.Name,
		Category:     def.Category,
		Vendor:       def.Vendor,
		Quantity:     quantity,
		MinStock:     minStock,
		NormalStock:  normalStock,
		CostPrice:    costPrice,
		SellingPrice: sellingPrice,
	}, nil
}

// parseNonNegative parses a decimal string field. Empty strings are
// zero unless the field is required.
func parseNonNegative(field, value string, required bool) (decimal.Decimal, error) {
	if value == "" {
		if required {
			return decimal.Zero, &ledger.ValidationError{Field: field, Message: "required"}
		}
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, &ledger.ValidationError{Field: field, Message: "not a decimal: " + value}
	}
	if d.IsNegative() {
		return decimal.Zero, &ledger.ValidationError{Field: field, Message: "must not be negative"}
	}
	return d, nil
}
