/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DECIMALS:
  Quantities and money cross the wire as strings ("1.5", "9.95") so
  clients never round-trip them through binary floating point.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/items.go: ItemJSON, the item definition schema
*/
package api

import (
	"time"

	"github.com/partsbin/stock-ledger/ledger"
)

// =============================================================================
// ITEMS
// =============================================================================

// ItemDTO represents a catalog item in API responses.
type ItemDTO struct {
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Category     string `json:"category,omitempty"`
	Vendor       string `json:"vendor,omitempty"`
	Quantity     string `json:"quantity"`
	MinStock     string `json:"min_stock"`
	NormalStock  string `json:"normal_stock"`
	CostPrice    string `json:"cost_price,omitempty"`
	SellingPrice string `json:"selling_price"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

func toItemDTO(item ledger.Item) ItemDTO {
	return ItemDTO{
		SKU:          item.SKU,
		Name:         item.Name,
		Category:     item.Category,
		Vendor:       item.Vendor,
		Quantity:     item.Quantity.String(),
		MinStock:     item.MinStock.String(),
		NormalStock:  item.NormalStock.String(),
		CostPrice:    item.CostPrice.String(),
		SellingPrice: item.SellingPrice.String(),
		CreatedAt:    item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    item.UpdatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// STATUS
// =============================================================================

// StatusDTO is one row of the health dashboard.
type StatusDTO struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Quantity    string `json:"quantity"`
	MinStock    string `json:"min_stock"`
	Tier        string `json:"tier"`
	FillPercent string `json:"fill_percent"`
	FillBand    int    `json:"fill_band"`
}

func toStatusDTO(item ledger.Item) StatusDTO {
	c := ledger.Classify(item)
	return StatusDTO{
		SKU:         item.SKU,
		Name:        item.Name,
		Quantity:    item.Quantity.String(),
		MinStock:    item.MinStock.String(),
		Tier:        string(c.Tier),
		FillPercent: c.FillPercent.StringFixed(2),
		FillBand:    c.FillBand,
	}
}

// =============================================================================
// CARTS
// =============================================================================

// NewCartRequest opens a cart session.
type NewCartRequest struct {
	Kind string `json:"kind"` // sale, purchase, adjustment
}

// CartDTO represents a cart session.
type CartDTO struct {
	ID         string        `json:"id"`
	Kind       string        `json:"kind"`
	Lines      []CartLineDTO `json:"lines"`
	Total      string        `json:"total"`
	LineCount  int           `json:"line_count"`
	TotalUnits string        `json:"total_units"`
}

// CartLineDTO is one cart row.
type CartLineDTO struct {
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	UnitPrice    string `json:"unit_price"`
	CartQuantity string `json:"cart_quantity"`
}

// AddLineRequest adds units of a SKU to a cart.
type AddLineRequest struct {
	SKU      string `json:"sku"`
	Quantity string `json:"quantity,omitempty"` // defaults to 1
}

// UpdateLineRequest sets a cart line's quantity.
type UpdateLineRequest struct {
	Quantity string `json:"quantity"`
}

// CheckoutRequest submits a cart as a transaction.
type CheckoutRequest struct {
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// TransactionRequest submits a transaction directly, without a cart
// session. Used by programmatic callers and adjustment screens.
type TransactionRequest struct {
	Kind          string               `json:"kind"`
	InvoiceNumber string               `json:"invoice_number,omitempty"`
	Reason        string               `json:"reason,omitempty"`
	Lines         []TransactionLineDTO `json:"lines"`
}

// TransactionLineDTO is one submitted line.
type TransactionLineDTO struct {
	SKU       string `json:"sku"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price,omitempty"`
	Direction string `json:"direction,omitempty"` // adjustments: add or remove
}

// ReceiptDTO summarizes an applied transaction.
type ReceiptDTO struct {
	TransactionID string           `json:"transaction_id"`
	Kind          string           `json:"kind"`
	Lines         []ReceiptLineDTO `json:"lines"`
	Subtotal      string           `json:"subtotal"`
	AppliedAt     string           `json:"applied_at"`
}

// ReceiptLineDTO is one applied line.
type ReceiptLineDTO struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
	NewQuantity string `json:"new_quantity"`
}

func toReceiptDTO(r *ledger.Receipt) ReceiptDTO {
	dto := ReceiptDTO{
		TransactionID: r.TransactionID,
		Kind:          string(r.Kind),
		Subtotal:      r.Subtotal.String(),
		AppliedAt:     r.AppliedAt.Format(time.RFC3339),
	}
	for _, l := range r.Lines {
		dto.Lines = append(dto.Lines, ReceiptLineDTO{
			SKU:         l.SKU,
			Name:        l.Name,
			Quantity:    l.Quantity.String(),
			UnitPrice:   l.UnitPrice.String(),
			LineTotal:   l.LineTotal.String(),
			NewQuantity: l.NewQuantity.String(),
		})
	}
	return dto
}

// =============================================================================
// ERRORS
// =============================================================================

// RejectedLineDTO describes one offending transaction line.
type RejectedLineDTO struct {
	SKU       string `json:"sku"`
	Requested string `json:"requested"`
	Available string `json:"available,omitempty"`
	Reason    string `json:"reason"` // unknown_sku or insufficient_stock
}

// ErrorResponse is the uniform error payload. RejectedLines is set for
// apply-time rejections so the caller can surface every problem at
// once.
type ErrorResponse struct {
	Error         string            `json:"error"`
	Details       string            `json:"details,omitempty"`
	RejectedLines []RejectedLineDTO `json:"rejected_lines,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ItemCount   int    `json:"item_count"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ID string `json:"id"`
}
