/*
handlers.go - HTTP API handlers for the stock ledger

PURPOSE:
  Exposes the stock engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Items:
    GET    /api/items                List all items
    POST   /api/items                Create item
    GET    /api/items/{sku}          Get item details
    PUT    /api/items/{sku}          Update item (not quantity)
    DELETE /api/items/{sku}          Delete item
    GET    /api/items/{sku}/status   Classify one item

  Status:
    GET    /api/status               Dashboard, most critical first

  Search:
    GET    /api/search?q=            Type-ahead suggestions
    GET    /api/resolve?token=       Scan resolution (exactly one item)

  Carts:
    POST   /api/carts                    Open a cart session
    GET    /api/carts/{id}               Cart contents and totals
    POST   /api/carts/{id}/lines         Add line
    PUT    /api/carts/{id}/lines/{sku}   Set line quantity
    DELETE /api/carts/{id}/lines/{sku}   Remove line
    POST   /api/carts/{id}/checkout      Submit the cart

  Transactions:
    POST   /api/transactions         Submit a transaction directly

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown SKU or cart
  - 409: Insufficient stock, concurrent modification, duplicate SKU
  - 500: Internal errors
  Apply-time rejections carry the full rejected-line list so the UI can
  surface every problem in one message.

SEE ALSO:
  - dto.go: Request/response data structures
  - seed.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partsbin/stock-ledger/factory"
	"github.com/partsbin/stock-ledger/ledger"
)

// CatalogStore is what the API layer needs from a catalog backend:
// the full item store plus a reset hook for demo scenarios.
type CatalogStore interface {
	ledger.ItemStore
	Reset(ctx context.Context) error
}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    CatalogStore
	Applier  *ledger.Applier
	Lookup   *ledger.Lookup
	Notifier *ledger.Notifier

	items *factory.ItemFactory
	cache *statusCache

	// Cart sessions are private to their callers until checkout; the
	// registry itself is the only shared piece.
	cartMu sync.Mutex
	carts  map[string]*cartSession

	currentScenario string
}

type cartSession struct {
	kind ledger.TransactionKind
	cart *ledger.Cart
}

// NewHandler creates a handler over the given store.
func NewHandler(store CatalogStore) *Handler {
	notifier := ledger.NewNotifier()
	h := &Handler{
		Store:    store,
		Applier:  ledger.NewApplier(store, notifier),
		Lookup:   ledger.NewLookup(store),
		Notifier: notifier,
		items:    factory.NewItemFactory(),
		cache:    &statusCache{},
		carts:    make(map[string]*cartSession),
	}
	// Stock movement invalidates the dashboard cache.
	notifier.Subscribe(ledger.QuantityObserverFunc(func(string, decimal.Decimal) {
		h.cache.Invalidate()
	}))
	return h
}

// =============================================================================
// ITEM HANDLERS
// =============================================================================

// ListItems returns all items.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}

	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toItemDTO(item)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetItem returns a single item.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	item, err := h.Store.GetBySKU(r.Context(), sku)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(*item))
}

// CreateItem creates a new item from an item definition.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var def factory.ItemJSON
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	item, err := h.items.Build(def)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if err := h.Store.CreateItem(r.Context(), item); err != nil {
		writeLedgerError(w, err)
		return
	}

	h.cache.Invalidate()
	created, err := h.Store.GetBySKU(r.Context(), item.SKU)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read created item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemDTO(*created))
}

// UpdateItem rewrites descriptive and threshold fields. Quantity edits
// go through adjustment transactions, never through this endpoint.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	var def factory.ItemJSON
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	def.SKU = sku
	if def.Quantity == "" {
		def.Quantity = "0" // ignored by UpdateItem, satisfies the definition schema
	}

	item, err := h.items.Build(def)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if err := h.Store.UpdateItem(r.Context(), item); err != nil {
		writeLedgerError(w, err)
		return
	}

	h.cache.Invalidate()
	updated, err := h.Store.GetBySKU(r.Context(), sku)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read updated item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(*updated))
}

// DeleteItem removes an item.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	if err := h.Store.DeleteItem(r.Context(), sku); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete item", err)
		return
	}
	h.cache.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// STATUS HANDLERS
// =============================================================================

// GetItemStatus classifies a single item.
func (h *Handler) GetItemStatus(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	item, err := h.Store.GetBySKU(r.Context(), sku)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusDTO(*item))
}

// StatusDashboard returns every item classified, most critical first.
// ?order=healthiest flips the ordering (and bypasses the cache, which
// only holds the default ordering).
func (h *Handler) StatusDashboard(w http.ResponseWriter, r *http.Request) {
	order := r.URL.Query().Get("order")

	if order == "" {
		if rows, ok := h.cache.Get(); ok {
			writeJSON(w, http.StatusOK, rows)
			return
		}
	}

	items, err := h.Store.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}

	if order == "healthiest" {
		ledger.SortHealthiestFirst(items)
	} else {
		ledger.SortMostCriticalFirst(items)
	}

	rows := make([]StatusDTO, len(items))
	for i, item := range items {
		rows[i] = toStatusDTO(item)
	}
	if order == "" {
		h.cache.Set(rows)
	}
	writeJSON(w, http.StatusOK, rows)
}

// =============================================================================
// SEARCH HANDLERS
// =============================================================================

// SearchItems is the type-ahead path: ranked, bounded suggestions.
func (h *Handler) SearchItems(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		writeJSON(w, http.StatusOK, []ItemDTO{})
		return
	}

	matches, err := h.Lookup.Suggest(r.Context(), term, ledger.DefaultSearchLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Search failed", err)
		return
	}

	dtos := make([]ItemDTO, len(matches))
	for i, item := range matches {
		dtos[i] = toItemDTO(item)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ResolveItem is the scan path: the token must identify exactly one
// item.
func (h *Handler) ResolveItem(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	item, err := h.Lookup.Resolve(r.Context(), token)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(*item))
}

// =============================================================================
// CART HANDLERS
// =============================================================================

// CreateCart opens a cart session for a sale, purchase, or adjustment.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	var req NewCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	kind, ok := parseKind(req.Kind)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown transaction kind: "+req.Kind, nil)
		return
	}

	id := uuid.NewString()
	h.cartMu.Lock()
	h.carts[id] = &cartSession{kind: kind, cart: ledger.NewCart(h.Store)}
	h.cartMu.Unlock()

	writeJSON(w, http.StatusCreated, CartDTO{
		ID:         id,
		Kind:       string(kind),
		Lines:      []CartLineDTO{},
		Total:      "0",
		TotalUnits: "0",
	})
}

// GetCart returns the cart's lines and totals.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.cartMu.Lock()
	defer h.cartMu.Unlock()
	session, ok := h.carts[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Cart not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, cartDTO(id, session))
}

// AddCartLine adds units of a SKU to the cart. Adding an existing SKU
// increments its line.
func (h *Handler) AddCartLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AddLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	qty := decimal.NewFromInt(1)
	if req.Quantity != "" {
		var err error
		qty, err = decimal.NewFromString(req.Quantity)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid quantity: "+req.Quantity, err)
			return
		}
	}

	h.cartMu.Lock()
	defer h.cartMu.Unlock()
	session, ok := h.carts[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Cart not found", nil)
		return
	}
	if err := session.cart.AddLine(r.Context(), req.SKU, qty); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartDTO(id, session))
}

// UpdateCartLine sets a line's quantity; below 1 removes the line.
func (h *Handler) UpdateCartLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sku := chi.URLParam(r, "sku")

	var req UpdateLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quantity: "+req.Quantity, err)
		return
	}

	h.cartMu.Lock()
	defer h.cartMu.Unlock()
	session, ok := h.carts[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Cart not found", nil)
		return
	}
	session.cart.UpdateQuantity(sku, qty)
	writeJSON(w, http.StatusOK, cartDTO(id, session))
}

// RemoveCartLine removes a line. Idempotent.
func (h *Handler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sku := chi.URLParam(r, "sku")

	h.cartMu.Lock()
	defer h.cartMu.Unlock()
	session, ok := h.carts[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Cart not found", nil)
		return
	}
	session.cart.RemoveLine(sku)
	writeJSON(w, http.StatusOK, cartDTO(id, session))
}

// Checkout submits the cart as a transaction. On success the session
// is discarded; on rejection the cart survives for the caller to edit
// and resubmit. Adjustment carts apply every line as an add;
// remove-direction adjustments are submitted via POST /api/transactions.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	// Claim the session while holding the lock so a cart can only be
	// submitted once: concurrent checkouts of the same id race for this
	// delete and exactly one proceeds to Apply. Claiming also keeps the
	// line edits serialized with the transaction build below.
	h.cartMu.Lock()
	session, ok := h.carts[id]
	delete(h.carts, id)
	h.cartMu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Cart not found", nil)
		return
	}

	reference := req.InvoiceNumber
	if session.kind == ledger.TxAdjustment {
		reference = req.Reason
	}

	receipt, err := h.Applier.Apply(r.Context(), session.cart.Transaction(session.kind, reference))
	if err != nil {
		// Rejection returns the session so the caller can edit the
		// cart and resubmit.
		h.cartMu.Lock()
		h.carts[id] = session
		h.cartMu.Unlock()
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReceiptDTO(receipt))
}

func cartDTO(id string, session *cartSession) CartDTO {
	dto := CartDTO{
		ID:         id,
		Kind:       string(session.kind),
		Lines:      []CartLineDTO{},
		Total:      session.cart.Total().String(),
		LineCount:  session.cart.LineCount(),
		TotalUnits: session.cart.TotalUnits().String(),
	}
	for _, l := range session.cart.Lines() {
		dto.Lines = append(dto.Lines, CartLineDTO{
			SKU:          l.SKU,
			Name:         l.Name,
			UnitPrice:    l.UnitPrice.String(),
			CartQuantity: l.CartQuantity.String(),
		})
	}
	return dto
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// SubmitTransaction applies a transaction built by the caller.
func (h *Handler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	kind, ok := parseKind(req.Kind)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown transaction kind: "+req.Kind, nil)
		return
	}

	tx := ledger.Transaction{
		ID:            uuid.NewString(),
		Kind:          kind,
		InvoiceNumber: req.InvoiceNumber,
		Reason:        req.Reason,
	}
	for _, l := range req.Lines {
		qty, err := decimal.NewFromString(l.Quantity)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid quantity for "+l.SKU, err)
			return
		}
		price := decimal.Zero
		if l.UnitPrice != "" {
			price, err = decimal.NewFromString(l.UnitPrice)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid unit price for "+l.SKU, err)
				return
			}
		}
		tx.Lines = append(tx.Lines, ledger.Line{
			SKU:       l.SKU,
			Quantity:  qty,
			UnitPrice: price,
			Direction: ledger.Direction(l.Direction),
		})
	}

	receipt, err := h.Applier.Apply(r.Context(), tx)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptDTO(receipt))
}

func parseKind(s string) (ledger.TransactionKind, bool) {
	switch ledger.TransactionKind(s) {
	case ledger.TxSale, ledger.TxPurchase, ledger.TxAdjustment:
		return ledger.TransactionKind(s), true
	}
	return "", false
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeLedgerError maps domain errors onto HTTP statuses and, for
// apply-time rejections, attaches the full rejected-line list.
func writeLedgerError(w http.ResponseWriter, err error) {
	var rejected *ledger.RejectedLinesError
	if errors.As(err, &rejected) {
		resp := ErrorResponse{Error: "Transaction rejected", Details: rejected.Error()}
		for _, l := range rejected.Lines {
			dto := RejectedLineDTO{
				SKU:       l.SKU,
				Requested: l.Requested.String(),
				Reason:    "insufficient_stock",
			}
			if errors.Is(l.Reason, ledger.ErrSKUNotFound) {
				dto.Reason = "unknown_sku"
			} else {
				dto.Available = l.Available.String()
			}
			resp.RejectedLines = append(resp.RejectedLines, dto)
		}
		writeJSON(w, http.StatusConflict, resp)
		return
	}

	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Unknown SKU", err)
	case ledger.IsRetryable(err):
		writeError(w, http.StatusConflict, "Concurrent modification, retry the transaction", err)
	case errors.Is(err, ledger.ErrDuplicateSKU):
		writeError(w, http.StatusConflict, "SKU already exists", err)
	case errors.Is(err, ledger.ErrOutOfStock):
		writeError(w, http.StatusConflict, "Item is out of stock", err)
	case errors.Is(err, ledger.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "Insufficient stock", err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
