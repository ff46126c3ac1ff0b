/*
seed.go - Demo scenario loaders

PURPOSE:
  Seeds the catalog with sample data so the API can be demoed without
  manual item entry. Each scenario is a named set of JSON item
  definitions parsed through the item factory - the same path a real
  import would take.

ENDPOINTS:
  GET  /api/scenarios          List available scenarios
  GET  /api/scenarios/current  Which scenario is loaded
  POST /api/scenarios/load     Reset and load a scenario
  POST /api/scenarios/reset    Reset to an empty catalog

SEE ALSO:
  - factory/items.go: The definition schema
*/
package api

import (
	"encoding/json"
	"net/http"
)

// scenario is a loadable demo dataset.
type scenario struct {
	ID          string
	Name        string
	Description string
	ItemsJSON   string
}

var scenarios = []scenario{
	{
		ID:          "parts-shop",
		Name:        "Auto Parts Shop",
		Description: "A stocked single-location auto-parts catalog with healthy, low, and critical items.",
		ItemsJSON: `[
			{"sku": "EO-530", "name": "Engine Oil 5W-30", "category": "fluids", "vendor": "Castrol",
			 "quantity": "450", "min_stock": "100", "normal_stock": "500",
			 "cost_price": "6.20", "selling_price": "9.95"},
			{"sku": "BP-2024", "name": "Brake Pad Set Front", "category": "brakes", "vendor": "Brembo",
			 "quantity": "24", "min_stock": "20", "normal_stock": "60",
			 "cost_price": "28.50", "selling_price": "44.99"},
			{"sku": "AF-1100", "name": "Air Filter", "category": "filters", "vendor": "Mann",
			 "quantity": "8", "min_stock": "15", "normal_stock": "40",
			 "cost_price": "7.10", "selling_price": "12.50"},
			{"sku": "SP-0042", "name": "Spark Plug Iridium", "category": "ignition", "vendor": "NGK",
			 "quantity": "120", "min_stock": "50", "normal_stock": "200",
			 "cost_price": "4.80", "selling_price": "8.25"},
			{"sku": "WB-2206", "name": "Wiper Blade 22in", "category": "exterior", "vendor": "Bosch",
			 "quantity": "0", "min_stock": "10", "normal_stock": "30",
			 "cost_price": "5.90", "selling_price": "11.00"},
			{"sku": "CL-0750", "name": "Coolant Concentrate 750ml", "category": "fluids", "vendor": "Prestone",
			 "quantity": "36.5", "min_stock": "12", "normal_stock": "48",
			 "cost_price": "3.40", "selling_price": "6.75"},
			{"sku": "BT-6012", "name": "Battery 60Ah", "category": "electrical", "vendor": "Varta",
			 "quantity": "11", "min_stock": "8", "normal_stock": "20",
			 "cost_price": "62.00", "selling_price": "94.50"},
			{"sku": "OF-3300", "name": "Oil Filter", "category": "filters", "vendor": "Mann",
			 "quantity": "95", "min_stock": "30", "normal_stock": "120",
			 "cost_price": "3.10", "selling_price": "5.95"}
		]`,
	},
	{
		ID:          "empty-shelves",
		Name:        "Empty Shelves",
		Description: "Every item at or near zero; exercises critical classification and out-of-stock carts.",
		ItemsJSON: `[
			{"sku": "BP-2024", "name": "Brake Pad Set Front", "category": "brakes", "vendor": "Brembo",
			 "quantity": "0", "min_stock": "20", "normal_stock": "60",
			 "cost_price": "28.50", "selling_price": "44.99"},
			{"sku": "AF-1100", "name": "Air Filter", "category": "filters", "vendor": "Mann",
			 "quantity": "1", "min_stock": "15", "normal_stock": "40",
			 "cost_price": "7.10", "selling_price": "12.50"},
			{"sku": "EO-530", "name": "Engine Oil 5W-30", "category": "fluids", "vendor": "Castrol",
			 "quantity": "2.5", "min_stock": "100", "normal_stock": "500",
			 "cost_price": "6.20", "selling_price": "9.95"}
		]`,
	},
}

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		count := 0
		var defs []json.RawMessage
		if err := json.Unmarshal([]byte(s.ItemsJSON), &defs); err == nil {
			count = len(defs)
		}
		dtos[i] = ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description, ItemCount: count}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario reports which scenario was last loaded.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"id": h.currentScenario})
}

// LoadScenario resets the catalog and seeds the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var selected *scenario
	for i := range scenarios {
		if scenarios[i].ID == req.ID {
			selected = &scenarios[i]
			break
		}
	}
	if selected == nil {
		writeError(w, http.StatusNotFound, "Unknown scenario: "+req.ID, nil)
		return
	}

	items, err := h.items.ParseItems(selected.ItemsJSON)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Scenario definitions are invalid", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset catalog", err)
		return
	}
	for _, item := range items {
		if err := h.Store.CreateItem(ctx, item); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to seed item "+item.SKU, err)
			return
		}
	}

	h.cache.Invalidate()
	h.currentScenario = selected.ID
	writeJSON(w, http.StatusOK, map[string]any{
		"loaded":     selected.ID,
		"item_count": len(items),
	})
}

// ResetDatabase empties the catalog.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset catalog", err)
		return
	}
	h.cache.Invalidate()
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
