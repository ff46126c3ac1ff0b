/*
notify.go - Quantity change notification

PURPOSE:
  Dashboards and analysis views want to know when stock moved without
  polling the catalog. Rather than an ambient "data changed" broadcast,
  the ledger exposes an explicit observer: subscribers receive the SKU
  and its new quantity after every successful apply.

DELIVERY:
  Notifications fire after the transaction has fully committed, on the
  applying goroutine, in line order. Observers must not block; anything
  slow belongs behind the observer's own channel or queue.

SEE ALSO:
  - applier.go: Calls Notifier.quantityChanged on success
*/
package ledger

import (
	"sync"

	"github.com/shopspring/decimal"
)

// QuantityObserver receives quantity changes after they commit.
type QuantityObserver interface {
	OnQuantityChanged(sku string, newQty decimal.Decimal)
}

// QuantityObserverFunc adapts a function to QuantityObserver.
type QuantityObserverFunc func(sku string, newQty decimal.Decimal)

func (f QuantityObserverFunc) OnQuantityChanged(sku string, newQty decimal.Decimal) {
	f(sku, newQty)
}

// Notifier fans quantity changes out to registered observers.
// Safe for concurrent Subscribe and notify.
type Notifier struct {
	mu        sync.RWMutex
	observers []QuantityObserver
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers an observer for all future changes.
func (n *Notifier) Subscribe(obs QuantityObserver) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, obs)
}

func (n *Notifier) quantityChanged(sku string, newQty decimal.Decimal) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, obs := range n.observers {
		obs.OnQuantityChanged(sku, newQty)
	}
}
