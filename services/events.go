package services

import "sync"

// Event names emitted by the ledger core.
const (
	EventOrderReady = "order.ready"
	EventOrderDue   = "order.due"
)

// OrderReadyEvent is the structured payload handed to the external messaging
// dispatcher when an order enters READY (or comes due). The core never
// formats message text or performs I/O itself.
type OrderReadyEvent struct {
	CustomerID       string
	CustomerName     string
	CustomerPhone    string
	OrderID          string
	OrderDescription string
	ShopName         string
}

// Dispatcher is a minimal synchronous in-process event bus.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]func(payload any)
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[string][]func(payload any){}}
}

// Listen registers a handler for the given event name.
func (d *Dispatcher) Listen(event string, handler func(payload any)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[event] = append(d.handlers[event], handler)
}

// Fire dispatches an event synchronously to all registered listeners.
func (d *Dispatcher) Fire(event string, payload any) {
	d.mu.RLock()
	hs := make([]func(payload any), len(d.handlers[event]))
	copy(hs, d.handlers[event])
	d.mu.RUnlock()

	for _, h := range hs {
		h(payload)
	}
}
