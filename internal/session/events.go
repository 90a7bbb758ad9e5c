package session

import "time"

// EventKind тип одноразового события сессии.
type EventKind string

const (
	EventLoggedIn         EventKind = "logged_in"
	EventLoggedOut        EventKind = "logged_out"
	EventMergedFromGuest  EventKind = "merged_from_guest"
	EventOrderPlaced      EventKind = "order_placed"
	EventOrderFailed      EventKind = "order_failed"
	EventPaymentPending   EventKind = "payment_pending"
	EventPaymentConfirmed EventKind = "payment_confirmed"
	EventPaymentCancelled EventKind = "payment_cancelled"
)

// Event одноразовое уведомление для слоя представления. Каждое событие выдаётся ровно один раз.
type Event struct {
	Kind    EventKind `json:"kind"`
	Message string    `json:"message,omitempty"`
	OrderID string    `json:"orderId,omitempty"`
	At      time.Time `json:"at"`
}

// emitLocked добавляет событие в очередь. Вызывается под c.mu.
func (c *Controller) emitLocked(e Event) {
	if e.At.IsZero() {
		e.At = c.now()
	}
	c.events = append(c.events, e)
}

// Events возвращает накопленные события и очищает очередь.
func (c *Controller) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.events
	c.events = nil
	if out == nil {
		out = []Event{}
	}
	return out
}
