package models

import "time"

// Lifecycle event types published on the bus.
const (
	EventOrderCreated         = "order.created"
	EventOrderServed          = "order.served"
	EventOrderCompleted       = "order.completed"
	EventOrderMerged          = "order.merged"
	EventOrderReconcile       = "order.reconcile"
	EventPaymentCompleted     = "payment.completed"
	EventPaymentFailed        = "payment.failed"
	EventReservationCreated   = "reservation.created"
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
)

// LifecycleEvent is the envelope for every domain event. Exactly one of the
// entity pointers is set, matching the event type's prefix.
type LifecycleEvent struct {
	Type        string       `json:"type"`
	EntityID    string       `json:"entity_id"`
	Order       *Order       `json:"order,omitempty"`
	Payment     *Payment     `json:"payment,omitempty"`
	Reservation *Reservation `json:"reservation,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}
