package domain

import "time"

// EventKind тип перехода, фиксируемого в журнале емкости
type EventKind string

const (
	EventReserved        EventKind = "reserved"
	EventReleased        EventKind = "released"
	EventAdjusted        EventKind = "adjusted"
	EventReleaseFloorHit EventKind = "release_floor_hit"
)

// CapacityEvent запись append-only журнала изменений емкости
type CapacityEvent struct {
	ID            string
	SlotID        int64
	DeliveryDate  time.Time
	ReservationID *string
	Kind          EventKind
	Quantity      int
	ConsumedAfter int
	MaxAfter      int
	OccurredAt    time.Time
}
