package domain

import "time"

// ReservationState состояние записи идемпотентности
type ReservationState string

const (
	ReservationReserved ReservationState = "reserved"
	ReservationReleased ReservationState = "released"
)

// Reservation связывает один заказ с одним списанием емкости
// ID задает вызывающая сторона (обычно это id заказа)
type Reservation struct {
	ID             string
	SlotID         int64
	DeliveryDate   time.Time
	Quantity       int
	State          ReservationState
	RemainingAfter int // остаток сразу после резервирования
	CreatedAt      time.Time
	ReleasedAt     *time.Time
}

func (r *Reservation) IsReserved() bool {
	return r.State == ReservationReserved
}

func (r *Reservation) IsReleased() bool {
	return r.State == ReservationReleased
}

// Matches проверяет, что повторный запрос совпадает с сохраненным
func (r *Reservation) Matches(slotID int64, date time.Time, quantity int) bool {
	return r.SlotID == slotID && SameDate(r.DeliveryDate, date) && r.Quantity == quantity
}
