package release_slot

import "time"

// Status результат успешного вызова
type Status string

const (
	StatusReleased        Status = "released"
	StatusAlreadyReleased Status = "already_released"
)

// Request модель запроса на освобождение емкости
type Request struct {
	ReservationID string
}

// Response модель ответа
type Response struct {
	Status          Status
	ReservationID   string
	SlotID          int64
	DeliveryDate    time.Time
	Quantity        int
	RemainingOrders int // текущий остаток слота на дату
}
