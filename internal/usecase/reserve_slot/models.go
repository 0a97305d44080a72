package reserve_slot

import "time"

// Status результат успешного вызова
type Status string

const (
	StatusReserved        Status = "reserved"
	StatusAlreadyReserved Status = "already_reserved"
)

// Request модель запроса на резервирование емкости
type Request struct {
	SlotID        int64     // ID слота
	DeliveryDate  time.Time // Дата доставки (без времени)
	Quantity      int       // Сколько заказов списать
	ReservationID string    // Ключ идемпотентности, обычно id заказа
}

// Response модель ответа
type Response struct {
	Status          Status
	ReservationID   string
	SlotID          int64
	DeliveryDate    time.Time
	Quantity        int
	RemainingOrders int // остаток сразу после резервирования
}
