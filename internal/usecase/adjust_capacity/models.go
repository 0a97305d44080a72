package adjust_capacity

import (
	"time"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
)

// Request модель запроса на изменение емкости слота на дату
// nil поля не меняются
type Request struct {
	SlotID             int64
	DeliveryDate       time.Time
	MaxOrders          *int
	IsManuallyDisabled *bool
}

// Response модель ответа
type Response struct {
	SlotID             int64
	DeliveryDate       time.Time
	MaxOrders          int
	ConsumedOrders     int
	AvailableOrders    int
	IsManuallyDisabled bool
	Tier               domain.Tier
	UpdatedAt          time.Time
}
