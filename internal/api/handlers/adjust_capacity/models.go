package adjust_capacity

import (
	"time"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	adjustCapacity "github.com/m04kA/SMC-DeliverySlotService/internal/usecase/adjust_capacity"
)

// AdjustCapacityRequest HTTP request model
// Все поля опциональны - обновляются только переданные значения
type AdjustCapacityRequest struct {
	MaxOrders          *int  `json:"maxOrders,omitempty"`
	IsManuallyDisabled *bool `json:"isManuallyDisabled,omitempty"`
}

// CapacityResponse HTTP response model
type CapacityResponse struct {
	SlotID             int64  `json:"slotId"`
	DeliveryDate       string `json:"deliveryDate"`
	MaxOrders          int    `json:"maxOrders"`
	ConsumedOrders     int    `json:"consumedOrders"`
	AvailableOrders    int    `json:"availableOrders"`
	IsManuallyDisabled bool   `json:"isManuallyDisabled"`
	Tier               string `json:"tier"`
	UpdatedAt          string `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *AdjustCapacityRequest) ToUseCaseRequest(slotID int64, date time.Time) *adjustCapacity.Request {
	return &adjustCapacity.Request{
		SlotID:             slotID,
		DeliveryDate:       date,
		MaxOrders:          r.MaxOrders,
		IsManuallyDisabled: r.IsManuallyDisabled,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *adjustCapacity.Response) *CapacityResponse {
	return &CapacityResponse{
		SlotID:             resp.SlotID,
		DeliveryDate:       resp.DeliveryDate.Format(domain.DateFormat),
		MaxOrders:          resp.MaxOrders,
		ConsumedOrders:     resp.ConsumedOrders,
		AvailableOrders:    resp.AvailableOrders,
		IsManuallyDisabled: resp.IsManuallyDisabled,
		Tier:               string(resp.Tier),
		UpdatedAt:          resp.UpdatedAt.Format(time.RFC3339),
	}
}
