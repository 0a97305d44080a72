package get_availability_range

import (
	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	getAvailabilityRange "github.com/m04kA/SMC-DeliverySlotService/internal/usecase/get_availability_range"
)

// SlotAvailabilityResponse HTTP response model
type SlotAvailabilityResponse struct {
	SlotID          int64  `json:"slotId"`
	SlotName        string `json:"slotName"`
	DeliveryDate    string `json:"deliveryDate"`
	AvailableOrders int    `json:"availableOrders"`
	MaxOrders       int    `json:"maxOrders"`
	IsAvailable     bool   `json:"isAvailable"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	Tier            string `json:"tier"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailabilityRange.Response) []*SlotAvailabilityResponse {
	result := make([]*SlotAvailabilityResponse, 0, len(resp.Items))
	for _, item := range resp.Items {
		result = append(result, &SlotAvailabilityResponse{
			SlotID:          item.SlotID,
			SlotName:        item.SlotName,
			DeliveryDate:    item.DeliveryDate.Format(domain.DateFormat),
			AvailableOrders: item.AvailableOrders,
			MaxOrders:       item.MaxOrders,
			IsAvailable:     item.IsAvailable,
			StartTime:       item.StartTime.String(),
			EndTime:         item.EndTime.String(),
			Tier:            string(item.Tier),
		})
	}
	return result
}
