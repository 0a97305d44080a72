package release_slot

import (
	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	releaseSlot "github.com/m04kA/SMC-DeliverySlotService/internal/usecase/release_slot"
)

// ReleaseRequest HTTP request model
type ReleaseRequest struct {
	ReservationID string `json:"reservationId"`
}

// ReleaseResponse HTTP response model
type ReleaseResponse struct {
	Status          string `json:"status"`
	ReservationID   string `json:"reservationId"`
	SlotID          int64  `json:"slotId"`
	DeliveryDate    string `json:"deliveryDate"`
	Quantity        int    `json:"quantity"`
	RemainingOrders int    `json:"remainingOrders"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *ReleaseRequest) ToUseCaseRequest() *releaseSlot.Request {
	return &releaseSlot.Request{ReservationID: r.ReservationID}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *releaseSlot.Response) *ReleaseResponse {
	return &ReleaseResponse{
		Status:          string(resp.Status),
		ReservationID:   resp.ReservationID,
		SlotID:          resp.SlotID,
		DeliveryDate:    resp.DeliveryDate.Format(domain.DateFormat),
		Quantity:        resp.Quantity,
		RemainingOrders: resp.RemainingOrders,
	}
}
