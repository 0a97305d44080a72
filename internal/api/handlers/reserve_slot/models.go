package reserve_slot

import (
	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	reserveSlot "github.com/m04kA/SMC-DeliverySlotService/internal/usecase/reserve_slot"
)

// ReserveRequest HTTP request model
type ReserveRequest struct {
	SlotID        int64  `json:"slotId"`
	DeliveryDate  string `json:"deliveryDate"` // "2025-03-10"
	Quantity      int    `json:"quantity"`
	ReservationID string `json:"reservationId"`
}

// ReserveResponse HTTP response model
type ReserveResponse struct {
	Status          string `json:"status"`
	ReservationID   string `json:"reservationId"`
	SlotID          int64  `json:"slotId"`
	DeliveryDate    string `json:"deliveryDate"`
	Quantity        int    `json:"quantity"`
	RemainingOrders int    `json:"remainingOrders"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *ReserveRequest) ToUseCaseRequest() (*reserveSlot.Request, error) {
	date, err := domain.ParseDate(r.DeliveryDate)
	if err != nil {
		return nil, err
	}

	return &reserveSlot.Request{
		SlotID:        r.SlotID,
		DeliveryDate:  date,
		Quantity:      r.Quantity,
		ReservationID: r.ReservationID,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *reserveSlot.Response) *ReserveResponse {
	return &ReserveResponse{
		Status:          string(resp.Status),
		ReservationID:   resp.ReservationID,
		SlotID:          resp.SlotID,
		DeliveryDate:    resp.DeliveryDate.Format(domain.DateFormat),
		Quantity:        resp.Quantity,
		RemainingOrders: resp.RemainingOrders,
	}
}
