package models

import (
	"time"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
)

// Request модели

// GetCapacityEventsRequest запрос журнала изменений емкости слота на дату
type GetCapacityEventsRequest struct {
	SlotID       int64     `json:"slotId"`
	DeliveryDate time.Time `json:"deliveryDate"`
	Limit        int       `json:"limit"` // 0 = значение по умолчанию
}

// Response модели

// SlotResponse определение слота
type SlotResponse struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	StartTime            string `json:"startTime"`
	EndTime              string `json:"endTime"`
	IsActive             bool   `json:"isActive"`
	DefaultDailyCapacity int    `json:"defaultDailyCapacity"`
}

// CapacityEventResponse запись журнала
type CapacityEventResponse struct {
	ID            string    `json:"id"`
	SlotID        int64     `json:"slotId"`
	DeliveryDate  string    `json:"deliveryDate"`
	ReservationID *string   `json:"reservationId,omitempty"`
	Kind          string    `json:"kind"`
	Quantity      int       `json:"quantity"`
	ConsumedAfter int       `json:"consumedAfter"`
	MaxAfter      int       `json:"maxAfter"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// FromDomainSlot преобразует определение слота в модель ответа
func FromDomainSlot(def *domain.SlotDefinition) *SlotResponse {
	return &SlotResponse{
		ID:                   def.ID,
		Name:                 def.Name,
		StartTime:            def.StartTime.String(),
		EndTime:              def.EndTime.String(),
		IsActive:             def.IsActive,
		DefaultDailyCapacity: def.DefaultDailyCapacity,
	}
}

// FromDomainEvent преобразует событие журнала в модель ответа
func FromDomainEvent(e *domain.CapacityEvent) *CapacityEventResponse {
	return &CapacityEventResponse{
		ID:            e.ID,
		SlotID:        e.SlotID,
		DeliveryDate:  e.DeliveryDate.Format(domain.DateFormat),
		ReservationID: e.ReservationID,
		Kind:          string(e.Kind),
		Quantity:      e.Quantity,
		ConsumedAfter: e.ConsumedAfter,
		MaxAfter:      e.MaxAfter,
		OccurredAt:    e.OccurredAt,
	}
}
