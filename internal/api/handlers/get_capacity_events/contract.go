package get_capacity_events

import (
	"context"

	"github.com/m04kA/SMC-DeliverySlotService/internal/service/slots/models"
)

type SlotService interface {
	GetCapacityEvents(ctx context.Context, req *models.GetCapacityEventsRequest) ([]*models.CapacityEventResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
