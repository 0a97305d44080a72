package list_slots

import (
	"context"

	"github.com/m04kA/SMC-DeliverySlotService/internal/service/slots/models"
)

type SlotService interface {
	ListActive(ctx context.Context) ([]*models.SlotResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
