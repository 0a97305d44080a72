package get_availability_range

import (
	"context"

	getAvailabilityRange "github.com/m04kA/SMC-DeliverySlotService/internal/usecase/get_availability_range"
)

type GetAvailabilityRangeUseCase interface {
	Execute(ctx context.Context, req *getAvailabilityRange.Request) (*getAvailabilityRange.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
