package get_availability_range

import (
	"fmt"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
)

// validateRequest валидирует диапазон дат
func validateRequest(req *Request, maxRangeDays int) error {
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return fmt.Errorf("%w: startDate and endDate are required", ErrInvalidInput)
	}

	start, end := domain.DateOnly(req.StartDate), domain.DateOnly(req.EndDate)
	if start.After(end) {
		return fmt.Errorf("%w: startDate must not be after endDate", ErrInvalidInput)
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if maxRangeDays > 0 && days > maxRangeDays {
		return fmt.Errorf("%w: range must not exceed %d days", ErrInvalidInput, maxRangeDays)
	}

	return nil
}
