package release_slot

import (
	"fmt"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ReservationID == "" {
		return fmt.Errorf("%w: reservationId is required", ErrInvalidInput)
	}

	if len(req.ReservationID) > domain.MaxReservationIDLength {
		return fmt.Errorf("%w: reservationId must be at most %d characters", ErrInvalidInput, domain.MaxReservationIDLength)
	}

	return nil
}
