package reserve_slot

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request, maxQuantity int) error {
	if req.SlotID <= 0 {
		return fmt.Errorf("%w: slotId must be positive", ErrInvalidInput)
	}

	if req.DeliveryDate.IsZero() {
		return fmt.Errorf("%w: deliveryDate is required", ErrInvalidInput)
	}

	if req.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}

	if maxQuantity > 0 && req.Quantity > maxQuantity {
		return fmt.Errorf("%w: quantity must not exceed %d", ErrInvalidInput, maxQuantity)
	}

	if req.ReservationID == "" {
		return fmt.Errorf("%w: reservationId is required", ErrInvalidInput)
	}

	if len(req.ReservationID) > domain.MaxReservationIDLength {
		return fmt.Errorf("%w: reservationId must be at most %d characters", ErrInvalidInput, domain.MaxReservationIDLength)
	}

	return nil
}

// validateAdvance ограничивает горизонт бронирования; прошлые даты отсекает ExpiryPolicy
func validateAdvance(date, now time.Time, maxAdvanceDays int) error {
	if maxAdvanceDays == 0 {
		return nil
	}

	maxDate := domain.Today(now).AddDate(0, 0, maxAdvanceDays)
	if domain.DateOnly(date).After(maxDate) {
		return fmt.Errorf("%w: can only reserve %d days in advance", ErrInvalidInput, maxAdvanceDays)
	}

	return nil
}
