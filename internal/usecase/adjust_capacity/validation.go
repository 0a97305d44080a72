package adjust_capacity

import "fmt"

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.SlotID <= 0 {
		return fmt.Errorf("%w: slotId must be positive", ErrInvalidInput)
	}

	if req.DeliveryDate.IsZero() {
		return fmt.Errorf("%w: deliveryDate is required", ErrInvalidInput)
	}

	if req.MaxOrders == nil && req.IsManuallyDisabled == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	if req.MaxOrders != nil && *req.MaxOrders < 0 {
		return fmt.Errorf("%w: maxOrders must not be negative", ErrInvalidInput)
	}

	return nil
}
