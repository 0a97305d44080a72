package reserve_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers"
	reserveSlot "github.com/m04kA/SMC-DeliverySlotService/internal/usecase/reserve_slot"
)

const (
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgInvalidDate         = "некорректный формат даты доставки, ожидается YYYY-MM-DD"
	msgSlotNotFound        = "слот доставки не найден"
	msgSlotClosed          = "слот доставки закрыт для заказов на эту дату"
	msgCapacityExceeded    = "в выбранном слоте не осталось мест, пожалуйста, выберите другой слот"
	msgReservationReleased = "резервирование с этим id уже отменено, используйте новый id"
	msgReservationConflict = "id резервирования уже использован с другими параметрами"
)

type Handler struct {
	useCase ReserveSlotUseCase
	logger  Logger
}

func NewHandler(useCase ReserveSlotUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/delivery-slots/availability/decrement
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ReserveRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /delivery-slots/availability/decrement - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /delivery-slots/availability/decrement - Invalid date %q: %v", req.DeliveryDate, err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, reserveSlot.ErrInvalidInput):
			h.logger.Warn("POST /delivery-slots/availability/decrement - Validation failed: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, reserveSlot.ErrSlotNotFound):
			h.logger.Warn("POST /delivery-slots/availability/decrement - Slot not found: slot_id=%d", req.SlotID)
			handlers.RespondNotFound(w, handlers.CodeSlotNotFound, msgSlotNotFound)

		case errors.Is(err, reserveSlot.ErrSlotClosed):
			h.logger.Warn("POST /delivery-slots/availability/decrement - Slot closed: slot_id=%d, date=%s", req.SlotID, req.DeliveryDate)
			handlers.RespondConflict(w, handlers.CodeSlotClosed, msgSlotClosed)

		case errors.Is(err, reserveSlot.ErrCapacityExceeded):
			h.logger.Warn("POST /delivery-slots/availability/decrement - Capacity exceeded: slot_id=%d, date=%s, quantity=%d",
				req.SlotID, req.DeliveryDate, req.Quantity)
			handlers.RespondConflict(w, handlers.CodeCapacityExceeded, msgCapacityExceeded)

		case errors.Is(err, reserveSlot.ErrReservationReleased):
			h.logger.Warn("POST /delivery-slots/availability/decrement - Reservation already released: reservation_id=%s", req.ReservationID)
			handlers.RespondConflict(w, handlers.CodeReservationReleased, msgReservationReleased)

		case errors.Is(err, reserveSlot.ErrReservationMismatch):
			h.logger.Warn("POST /delivery-slots/availability/decrement - Reservation id reused: reservation_id=%s", req.ReservationID)
			handlers.RespondConflict(w, handlers.CodeReservationConflict, msgReservationConflict)

		default:
			h.logger.Error("POST /delivery-slots/availability/decrement - Failed to reserve: reservation_id=%s, error=%v", req.ReservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /delivery-slots/availability/decrement - %s: reservation_id=%s, remaining=%d",
		result.Status, result.ReservationID, result.RemainingOrders)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
