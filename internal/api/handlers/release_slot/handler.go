package release_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers"
	releaseSlot "github.com/m04kA/SMC-DeliverySlotService/internal/usecase/release_slot"
)

const (
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgReservationNotFound = "резервирование не найдено"
)

type Handler struct {
	useCase ReleaseSlotUseCase
	logger  Logger
}

func NewHandler(useCase ReleaseSlotUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/delivery-slots/availability/increment
// Повторный вызов возвращает 200 со статусом already_released
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ReleaseRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /delivery-slots/availability/increment - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest())
	if err != nil {
		switch {
		case errors.Is(err, releaseSlot.ErrInvalidInput):
			h.logger.Warn("POST /delivery-slots/availability/increment - Validation failed: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, releaseSlot.ErrReservationNotFound):
			h.logger.Warn("POST /delivery-slots/availability/increment - Reservation not found: reservation_id=%s", req.ReservationID)
			handlers.RespondNotFound(w, handlers.CodeReservationNotFound, msgReservationNotFound)

		default:
			h.logger.Error("POST /delivery-slots/availability/increment - Failed to release: reservation_id=%s, error=%v", req.ReservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /delivery-slots/availability/increment - %s: reservation_id=%s, remaining=%d",
		result.Status, result.ReservationID, result.RemainingOrders)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
