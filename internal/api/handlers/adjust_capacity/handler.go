package adjust_capacity

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers"
	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	adjustCapacity "github.com/m04kA/SMC-DeliverySlotService/internal/usecase/adjust_capacity"
)

const (
	msgInvalidSlotID      = "некорректный ID слота"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgSlotNotFound       = "слот доставки не найден"
)

type Handler struct {
	useCase AdjustCapacityUseCase
	logger  Logger
}

func NewHandler(useCase AdjustCapacityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PUT /api/v1/delivery-slots/{slotId}/capacity/{date}
// Требует X-Admin-Token
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	slotID, err := strconv.ParseInt(vars["slotId"], 10, 64)
	if err != nil {
		h.logger.Warn("PUT /delivery-slots/{id}/capacity/{date} - Invalid slot ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	date, err := domain.ParseDate(vars["date"])
	if err != nil {
		h.logger.Warn("PUT /delivery-slots/{id}/capacity/{date} - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	var req AdjustCapacityRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /delivery-slots/{id}/capacity/{date} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(slotID, date))
	if err != nil {
		switch {
		case errors.Is(err, adjustCapacity.ErrInvalidInput):
			h.logger.Warn("PUT /delivery-slots/{id}/capacity/{date} - Validation failed: slot_id=%d, error=%v", slotID, err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, adjustCapacity.ErrSlotNotFound):
			h.logger.Warn("PUT /delivery-slots/{id}/capacity/{date} - Slot not found: slot_id=%d", slotID)
			handlers.RespondNotFound(w, handlers.CodeSlotNotFound, msgSlotNotFound)

		default:
			h.logger.Error("PUT /delivery-slots/{id}/capacity/{date} - Failed to adjust capacity: slot_id=%d, error=%v", slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /delivery-slots/{id}/capacity/{date} - Capacity adjusted: slot_id=%d, date=%s, max=%d, disabled=%t",
		slotID, vars["date"], result.MaxOrders, result.IsManuallyDisabled)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
