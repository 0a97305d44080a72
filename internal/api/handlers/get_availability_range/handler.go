package get_availability_range

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers"
	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	getAvailabilityRange "github.com/m04kA/SMC-DeliverySlotService/internal/usecase/get_availability_range"
)

const (
	msgMissingDates     = "параметры startDate и endDate обязательны"
	msgInvalidStartDate = "некорректный формат startDate, ожидается YYYY-MM-DD"
	msgInvalidEndDate   = "некорректный формат endDate, ожидается YYYY-MM-DD"
)

type Handler struct {
	useCase GetAvailabilityRangeUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailabilityRangeUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/delivery-slots/availability/range
// Query params: startDate, endDate (YYYY-MM-DD, включительно)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("startDate")
	endStr := r.URL.Query().Get("endDate")
	if startStr == "" || endStr == "" {
		h.logger.Warn("GET /delivery-slots/availability/range - Missing dates")
		handlers.RespondBadRequest(w, msgMissingDates)
		return
	}

	start, err := domain.ParseDate(startStr)
	if err != nil {
		h.logger.Warn("GET /delivery-slots/availability/range - Invalid start date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidStartDate)
		return
	}

	end, err := domain.ParseDate(endStr)
	if err != nil {
		h.logger.Warn("GET /delivery-slots/availability/range - Invalid end date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEndDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailabilityRange.Request{StartDate: start, EndDate: end})
	if err != nil {
		if errors.Is(err, getAvailabilityRange.ErrInvalidInput) {
			h.logger.Warn("GET /delivery-slots/availability/range - Validation failed: %v", err)
			handlers.RespondBadRequest(w, err.Error())
			return
		}
		h.logger.Error("GET /delivery-slots/availability/range - Failed to get availability: %s..%s, error=%v", startStr, endStr, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
