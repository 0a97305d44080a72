package get_capacity_events

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers"
	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	slotsService "github.com/m04kA/SMC-DeliverySlotService/internal/service/slots"
	"github.com/m04kA/SMC-DeliverySlotService/internal/service/slots/models"
)

const (
	msgInvalidSlotID = "некорректный ID слота"
	msgInvalidDate   = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidLimit  = "некорректный limit"
	msgSlotNotFound  = "слот доставки не найден"
)

type Handler struct {
	service SlotService
	logger  Logger
}

func NewHandler(service SlotService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/delivery-slots/{slotId}/capacity/{date}/events
// Query params: limit (optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	slotID, err := strconv.ParseInt(vars["slotId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /delivery-slots/{id}/capacity/{date}/events - Invalid slot ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	date, err := domain.ParseDate(vars["date"])
	if err != nil {
		h.logger.Warn("GET /delivery-slots/{id}/capacity/{date}/events - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			h.logger.Warn("GET /delivery-slots/{id}/capacity/{date}/events - Invalid limit: %v", err)
			handlers.RespondBadRequest(w, msgInvalidLimit)
			return
		}
	}

	events, err := h.service.GetCapacityEvents(r.Context(), &models.GetCapacityEventsRequest{
		SlotID:       slotID,
		DeliveryDate: date,
		Limit:        limit,
	})
	if err != nil {
		switch {
		case errors.Is(err, slotsService.ErrInvalidInput):
			handlers.RespondBadRequest(w, err.Error())
		case errors.Is(err, slotsService.ErrSlotNotFound):
			handlers.RespondNotFound(w, handlers.CodeSlotNotFound, msgSlotNotFound)
		default:
			h.logger.Error("GET /delivery-slots/{id}/capacity/{date}/events - Failed to get events: slot_id=%d, error=%v", slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, events)
}
