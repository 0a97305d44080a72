package reserve_slot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers"
	reserveSlot "github.com/m04kA/SMC-DeliverySlotService/internal/usecase/reserve_slot"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/logger"
)

type useCaseMock struct{ mock.Mock }

func (m *useCaseMock) Execute(ctx context.Context, req *reserveSlot.Request) (*reserveSlot.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*reserveSlot.Response)
	return resp, args.Error(1)
}

const validBody = `{"slotId":2,"deliveryDate":"2025-03-11","quantity":3,"reservationId":"order-1"}`

func serve(uc *useCaseMock, body string) *httptest.ResponseRecorder {
	h := NewHandler(uc, logger.NewWithWriter(io.Discard, "debug"))
	w := httptest.NewRecorder()
	h.Handle(w, httptest.NewRequest(http.MethodPost, "/api/v1/delivery-slots/availability/decrement", strings.NewReader(body)))
	return w
}

func TestHandle_Reserved(t *testing.T) {
	uc := &useCaseMock{}
	date := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	uc.On("Execute", mock.Anything, &reserveSlot.Request{SlotID: 2, DeliveryDate: date, Quantity: 3, ReservationID: "order-1"}).
		Return(&reserveSlot.Response{
			Status: reserveSlot.StatusReserved, ReservationID: "order-1", SlotID: 2,
			DeliveryDate: date, Quantity: 3, RemainingOrders: 7,
		}, nil)

	w := serve(uc, validBody)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ReserveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "reserved", resp.Status)
	assert.Equal(t, "2025-03-11", resp.DeliveryDate)
	assert.Equal(t, 7, resp.RemainingOrders)
	uc.AssertExpectations(t)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: quantity must be at least 1", reserveSlot.ErrInvalidInput), http.StatusBadRequest, handlers.CodeValidationError},
		{reserveSlot.ErrSlotNotFound, http.StatusNotFound, handlers.CodeSlotNotFound},
		{reserveSlot.ErrSlotClosed, http.StatusConflict, handlers.CodeSlotClosed},
		{fmt.Errorf("%w: requested 3, available 1", reserveSlot.ErrCapacityExceeded), http.StatusConflict, handlers.CodeCapacityExceeded},
		{reserveSlot.ErrReservationReleased, http.StatusConflict, handlers.CodeReservationReleased},
		{reserveSlot.ErrReservationMismatch, http.StatusConflict, handlers.CodeReservationConflict},
		{fmt.Errorf("%w: db down", reserveSlot.ErrInternal), http.StatusInternalServerError, handlers.CodeInternalError},
		{errors.New("unexpected"), http.StatusInternalServerError, handlers.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			uc := &useCaseMock{}
			uc.On("Execute", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := serve(uc, validBody)
			assert.Equal(t, tt.status, w.Code)

			var body handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestHandle_BadRequests(t *testing.T) {
	for name, body := range map[string]string{
		"malformed json": `{"slotId":`,
		"bad date":       `{"slotId":1,"deliveryDate":"11/03/2025","quantity":1,"reservationId":"a"}`,
	} {
		t.Run(name, func(t *testing.T) {
			uc := &useCaseMock{}
			w := serve(uc, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			uc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
		})
	}
}
