package reserve_slot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	"github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/logger"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/ptr"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type countingNotifier struct{ calls atomic.Int32 }

func (n *countingNotifier) CapacityChanged(context.Context, int64, time.Time) { n.calls.Add(1) }

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (m *recordingMetrics) ObserveReservation(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]int)
	}
	m.outcomes[outcome]++
}

type fixture struct {
	uc       *UseCase
	store    *memory.Store
	clock    *fixedClock
	notifier *countingNotifier
	metrics  *recordingMetrics
}

// Слот 1: 14:00-16:00, емкость 5; слот 2: 08:00-10:00, емкость 10, неактивен
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore([]domain.SlotDefinition{
		{ID: 1, Name: "Afternoon", StartTime: "14:00", EndTime: "16:00", IsActive: true, DefaultDailyCapacity: 5},
		{ID: 2, Name: "Morning", StartTime: "08:00", EndTime: "10:00", IsActive: false, DefaultDailyCapacity: 10},
	})
	f := &fixture{
		store:    store,
		clock:    &fixedClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, ist)},
		notifier: &countingNotifier{},
		metrics:  &recordingMetrics{},
	}
	f.uc = NewUseCase(
		store.Slots(),
		store.Capacity(),
		store.Reservations(),
		store.Journal(),
		store,
		f.notifier,
		f.metrics,
		f.clock,
		logger.NewWithWriter(io.Discard, "debug"),
		Options{MaxQuantity: 50, MaxAdvanceDays: 30},
	)
	return f
}

var (
	today    = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tomorrow = today.AddDate(0, 0, 1)
)

func reserveReq(id string, date time.Time, quantity int) *Request {
	return &Request{SlotID: 1, DeliveryDate: date, Quantity: quantity, ReservationID: id}
}

func (f *fixture) consumed(t *testing.T, slotID int64, date time.Time) int {
	t.Helper()
	rec, err := f.store.Capacity().Get(context.Background(), slotID, date)
	require.NoError(t, err)
	return rec.ConsumedOrders
}

func TestExecute_ReservesAndMaterializesRecord(t *testing.T) {
	f := newFixture(t)

	resp, err := f.uc.Execute(context.Background(), reserveReq("order-1", tomorrow, 2))
	require.NoError(t, err)

	assert.Equal(t, StatusReserved, resp.Status)
	assert.Equal(t, 3, resp.RemainingOrders)
	assert.Equal(t, tomorrow, resp.DeliveryDate)
	assert.Equal(t, 2, f.consumed(t, 1, tomorrow))
	assert.Equal(t, int32(1), f.notifier.calls.Load())

	events, err := f.store.Journal().List(context.Background(), 1, tomorrow, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventReserved, events[0].Kind)
	assert.Equal(t, 2, events[0].ConsumedAfter)
	assert.Equal(t, 5, events[0].MaxAfter)
}

func TestExecute_NoOverbookingUnderConcurrency(t *testing.T) {
	f := newFixture(t)

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		exceeded  atomic.Int32
		other     atomic.Int32
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.uc.Execute(context.Background(), reserveReq(fmt.Sprintf("order-%d", i), tomorrow, 1))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrCapacityExceeded):
				exceeded.Add(1)
			default:
				other.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(5), successes.Load())
	assert.Equal(t, int32(15), exceeded.Load())
	assert.Equal(t, int32(0), other.Load())
	assert.Equal(t, 5, f.consumed(t, 1, tomorrow))
	assert.Equal(t, 15, f.metrics.outcomes[outcomeCapacityExceeded])
}

func TestExecute_IdempotentRetry(t *testing.T) {
	f := newFixture(t)

	first, err := f.uc.Execute(context.Background(), reserveReq("R2", tomorrow, 2))
	require.NoError(t, err)

	// чужое резервирование между повторами не меняет ответ повтора
	_, err = f.uc.Execute(context.Background(), reserveReq("other", tomorrow, 1))
	require.NoError(t, err)

	second, err := f.uc.Execute(context.Background(), reserveReq("R2", tomorrow, 2))
	require.NoError(t, err)

	assert.Equal(t, StatusReserved, first.Status)
	assert.Equal(t, StatusAlreadyReserved, second.Status)
	assert.Equal(t, first.RemainingOrders, second.RemainingOrders)
	assert.Equal(t, 3, f.consumed(t, 1, tomorrow))
	assert.Equal(t, int32(2), f.notifier.calls.Load())
}

func TestExecute_ConcurrentDuplicateIDConsumesOnce(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	statuses := make([]Status, 10)
	errs := make([]error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.uc.Execute(context.Background(), reserveReq("dup", tomorrow, 2))
			errs[i] = err
			if resp != nil {
				statuses[i] = resp.Status
			}
		}(i)
	}
	wg.Wait()

	reserved := 0
	for i := range statuses {
		require.NoError(t, errs[i])
		if statuses[i] == StatusReserved {
			reserved++
		} else {
			assert.Equal(t, StatusAlreadyReserved, statuses[i])
		}
	}
	assert.Equal(t, 1, reserved)
	assert.Equal(t, 2, f.consumed(t, 1, tomorrow))
}

func TestExecute_CutoffBoundary(t *testing.T) {
	f := newFixture(t)

	f.clock.now = time.Date(2025, 3, 10, 13, 59, 0, 0, ist)
	resp, err := f.uc.Execute(context.Background(), reserveReq("before-cutoff", today, 1))
	require.NoError(t, err)
	assert.Equal(t, 4, resp.RemainingOrders)

	f.clock.now = time.Date(2025, 3, 10, 14, 0, 0, 0, ist)
	_, err = f.uc.Execute(context.Background(), reserveReq("at-cutoff", today, 1))
	assert.ErrorIs(t, err, ErrSlotClosed)

	f.clock.now = time.Date(2025, 3, 10, 15, 30, 0, 0, ist)
	_, err = f.uc.Execute(context.Background(), reserveReq("after-cutoff", today, 1))
	assert.ErrorIs(t, err, ErrSlotClosed)

	assert.Equal(t, 1, f.consumed(t, 1, today))
}

func TestExecute_PastDateIsClosed(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), reserveReq("late", today.AddDate(0, 0, -1), 1))
	assert.ErrorIs(t, err, ErrSlotClosed)
	assert.Equal(t, int32(0), f.notifier.calls.Load())
	assert.Equal(t, 1, f.metrics.outcomes[outcomeSlotClosed])
}

func TestExecute_ManuallyDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Capacity().Ensure(ctx, &domain.CapacityRecord{SlotID: 1, DeliveryDate: tomorrow, MaxOrders: 5}))
	_, err := f.store.Capacity().Adjust(ctx, 1, tomorrow, nil, ptr.Ptr(true))
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, reserveReq("order-1", tomorrow, 1))
	assert.ErrorIs(t, err, ErrSlotClosed)
	assert.Equal(t, 0, f.consumed(t, 1, tomorrow))
}

func TestExecute_InactiveDefinition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, &Request{SlotID: 2, DeliveryDate: tomorrow, Quantity: 1, ReservationID: "order-1"})
	assert.ErrorIs(t, err, ErrSlotClosed)

	// запись, выданная до деактивации, продолжает работать
	require.NoError(t, f.store.Capacity().Ensure(ctx, &domain.CapacityRecord{SlotID: 2, DeliveryDate: tomorrow, MaxOrders: 10}))
	resp, err := f.uc.Execute(ctx, &Request{SlotID: 2, DeliveryDate: tomorrow, Quantity: 1, ReservationID: "order-2"})
	require.NoError(t, err)
	assert.Equal(t, 9, resp.RemainingOrders)
}

func TestExecute_DeactivationKeepsIssuedRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, reserveReq("order-1", tomorrow, 1))
	require.NoError(t, err)

	f.store.PutSlot(domain.SlotDefinition{ID: 1, Name: "Afternoon", StartTime: "14:00", EndTime: "16:00", IsActive: false, DefaultDailyCapacity: 5})

	resp, err := f.uc.Execute(ctx, reserveReq("order-2", tomorrow, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, resp.RemainingOrders)

	// на дату без записи деактивированный слот не продается
	_, err = f.uc.Execute(ctx, reserveReq("order-3", tomorrow.AddDate(0, 0, 1), 1))
	assert.ErrorIs(t, err, ErrSlotClosed)
}

func TestExecute_CapacityExceededIsTerminal(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), reserveReq("big", tomorrow, 6))
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// неудачная попытка не оставляет записи резервирования
	_, err = f.store.Reservations().Get(context.Background(), "big")
	assert.Error(t, err)

	resp, err := f.uc.Execute(context.Background(), reserveReq("big", tomorrow, 5))
	require.NoError(t, err)
	assert.Equal(t, 0, resp.RemainingOrders)
}

func TestExecute_SlotNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), &Request{SlotID: 42, DeliveryDate: tomorrow, Quantity: 1, ReservationID: "x"})
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestExecute_ReusedIDWithDifferentParameters(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), reserveReq("order-1", tomorrow, 2))
	require.NoError(t, err)

	_, err = f.uc.Execute(context.Background(), reserveReq("order-1", tomorrow, 3))
	assert.ErrorIs(t, err, ErrReservationMismatch)
	assert.Equal(t, 2, f.consumed(t, 1, tomorrow))
}

func TestExecute_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  *Request
	}{
		{"zero slot", &Request{SlotID: 0, DeliveryDate: tomorrow, Quantity: 1, ReservationID: "a"}},
		{"missing date", &Request{SlotID: 1, Quantity: 1, ReservationID: "a"}},
		{"zero quantity", &Request{SlotID: 1, DeliveryDate: tomorrow, Quantity: 0, ReservationID: "a"}},
		{"negative quantity", &Request{SlotID: 1, DeliveryDate: tomorrow, Quantity: -2, ReservationID: "a"}},
		{"quantity above limit", &Request{SlotID: 1, DeliveryDate: tomorrow, Quantity: 51, ReservationID: "a"}},
		{"empty reservation id", &Request{SlotID: 1, DeliveryDate: tomorrow, Quantity: 1}},
		{"long reservation id", &Request{SlotID: 1, DeliveryDate: tomorrow, Quantity: 1, ReservationID: strings.Repeat("x", 129)}},
		{"too far ahead", &Request{SlotID: 1, DeliveryDate: today.AddDate(0, 0, 31), Quantity: 1, ReservationID: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Equal(t, int32(0), f.notifier.calls.Load())
}
