package release_slot

import (
	"context"
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
	"github.com/m04kA/SMC-DeliverySlotService/internal/usecase/reserve_slot"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/logger"
)

var (
	ist        = time.FixedZone("IST", 5*3600+1800)
	tomorrow   = time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	reservedAt = time.Date(2025, 3, 10, 9, 0, 0, 0, ist)
	releasedAt = time.Date(2025, 3, 10, 11, 30, 0, 0, ist)
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type countingNotifier struct{ calls atomic.Int32 }

func (n *countingNotifier) CapacityChanged(context.Context, int64, time.Time) { n.calls.Add(1) }

type recordingMetrics struct {
	mu        sync.Mutex
	outcomes  map[string]int
	floorHits int
}

func (m *recordingMetrics) ObserveRelease(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]int)
	}
	m.outcomes[outcome]++
}

func (m *recordingMetrics) ObserveReleaseFloorHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.floorHits++
}

type noopReserveMetrics struct{}

func (noopReserveMetrics) ObserveReservation(string) {}

type fixture struct {
	release  *UseCase
	reserve  *reserve_slot.UseCase
	store    *memory.Store
	notifier *countingNotifier
	metrics  *recordingMetrics
}

// Слот 1: 10:00-12:00, емкость 10
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore([]domain.SlotDefinition{
		{ID: 1, Name: "Late morning", StartTime: "10:00", EndTime: "12:00", IsActive: true, DefaultDailyCapacity: 10},
	})
	log := logger.NewWithWriter(io.Discard, "debug")
	f := &fixture{
		store:    store,
		notifier: &countingNotifier{},
		metrics:  &recordingMetrics{},
	}
	f.release = NewUseCase(store.Capacity(), store.Reservations(), store.Journal(), store, f.notifier, f.metrics,
		&fixedClock{now: releasedAt}, log)
	f.reserve = reserve_slot.NewUseCase(
		store.Slots(), store.Capacity(), store.Reservations(), store.Journal(), store,
		f.notifier, noopReserveMetrics{},
		&fixedClock{now: reservedAt},
		log,
		reserve_slot.Options{MaxQuantity: 50},
	)
	return f
}

func (f *fixture) reserveOrder(t *testing.T, id string, quantity int) *reserve_slot.Response {
	t.Helper()
	resp, err := f.reserve.Execute(context.Background(), &reserve_slot.Request{
		SlotID: 1, DeliveryDate: tomorrow, Quantity: quantity, ReservationID: id,
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) consumed(t *testing.T) int {
	t.Helper()
	rec, err := f.store.Capacity().Get(context.Background(), 1, tomorrow)
	require.NoError(t, err)
	return rec.ConsumedOrders
}

func TestExecute_ReleaseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.reserveOrder(t, "keep", 4)
	f.reserveOrder(t, "R1", 3)
	require.Equal(t, 7, f.consumed(t))

	first, err := f.release.Execute(ctx, &Request{ReservationID: "R1"})
	require.NoError(t, err)
	assert.Equal(t, StatusReleased, first.Status)
	assert.Equal(t, 6, first.RemainingOrders)

	for i := 0; i < 2; i++ {
		again, err := f.release.Execute(ctx, &Request{ReservationID: "R1"})
		require.NoError(t, err)
		assert.Equal(t, StatusAlreadyReleased, again.Status)
		assert.Equal(t, 6, again.RemainingOrders)
		assert.Equal(t, 3, again.Quantity)
	}

	assert.Equal(t, 4, f.consumed(t))
	assert.Equal(t, 1, f.metrics.outcomes[outcomeReleased])
	assert.Equal(t, 2, f.metrics.outcomes[outcomeAlreadyReleased])
}

func TestExecute_ConcurrentReleasesRestoreOnce(t *testing.T) {
	f := newFixture(t)

	f.reserveOrder(t, "R1", 3)
	f.reserveOrder(t, "R2", 2)
	notifiedBefore := f.notifier.calls.Load()

	var (
		wg       sync.WaitGroup
		released atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.release.Execute(context.Background(), &Request{ReservationID: "R1"})
			if err == nil && resp.Status == StatusReleased {
				released.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), released.Load())
	assert.Equal(t, 2, f.consumed(t))
	assert.Equal(t, notifiedBefore+1, f.notifier.calls.Load())
}

func TestExecute_UnknownReservation(t *testing.T) {
	f := newFixture(t)

	_, err := f.release.Execute(context.Background(), &Request{ReservationID: "foreign-order"})
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.Equal(t, 1, f.metrics.outcomes[outcomeNotFound])
	assert.Equal(t, int32(0), f.notifier.calls.Load())
}

func TestExecute_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.release.Execute(context.Background(), &Request{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.release.Execute(context.Background(), &Request{ReservationID: strings.Repeat("r", 129)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExecute_FloorHitIsClampedAndJournaled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.reserveOrder(t, "R1", 3)

	// счетчик разошелся с резервированиями вне движка
	_, err := f.store.Capacity().Restore(ctx, 1, tomorrow, 2)
	require.NoError(t, err)

	resp, err := f.release.Execute(ctx, &Request{ReservationID: "R1"})
	require.NoError(t, err)
	assert.Equal(t, StatusReleased, resp.Status)
	assert.Equal(t, 10, resp.RemainingOrders)
	assert.Equal(t, 0, f.consumed(t))
	assert.Equal(t, 1, f.metrics.floorHits)

	events, err := f.store.Journal().List(ctx, 1, tomorrow, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventReleased, events[0].Kind)
	assert.Equal(t, 0, events[0].ConsumedAfter)
	assert.Equal(t, domain.EventReleaseFloorHit, events[1].Kind)
	assert.Equal(t, 2, events[1].Quantity)
	assert.Equal(t, domain.EventReserved, events[2].Kind)

	// все события журнала берут время из часов use case
	assert.True(t, events[0].OccurredAt.Equal(releasedAt))
	assert.True(t, events[1].OccurredAt.Equal(releasedAt))
	assert.True(t, events[2].OccurredAt.Equal(reservedAt))
}

func TestExecute_ReleasedIDCannotBeReserved(t *testing.T) {
	f := newFixture(t)

	f.reserveOrder(t, "R1", 1)
	_, err := f.release.Execute(context.Background(), &Request{ReservationID: "R1"})
	require.NoError(t, err)

	_, err = f.reserve.Execute(context.Background(), &reserve_slot.Request{
		SlotID: 1, DeliveryDate: tomorrow, Quantity: 1, ReservationID: "R1",
	})
	assert.ErrorIs(t, err, reserve_slot.ErrReservationReleased)
	assert.Equal(t, 0, f.consumed(t))
}

func TestCancelAndRetryScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.reserveOrder(t, "A", 3)
	assert.Equal(t, 7, a.RemainingOrders)

	bReq := &reserve_slot.Request{SlotID: 1, DeliveryDate: tomorrow, Quantity: 8, ReservationID: "B"}
	_, err := f.reserve.Execute(ctx, bReq)
	assert.ErrorIs(t, err, reserve_slot.ErrCapacityExceeded)

	released, err := f.release.Execute(ctx, &Request{ReservationID: "A"})
	require.NoError(t, err)
	assert.Equal(t, 10, released.RemainingOrders)

	b, err := f.reserve.Execute(ctx, bReq)
	require.NoError(t, err)
	assert.Equal(t, reserve_slot.StatusReserved, b.Status)
	assert.Equal(t, 2, b.RemainingOrders)
	assert.Equal(t, 8, f.consumed(t))
}
