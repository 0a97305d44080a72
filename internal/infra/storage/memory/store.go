// Package memory хранилище в памяти процесса для локальной разработки и тестов.
// Транзакция берет общий мьютекс хранилища на время fn и откатывает все изменения
// при ошибке, поэтому условные операции атомарны так же, как одиночный UPDATE в Postgres.
// Между процессами состояние не разделяется.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	capacityRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/capacity"
	reservationRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/reservation"
	slotRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/slot"
)

type capacityKey struct {
	slotID int64
	date   string
}

func keyOf(slotID int64, date time.Time) capacityKey {
	return capacityKey{slotID: slotID, date: date.Format(domain.DateFormat)}
}

type txKey struct{}

type state struct {
	slots        map[int64]domain.SlotDefinition
	capacity     map[capacityKey]domain.CapacityRecord
	reservations map[string]domain.Reservation
	events       []domain.CapacityEvent
}

func (s *state) clone() *state {
	c := &state{
		slots:        make(map[int64]domain.SlotDefinition, len(s.slots)),
		capacity:     make(map[capacityKey]domain.CapacityRecord, len(s.capacity)),
		reservations: make(map[string]domain.Reservation, len(s.reservations)),
		events:       s.events[:len(s.events):len(s.events)],
	}
	for k, v := range s.slots {
		c.slots[k] = v
	}
	for k, v := range s.capacity {
		c.capacity[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	return c
}

// Store хранилище в памяти
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// NewStore создает хранилище с заданными определениями слотов
func NewStore(slots []domain.SlotDefinition) *Store {
	s := &Store{
		st: &state{
			slots:        make(map[int64]domain.SlotDefinition, len(slots)),
			capacity:     make(map[capacityKey]domain.CapacityRecord),
			reservations: make(map[string]domain.Reservation),
		},
		now: time.Now,
	}
	for _, def := range slots {
		s.st.slots[def.ID] = def
	}
	return s
}

// PutSlot добавляет или заменяет определение слота (админка вне этого сервиса)
func (s *Store) PutSlot(def domain.SlotDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.slots[def.ID] = def
}

// Do выполняет fn атомарно: либо применяются все изменения, либо ни одно
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// DoReadOnly выполняет fn на согласованном состоянии
func (s *Store) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.Do(ctx, fn)
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// with выполняет операцию под мьютексом, если вызов не внутри транзакции
func (s *Store) with(ctx context.Context, fn func(st *state)) {
	if !s.inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn(s.st)
}

// Slots представление определений слотов
func (s *Store) Slots() *Slots { return &Slots{s: s} }

// Capacity представление записей емкости
func (s *Store) Capacity() *Capacity { return &Capacity{s: s} }

// Reservations представление резервирований
func (s *Store) Reservations() *Reservations { return &Reservations{s: s} }

// Journal представление журнала событий
func (s *Store) Journal() *Journal { return &Journal{s: s} }

// Slots аналог slot.Repository
type Slots struct{ s *Store }

func (v *Slots) GetByID(ctx context.Context, id int64) (*domain.SlotDefinition, error) {
	var (
		def domain.SlotDefinition
		ok  bool
	)
	v.s.with(ctx, func(st *state) { def, ok = st.slots[id] })
	if !ok {
		return nil, slotRepo.ErrSlotNotFound
	}
	return &def, nil
}

func (v *Slots) GetActive(ctx context.Context) ([]*domain.SlotDefinition, error) {
	result := make([]*domain.SlotDefinition, 0)
	v.s.with(ctx, func(st *state) {
		for _, def := range st.slots {
			if def.IsActive {
				d := def
				result = append(result, &d)
			}
		}
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartTime != result[j].StartTime {
			return result[i].StartTime.IsBefore(result[j].StartTime)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Capacity аналог capacity.Repository
type Capacity struct{ s *Store }

func (v *Capacity) Get(ctx context.Context, slotID int64, date time.Time) (*domain.CapacityRecord, error) {
	var (
		rec domain.CapacityRecord
		ok  bool
	)
	v.s.with(ctx, func(st *state) { rec, ok = st.capacity[keyOf(slotID, date)] })
	if !ok {
		return nil, capacityRepo.ErrCapacityNotFound
	}
	return &rec, nil
}

// GetForUpdate внутри транзакции строка уже защищена мьютексом хранилища
func (v *Capacity) GetForUpdate(ctx context.Context, slotID int64, date time.Time) (*domain.CapacityRecord, error) {
	return v.Get(ctx, slotID, date)
}

func (v *Capacity) GetRange(ctx context.Context, start, end time.Time) ([]*domain.CapacityRecord, error) {
	from, to := domain.DateOnly(start), domain.DateOnly(end)
	result := make([]*domain.CapacityRecord, 0)
	v.s.with(ctx, func(st *state) {
		for _, rec := range st.capacity {
			if rec.DeliveryDate.Before(from) || rec.DeliveryDate.After(to) {
				continue
			}
			r := rec
			result = append(result, &r)
		}
	})
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DeliveryDate.Equal(result[j].DeliveryDate) {
			return result[i].DeliveryDate.Before(result[j].DeliveryDate)
		}
		return result[i].SlotID < result[j].SlotID
	})
	return result, nil
}

func (v *Capacity) Ensure(ctx context.Context, rec *domain.CapacityRecord) error {
	v.s.with(ctx, func(st *state) {
		key := keyOf(rec.SlotID, rec.DeliveryDate)
		if _, exists := st.capacity[key]; exists {
			return
		}
		now := v.s.now()
		st.capacity[key] = domain.CapacityRecord{
			SlotID:       rec.SlotID,
			DeliveryDate: domain.DateOnly(rec.DeliveryDate),
			MaxOrders:    rec.MaxOrders,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	})
	return nil
}

func (v *Capacity) TryConsume(ctx context.Context, slotID int64, date time.Time, quantity int) (*domain.CapacityRecord, error) {
	var (
		rec domain.CapacityRecord
		err error
	)
	v.s.with(ctx, func(st *state) {
		key := keyOf(slotID, date)
		current, ok := st.capacity[key]
		if !ok || !current.CanFit(quantity) {
			err = capacityRepo.ErrConditionFailed
			return
		}
		current.ConsumedOrders += quantity
		current.UpdatedAt = v.s.now()
		st.capacity[key] = current
		rec = current
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (v *Capacity) Restore(ctx context.Context, slotID int64, date time.Time, quantity int) (*domain.CapacityRecord, error) {
	var (
		rec domain.CapacityRecord
		err error
	)
	v.s.with(ctx, func(st *state) {
		key := keyOf(slotID, date)
		current, ok := st.capacity[key]
		if !ok {
			err = capacityRepo.ErrCapacityNotFound
			return
		}
		current.ConsumedOrders -= quantity
		if current.ConsumedOrders < 0 {
			current.ConsumedOrders = 0
		}
		current.UpdatedAt = v.s.now()
		st.capacity[key] = current
		rec = current
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (v *Capacity) Adjust(ctx context.Context, slotID int64, date time.Time, maxOrders *int, disabled *bool) (*domain.CapacityRecord, error) {
	var (
		rec domain.CapacityRecord
		err error
	)
	v.s.with(ctx, func(st *state) {
		key := keyOf(slotID, date)
		current, ok := st.capacity[key]
		if !ok || (maxOrders != nil && *maxOrders < current.ConsumedOrders) {
			err = capacityRepo.ErrConditionFailed
			return
		}
		if maxOrders != nil {
			current.MaxOrders = *maxOrders
		}
		if disabled != nil {
			current.IsManuallyDisabled = *disabled
		}
		current.UpdatedAt = v.s.now()
		st.capacity[key] = current
		rec = current
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Reservations аналог reservation.Repository
type Reservations struct{ s *Store }

func (v *Reservations) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	var (
		res domain.Reservation
		ok  bool
	)
	v.s.with(ctx, func(st *state) { res, ok = st.reservations[id] })
	if !ok {
		return nil, reservationRepo.ErrReservationNotFound
	}
	return &res, nil
}

func (v *Reservations) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	var (
		created domain.Reservation
		err     error
	)
	v.s.with(ctx, func(st *state) {
		if _, exists := st.reservations[res.ID]; exists {
			err = reservationRepo.ErrReservationExists
			return
		}
		created = *res
		created.State = domain.ReservationReserved
		created.DeliveryDate = domain.DateOnly(res.DeliveryDate)
		created.CreatedAt = v.s.now()
		created.ReleasedAt = nil
		st.reservations[res.ID] = created
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (v *Reservations) MarkReleased(ctx context.Context, id string) (*domain.Reservation, error) {
	var (
		res domain.Reservation
		err error
	)
	v.s.with(ctx, func(st *state) {
		current, ok := st.reservations[id]
		if !ok || !current.IsReserved() {
			err = reservationRepo.ErrReservationNotReserved
			return
		}
		releasedAt := v.s.now()
		current.State = domain.ReservationReleased
		current.ReleasedAt = &releasedAt
		st.reservations[id] = current
		res = current
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Journal аналог journal.Repository
type Journal struct{ s *Store }

func (v *Journal) Append(ctx context.Context, event *domain.CapacityEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = v.s.now().UTC()
	}
	v.s.with(ctx, func(st *state) {
		st.events = append(st.events, *event)
	})
	return nil
}

func (v *Journal) List(ctx context.Context, slotID int64, date time.Time, limit int) ([]*domain.CapacityEvent, error) {
	result := make([]*domain.CapacityEvent, 0)
	v.s.with(ctx, func(st *state) {
		// журнал только дописывается, поэтому обход с конца дает новые первыми
		for i := len(st.events) - 1; i >= 0; i-- {
			e := st.events[i]
			if e.SlotID != slotID || !domain.SameDate(e.DeliveryDate, date) {
				continue
			}
			result = append(result, &e)
			if limit > 0 && len(result) == limit {
				return
			}
		}
	})
	return result, nil
}
