package get_availability_range

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
)

const (
	cacheHit  = "hit"
	cacheMiss = "miss"
)

// Options ограничения запроса
type Options struct {
	MaxRangeDays int
}

// UseCase доступность активных слотов на диапазон дат (AvailabilityQuery)
// Только читает: записи емкости не создаются
type UseCase struct {
	slotRepo     SlotRepository
	capacityRepo CapacityRepository
	txManager    TransactionManager
	cache        Cache
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
	opts         Options
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	slotRepo SlotRepository,
	capacityRepo CapacityRepository,
	txManager TransactionManager,
	cache Cache,
	metrics Metrics,
	timeProvider TimeProvider,
	logger Logger,
	opts Options,
) *UseCase {
	return &UseCase{
		slotRepo:     slotRepo,
		capacityRepo: capacityRepo,
		txManager:    txManager,
		cache:        cache,
		metrics:      metrics,
		timeProvider: timeProvider,
		logger:       logger,
		opts:         opts,
	}
}

// Execute возвращает строку на каждую пару (активный слот, дата) диапазона
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req, uc.opts.MaxRangeDays); err != nil {
		uc.logger.Warn("GetAvailabilityRange: validation failed: %v", err)
		return nil, err
	}

	start, end := domain.DateOnly(req.StartDate), domain.DateOnly(req.EndDate)
	key := start.Format(domain.DateFormat) + "|" + end.Format(domain.DateFormat)

	// 2. Снимок из кэша или из хранилища
	snapshot, hit, err := uc.cache.Get(ctx, key, func(ctx context.Context) (*Snapshot, error) {
		return uc.load(ctx, start, end)
	})
	if err != nil {
		uc.logger.Error("GetAvailabilityRange: failed to load %s: %v", key, err)
		return nil, fmt.Errorf("%w: failed to load availability: %v", ErrInternal, err)
	}
	if hit {
		uc.metrics.ObserveCache(cacheHit)
	} else {
		uc.metrics.ObserveCache(cacheMiss)
	}

	// 3. Сборка строк на текущий момент
	now := uc.timeProvider.Now()
	dates := domain.DatesBetween(start, end)
	items := make([]*SlotAvailability, 0, len(dates)*len(snapshot.Slots))

	for _, date := range dates {
		for _, def := range snapshot.Slots {
			items = append(items, availabilityOf(def, snapshot.Records[recordKey(def.ID, date)], date, now))
		}
	}

	uc.logger.Info("GetAvailabilityRange: %s, rows=%d, cached=%t", key, len(items), hit)

	return &Response{Items: items}, nil
}

// load читает определения и записи диапазона в одной транзакции
func (uc *UseCase) load(ctx context.Context, start, end time.Time) (*Snapshot, error) {
	snapshot := &Snapshot{Records: make(map[string]*domain.CapacityRecord)}

	err := uc.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		slots, err := uc.slotRepo.GetActive(txCtx)
		if err != nil {
			return fmt.Errorf("GetActive: %w", err)
		}

		records, err := uc.capacityRepo.GetRange(txCtx, start, end)
		if err != nil {
			return fmt.Errorf("GetRange: %w", err)
		}

		snapshot.Slots = slots
		for _, rec := range records {
			snapshot.Records[recordKey(rec.SlotID, rec.DeliveryDate)] = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// availabilityOf строка доступности; без записи емкости берутся значения по умолчанию
func availabilityOf(def *domain.SlotDefinition, rec *domain.CapacityRecord, date, now time.Time) *SlotAvailability {
	if rec == nil {
		rec = domain.NewCapacityRecord(def, date)
	}

	available := rec.Available()
	closed := rec.IsManuallyDisabled || domain.IsClosed(def, date, now)

	tier := domain.ClassifyTier(available, rec.MaxOrders)
	if closed {
		tier = domain.TierClosed
	}

	return &SlotAvailability{
		SlotID:          def.ID,
		SlotName:        def.Name,
		DeliveryDate:    date,
		StartTime:       def.StartTime,
		EndTime:         def.EndTime,
		AvailableOrders: available,
		MaxOrders:       rec.MaxOrders,
		IsAvailable:     !closed && !rec.IsFull(),
		Tier:            tier,
	}
}
