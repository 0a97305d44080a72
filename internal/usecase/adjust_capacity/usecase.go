package adjust_capacity

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	capacityRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/capacity"
	slotRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/slot"
)

// Исходы для метрик
const (
	outcomeAdjusted = "adjusted"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// UseCase ручное изменение лимита и отключение слота на конкретную дату
type UseCase struct {
	slotRepo     SlotRepository
	capacityRepo CapacityRepository
	journalRepo  JournalRepository
	txManager    TransactionManager
	notifier     Notifier
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	slotRepo SlotRepository,
	capacityRepo CapacityRepository,
	journalRepo JournalRepository,
	txManager TransactionManager,
	notifier Notifier,
	metrics Metrics,
	timeProvider TimeProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		slotRepo:     slotRepo,
		capacityRepo: capacityRepo,
		journalRepo:  journalRepo,
		txManager:    txManager,
		notifier:     notifier,
		metrics:      metrics,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Execute применяет изменение; лимит нельзя опустить ниже уже списанного
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("AdjustCapacity: slot=%d, date=%s, maxOrders=%s, disabled=%s",
		req.SlotID, req.DeliveryDate.Format(domain.DateFormat), formatInt(req.MaxOrders), formatBool(req.IsManuallyDisabled))

	resp, err := uc.execute(ctx, req)
	switch {
	case err == nil:
		uc.metrics.ObserveAdjustment(outcomeAdjusted)
	case errors.Is(err, ErrInternal):
		uc.metrics.ObserveAdjustment(outcomeError)
	default:
		uc.metrics.ObserveAdjustment(outcomeRejected)
	}
	return resp, err
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("AdjustCapacity: validation failed: %v", err)
		return nil, err
	}

	date := domain.DateOnly(req.DeliveryDate)
	now := uc.timeProvider.Now()
	var record *domain.CapacityRecord

	// 2. Материализация записи и изменение в одной транзакции
	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		def, err := uc.slotRepo.GetByID(txCtx, req.SlotID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				uc.logger.Warn("AdjustCapacity: slot id=%d not found", req.SlotID)
				return ErrSlotNotFound
			}
			uc.logger.Error("AdjustCapacity: failed to get slot id=%d: %v", req.SlotID, err)
			return fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
		}

		if err := uc.capacityRepo.Ensure(txCtx, domain.NewCapacityRecord(def, date)); err != nil {
			uc.logger.Error("AdjustCapacity: failed to materialize capacity: %v", err)
			return fmt.Errorf("%w: failed to materialize capacity: %v", ErrInternal, err)
		}

		updated, err := uc.capacityRepo.Adjust(txCtx, req.SlotID, date, req.MaxOrders, req.IsManuallyDisabled)
		if err != nil {
			if errors.Is(err, capacityRepo.ErrConditionFailed) {
				uc.logger.Warn("AdjustCapacity: maxOrders=%s is below consumed orders for slot=%d on %s",
					formatInt(req.MaxOrders), req.SlotID, date.Format(domain.DateFormat))
				return fmt.Errorf("%w: maxOrders must not be below consumed orders", ErrInvalidInput)
			}
			uc.logger.Error("AdjustCapacity: failed to adjust capacity: %v", err)
			return fmt.Errorf("%w: failed to adjust capacity: %v", ErrInternal, err)
		}

		if err := uc.journalRepo.Append(txCtx, &domain.CapacityEvent{
			SlotID:        req.SlotID,
			DeliveryDate:  date,
			Kind:          domain.EventAdjusted,
			ConsumedAfter: updated.ConsumedOrders,
			MaxAfter:      updated.MaxOrders,
			OccurredAt:    now.UTC(),
		}); err != nil {
			uc.logger.Error("AdjustCapacity: failed to append journal event: %v", err)
			return fmt.Errorf("%w: failed to append journal event: %v", ErrInternal, err)
		}

		record = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrSlotNotFound) || errors.Is(err, ErrInternal) {
			return nil, err
		}
		uc.logger.Error("AdjustCapacity: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: transaction failed: %v", ErrInternal, err)
	}

	// 3. Инвалидация доступности
	uc.notifier.CapacityChanged(ctx, req.SlotID, date)

	uc.logger.Info("AdjustCapacity: slot=%d, date=%s now max=%d, consumed=%d, disabled=%t",
		record.SlotID, date.Format(domain.DateFormat), record.MaxOrders, record.ConsumedOrders, record.IsManuallyDisabled)

	return &Response{
		SlotID:             record.SlotID,
		DeliveryDate:       record.DeliveryDate,
		MaxOrders:          record.MaxOrders,
		ConsumedOrders:     record.ConsumedOrders,
		AvailableOrders:    record.Available(),
		IsManuallyDisabled: record.IsManuallyDisabled,
		Tier:               domain.ClassifyTier(record.Available(), record.MaxOrders),
		UpdatedAt:          record.UpdatedAt,
	}, nil
}

func formatInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func formatBool(v *bool) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatBool(*v)
}
