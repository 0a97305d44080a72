package release_slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	capacityRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/capacity"
	reservationRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/reservation"
)

// Исходы для метрик
const (
	outcomeReleased        = "released"
	outcomeAlreadyReleased = "already_released"
	outcomeNotFound        = "not_found"
	outcomeRejected        = "rejected"
	outcomeError           = "error"
)

// UseCase возврат емкости резервирования (BookingCoordinator.release)
type UseCase struct {
	capacityRepo    CapacityRepository
	reservationRepo ReservationRepository
	journalRepo     JournalRepository
	txManager       TransactionManager
	notifier        Notifier
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	capacityRepo CapacityRepository,
	reservationRepo ReservationRepository,
	journalRepo JournalRepository,
	txManager TransactionManager,
	notifier Notifier,
	metrics Metrics,
	timeProvider TimeProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		capacityRepo:    capacityRepo,
		reservationRepo: reservationRepo,
		journalRepo:     journalRepo,
		txManager:       txManager,
		notifier:        notifier,
		metrics:         metrics,
		timeProvider:    timeProvider,
		logger:          logger,
	}
}

// Execute возвращает емкость резервирования ровно один раз
// Повторный вызов отвечает AlreadyReleased и ничего не меняет
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ReleaseSlot: reservation=%s", req.ReservationID)

	resp, err := uc.execute(ctx, req)
	uc.metrics.ObserveRelease(outcomeOf(resp, err))
	return resp, err
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ReleaseSlot: validation failed: %v", err)
		return nil, err
	}

	var resp *Response
	now := uc.timeProvider.Now()

	// 2. Перевод резервирования и возврат емкости в одной транзакции
	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 2.1. Условный переход reserved -> released
		res, err := uc.reservationRepo.MarkReleased(txCtx, req.ReservationID)
		if err != nil {
			if errors.Is(err, reservationRepo.ErrReservationNotReserved) {
				resp, err = uc.alreadyReleased(txCtx, req.ReservationID)
				return err
			}
			uc.logger.Error("ReleaseSlot: failed to mark reservation=%s released: %v", req.ReservationID, err)
			return fmt.Errorf("%w: failed to mark reservation released: %v", ErrInternal, err)
		}

		// 2.2. Блокировка записи емкости
		current, err := uc.capacityRepo.GetForUpdate(txCtx, res.SlotID, res.DeliveryDate)
		if err != nil {
			uc.logger.Error("ReleaseSlot: failed to lock capacity for reservation=%s: %v", req.ReservationID, err)
			return fmt.Errorf("%w: failed to lock capacity: %v", ErrInternal, err)
		}
		floorHit := current.ConsumedOrders < res.Quantity

		// 2.3. Возврат емкости с ограничением снизу нулем
		updated, err := uc.capacityRepo.Restore(txCtx, res.SlotID, res.DeliveryDate, res.Quantity)
		if err != nil {
			uc.logger.Error("ReleaseSlot: failed to restore capacity for reservation=%s: %v", req.ReservationID, err)
			return fmt.Errorf("%w: failed to restore capacity: %v", ErrInternal, err)
		}

		// 2.4. Журнал
		reservationID := res.ID
		if floorHit {
			uc.logger.Error("ReleaseSlot: consumed=%d below released quantity=%d for slot=%d, date=%s, reservation=%s; clamped at zero",
				current.ConsumedOrders, res.Quantity, res.SlotID, res.DeliveryDate.Format(domain.DateFormat), res.ID)
			uc.metrics.ObserveReleaseFloorHit()
			if err := uc.journalRepo.Append(txCtx, &domain.CapacityEvent{
				SlotID:        res.SlotID,
				DeliveryDate:  res.DeliveryDate,
				ReservationID: &reservationID,
				Kind:          domain.EventReleaseFloorHit,
				Quantity:      res.Quantity - current.ConsumedOrders,
				ConsumedAfter: updated.ConsumedOrders,
				MaxAfter:      updated.MaxOrders,
				OccurredAt:    now.UTC(),
			}); err != nil {
				uc.logger.Error("ReleaseSlot: failed to append journal event: %v", err)
				return fmt.Errorf("%w: failed to append journal event: %v", ErrInternal, err)
			}
		}

		if err := uc.journalRepo.Append(txCtx, &domain.CapacityEvent{
			SlotID:        res.SlotID,
			DeliveryDate:  res.DeliveryDate,
			ReservationID: &reservationID,
			Kind:          domain.EventReleased,
			Quantity:      res.Quantity,
			ConsumedAfter: updated.ConsumedOrders,
			MaxAfter:      updated.MaxOrders,
			OccurredAt:    now.UTC(),
		}); err != nil {
			uc.logger.Error("ReleaseSlot: failed to append journal event: %v", err)
			return fmt.Errorf("%w: failed to append journal event: %v", ErrInternal, err)
		}

		resp = &Response{
			Status:          StatusReleased,
			ReservationID:   res.ID,
			SlotID:          res.SlotID,
			DeliveryDate:    res.DeliveryDate,
			Quantity:        res.Quantity,
			RemainingOrders: updated.Available(),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) || errors.Is(err, ErrInternal) {
			return nil, err
		}
		uc.logger.Error("ReleaseSlot: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: transaction failed: %v", ErrInternal, err)
	}

	if resp.Status == StatusReleased {
		uc.notifier.CapacityChanged(ctx, resp.SlotID, resp.DeliveryDate)
	}

	uc.logger.Info("ReleaseSlot: reservation=%s status=%s, remaining=%d", resp.ReservationID, resp.Status, resp.RemainingOrders)

	return resp, nil
}

// alreadyReleased различает неизвестный id и повторное освобождение
func (uc *UseCase) alreadyReleased(ctx context.Context, id string) (*Response, error) {
	res, err := uc.reservationRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			uc.logger.Warn("ReleaseSlot: reservation=%s not found, nothing to release", id)
			return nil, ErrReservationNotFound
		}
		uc.logger.Error("ReleaseSlot: failed to get reservation=%s: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get reservation: %v", ErrInternal, err)
	}

	remaining := 0
	current, err := uc.capacityRepo.Get(ctx, res.SlotID, res.DeliveryDate)
	switch {
	case err == nil:
		remaining = current.Available()
	case errors.Is(err, capacityRepo.ErrCapacityNotFound):
		uc.logger.Warn("ReleaseSlot: capacity for reservation=%s is missing", id)
	default:
		uc.logger.Error("ReleaseSlot: failed to get capacity for reservation=%s: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get capacity: %v", ErrInternal, err)
	}

	uc.logger.Info("ReleaseSlot: reservation=%s was already released", id)

	return &Response{
		Status:          StatusAlreadyReleased,
		ReservationID:   res.ID,
		SlotID:          res.SlotID,
		DeliveryDate:    res.DeliveryDate,
		Quantity:        res.Quantity,
		RemainingOrders: remaining,
	}, nil
}

func outcomeOf(resp *Response, err error) string {
	switch {
	case err == nil && resp != nil && resp.Status == StatusAlreadyReleased:
		return outcomeAlreadyReleased
	case err == nil:
		return outcomeReleased
	case errors.Is(err, ErrReservationNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrInternal):
		return outcomeError
	default:
		return outcomeRejected
	}
}
