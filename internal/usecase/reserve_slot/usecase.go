package reserve_slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	capacityRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/capacity"
	reservationRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/reservation"
	slotRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/slot"
)

// Исходы для метрик
const (
	outcomeReserved         = "reserved"
	outcomeAlreadyReserved  = "already_reserved"
	outcomeCapacityExceeded = "capacity_exceeded"
	outcomeSlotClosed       = "slot_closed"
	outcomeRejected         = "rejected"
	outcomeError            = "error"
)

// Options бизнес-ограничения резервирования
type Options struct {
	MaxQuantity    int
	MaxAdvanceDays int
}

// UseCase резервирование емкости слота на дату (BookingCoordinator.reserve)
type UseCase struct {
	slotRepo        SlotRepository
	capacityRepo    CapacityRepository
	reservationRepo ReservationRepository
	journalRepo     JournalRepository
	txManager       TransactionManager
	notifier        Notifier
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
	opts            Options
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	slotRepo SlotRepository,
	capacityRepo CapacityRepository,
	reservationRepo ReservationRepository,
	journalRepo JournalRepository,
	txManager TransactionManager,
	notifier Notifier,
	metrics Metrics,
	timeProvider TimeProvider,
	logger Logger,
	opts Options,
) *UseCase {
	return &UseCase{
		slotRepo:        slotRepo,
		capacityRepo:    capacityRepo,
		reservationRepo: reservationRepo,
		journalRepo:     journalRepo,
		txManager:       txManager,
		notifier:        notifier,
		metrics:         metrics,
		timeProvider:    timeProvider,
		logger:          logger,
		opts:            opts,
	}
}

// Execute атомарно списывает емкость и записывает резервирование
// Повтор с тем же reservationId и теми же параметрами ничего не списывает
// и возвращает остаток, зафиксированный первым вызовом
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ReserveSlot: reservation=%s, slot=%d, date=%s, quantity=%d",
		req.ReservationID, req.SlotID, req.DeliveryDate.Format(domain.DateFormat), req.Quantity)

	resp, err := uc.execute(ctx, req)
	uc.metrics.ObserveReservation(outcomeOf(resp, err))
	return resp, err
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req, uc.opts.MaxQuantity); err != nil {
		uc.logger.Warn("ReserveSlot: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()
	date := domain.DateOnly(req.DeliveryDate)

	if err := validateAdvance(date, now, uc.opts.MaxAdvanceDays); err != nil {
		uc.logger.Warn("ReserveSlot: validation failed: %v", err)
		return nil, err
	}

	// 2. Идемпотентный повтор
	if resp, err := uc.replay(ctx, req, date); resp != nil || err != nil {
		return resp, err
	}

	// 3. Списание емкости и запись резервирования в одной транзакции
	var (
		created *domain.Reservation
		record  *domain.CapacityRecord
	)

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 3.1. Определение слота
		def, err := uc.slotRepo.GetByID(txCtx, req.SlotID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				uc.logger.Warn("ReserveSlot: slot id=%d not found", req.SlotID)
				return ErrSlotNotFound
			}
			uc.logger.Error("ReserveSlot: failed to get slot id=%d: %v", req.SlotID, err)
			return fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
		}

		// 3.2. Уже выданная запись емкости (если есть)
		existing, err := uc.capacityRepo.Get(txCtx, req.SlotID, date)
		if err != nil && !errors.Is(err, capacityRepo.ErrCapacityNotFound) {
			uc.logger.Error("ReserveSlot: failed to get capacity: %v", err)
			return fmt.Errorf("%w: failed to get capacity: %v", ErrInternal, err)
		}

		// 3.3. Закрыт ли слот по времени, вручную или деактивирован
		if err := checkOpen(def, existing, date, now); err != nil {
			uc.logger.Warn("ReserveSlot: slot id=%d on %s is closed: %v", req.SlotID, date.Format(domain.DateFormat), err)
			return err
		}

		// 3.4. Ленивое создание записи с емкостью из определения
		if existing == nil {
			if err := uc.capacityRepo.Ensure(txCtx, domain.NewCapacityRecord(def, date)); err != nil {
				uc.logger.Error("ReserveSlot: failed to materialize capacity: %v", err)
				return fmt.Errorf("%w: failed to materialize capacity: %v", ErrInternal, err)
			}
		}

		// 3.5. Условное списание
		updated, err := uc.capacityRepo.TryConsume(txCtx, req.SlotID, date, req.Quantity)
		if err != nil {
			if errors.Is(err, capacityRepo.ErrConditionFailed) {
				return uc.explainRejection(txCtx, req, date)
			}
			uc.logger.Error("ReserveSlot: failed to consume capacity: %v", err)
			return fmt.Errorf("%w: failed to consume capacity: %v", ErrInternal, err)
		}

		// 3.6. Запись идемпотентности
		res, err := uc.reservationRepo.Create(txCtx, &domain.Reservation{
			ID:             req.ReservationID,
			SlotID:         req.SlotID,
			DeliveryDate:   date,
			Quantity:       req.Quantity,
			RemainingAfter: updated.Available(),
		})
		if err != nil {
			if errors.Is(err, reservationRepo.ErrReservationExists) {
				// откатываем списание, ответ даст запись победителя
				return errDuplicateReservation
			}
			uc.logger.Error("ReserveSlot: failed to create reservation: %v", err)
			return fmt.Errorf("%w: failed to create reservation: %v", ErrInternal, err)
		}

		// 3.7. Журнал
		reservationID := req.ReservationID
		if err := uc.journalRepo.Append(txCtx, &domain.CapacityEvent{
			SlotID:        req.SlotID,
			DeliveryDate:  date,
			ReservationID: &reservationID,
			Kind:          domain.EventReserved,
			Quantity:      req.Quantity,
			ConsumedAfter: updated.ConsumedOrders,
			MaxAfter:      updated.MaxOrders,
			OccurredAt:    now.UTC(),
		}); err != nil {
			uc.logger.Error("ReserveSlot: failed to append journal event: %v", err)
			return fmt.Errorf("%w: failed to append journal event: %v", ErrInternal, err)
		}

		created = res
		record = updated
		return nil
	})

	if errors.Is(err, errDuplicateReservation) {
		uc.logger.Info("ReserveSlot: reservation=%s was committed by a concurrent request", req.ReservationID)
		resp, rerr := uc.replay(ctx, req, date)
		if rerr != nil || resp != nil {
			return resp, rerr
		}
		return nil, fmt.Errorf("%w: reservation %s vanished after conflict", ErrInternal, req.ReservationID)
	}
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		uc.logger.Error("ReserveSlot: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: transaction failed: %v", ErrInternal, err)
	}

	uc.notifier.CapacityChanged(ctx, req.SlotID, date)

	uc.logger.Info("ReserveSlot: reserved reservation=%s, slot=%d, date=%s, consumed=%d/%d",
		created.ID, created.SlotID, date.Format(domain.DateFormat), record.ConsumedOrders, record.MaxOrders)

	return &Response{
		Status:          StatusReserved,
		ReservationID:   created.ID,
		SlotID:          created.SlotID,
		DeliveryDate:    created.DeliveryDate,
		Quantity:        created.Quantity,
		RemainingOrders: created.RemainingAfter,
	}, nil
}

// replay отвечает на повтор уже выполненного резервирования
// Возвращает (nil, nil), если резервирования с таким id нет
func (uc *UseCase) replay(ctx context.Context, req *Request, date time.Time) (*Response, error) {
	existing, err := uc.reservationRepo.Get(ctx, req.ReservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			return nil, nil
		}
		uc.logger.Error("ReserveSlot: failed to get reservation=%s: %v", req.ReservationID, err)
		return nil, fmt.Errorf("%w: failed to get reservation: %v", ErrInternal, err)
	}

	if existing.IsReleased() {
		uc.logger.Warn("ReserveSlot: reservation=%s was already released", req.ReservationID)
		return nil, ErrReservationReleased
	}

	if !existing.Matches(req.SlotID, date, req.Quantity) {
		uc.logger.Warn("ReserveSlot: reservation=%s exists with slot=%d, date=%s, quantity=%d",
			req.ReservationID, existing.SlotID, existing.DeliveryDate.Format(domain.DateFormat), existing.Quantity)
		return nil, ErrReservationMismatch
	}

	uc.logger.Info("ReserveSlot: reservation=%s already reserved, remaining=%d", req.ReservationID, existing.RemainingAfter)

	return &Response{
		Status:          StatusAlreadyReserved,
		ReservationID:   existing.ID,
		SlotID:          existing.SlotID,
		DeliveryDate:    existing.DeliveryDate,
		Quantity:        existing.Quantity,
		RemainingOrders: existing.RemainingAfter,
	}, nil
}

// explainRejection различает отключение слота и нехватку емкости после неудачного списания
func (uc *UseCase) explainRejection(ctx context.Context, req *Request, date time.Time) error {
	current, err := uc.capacityRepo.Get(ctx, req.SlotID, date)
	if err != nil {
		uc.logger.Error("ReserveSlot: failed to re-read capacity after rejected update: %v", err)
		return fmt.Errorf("%w: failed to re-read capacity: %v", ErrInternal, err)
	}

	if current.IsManuallyDisabled {
		uc.logger.Warn("ReserveSlot: slot id=%d on %s was disabled", req.SlotID, date.Format(domain.DateFormat))
		return fmt.Errorf("%w: slot is manually disabled", ErrSlotClosed)
	}

	uc.logger.Warn("ReserveSlot: capacity exceeded for slot id=%d on %s, requested=%d, available=%d",
		req.SlotID, date.Format(domain.DateFormat), req.Quantity, current.Available())
	return fmt.Errorf("%w: requested %d, available %d", ErrCapacityExceeded, req.Quantity, current.Available())
}

// checkOpen проверяет, что слот можно продавать на эту дату
// Деактивированное определение не трогает уже выданные записи емкости
func checkOpen(def *domain.SlotDefinition, existing *domain.CapacityRecord, date, now time.Time) error {
	if domain.IsClosed(def, date, now) {
		return fmt.Errorf("%w: cutoff %s passed or date is in the past", ErrSlotClosed, def.StartTime)
	}

	if existing == nil && !def.IsActive {
		return fmt.Errorf("%w: slot is inactive", ErrSlotClosed)
	}

	if existing != nil && existing.IsManuallyDisabled {
		return fmt.Errorf("%w: slot is manually disabled", ErrSlotClosed)
	}

	return nil
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrSlotNotFound) ||
		errors.Is(err, ErrSlotClosed) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrReservationReleased) ||
		errors.Is(err, ErrReservationMismatch) ||
		errors.Is(err, ErrInternal)
}

func outcomeOf(resp *Response, err error) string {
	switch {
	case err == nil && resp != nil && resp.Status == StatusAlreadyReserved:
		return outcomeAlreadyReserved
	case err == nil:
		return outcomeReserved
	case errors.Is(err, ErrCapacityExceeded):
		return outcomeCapacityExceeded
	case errors.Is(err, ErrSlotClosed):
		return outcomeSlotClosed
	case errors.Is(err, ErrInternal):
		return outcomeError
	default:
		return outcomeRejected
	}
}
