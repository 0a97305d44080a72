package slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	slotRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-DeliverySlotService/internal/service/slots/models"
)

const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
)

// Service сервис чтения определений слотов и журнала емкости
type Service struct {
	slotRepo    SlotRepository
	journalRepo JournalRepository
	logger      Logger
}

// NewService создает новый экземпляр сервиса слотов
func NewService(
	slotRepo SlotRepository,
	journalRepo JournalRepository,
	logger Logger,
) *Service {
	return &Service{
		slotRepo:    slotRepo,
		journalRepo: journalRepo,
		logger:      logger,
	}
}

// ListActive возвращает активные слоты по времени начала
func (s *Service) ListActive(ctx context.Context) ([]*models.SlotResponse, error) {
	defs, err := s.slotRepo.GetActive(ctx)
	if err != nil {
		s.logger.Error("ListActive: failed to get active slots: %v", err)
		return nil, fmt.Errorf("%w: failed to get active slots: %v", ErrInternal, err)
	}

	result := make([]*models.SlotResponse, 0, len(defs))
	for _, def := range defs {
		result = append(result, models.FromDomainSlot(def))
	}

	s.logger.Info("ListActive: found %d active slots", len(result))

	return result, nil
}

// GetCapacityEvents возвращает последние изменения емкости слота на дату, новые первыми
func (s *Service) GetCapacityEvents(ctx context.Context, req *models.GetCapacityEventsRequest) ([]*models.CapacityEventResponse, error) {
	s.logger.Info("GetCapacityEvents: slot=%d, date=%s", req.SlotID, req.DeliveryDate.Format(domain.DateFormat))

	// 1. Валидируем входные данные
	if req.SlotID <= 0 || req.DeliveryDate.IsZero() {
		s.logger.Warn("GetCapacityEvents: invalid slot=%d or empty date", req.SlotID)
		return nil, fmt.Errorf("%w: slotId and deliveryDate are required", ErrInvalidInput)
	}
	if req.Limit < 0 || req.Limit > maxEventsLimit {
		s.logger.Warn("GetCapacityEvents: invalid limit=%d", req.Limit)
		return nil, fmt.Errorf("%w: limit must be between 0 and %d", ErrInvalidInput, maxEventsLimit)
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultEventsLimit
	}

	// 2. Проверяем существование слота
	if _, err := s.slotRepo.GetByID(ctx, req.SlotID); err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			s.logger.Warn("GetCapacityEvents: slot id=%d not found", req.SlotID)
			return nil, ErrSlotNotFound
		}
		s.logger.Error("GetCapacityEvents: failed to get slot id=%d: %v", req.SlotID, err)
		return nil, fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
	}

	// 3. Читаем журнал
	events, err := s.journalRepo.List(ctx, req.SlotID, domain.DateOnly(req.DeliveryDate), limit)
	if err != nil {
		s.logger.Error("GetCapacityEvents: failed to list events: %v", err)
		return nil, fmt.Errorf("%w: failed to list events: %v", ErrInternal, err)
	}

	result := make([]*models.CapacityEventResponse, 0, len(events))
	for _, e := range events {
		result = append(result, models.FromDomainEvent(e))
	}

	return result, nil
}
