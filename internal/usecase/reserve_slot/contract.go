package reserve_slot

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
)

// SlotRepository интерфейс репозитория определений слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.SlotDefinition, error)
}

// CapacityRepository интерфейс репозитория емкости
type CapacityRepository interface {
	Get(ctx context.Context, slotID int64, date time.Time) (*domain.CapacityRecord, error)
	Ensure(ctx context.Context, rec *domain.CapacityRecord) error
	TryConsume(ctx context.Context, slotID int64, date time.Time, quantity int) (*domain.CapacityRecord, error)
}

// ReservationRepository интерфейс репозитория резервирований
type ReservationRepository interface {
	Get(ctx context.Context, id string) (*domain.Reservation, error)
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
}

// JournalRepository интерфейс журнала изменений емкости
type JournalRepository interface {
	Append(ctx context.Context, event *domain.CapacityEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier сообщает об изменении емкости (инвалидация кэша доступности)
type Notifier interface {
	CapacityChanged(ctx context.Context, slotID int64, date time.Time)
}

// Metrics счетчики исходов резервирования
type Metrics interface {
	ObserveReservation(outcome string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider серверные часы в бизнес-часовом поясе
type RealTimeProvider struct {
	Location *time.Location
}

// Now возвращает текущее время в бизнес-часовом поясе
func (p *RealTimeProvider) Now() time.Time {
	if p.Location == nil {
		return time.Now()
	}
	return time.Now().In(p.Location)
}
