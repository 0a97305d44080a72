package adjust_capacity

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
	Ensure(ctx context.Context, rec *domain.CapacityRecord) error
	Adjust(ctx context.Context, slotID int64, date time.Time, maxOrders *int, disabled *bool) (*domain.CapacityRecord, error)
}

// JournalRepository интерфейс журнала изменений емкости
type JournalRepository interface {
	Append(ctx context.Context, event *domain.CapacityEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier сообщает об изменении емкости
type Notifier interface {
	CapacityChanged(ctx context.Context, slotID int64, date time.Time)
}

// Metrics счетчики админских изменений
type Metrics interface {
	ObserveAdjustment(outcome string)
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
