package get_availability_range

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
)

// SlotRepository интерфейс репозитория определений слотов
type SlotRepository interface {
	GetActive(ctx context.Context) ([]*domain.SlotDefinition, error)
}

// CapacityRepository интерфейс репозитория емкости
type CapacityRepository interface {
	GetRange(ctx context.Context, start, end time.Time) ([]*domain.CapacityRecord, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Cache read-through кэш снимков диапазона
type Cache interface {
	Get(ctx context.Context, key string, load func(ctx context.Context) (*Snapshot, error)) (*Snapshot, bool, error)
}

// Metrics счетчики попаданий в кэш
type Metrics interface {
	ObserveCache(result string)
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
