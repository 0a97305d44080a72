package release_slot

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
)

// CapacityRepository интерфейс репозитория емкости
type CapacityRepository interface {
	Get(ctx context.Context, slotID int64, date time.Time) (*domain.CapacityRecord, error)
	GetForUpdate(ctx context.Context, slotID int64, date time.Time) (*domain.CapacityRecord, error)
	Restore(ctx context.Context, slotID int64, date time.Time, quantity int) (*domain.CapacityRecord, error)
}

// ReservationRepository интерфейс репозитория резервирований
type ReservationRepository interface {
	Get(ctx context.Context, id string) (*domain.Reservation, error)
	MarkReleased(ctx context.Context, id string) (*domain.Reservation, error)
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

// Metrics счетчики исходов освобождения
type Metrics interface {
	ObserveRelease(outcome string)
	ObserveReleaseFloorHit()
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
