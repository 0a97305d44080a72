package slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
)

// SlotRepository интерфейс репозитория определений слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.SlotDefinition, error)
	GetActive(ctx context.Context) ([]*domain.SlotDefinition, error)
}

// JournalRepository интерфейс журнала изменений емкости
type JournalRepository interface {
	List(ctx context.Context, slotID int64, date time.Time, limit int) ([]*domain.CapacityEvent, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
