// Package notifier сообщает об изменении емкости: сдвигает локальное поколение кэша
// доступности и рассылает событие остальным экземплярам через брокер.
package notifier

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	"github.com/m04kA/SMC-DeliverySlotService/internal/infra/broker"
)

const publishTimeout = 2 * time.Second

// Результаты публикации для метрик
const (
	publishOK       = "ok"
	publishFailed   = "error"
	publishDisabled = "disabled"
)

// Generation счетчик поколений кэша
type Generation interface {
	Bump() uint64
}

// Publisher издатель событий
type Publisher interface {
	Publish(ctx context.Context, msg broker.CapacityChangedMessage) error
}

// Metrics счетчики публикаций
type Metrics interface {
	ObservePublish(result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// Notifier реализация Notifier для use case
type Notifier struct {
	generation Generation
	publisher  Publisher
	instanceID string
	metrics    Metrics
	logger     Logger
}

// New создает notifier; publisher = nil отключает рассылку
func New(generation Generation, publisher Publisher, instanceID string, metrics Metrics, logger Logger) *Notifier {
	return &Notifier{
		generation: generation,
		publisher:  publisher,
		instanceID: instanceID,
		metrics:    metrics,
		logger:     logger,
	}
}

// CapacityChanged вызывается после коммита; ошибка рассылки не влияет на результат операции
func (n *Notifier) CapacityChanged(ctx context.Context, slotID int64, date time.Time) {
	gen := n.generation.Bump()

	if n.publisher == nil {
		n.metrics.ObservePublish(publishDisabled)
		return
	}

	// отмена запроса клиента не должна обрывать рассылку
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := n.publisher.Publish(pubCtx, broker.CapacityChangedMessage{
		InstanceID:   n.instanceID,
		SlotID:       slotID,
		DeliveryDate: date.Format(domain.DateFormat),
		Generation:   gen,
		OccurredAt:   time.Now().UTC(),
	})
	if err != nil {
		n.logger.Warn("Notifier: failed to publish capacity change for slot=%d, date=%s: %v",
			slotID, date.Format(domain.DateFormat), err)
		n.metrics.ObservePublish(publishFailed)
		return
	}

	n.metrics.ObservePublish(publishOK)
}
