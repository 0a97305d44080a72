package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const defaultRetryDelay = 5 * time.Second

// Subscriber получает события других экземпляров через временную очередь,
// привязанную к fanout exchange. Собственные события пропускаются.
type Subscriber struct {
	url        string
	exchange   string
	instanceID string
	dial       Dialer
	logger     Logger
	retryDelay time.Duration
}

// NewSubscriber создает подписчика; dial = nil означает DialAMQP
func NewSubscriber(url, exchange, instanceID string, dial Dialer, logger Logger) *Subscriber {
	if dial == nil {
		dial = DialAMQP
	}
	return &Subscriber{
		url:        url,
		exchange:   exchange,
		instanceID: instanceID,
		dial:       dial,
		logger:     logger,
		retryDelay: defaultRetryDelay,
	}
}

// Run читает события до отмены ctx, переподключаясь после обрыва
func (s *Subscriber) Run(ctx context.Context, handle func(CapacityChangedMessage)) {
	for {
		err := s.consume(ctx, handle)
		if ctx.Err() != nil {
			return
		}

		s.logger.Warn("Broker: subscriber stopped, reconnecting in %s: %v", s.retryDelay, err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.retryDelay):
		}
	}
}

func (s *Subscriber) consume(ctx context.Context, handle func(CapacityChangedMessage)) error {
	conn, ch, err := openExchange(s.dial, s.url, s.exchange)
	if err != nil {
		return err
	}
	defer func() {
		_ = ch.Close()
		_ = conn.Close()
	}()

	// временная очередь на экземпляр, удаляется вместе с соединением
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("%w: declare queue: %v", ErrConsume, err)
	}

	if err := ch.QueueBind(q.Name, "", s.exchange, false, nil); err != nil {
		return fmt.Errorf("%w: bind queue: %v", ErrConsume, err)
	}

	deliveries, err := ch.Consume(q.Name, s.instanceID, true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("%w: consume: %v", ErrConsume, err)
	}

	s.logger.Info("Broker: subscriber listening on exchange=%s, queue=%s", s.exchange, q.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("%w: delivery channel closed", ErrConsume)
			}
			s.dispatch(d.Body, handle)
		}
	}
}

// dispatch возвращает true, если сообщение передано обработчику
func (s *Subscriber) dispatch(body []byte, handle func(CapacityChangedMessage)) bool {
	var msg CapacityChangedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		s.logger.Warn("Broker: skipping malformed message: %v", err)
		return false
	}

	if msg.InstanceID == s.instanceID {
		return false
	}

	handle(msg)
	return true
}
