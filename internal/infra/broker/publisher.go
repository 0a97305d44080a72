package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeKind = "fanout"

// Publisher публикует события изменения емкости в fanout exchange
// Соединение открывается лениво и переоткрывается после ошибки
type Publisher struct {
	url      string
	exchange string
	dial     Dialer
	logger   Logger

	mu      sync.Mutex
	conn    Connection
	channel Channel
}

// NewPublisher создает издателя; dial = nil означает DialAMQP
func NewPublisher(url, exchange string, dial Dialer, logger Logger) *Publisher {
	if dial == nil {
		dial = DialAMQP
	}
	return &Publisher{
		url:      url,
		exchange: exchange,
		dial:     dial,
		logger:   logger,
	}
}

// Connect открывает соединение заранее, чтобы ошибка конфигурации была видна при старте
func (p *Publisher) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureConnection()
}

// Publish отправляет сообщение всем экземплярам сервиса
func (p *Publisher) Publish(ctx context.Context, msg CapacityChangedMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrPublish, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureConnection(); err != nil {
		return err
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, TopicCapacityChanged, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        body,
	})
	if err != nil {
		p.logger.Warn("Broker: publish to exchange=%s failed, dropping connection: %v", p.exchange, err)
		p.reset()
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	return nil
}

// Close закрывает канал и соединение
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reset()
}

func (p *Publisher) ensureConnection() error {
	if p.conn != nil && !p.conn.IsClosed() && p.channel != nil {
		return nil
	}
	p.reset()

	conn, ch, err := openExchange(p.dial, p.url, p.exchange)
	if err != nil {
		p.logger.Warn("Broker: failed to connect publisher: %v", err)
		return err
	}

	p.conn, p.channel = conn, ch
	p.logger.Info("Broker: publisher connected to exchange=%s", p.exchange)
	return nil
}

func (p *Publisher) reset() error {
	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
		p.channel = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.conn = nil
	}
	return firstErr
}

// openExchange подключается и объявляет fanout exchange
func openExchange(dial Dialer, url, exchange string) (Connection, Channel, error) {
	conn, err := dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: dial: %v", ErrConnect, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%w: open channel: %v", ErrConnect, err)
	}

	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%w: declare exchange %s: %v", ErrConnect, exchange, err)
	}

	return conn, ch, nil
}
