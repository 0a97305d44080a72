package broker

import "errors"

var (
	// ErrConnect возвращается, когда не удалось подключиться к RabbitMQ
	ErrConnect = errors.New("broker: failed to connect")

	// ErrPublish возвращается при ошибке публикации
	ErrPublish = errors.New("broker: failed to publish")

	// ErrConsume возвращается при ошибке подписки
	ErrConsume = errors.New("broker: failed to consume")
)
