package adjust_capacity

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("adjust_capacity: invalid input data")

	// ErrSlotNotFound возвращается, когда слот не существует
	ErrSlotNotFound = errors.New("adjust_capacity: slot not found")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("adjust_capacity: internal error")
)
