package reserve_slot

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reserve_slot: invalid input data")

	// ErrSlotNotFound возвращается, когда слот не существует
	ErrSlotNotFound = errors.New("reserve_slot: slot not found")

	// ErrSlotClosed возвращается, когда слот закрыт по времени, дата в прошлом или слот отключен вручную
	ErrSlotClosed = errors.New("reserve_slot: slot is closed")

	// ErrCapacityExceeded возвращается, когда заказ не помещается в оставшуюся емкость
	// Окончательный ответ: повторять тот же запрос бессмысленно, нужно выбрать другой слот
	ErrCapacityExceeded = errors.New("reserve_slot: capacity exceeded")

	// ErrReservationReleased возвращается при попытке повторно использовать id освобожденного резервирования
	ErrReservationReleased = errors.New("reserve_slot: reservation was already released")

	// ErrReservationMismatch возвращается, когда id уже использован с другими параметрами
	ErrReservationMismatch = errors.New("reserve_slot: reservation id already used with different parameters")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reserve_slot: internal error")

	// errDuplicateReservation конкурентный запрос с тем же id успел записать резервирование
	errDuplicateReservation = errors.New("reserve_slot: duplicate reservation")
)
