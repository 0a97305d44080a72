package reservation

import "errors"

var (
	// ErrReservationNotFound возвращается, когда резервирование с таким id не найдено
	ErrReservationNotFound = errors.New("reservation.repository: reservation not found")

	// ErrReservationExists возвращается, когда резервирование с таким id уже записано
	ErrReservationExists = errors.New("reservation.repository: reservation already exists")

	// ErrReservationNotReserved возвращается, когда резервирование уже освобождено (или отсутствует)
	ErrReservationNotReserved = errors.New("reservation.repository: reservation is not in reserved state")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reservation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reservation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("reservation.repository: failed to scan row")
)
