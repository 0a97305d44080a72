package capacity

import "errors"

var (
	// ErrCapacityNotFound возвращается, когда запись емкости на дату еще не создана
	ErrCapacityNotFound = errors.New("capacity.repository: capacity record not found")

	// ErrConditionFailed возвращается, когда условный UPDATE не затронул ни одной строки
	// (не хватает емкости, слот отключен или новый максимум меньше списанного)
	ErrConditionFailed = errors.New("capacity.repository: update condition failed")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("capacity.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("capacity.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("capacity.repository: failed to scan row")
)
