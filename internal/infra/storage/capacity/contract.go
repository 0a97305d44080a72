package capacity

import "github.com/m04kA/SMC-DeliverySlotService/pkg/dbmetrics"

// Переиспользуем интерфейс из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor
