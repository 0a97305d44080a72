package get_availability_range

import (
	"strconv"
	"time"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/types"
)

// Request модель запроса доступности на диапазон дат (включительно)
type Request struct {
	StartDate time.Time
	EndDate   time.Time
}

// SlotAvailability доступность одного слота на одну дату
type SlotAvailability struct {
	SlotID          int64
	SlotName        string
	DeliveryDate    time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString
	AvailableOrders int
	MaxOrders       int
	IsAvailable     bool
	Tier            domain.Tier
}

// Response модель ответа, упорядочена по дате, затем по времени начала
type Response struct {
	Items []*SlotAvailability
}

// Snapshot согласованный срез определений и записей емкости на диапазон
// Хранится в кэше; закрытие по времени вычисляется на каждый запрос
type Snapshot struct {
	Slots   []*domain.SlotDefinition
	Records map[string]*domain.CapacityRecord
}

func recordKey(slotID int64, date time.Time) string {
	return date.Format(domain.DateFormat) + "/" + strconv.FormatInt(slotID, 10)
}
