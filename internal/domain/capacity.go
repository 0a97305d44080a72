package domain

import "time"

// CapacityRecord счетчик заказов одного слота на конкретную дату
// Инвариант 0 <= ConsumedOrders <= MaxOrders держит БД (CHECK + условные UPDATE)
type CapacityRecord struct {
	SlotID             int64
	DeliveryDate       time.Time
	MaxOrders          int
	ConsumedOrders     int
	IsManuallyDisabled bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewCapacityRecord запись, которую создает первая запись в пару (слот, дата)
func NewCapacityRecord(def *SlotDefinition, date time.Time) *CapacityRecord {
	return &CapacityRecord{
		SlotID:       def.ID,
		DeliveryDate: DateOnly(date),
		MaxOrders:    def.DefaultDailyCapacity,
	}
}

// Available оставшаяся емкость, не меньше нуля
func (c *CapacityRecord) Available() int {
	if c.ConsumedOrders >= c.MaxOrders {
		return 0
	}
	return c.MaxOrders - c.ConsumedOrders
}

// IsFull емкость исчерпана
func (c *CapacityRecord) IsFull() bool {
	return c.Available() == 0
}

// CanFit проверяет, поместится ли quantity заказов
func (c *CapacityRecord) CanFit(quantity int) bool {
	return !c.IsManuallyDisabled && c.ConsumedOrders+quantity <= c.MaxOrders
}
