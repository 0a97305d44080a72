package broker

import "time"

// TopicCapacityChanged routing key события изменения емкости
const TopicCapacityChanged = "slot.capacity.changed"

// CapacityChangedMessage емкость слота на дату изменилась, кэши доступности устарели
type CapacityChangedMessage struct {
	InstanceID   string    `json:"instanceId"`
	SlotID       int64     `json:"slotId"`
	DeliveryDate string    `json:"deliveryDate"`
	Generation   uint64    `json:"generation"`
	OccurredAt   time.Time `json:"occurredAt"`
}
