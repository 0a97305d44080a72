package domain

import (
	"time"

	"github.com/m04kA/SMC-DeliverySlotService/pkg/types"
)

// SlotDefinition шаблон ежедневного окна доставки, которым управляет админка
type SlotDefinition struct {
	ID                   int64
	Name                 string
	StartTime            types.TimeString
	EndTime              types.TimeString
	IsActive             bool
	DefaultDailyCapacity int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
