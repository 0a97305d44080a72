package domain

// Tier уровень срочности для витрины, только для отображения
type Tier string

const (
	TierAvailable Tier = "available"
	TierLimited   Tier = "limited"
	TierCritical  Tier = "critical"
	TierFull      Tier = "full"
	TierClosed    Tier = "closed"
)

const (
	availableThreshold = 0.80
	limitedThreshold   = 0.30
)

// ClassifyTier переводит остаток емкости в уровень срочности
// Никогда не используется вместо проверки емкости при резервировании
func ClassifyTier(available, max int) Tier {
	if max <= 0 || available <= 0 {
		return TierFull
	}

	p := float64(available) / float64(max)
	switch {
	case p >= availableThreshold:
		return TierAvailable
	case p >= limitedThreshold:
		return TierLimited
	default:
		return TierCritical
	}
}
