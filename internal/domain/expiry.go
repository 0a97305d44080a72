package domain

import "time"

// IsClosed решает, закрыт ли слот на дату по времени, независимо от емкости
// now должен быть уже переведен в бизнес-часовой пояс
//   - дата раньше сегодняшней: закрыт
//   - дата позже сегодняшней: открыт
//   - сегодня: закрыт, если время суток now >= начала слота
func IsClosed(slot *SlotDefinition, date time.Time, now time.Time) bool {
	today := Today(now)
	day := DateOnly(date)

	if day.Before(today) {
		return true
	}
	if day.After(today) {
		return false
	}

	start, err := slot.StartTime.Minutes()
	if err != nil {
		// без корректного времени начала продавать слот на сегодня нельзя
		return true
	}

	return now.Hour()*60+now.Minute() >= start
}
