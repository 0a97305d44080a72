package domain

import (
	"fmt"
	"time"
)

// DateOnly календарная дата в виде полуночи UTC
// Год, месяц и день берутся в той зоне, в которой задан t
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today календарная дата момента now в его зоне
func Today(now time.Time) time.Time {
	return DateOnly(now)
}

// SameDate сравнивает календарные даты
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// ParseDate разбирает дату в формате YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected %s", s, DateFormat)
	}
	return t, nil
}

// DatesBetween все даты отрезка [start, end] включительно
func DatesBetween(start, end time.Time) []time.Time {
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		return nil
	}
	dates := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
