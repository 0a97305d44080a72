package domain

// Default configuration values
const (
	DefaultMaxQuantity      = 50
	DefaultMaxRangeDays     = 31
	DefaultMaxAdvanceDays   = 0 // 0 = unlimited
	DefaultBusinessTimezone = "Asia/Kolkata"
)

// Business validation constants
const (
	MaxReservationIDLength = 128
	MaxRangeDaysLimit      = 366
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
