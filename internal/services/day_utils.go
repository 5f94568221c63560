package services

import (
	"time"
)

const dayKeyLayout = "2006-01-02"

// DateAtLocation truncates value to midnight of its calendar day in location.
func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// DayKey returns the "YYYY-MM-DD" calendar key of value in location. Keys
// order lexically the same way the days order chronologically.
func DayKey(value time.Time, location *time.Location) string {
	return DateAtLocation(value, location).Format(dayKeyLayout)
}

func ParseDayKey(key string, location *time.Location) (time.Time, error) {
	if location == nil {
		location = time.UTC
	}
	return time.ParseInLocation(dayKeyLayout, key, location)
}
