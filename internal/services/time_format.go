package services

import (
	"time"
)

// NotAvailable is rendered for any absent time or date.
const NotAvailable = "N/A"

const (
	displayDayLayout      = "Jan 2, 2006"
	displayDateTimeLayout = "Jan 2, 2006 15:04"
	displayClockLayout    = "15:04"
	pediatricAgeLimit     = 18
)

const (
	AgePediatric = "Pediatric"
	AgeAdult     = "Adult"
)

// FormatDay renders a day key for display. Malformed keys are returned as is.
func FormatDay(key string) string {
	if key == "" {
		return NotAvailable
	}
	day, err := ParseDayKey(key, time.UTC)
	if err != nil {
		return key
	}
	return day.Format(displayDayLayout)
}

func FormatDateTime(value *time.Time, location *time.Location) string {
	if value == nil || value.IsZero() {
		return NotAvailable
	}
	return inLocation(*value, location).Format(displayDateTimeLayout)
}

func FormatClockTime(value *time.Time, location *time.Location) string {
	if value == nil || value.IsZero() {
		return NotAvailable
	}
	return inLocation(*value, location).Format(displayClockLayout)
}

type PatientAge struct {
	Known          bool   `json:"known"`
	Years          int    `json:"years"`
	Classification string `json:"classification"`
}

// UnknownAge is returned when the birth date is absent.
var UnknownAge = PatientAge{Known: false, Years: 0, Classification: NotAvailable}

func AgeFromBirthDate(birthDate *time.Time, now time.Time, location *time.Location) PatientAge {
	if birthDate == nil || birthDate.IsZero() {
		return UnknownAge
	}

	birth := DateAtLocation(*birthDate, location)
	today := DateAtLocation(now, location)
	years := today.Year() - birth.Year()
	if today.Month() < birth.Month() || (today.Month() == birth.Month() && today.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		years = 0
	}

	classification := AgeAdult
	if years < pediatricAgeLimit {
		classification = AgePediatric
	}
	return PatientAge{Known: true, Years: years, Classification: classification}
}

func inLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		return value
	}
	return value.In(location)
}
