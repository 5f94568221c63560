package services

import (
	"sort"
	"time"

	"github.com/terraincognita07/dialytics/internal/models"
)

type DayStatus string

const (
	DayStatusDanger  DayStatus = "danger"
	DayStatusWarning DayStatus = "warning"
	DayStatusSuccess DayStatus = "success"
	DayStatusNeutral DayStatus = "neutral"
)

// Clinical thresholds in mL. These are fixed, not configuration.
const (
	significantRetentionThreshold = 1000
	significantRemovalThreshold   = -1000
)

const (
	InterpretationSignificantRetention = "Significant fluid retention"
	InterpretationMildRetention        = "Mild fluid retention"
	InterpretationSignificantRemoval   = "Significant fluid removal"
	InterpretationAdequateRemoval      = "Adequate fluid removal"
	InterpretationNeutral              = "Neutral balance"
)

type DailyAggregate struct {
	Date           string                   `json:"date"`
	Label          string                   `json:"label"`
	Treatments     []models.TreatmentRecord `json:"treatments"`
	VolumeIn       int                      `json:"volume_in"`
	VolumeOut      int                      `json:"volume_out"`
	NetBalance     int                      `json:"net_balance"`
	Status         DayStatus                `json:"status"`
	Interpretation string                   `json:"interpretation"`
}

// ClassifyNetBalance maps a day's net balance onto its status and label.
func ClassifyNetBalance(netBalance int) (DayStatus, string) {
	switch {
	case netBalance > significantRetentionThreshold:
		return DayStatusDanger, InterpretationSignificantRetention
	case netBalance > 0:
		return DayStatusWarning, InterpretationMildRetention
	case netBalance < significantRemovalThreshold:
		return DayStatusSuccess, InterpretationSignificantRemoval
	case netBalance < 0:
		return DayStatusSuccess, InterpretationAdequateRemoval
	default:
		return DayStatusNeutral, InterpretationNeutral
	}
}

// BuildDailyAggregates groups records by calendar day, most recent day first.
// Records without a date are left out and counted in skipped.
func BuildDailyAggregates(records []models.TreatmentRecord, location *time.Location) (days []DailyAggregate, skipped int) {
	byKey := make(map[string]*DailyAggregate)
	keys := make([]string, 0)

	for _, record := range records {
		if !record.HasDate() {
			skipped++
			continue
		}

		key := DayKey(record.TreatmentDate, location)
		day, exists := byKey[key]
		if !exists {
			day = &DailyAggregate{Date: key, Label: FormatDay(key), Treatments: make([]models.TreatmentRecord, 0, 3)}
			byKey[key] = day
			keys = append(keys, key)
		}
		day.Treatments = append(day.Treatments, record)
		day.VolumeIn += record.VolumeIn
		day.VolumeOut += record.VolumeOut
	}

	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	days = make([]DailyAggregate, 0, len(keys))
	for _, key := range keys {
		day := byKey[key]
		day.NetBalance = day.VolumeIn - day.VolumeOut
		day.Status, day.Interpretation = ClassifyNetBalance(day.NetBalance)
		days = append(days, *day)
	}
	return days, skipped
}

// CountDays returns how many days satisfy match.
func CountDays(days []DailyAggregate, match func(DailyAggregate) bool) int {
	count := 0
	for _, day := range days {
		if match(day) {
			count++
		}
	}
	return count
}

type PhaseDurations struct {
	FillMinutes  *int `json:"fill_minutes,omitempty"`
	DrainMinutes *int `json:"drain_minutes,omitempty"`
}

// TreatmentPhaseDurations reports fill and drain minutes for the phases that
// have both timestamps.
func TreatmentPhaseDurations(record models.TreatmentRecord) PhaseDurations {
	return PhaseDurations{
		FillMinutes:  minutesBetween(record.InStarted, record.InFinished),
		DrainMinutes: minutesBetween(record.DrainStarted, record.DrainFinished),
	}
}

func minutesBetween(start *time.Time, end *time.Time) *int {
	if start == nil || end == nil || start.IsZero() || end.IsZero() || end.Before(*start) {
		return nil
	}
	minutes := int(end.Sub(*start).Minutes())
	return &minutes
}
