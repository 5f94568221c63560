package services

import (
	"math"
	"sort"
	"time"

	"github.com/terraincognita07/dialytics/internal/models"
)

// DailyTreatmentTarget is the prescribed number of exchanges per day.
const DailyTreatmentTarget = 3

type MissedTreatmentDay struct {
	Date            string `json:"date"`
	TreatmentsCount int    `json:"treatments_count"`
	MissingCount    int    `json:"missing_count"`
}

type AdherenceSummary struct {
	CompletionRate int                  `json:"completion_rate"`
	TodayCount     int                  `json:"today_count"`
	TodayComplete  bool                 `json:"today_complete"`
	RemainingToday int                  `json:"remaining_today"`
	MissedDays     []MissedTreatmentDay `json:"missed_days"`
}

// CompletionRate is the rounded percentage of completed records, 0 for none.
func CompletionRate(records []models.TreatmentRecord) int {
	if len(records) == 0 {
		return 0
	}
	completed := 0
	for _, record := range records {
		if record.Status == models.StatusCompleted {
			completed++
		}
	}
	return roundPercent(completed, len(records))
}

func TodayCount(records []models.TreatmentRecord, now time.Time, location *time.Location) int {
	todayKey := DayKey(now, location)
	count := 0
	for _, record := range records {
		if record.HasDate() && DayKey(record.TreatmentDate, location) == todayKey {
			count++
		}
	}
	return count
}

// MissedTreatmentDays lists days that have records but fewer than the daily
// target, most recent first. Days without any record are never reported.
func MissedTreatmentDays(records []models.TreatmentRecord, location *time.Location) []MissedTreatmentDay {
	counts := make(map[string]int)
	for _, record := range records {
		if !record.HasDate() {
			continue
		}
		counts[DayKey(record.TreatmentDate, location)]++
	}

	missed := make([]MissedTreatmentDay, 0)
	for key, count := range counts {
		if count >= DailyTreatmentTarget {
			continue
		}
		missed = append(missed, MissedTreatmentDay{
			Date:            key,
			TreatmentsCount: count,
			MissingCount:    DailyTreatmentTarget - count,
		})
	}
	sort.Slice(missed, func(i, j int) bool {
		return missed[i].Date > missed[j].Date
	})
	return missed
}

func BuildAdherenceSummary(records []models.TreatmentRecord, now time.Time, location *time.Location) AdherenceSummary {
	today := TodayCount(records, now, location)
	remaining := DailyTreatmentTarget - today
	if remaining < 0 {
		remaining = 0
	}
	return AdherenceSummary{
		CompletionRate: CompletionRate(records),
		TodayCount:     today,
		TodayComplete:  today >= DailyTreatmentTarget,
		RemainingToday: remaining,
		MissedDays:     MissedTreatmentDays(records, location),
	}
}

// roundPercent rounds part/total*100 half away from zero.
func roundPercent(part int, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}
