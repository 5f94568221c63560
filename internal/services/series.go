package services

import (
	"sort"

	"github.com/terraincognita07/dialytics/internal/models"
)

type SeriesPoint struct {
	Date           string    `json:"date"`
	VolumeIn       int       `json:"volume_in"`
	VolumeOut      int       `json:"volume_out"`
	NetBalance     int       `json:"net_balance"`
	Interpretation string    `json:"interpretation"`
	Status         DayStatus `json:"status"`
}

type StatusShare struct {
	Status     models.TreatmentStatus `json:"status"`
	Count      int                    `json:"count"`
	Percentage int                    `json:"percentage"`
}

// WindowSeries keeps the rangeInDays most recent aggregates, oldest first.
// It windows the days that have data, not calendar days. A non-positive
// range keeps everything.
func WindowSeries(days []DailyAggregate, rangeInDays int) []SeriesPoint {
	sorted := make([]DailyAggregate, len(days))
	copy(sorted, days)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})
	if rangeInDays > 0 && len(sorted) > rangeInDays {
		sorted = sorted[len(sorted)-rangeInDays:]
	}

	points := make([]SeriesPoint, 0, len(sorted))
	for _, day := range sorted {
		points = append(points, SeriesPoint{
			Date:           day.Date,
			VolumeIn:       day.VolumeIn,
			VolumeOut:      day.VolumeOut,
			NetBalance:     day.NetBalance,
			Interpretation: day.Interpretation,
			Status:         day.Status,
		})
	}
	return points
}

// StatusDistribution counts records per status, largest share first.
func StatusDistribution(records []models.TreatmentRecord) []StatusShare {
	if len(records) == 0 {
		return []StatusShare{}
	}

	counts := make(map[models.TreatmentStatus]int)
	for _, record := range records {
		status := record.Status
		if status == "" {
			status = models.StatusUnknown
		}
		counts[status]++
	}

	shares := make([]StatusShare, 0, len(counts))
	for status, count := range counts {
		shares = append(shares, StatusShare{
			Status:     status,
			Count:      count,
			Percentage: roundPercent(count, len(records)),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count == shares[j].Count {
			return shares[i].Status < shares[j].Status
		}
		return shares[i].Count > shares[j].Count
	})
	return shares
}
