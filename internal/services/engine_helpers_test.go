package services

import (
	"testing"
	"time"

	"github.com/terraincognita07/dialytics/internal/models"
)

func mustParseEngineTime(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t.Fatalf("parse time %q: %v", raw, err)
	}
	return parsed
}

func exchangeOn(t *testing.T, raw string, volumeIn int, volumeOut int) models.TreatmentRecord {
	t.Helper()
	return models.TreatmentRecord{
		TreatmentDate: mustParseEngineTime(t, raw),
		VolumeIn:      volumeIn,
		VolumeOut:     volumeOut,
		Status:        models.StatusCompleted,
	}
}

// balancedDays builds one record per day starting at 2024-03-01 with the
// given net balances.
func balancedDays(t *testing.T, balances ...int) []models.TreatmentRecord {
	t.Helper()
	start := mustParseEngineTime(t, "2024-03-01T09:00:00Z")
	records := make([]models.TreatmentRecord, 0, len(balances))
	for index, balance := range balances {
		records = append(records, models.TreatmentRecord{
			TreatmentDate: start.AddDate(0, 0, index),
			VolumeIn:      2000 + balance,
			VolumeOut:     2000,
			Status:        models.StatusCompleted,
		})
	}
	return records
}

func analyzeRecords(records []models.TreatmentRecord, ktv []KtVResult) InsightInput {
	days, _ := BuildDailyAggregates(records, time.UTC)
	return InsightInput{
		Records: records,
		Days:    days,
		Total:   ComputeTotalBalance(days),
		KtV:     ktv,
	}
}

func insightTitles(insights []Insight) []string {
	titles := make([]string, 0, len(insights))
	for _, insight := range insights {
		titles = append(titles, insight.Title)
	}
	return titles
}

func hasInsight(insights []Insight, title string) bool {
	for _, insight := range insights {
		if insight.Title == title {
			return true
		}
	}
	return false
}
