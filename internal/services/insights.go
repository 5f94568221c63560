package services

import (
	"fmt"
	"math"
	"time"

	"github.com/terraincognita07/dialytics/internal/models"
)

type InsightType string

const (
	InsightWarning InsightType = "warning"
	InsightDanger  InsightType = "danger"
	InsightSuccess InsightType = "success"
	InsightInfo    InsightType = "info"
)

const (
	retentionDaysPercentLimit = 50
	fluidOverloadLimit        = 2000
	dehydrationDaysLimit      = 2
	adherenceRateTarget       = 85
	highGlucosePercentLimit   = 60
	ktvTarget                 = 1.7
)

type Insight struct {
	Type       InsightType `json:"type"`
	Title      string      `json:"title"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion"`
}

// KtVResult is one adequacy measurement; inputs are ordered oldest first.
type KtVResult struct {
	Value      float64    `json:"value"`
	MeasuredAt *time.Time `json:"measured_at,omitempty"`
}

type InsightInput struct {
	Records []models.TreatmentRecord
	Days    []DailyAggregate
	Total   TotalBalance
	KtV     []KtVResult
}

type insightRule func(input InsightInput) (Insight, bool)

// Evaluation order is part of the contract: callers that show the first N
// insights depend on it.
var insightRules = []insightRule{
	retentionPatternRule,
	fluidOverloadRule,
	dehydrationRiskRule,
	adherenceConcernRule,
	possibleInfectionRule,
	highGlucoseExposureRule,
	adequacyBelowTargetRule,
}

var labOnlyRules = []insightRule{adequacyBelowTargetRule}

// EvaluateInsights runs every rule and keeps the ones that fire, in rule
// order. Nothing is deduplicated or sorted by severity. Without records only
// the lab-based adequacy rule runs.
func EvaluateInsights(input InsightInput) []Insight {
	insights := make([]Insight, 0, len(insightRules))
	rules := insightRules
	if len(input.Records) == 0 {
		rules = labOnlyRules
	}
	for _, rule := range rules {
		if insight, fired := rule(input); fired {
			insights = append(insights, insight)
		}
	}
	return insights
}

// TopInsights keeps the first n insights; n <= 0 keeps all of them.
func TopInsights(insights []Insight, n int) []Insight {
	if n <= 0 || len(insights) <= n {
		return insights
	}
	return insights[:n]
}

func RetentionDays(days []DailyAggregate) int {
	return CountDays(days, func(day DailyAggregate) bool { return day.NetBalance > 0 })
}

func RetentionPercentage(days []DailyAggregate) int {
	return roundPercent(RetentionDays(days), len(days))
}

func SignificantRemovalDays(days []DailyAggregate) int {
	return CountDays(days, func(day DailyAggregate) bool { return day.NetBalance < significantRemovalThreshold })
}

func CloudyEffluentCount(records []models.TreatmentRecord) int {
	count := 0
	for _, record := range records {
		if record.Effluent() == models.EffluentCloudy {
			count++
		}
	}
	return count
}

func HighGlucoseCount(records []models.TreatmentRecord) int {
	count := 0
	for _, record := range records {
		if record.Glucose() == models.GlucoseHigh {
			count++
		}
	}
	return count
}

// LatestKtV returns the most recent usable Kt/V. Malformed values disable
// the adequacy rule rather than fail it.
func LatestKtV(results []KtVResult) (float64, bool) {
	if len(results) == 0 {
		return 0, false
	}
	latest := results[len(results)-1].Value
	if math.IsNaN(latest) || math.IsInf(latest, 0) || latest <= 0 {
		return 0, false
	}
	return latest, true
}

func retentionExceedsLimit(days []DailyAggregate) bool {
	return len(days) > 0 && RetentionDays(days)*100 > retentionDaysPercentLimit*len(days)
}

func highGlucoseExceedsLimit(records []models.TreatmentRecord) bool {
	return len(records) > 0 && HighGlucoseCount(records)*100 > highGlucosePercentLimit*len(records)
}

func retentionPatternRule(input InsightInput) (Insight, bool) {
	if !retentionExceedsLimit(input.Days) {
		return Insight{}, false
	}
	return Insight{
		Type:  InsightWarning,
		Title: "Fluid Retention Pattern",
		Message: fmt.Sprintf(
			"Positive fluid balance on %d%% of recorded days (%d of %d).",
			RetentionPercentage(input.Days), RetentionDays(input.Days), len(input.Days),
		),
		Suggestion: "Review dialysate prescription and dietary fluid intake.",
	}, true
}

func fluidOverloadRule(input InsightInput) (Insight, bool) {
	if input.Total.Value <= fluidOverloadLimit {
		return Insight{}, false
	}
	return Insight{
		Type:       InsightDanger,
		Title:      "Fluid Overload",
		Message:    fmt.Sprintf("Cumulative net balance of %s over the recorded period.", input.Total.Formatted),
		Suggestion: "Assess for edema, hypertension and weight gain; consider a hypertonic exchange.",
	}, true
}

func dehydrationRiskRule(input InsightInput) (Insight, bool) {
	removalDays := SignificantRemovalDays(input.Days)
	if removalDays <= dehydrationDaysLimit {
		return Insight{}, false
	}
	return Insight{
		Type:       InsightWarning,
		Title:      "Dehydration Risk",
		Message:    fmt.Sprintf("%d days with net fluid removal greater than 1000 mL.", removalDays),
		Suggestion: "Check for hypotension and dizziness; consider a lower-strength dialysate.",
	}, true
}

func adherenceConcernRule(input InsightInput) (Insight, bool) {
	rate := CompletionRate(input.Records)
	if rate >= adherenceRateTarget {
		return Insight{}, false
	}
	return Insight{
		Type:       InsightDanger,
		Title:      "Adherence Concern",
		Message:    fmt.Sprintf("Only %d%% of recorded exchanges were completed.", rate),
		Suggestion: "Discuss barriers to completing every prescribed exchange with the patient.",
	}, true
}

func possibleInfectionRule(input InsightInput) (Insight, bool) {
	occurrences := CloudyEffluentCount(input.Records)
	if occurrences == 0 {
		return Insight{}, false
	}
	return Insight{
		Type:       InsightDanger,
		Title:      "Possible Infection",
		Message:    fmt.Sprintf("Cloudy or turbid effluent reported in %d exchange(s).", occurrences),
		Suggestion: "Send effluent for cell count and culture to rule out peritonitis.",
	}, true
}

func highGlucoseExposureRule(input InsightInput) (Insight, bool) {
	if !highGlucoseExceedsLimit(input.Records) {
		return Insight{}, false
	}
	return Insight{
		Type:  InsightWarning,
		Title: "High Glucose Exposure",
		Message: fmt.Sprintf(
			"%d%% of exchanges used high-glucose dialysate.",
			roundPercent(HighGlucoseCount(input.Records), len(input.Records)),
		),
		Suggestion: "Monitor blood glucose and consider icodextrin for the long dwell.",
	}, true
}

func adequacyBelowTargetRule(input InsightInput) (Insight, bool) {
	latest, ok := LatestKtV(input.KtV)
	if !ok || latest >= ktvTarget {
		return Insight{}, false
	}
	return Insight{
		Type:       InsightWarning,
		Title:      "Adequacy Below Target",
		Message:    fmt.Sprintf("Most recent Kt/V is %.2f, below the %.1f target.", latest, ktvTarget),
		Suggestion: "Consider increasing exchange volume or frequency.",
	}, true
}
