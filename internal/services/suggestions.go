package services

import (
	"context"
	"fmt"
	"time"

	"github.com/terraincognita07/dialytics/internal/models"
)

type SuggestionSet struct {
	Prescription []string `json:"prescription"`
	Monitoring   []string `json:"monitoring"`
	Tests        []string `json:"tests"`
	Education    []string `json:"education"`
	Risks        []string `json:"risks"`
}

type SuggestionResult struct {
	Suggestions SuggestionSet
	Err         error
}

const largeRemovalLimit = -2000

var (
	standardMonitoring = []string{
		"Record daily weight, blood pressure and exchange volumes.",
		"Inspect the catheter exit site at every clinic visit.",
	}
	standardTests = []string{
		"Monthly serum electrolytes, albumin and hemoglobin.",
		"Peritoneal equilibration test every 6 to 12 months.",
	}
	standardEducation = []string{
		"Recognise peritonitis warning signs: cloudy effluent, abdominal pain, fever.",
		"Keep a complete daily exchange log.",
	}
)

// InsufficientDataSuggestions is returned when there are no treatments at all.
func InsufficientDataSuggestions() SuggestionSet {
	return SuggestionSet{
		Prescription: []string{"Insufficient treatment data to recommend prescription changes."},
		Monitoring:   []string{"Start recording every exchange so fluid balance can be assessed."},
		Tests:        []string{"Insufficient treatment data to recommend additional tests."},
		Education:    []string{"Review how to record exchange volumes, effluent appearance and solution strength."},
		Risks:        []string{"Risk cannot be assessed without treatment records."},
	}
}

type SuggestionGenerator struct {
	location *time.Location
}

func NewSuggestionGenerator(location *time.Location) *SuggestionGenerator {
	if location == nil {
		location = time.UTC
	}
	return &SuggestionGenerator{location: location}
}

// GenerateSuggestions is synchronous CPU work behind an asynchronous
// contract: a context cancelled before completion yields ctx.Err() and no
// suggestions, so the caller never applies a stale result.
func (generator *SuggestionGenerator) GenerateSuggestions(ctx context.Context, data PatientData) (SuggestionSet, error) {
	if err := ctx.Err(); err != nil {
		return SuggestionSet{}, err
	}
	if len(data.Treatments) == 0 {
		return InsufficientDataSuggestions(), nil
	}

	days, _ := BuildDailyAggregates(data.Treatments, generator.location)
	total := ComputeTotalBalance(days)
	insights := EvaluateInsights(InsightInput{Records: data.Treatments, Days: days, Total: total, KtV: data.KtV})
	suggestions := BuildSuggestions(data.Treatments, days, total, insights, data.KtV)

	if err := ctx.Err(); err != nil {
		return SuggestionSet{}, err
	}
	return suggestions, nil
}

// GenerateSuggestionsAsync delivers exactly one result on the returned channel.
func (generator *SuggestionGenerator) GenerateSuggestionsAsync(ctx context.Context, data PatientData) <-chan SuggestionResult {
	results := make(chan SuggestionResult, 1)
	go func() {
		defer close(results)
		suggestions, err := generator.GenerateSuggestions(ctx, data)
		results <- SuggestionResult{Suggestions: suggestions, Err: err}
	}()
	return results
}

// BuildSuggestions composes every category from already derived values. It
// returns InsufficientDataSuggestions for an empty record set.
func BuildSuggestions(records []models.TreatmentRecord, days []DailyAggregate, total TotalBalance, insights []Insight, ktv []KtVResult) SuggestionSet {
	if len(records) == 0 {
		return InsufficientDataSuggestions()
	}

	completion := CompletionRate(records)
	lowAdherence := completion < adherenceRateTarget
	retention := retentionExceedsLimit(days)
	cloudy := CloudyEffluentCount(records)
	highGlucose := highGlucoseExceedsLimit(records)
	removalDays := SignificantRemovalDays(days)
	latestKtV, hasKtV := LatestKtV(ktv)
	lowKtV := hasKtV && latestKtV < ktvTarget

	set := SuggestionSet{
		Prescription: make([]string, 0),
		Monitoring:   make([]string, 0),
		Tests:        make([]string, 0),
		Education:    make([]string, 0),
		Risks:        make([]string, 0),
	}

	switch {
	case total.Value > fluidOverloadLimit:
		set.Prescription = append(set.Prescription,
			"Consider a hypertonic (2.5% or 4.25%) exchange or icodextrin for the long dwell to improve ultrafiltration.")
	case total.Value > 0:
		set.Prescription = append(set.Prescription,
			"Review fluid and sodium intake; consider one higher-strength exchange on days with positive balance.")
	case total.Value < largeRemovalLimit:
		set.Prescription = append(set.Prescription,
			"Consider a lower-strength dialysate to avoid excessive ultrafiltration.")
	}
	if lowKtV {
		set.Prescription = append(set.Prescription,
			fmt.Sprintf("Increase fill volume or add an exchange to raise Kt/V from %.2f to at least %.1f.", latestKtV, ktvTarget))
	}
	if highGlucose {
		set.Prescription = append(set.Prescription,
			"Limit high-glucose exchanges where ultrafiltration allows.")
	}
	if len(set.Prescription) == 0 {
		set.Prescription = append(set.Prescription, "Continue the current prescription.")
	}

	if lowAdherence {
		set.Monitoring = append(set.Monitoring,
			fmt.Sprintf("Track daily exchange completion (currently %d%%) with the patient or caregiver.", completion))
	}
	if retention {
		set.Monitoring = append(set.Monitoring,
			fmt.Sprintf("Weigh daily; %d%% of recorded days showed fluid retention.", RetentionPercentage(days)))
	}
	if cloudy > 0 {
		set.Monitoring = append(set.Monitoring,
			"Check effluent clarity at every drain and report cloudy bags immediately.")
	}
	if removalDays > dehydrationDaysLimit {
		set.Monitoring = append(set.Monitoring,
			"Check for orthostatic hypotension on high-removal days.")
	}
	set.Monitoring = append(set.Monitoring, standardMonitoring...)

	if cloudy > 0 {
		set.Tests = append(set.Tests, "Effluent cell count with differential, Gram stain and culture.")
	}
	switch {
	case !hasKtV:
		set.Tests = append(set.Tests, "Schedule a Kt/V adequacy test.")
	case lowKtV:
		set.Tests = append(set.Tests, "Repeat Kt/V and creatinine clearance after the prescription change.")
	}
	if highGlucose {
		set.Tests = append(set.Tests, "HbA1c and fasting glucose.")
	}
	if total.Value > fluidOverloadLimit {
		set.Tests = append(set.Tests, "Chest X-ray or BNP if signs of fluid overload are present.")
	}
	set.Tests = append(set.Tests, standardTests...)

	if lowAdherence {
		set.Education = append(set.Education, "Reinforce the importance of completing every prescribed exchange.")
	}
	if retention || total.Value > 0 {
		set.Education = append(set.Education, "Review fluid and salt restriction guidance.")
	}
	if cloudy > 0 {
		set.Education = append(set.Education, "Review aseptic exchange technique and hand hygiene.")
	}
	if highGlucose {
		set.Education = append(set.Education, "Explain how dialysate glucose affects weight and blood sugar.")
	}
	set.Education = append(set.Education, standardEducation...)

	if total.Value > fluidOverloadLimit {
		set.Risks = append(set.Risks, "Fluid overload: hypertension, edema and heart failure.")
	}
	if removalDays > dehydrationDaysLimit {
		set.Risks = append(set.Risks, "Volume depletion: hypotension and loss of residual renal function.")
	}
	if cloudy > 0 {
		set.Risks = append(set.Risks, "Peritonitis.")
	}
	if lowAdherence {
		set.Risks = append(set.Risks, "Underdialysis from missed or incomplete exchanges.")
	}
	if highGlucose {
		set.Risks = append(set.Risks, "Metabolic complications and peritoneal membrane damage from glucose exposure.")
	}
	if lowKtV {
		set.Risks = append(set.Risks, "Inadequate solute clearance.")
	}
	if danger := countInsights(insights, InsightDanger); danger > 0 {
		set.Risks = append(set.Risks, fmt.Sprintf("Clinical review recommended: %d high-severity finding(s).", danger))
	}
	if len(set.Risks) == 0 {
		set.Risks = append(set.Risks, "No elevated risks identified from recorded treatments.")
	}

	return set
}

func countInsights(insights []Insight, insightType InsightType) int {
	count := 0
	for _, insight := range insights {
		if insight.Type == insightType {
			count++
		}
	}
	return count
}
