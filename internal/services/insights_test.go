package services

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/terraincognita07/dialytics/internal/models"
)

func TestEvaluateInsightsRetentionPattern(t *testing.T) {
	retained := analyzeRecords(balancedDays(t, 100, 200, 300, 100, 200, 300, -100, -100, -100, -100), nil)
	insights := EvaluateInsights(retained)
	if !hasInsight(insights, "Fluid Retention Pattern") {
		t.Fatalf("expected retention pattern for 6 of 10 days, got %v", insightTitles(insights))
	}
	if insights[0].Type != InsightWarning || !strings.Contains(insights[0].Message, "60%") {
		t.Fatalf("unexpected retention insight %#v", insights[0])
	}

	half := analyzeRecords(balancedDays(t, 100, 200, 300, 100, 200, -100, -100, -100, -100, -100), nil)
	if hasInsight(EvaluateInsights(half), "Fluid Retention Pattern") {
		t.Fatal("expected no retention pattern at exactly 50%")
	}
}

func TestEvaluateInsightsFluidOverload(t *testing.T) {
	over := analyzeRecords(balancedDays(t, 1000, 1001), nil)
	if !hasInsight(EvaluateInsights(over), "Fluid Overload") {
		t.Fatal("expected fluid overload above +2000 mL")
	}

	atLimit := analyzeRecords(balancedDays(t, 1000, 1000), nil)
	if hasInsight(EvaluateInsights(atLimit), "Fluid Overload") {
		t.Fatal("expected no fluid overload at exactly +2000 mL")
	}
}

func TestEvaluateInsightsDehydrationRisk(t *testing.T) {
	three := analyzeRecords(balancedDays(t, -1001, -1500, -1200), nil)
	if !hasInsight(EvaluateInsights(three), "Dehydration Risk") {
		t.Fatal("expected dehydration risk for three significant removal days")
	}

	two := analyzeRecords(balancedDays(t, -1001, -1500, -1000), nil)
	if hasInsight(EvaluateInsights(two), "Dehydration Risk") {
		t.Fatal("expected no dehydration risk when -1000 does not count")
	}
}

func TestEvaluateInsightsAdherenceConcern(t *testing.T) {
	low := analyzeRecords(recordsWithCompleted(t, 10, 12), nil)
	if !hasInsight(EvaluateInsights(low), "Adherence Concern") {
		t.Fatal("expected adherence concern at 83%")
	}

	ok := analyzeRecords(recordsWithCompleted(t, 11, 12), nil)
	if hasInsight(EvaluateInsights(ok), "Adherence Concern") {
		t.Fatal("expected no adherence concern at 92%")
	}
}

func TestEvaluateInsightsPossibleInfection(t *testing.T) {
	records := balancedDays(t, -100, -100, -100, -100)
	records[1].EffluentColor = models.NormalizeDescriptor("  Slightly TURBID ")
	records[3].EffluentColor = models.NormalizeDescriptor("cloudy")
	records[2].EffluentColor = models.NormalizeDescriptor("Clear")

	insights := EvaluateInsights(analyzeRecords(records, nil))
	if !hasInsight(insights, "Possible Infection") {
		t.Fatalf("expected possible infection, got %v", insightTitles(insights))
	}
	for _, insight := range insights {
		if insight.Title == "Possible Infection" && !strings.Contains(insight.Message, "2 exchange") {
			t.Fatalf("expected occurrence count in message, got %q", insight.Message)
		}
	}
}

func TestEvaluateInsightsHighGlucoseExposure(t *testing.T) {
	strengths := func(highCount int, total int) []models.TreatmentRecord {
		records := balancedDays(t, make([]int, total)...)
		for index := range records {
			records[index].DialysateStrength = models.NormalizeDescriptor("1.5% Dextrose")
			if index < highCount {
				records[index].DialysateStrength = models.NormalizeDescriptor([]string{"2.5% Dextrose", "4.25%", "Glucose 3.86%"}[index%3])
			}
		}
		return records
	}

	if !hasInsight(EvaluateInsights(analyzeRecords(strengths(7, 10), nil)), "High Glucose Exposure") {
		t.Fatal("expected high glucose exposure at 70%")
	}
	if hasInsight(EvaluateInsights(analyzeRecords(strengths(6, 10), nil)), "High Glucose Exposure") {
		t.Fatal("expected no high glucose exposure at exactly 60%")
	}
}

func TestEvaluateInsightsAdequacyBelowTarget(t *testing.T) {
	records := balancedDays(t, -100, -100)
	tests := []struct {
		name string
		ktv  []KtVResult
		want bool
	}{
		{name: "no lab data", ktv: nil, want: false},
		{name: "latest below target", ktv: []KtVResult{{Value: 2.0}, {Value: 1.5}}, want: true},
		{name: "latest at target", ktv: []KtVResult{{Value: 1.2}, {Value: 1.7}}, want: false},
		{name: "malformed latest", ktv: []KtVResult{{Value: 1.2}, {Value: math.NaN()}}, want: false},
		{name: "zero latest", ktv: []KtVResult{{Value: 0}}, want: false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got := hasInsight(EvaluateInsights(analyzeRecords(records, testCase.ktv)), "Adequacy Below Target")
			if got != testCase.want {
				t.Fatalf("adequacy insight fired = %v, want %v", got, testCase.want)
			}
		})
	}
}

func TestEvaluateInsightsKeepsRuleOrder(t *testing.T) {
	records := balancedDays(t, 1500, 1500, -100)
	records[0].Status = models.StatusCancelled
	records[1].EffluentColor = "cloudy"
	for index := range records {
		records[index].DialysateStrength = "4.25%"
	}

	insights := EvaluateInsights(analyzeRecords(records, []KtVResult{{Value: 1.4}}))
	want := []string{
		"Fluid Retention Pattern",
		"Fluid Overload",
		"Adherence Concern",
		"Possible Infection",
		"High Glucose Exposure",
		"Adequacy Below Target",
	}
	if got := insightTitles(insights); !reflect.DeepEqual(got, want) {
		t.Fatalf("insight order = %v, want %v", got, want)
	}

	top := TopInsights(insights, 3)
	if got := insightTitles(top); !reflect.DeepEqual(got, want[:3]) {
		t.Fatalf("TopInsights() = %v, want rule order %v", got, want[:3])
	}
	if len(TopInsights(insights, 0)) != len(insights) {
		t.Fatal("expected TopInsights(0) to keep every insight")
	}
}

func TestEvaluateInsightsEmptyRecords(t *testing.T) {
	insights := EvaluateInsights(InsightInput{})
	if insights == nil || len(insights) != 0 {
		t.Fatalf("expected empty non-nil insights, got %#v", insights)
	}
}

func TestEvaluateInsightsWithoutRecordsStillChecksAdequacy(t *testing.T) {
	insights := EvaluateInsights(InsightInput{KtV: []KtVResult{{Value: 1.9}, {Value: 1.4}}})
	if got := insightTitles(insights); !reflect.DeepEqual(got, []string{"Adequacy Below Target"}) {
		t.Fatalf("expected only the adequacy insight, got %v", got)
	}

	if insights := EvaluateInsights(InsightInput{KtV: []KtVResult{{Value: 1.8}}}); len(insights) != 0 {
		t.Fatalf("expected no insights for adequate Kt/V without records, got %v", insightTitles(insights))
	}
}
