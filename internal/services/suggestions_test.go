package services

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/terraincognita07/dialytics/internal/models"
)

func TestGenerateSuggestionsInsufficientData(t *testing.T) {
	generator := NewSuggestionGenerator(time.UTC)

	got, err := generator.GenerateSuggestions(context.Background(), PatientData{})
	if err != nil {
		t.Fatalf("GenerateSuggestions() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, InsufficientDataSuggestions()) {
		t.Fatalf("expected insufficient-data set, got %#v", got)
	}
}

func TestGenerateSuggestionsIsIdempotent(t *testing.T) {
	records := balancedDays(t, 1500, 900, -1200, -1300, -1400)
	records[0].EffluentColor = "cloudy"
	records[1].Status = models.StatusCancelled
	data := PatientData{
		Patient:    models.Patient{ID: "p-1"},
		Treatments: records,
		KtV:        []KtVResult{{Value: 1.9}, {Value: 1.5}},
	}
	generator := NewSuggestionGenerator(time.UTC)

	first, err := generator.GenerateSuggestions(context.Background(), data)
	if err != nil {
		t.Fatalf("first GenerateSuggestions() error: %v", err)
	}
	second, err := generator.GenerateSuggestions(context.Background(), data)
	if err != nil {
		t.Fatalf("second GenerateSuggestions() error: %v", err)
	}

	firstJSON, _ := json.Marshal(first)
	secondJSON, _ := json.Marshal(second)
	if string(firstJSON) != string(secondJSON) {
		t.Fatalf("expected byte-identical output:\n%s\n%s", firstJSON, secondJSON)
	}
	if records[0].EffluentColor != "cloudy" || len(data.Treatments) != 5 {
		t.Fatal("expected input to stay untouched")
	}
}

func TestGenerateSuggestionsCoversPatientState(t *testing.T) {
	records := balancedDays(t, 1500, 1500, -100)
	records[0].Status = models.StatusCancelled
	records[1].EffluentColor = "turbid"
	data := PatientData{Treatments: records, KtV: []KtVResult{{Value: 1.4}}}

	set, err := NewSuggestionGenerator(time.UTC).GenerateSuggestions(context.Background(), data)
	if err != nil {
		t.Fatalf("GenerateSuggestions() unexpected error: %v", err)
	}

	if !strings.Contains(set.Prescription[0], "hypertonic") {
		t.Fatalf("expected hypertonic prescription first, got %v", set.Prescription)
	}
	if !containsText(set.Tests, "culture") {
		t.Fatalf("expected effluent culture in tests, got %v", set.Tests)
	}
	if !containsText(set.Risks, "Peritonitis") || !containsText(set.Risks, "Underdialysis") {
		t.Fatalf("expected peritonitis and underdialysis risks, got %v", set.Risks)
	}
	if !containsText(set.Risks, "3 high-severity") {
		t.Fatalf("expected danger insight count in risks, got %v", set.Risks)
	}

	tail := func(values []string, standard []string) []string {
		return values[len(values)-len(standard):]
	}
	if !reflect.DeepEqual(tail(set.Monitoring, standardMonitoring), standardMonitoring) {
		t.Fatalf("expected standard monitoring tail, got %v", set.Monitoring)
	}
	if !reflect.DeepEqual(tail(set.Tests, standardTests), standardTests) {
		t.Fatalf("expected standard tests tail, got %v", set.Tests)
	}
	if !reflect.DeepEqual(tail(set.Education, standardEducation), standardEducation) {
		t.Fatalf("expected standard education tail, got %v", set.Education)
	}
}

func TestGenerateSuggestionsStablePatient(t *testing.T) {
	data := PatientData{Treatments: balancedDays(t, -300, -200, -400), KtV: []KtVResult{{Value: 2.1}}}

	set, err := NewSuggestionGenerator(time.UTC).GenerateSuggestions(context.Background(), data)
	if err != nil {
		t.Fatalf("GenerateSuggestions() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(set.Prescription, []string{"Continue the current prescription."}) {
		t.Fatalf("unexpected prescription %v", set.Prescription)
	}
	if !reflect.DeepEqual(set.Risks, []string{"No elevated risks identified from recorded treatments."}) {
		t.Fatalf("unexpected risks %v", set.Risks)
	}
	if !reflect.DeepEqual(set.Tests, standardTests) {
		t.Fatalf("expected only standard tests, got %v", set.Tests)
	}
}

func TestGenerateSuggestionsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set, err := NewSuggestionGenerator(time.UTC).GenerateSuggestions(ctx, PatientData{Treatments: balancedDays(t, 100)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if set.Prescription != nil || set.Risks != nil {
		t.Fatalf("expected no suggestions after cancellation, got %#v", set)
	}
}

func TestGenerateSuggestionsAsyncDeliversOneResult(t *testing.T) {
	data := PatientData{Treatments: balancedDays(t, 100, -100)}
	generator := NewSuggestionGenerator(time.UTC)

	results := generator.GenerateSuggestionsAsync(context.Background(), data)
	result, ok := <-results
	if !ok || result.Err != nil {
		t.Fatalf("expected one successful result, got %#v ok=%v", result, ok)
	}
	if _, open := <-results; open {
		t.Fatal("expected result channel to be closed after delivery")
	}

	want, _ := generator.GenerateSuggestions(context.Background(), data)
	if !reflect.DeepEqual(result.Suggestions, want) {
		t.Fatal("expected async result to equal the synchronous one")
	}
}

func containsText(values []string, needle string) bool {
	for _, value := range values {
		if strings.Contains(value, needle) {
			return true
		}
	}
	return false
}
