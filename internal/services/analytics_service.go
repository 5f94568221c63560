package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrInvalidSeriesRange = errors.New("invalid series range")

const MaxSeriesRange = 3650

type PatientSummary struct {
	ID       string     `json:"id"`
	Age      PatientAge `json:"age"`
	Gender   string     `json:"gender"`
	Modality string     `json:"modality"`
}

// Analysis is the shared front of the pipeline: everything derived from the
// records except suggestions and chart series.
type Analysis struct {
	Data            PatientData
	Patient         PatientSummary
	DailyAggregates []DailyAggregate
	TreatmentRows   []TreatmentRow
	TotalBalance    TotalBalance
	Adherence       AdherenceSummary
	Insights        []Insight
	SkippedUndated  int
}

type PatientReport struct {
	Patient            PatientSummary   `json:"patient"`
	DailyAggregates    []DailyAggregate `json:"daily_aggregates"`
	Treatments         []TreatmentRow   `json:"treatments"`
	TotalBalance       TotalBalance     `json:"total_balance"`
	Adherence          AdherenceSummary `json:"adherence"`
	Insights           []Insight        `json:"insights"`
	Series             []SeriesPoint    `json:"series"`
	StatusDistribution []StatusShare    `json:"status_distribution"`
	Suggestions        SuggestionSet    `json:"suggestions"`
	GeneratedAt        time.Time        `json:"generated_at"`
}

type AnalyticsService struct {
	source      PatientDataSource
	suggestions *SuggestionGenerator
	location    *time.Location
	logger      *zap.Logger
}

func NewAnalyticsService(source PatientDataSource, location *time.Location, logger *zap.Logger) *AnalyticsService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		source:      source,
		suggestions: NewSuggestionGenerator(location),
		location:    location,
		logger:      logger,
	}
}

func (service *AnalyticsService) Location() *time.Location {
	return service.location
}

func (service *AnalyticsService) LoadPatientData(ctx context.Context, patientID string) (PatientData, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return PatientData{}, ErrInvalidPatientID
	}

	data, err := service.source.LoadPatientData(ctx, patientID)
	if err != nil {
		service.logger.Error("load patient data failed",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		return PatientData{}, err
	}
	return data, nil
}

// Analyze fetches the patient's records and runs the pipeline once.
func (service *AnalyticsService) Analyze(ctx context.Context, patientID string, now time.Time) (Analysis, error) {
	data, err := service.LoadPatientData(ctx, patientID)
	if err != nil {
		return Analysis{}, err
	}
	return service.AnalyzeData(data, now), nil
}

func (service *AnalyticsService) AnalyzeData(data PatientData, now time.Time) Analysis {
	days, skipped := BuildDailyAggregates(data.Treatments, service.location)
	if skipped > 0 {
		service.logger.Warn("treatments without a usable date were excluded from daily aggregation",
			zap.String("patient_id", data.Patient.ID),
			zap.Int("skipped_records", skipped),
		)
	}
	total := ComputeTotalBalance(days)

	return Analysis{
		Data: data,
		Patient: PatientSummary{
			ID:       data.Patient.ID,
			Age:      AgeFromBirthDate(data.Patient.DateOfBirth, now, service.location),
			Gender:   data.Patient.Gender,
			Modality: data.Patient.Modality,
		},
		DailyAggregates: days,
		TreatmentRows:   BuildTreatmentRows(data.Treatments, service.location),
		TotalBalance:    total,
		Adherence:       BuildAdherenceSummary(data.Treatments, now, service.location),
		Insights: EvaluateInsights(InsightInput{
			Records: data.Treatments,
			Days:    days,
			Total:   total,
			KtV:     data.KtV,
		}),
		SkippedUndated: skipped,
	}
}

func (service *AnalyticsService) Suggestions(ctx context.Context, data PatientData) (SuggestionSet, error) {
	select {
	case result := <-service.suggestions.GenerateSuggestionsAsync(ctx, data):
		return result.Suggestions, result.Err
	case <-ctx.Done():
		return SuggestionSet{}, ctx.Err()
	}
}

func ValidateSeriesRange(rangeInDays int) error {
	if rangeInDays < 0 || rangeInDays > MaxSeriesRange {
		return ErrInvalidSeriesRange
	}
	return nil
}

func (service *AnalyticsService) BuildReport(ctx context.Context, patientID string, rangeInDays int, now time.Time) (PatientReport, error) {
	if err := ValidateSeriesRange(rangeInDays); err != nil {
		return PatientReport{}, err
	}

	analysis, err := service.Analyze(ctx, patientID, now)
	if err != nil {
		return PatientReport{}, err
	}

	suggestions, err := service.Suggestions(ctx, analysis.Data)
	if err != nil {
		return PatientReport{}, err
	}

	return PatientReport{
		Patient:            analysis.Patient,
		DailyAggregates:    analysis.DailyAggregates,
		Treatments:         analysis.TreatmentRows,
		TotalBalance:       analysis.TotalBalance,
		Adherence:          analysis.Adherence,
		Insights:           analysis.Insights,
		Series:             WindowSeries(analysis.DailyAggregates, rangeInDays),
		StatusDistribution: StatusDistribution(analysis.Data.Treatments),
		Suggestions:        suggestions,
		GeneratedAt:        now,
	}, nil
}
