package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/dialytics/internal/services"
	"go.uber.org/zap"
)

type dailyResponse struct {
	PatientID      string                    `json:"patient_id"`
	Days           []services.DailyAggregate `json:"days"`
	Treatments     []services.TreatmentRow   `json:"treatments"`
	SkippedUndated int                       `json:"skipped_undated"`
}

type balanceResponse struct {
	PatientID    string                `json:"patient_id"`
	TotalBalance services.TotalBalance `json:"total_balance"`
}

type adherenceResponse struct {
	PatientID string                    `json:"patient_id"`
	Adherence services.AdherenceSummary `json:"adherence"`
}

type insightsResponse struct {
	PatientID string             `json:"patient_id"`
	Insights  []services.Insight `json:"insights"`
}

type suggestionsResponse struct {
	PatientID   string                 `json:"patient_id"`
	Suggestions services.SuggestionSet `json:"suggestions"`
}

type seriesResponse struct {
	PatientID   string                 `json:"patient_id"`
	RangeInDays int                    `json:"range_in_days"`
	Series      []services.SeriesPoint `json:"series"`
}

type distributionResponse struct {
	PatientID    string                 `json:"patient_id"`
	Distribution []services.StatusShare `json:"distribution"`
}

func (handler *Handler) ListPatients(c *fiber.Ctx) error {
	if handler.patients == nil {
		return apiError(c, fiber.StatusNotImplemented, "patient listing is not available for this data source")
	}
	ctx, cancel := handler.requestContext(c)
	defer cancel()

	patients, err := handler.patients.ListPatients(ctx)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"patients": patients})
}

func (handler *Handler) PatientReport(c *fiber.Ctx) error {
	rangeInDays, ok := queryInt(c, "range", handler.seriesRange)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid range")
	}
	ctx, cancel := handler.requestContext(c)
	defer cancel()

	report, err := handler.analytics.BuildReport(ctx, c.Params("id"), rangeInDays, handler.now())
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	if user, ok := currentUser(c); ok {
		handler.logger.Info("patient report served",
			zap.Uint("user_id", user.ID),
			zap.String("patient_id", report.Patient.ID),
		)
	}
	return c.JSON(report)
}

func (handler *Handler) DailyAggregates(c *fiber.Ctx) error {
	analysis, err := handler.analyze(c)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(dailyResponse{
		PatientID:      analysis.Patient.ID,
		Days:           analysis.DailyAggregates,
		Treatments:     analysis.TreatmentRows,
		SkippedUndated: analysis.SkippedUndated,
	})
}

func (handler *Handler) TotalBalance(c *fiber.Ctx) error {
	analysis, err := handler.analyze(c)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(balanceResponse{PatientID: analysis.Patient.ID, TotalBalance: analysis.TotalBalance})
}

func (handler *Handler) Adherence(c *fiber.Ctx) error {
	analysis, err := handler.analyze(c)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(adherenceResponse{PatientID: analysis.Patient.ID, Adherence: analysis.Adherence})
}

func (handler *Handler) Insights(c *fiber.Ctx) error {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid limit")
	}
	analysis, err := handler.analyze(c)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(insightsResponse{
		PatientID: analysis.Patient.ID,
		Insights:  services.TopInsights(analysis.Insights, limit),
	})
}

// Suggestions applies the generator result only when it arrives before the
// request context ends.
func (handler *Handler) Suggestions(c *fiber.Ctx) error {
	ctx, cancel := handler.requestContext(c)
	defer cancel()

	data, err := handler.analytics.LoadPatientData(ctx, c.Params("id"))
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	suggestions, err := handler.analytics.Suggestions(ctx, data)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(suggestionsResponse{PatientID: data.Patient.ID, Suggestions: suggestions})
}

func (handler *Handler) Series(c *fiber.Ctx) error {
	rangeInDays, ok := queryInt(c, "range", handler.seriesRange)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid range")
	}
	if err := services.ValidateSeriesRange(rangeInDays); err != nil {
		return handler.respondServiceError(c, err)
	}
	analysis, err := handler.analyze(c)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(seriesResponse{
		PatientID:   analysis.Patient.ID,
		RangeInDays: rangeInDays,
		Series:      services.WindowSeries(analysis.DailyAggregates, rangeInDays),
	})
}

func (handler *Handler) StatusDistribution(c *fiber.Ctx) error {
	analysis, err := handler.analyze(c)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(distributionResponse{
		PatientID:    analysis.Patient.ID,
		Distribution: services.StatusDistribution(analysis.Data.Treatments),
	})
}

func (handler *Handler) analyze(c *fiber.Ctx) (services.Analysis, error) {
	ctx, cancel := handler.requestContext(c)
	defer cancel()
	return handler.analytics.Analyze(ctx, c.Params("id"), handler.now())
}
