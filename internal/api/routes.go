package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)

	api := app.Group("/api")
	api.Post("/auth/login", handler.Login)

	patients := api.Group("/patients", handler.AuthRequired)
	patients.Get("/", handler.ListPatients)
	patients.Get("/:id/report", handler.PatientReport)
	patients.Get("/:id/daily", handler.DailyAggregates)
	patients.Get("/:id/balance", handler.TotalBalance)
	patients.Get("/:id/adherence", handler.Adherence)
	patients.Get("/:id/insights", handler.Insights)
	patients.Get("/:id/suggestions", handler.Suggestions)
	patients.Get("/:id/series", handler.Series)
	patients.Get("/:id/distribution", handler.StatusDistribution)
}
