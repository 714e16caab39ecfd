package handler

import (
	"medmonics/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the API on app. POST routes require apiKey when it is set.
func RegisterRoutes(app *fiber.App, mnemonics *MnemonicHandler, batch *BatchHandler, apiKey string) {
	validate := middleware.NewValidationMiddleware()
	protected := middleware.RequireAPIKey(apiKey)

	app.Get("/health", Health)

	apiGroup := app.Group("/api")
	apiGroup.Post("/mnemonics", protected, mnemonics.Create)

	generations := apiGroup.Group("/generations")
	generations.Get("/", mnemonics.List)
	generations.Get("/:specialty/:name", validate.ValidateGenerationID(), mnemonics.Get)
	generations.Get("/:specialty/:name/image", validate.ValidateGenerationID(), mnemonics.Image)

	batchGroup := apiGroup.Group("/batch")
	batchGroup.Post("/stage", protected, batch.Stage)
	batchGroup.Post("/submit", protected, batch.Submit)
	batchGroup.Get("/status", validate.ValidateJobQuery(), batch.Status)
	batchGroup.Post("/retrieve", protected, batch.Retrieve)
}

// Health reports liveness.
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
