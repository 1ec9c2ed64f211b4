package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/HadesClient/hades-web/app/controllers"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/health", controllers.HandleHealth)

	api := app.Group("/api")
	api.Get("/stats", h.deps.Main.HandleStats)
	api.Get("/users/:username", h.deps.Users.HandlePublicProfile)

	// Gateway webhook: no session, signature-verified by the billing service.
	api.Post("/functions/stripe-webhook", h.deps.Billing.HandleStripeWebhook)
}
