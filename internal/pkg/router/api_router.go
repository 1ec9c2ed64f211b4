package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/HadesClient/hades-web/app/controllers"
)

// ApiRouter mounts the launcher functions, sign in and the signed-in
// marketplace and profile routes.
type ApiRouter struct {
	deps *Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	d := h.deps
	api := app.Group("/api")
	requireUser := d.Auth.RequireUser()

	// Unauthenticated, rate limited per client address
	limited := h.limiter()
	api.Post("/functions/register", limited, d.Accounts.HandleRegister)
	api.Post("/auth/login", limited, d.Accounts.HandleLogin)
	api.Get("/auth/session", requireUser, d.Accounts.HandleSession)

	// Launcher functions
	fn := api.Group("/functions")
	fn.Post("/create-checkout", requireUser, d.Billing.HandleCreateCheckout)
	fn.Post("/config-download", requireUser, d.Downloads.HandleConfigDownload)
	fn.Get("/client-download", requireUser, d.Downloads.HandleClientDownload)
	fn.Post("/client-download", requireUser, d.Downloads.HandleClientDownload)
	fn.Get("/configs", requireUser, d.Downloads.HandleConfigs)
	fn.Post("/configs", requireUser, d.Downloads.HandleConfigs)

	// Marketplace
	market := api.Group("/marketplace")
	market.Get("/configs", d.Auth.OptionalUser(), d.Marketplace.HandleList)
	market.Post("/configs", requireUser, d.Marketplace.HandleUpload)
	market.Post("/configs/:id/purchase", requireUser, d.Marketplace.HandlePurchase)
	market.Delete("/configs/:id", requireUser, d.Marketplace.HandleDelete)
	market.Get("/purchases", requireUser, d.Marketplace.HandlePurchases)

	// Own profile
	api.Get("/profile", requireUser, d.Users.HandleProfile)
	api.Patch("/profile", requireUser, d.Users.HandleProfileUpdate)
	api.Post("/profile/avatar", requireUser, d.Users.HandleAvatarUpload)
}

func (h ApiRouter) limiter() fiber.Handler {
	cfg := limiter.Config{
		Max:          h.deps.LimiterMax,
		Expiration:   h.deps.LimiterWindow,
		KeyGenerator: controllers.ClientIP,
		Storage:      h.deps.LimiterStorage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
		},
	}
	return limiter.New(cfg)
}

func NewApiRouter(deps *Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
