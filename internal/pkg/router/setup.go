package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/HadesClient/hades-web/app/controllers"
	"github.com/HadesClient/hades-web/internal/pkg/middleware"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the controllers and middleware the routers mount.
type Dependencies struct {
	Auth        *middleware.Authenticator
	Accounts    *controllers.AuthController
	Billing     *controllers.BillingController
	Downloads   *controllers.DownloadController
	Marketplace *controllers.MarketplaceController
	Users       *controllers.UserController
	Admin       *controllers.AdminController
	Main        *controllers.MainController

	// LimiterStorage backs the register/login rate limiter. Nil keeps the
	// counters in memory.
	LimiterStorage fiber.Storage
	LimiterMax     int
	LimiterWindow  time.Duration
}

func InstallRouter(app *fiber.App, deps *Dependencies) {
	// CORS has to answer preflight requests before any route-level auth.
	app.Use(middleware.CORS())
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
