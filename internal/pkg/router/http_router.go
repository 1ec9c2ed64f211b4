package router

import (
	"github.com/gofiber/fiber/v2"
)

// HttpRouter mounts the unauthenticated routes and the operator API.
type HttpRouter struct {
	deps *Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	h.registerPublicRoutes(app)
	h.registerAdminRoutes(app)
}

func NewHttpRouter(deps *Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}
