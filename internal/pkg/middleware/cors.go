package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS answers pre-flight requests with permissive headers so the web UI and
// the launcher can call the API from any origin.
func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "authorization, x-client-info, apikey, content-type, stripe-signature",
	})
}
