package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/HadesClient/hades-web/internal/pkg/statistics"
)

type MainController struct {
	stats *statistics.Service
}

func NewMainController(stats *statistics.Service) *MainController {
	return &MainController{stats: stats}
}

func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleStats serves the landing page counters.
func (mc *MainController) HandleStats(c *fiber.Ctx) error {
	stats, err := mc.stats.Site(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
