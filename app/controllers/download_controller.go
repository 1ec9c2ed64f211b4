package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/HadesClient/hades-web/internal/pkg/download"
	"github.com/HadesClient/hades-web/internal/pkg/usercontext"
)

// DownloadController serves the launcher endpoints.
type DownloadController struct {
	downloads *download.Service
}

func NewDownloadController(svc *download.Service) *DownloadController {
	return &DownloadController{downloads: svc}
}

type configDownloadRequest struct {
	ConfigID string `json:"config_id"`
}

// HandleConfigDownload returns the stored file of a config the caller is
// entitled to.
func (dc *DownloadController) HandleConfigDownload(c *fiber.Ctx) error {
	var req configDownloadRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, download.ErrInvalidConfigID)
	}

	file, err := dc.downloads.ConfigFile(c.UserContext(), usercontext.GetUserID(c), req.ConfigID)
	if err != nil {
		return respondError(c, err)
	}
	return sendAttachment(c, file.Name, file.Data)
}

// HandleClientDownload returns the client binary to active subscribers.
func (dc *DownloadController) HandleClientDownload(c *fiber.Ctx) error {
	file, err := dc.downloads.ClientBinary(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return sendAttachment(c, file.Name, file.Data)
}

// HandleConfigs lists the configs the caller may download.
func (dc *DownloadController) HandleConfigs(c *fiber.Ctx) error {
	configs, err := dc.downloads.EntitledConfigs(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"configs": configs})
}
