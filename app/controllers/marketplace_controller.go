package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/HadesClient/hades-web/app/repository"
	"github.com/HadesClient/hades-web/internal/pkg/marketplace"
	"github.com/HadesClient/hades-web/internal/pkg/upload"
	"github.com/HadesClient/hades-web/internal/pkg/usercontext"
)

type MarketplaceController struct {
	marketplace *marketplace.Service
}

func NewMarketplaceController(svc *marketplace.Service) *MarketplaceController {
	return &MarketplaceController{marketplace: svc}
}

// HandleList serves the marketplace grid, filtered by ?search, ?category
// and ordered by ?sort (newest, downloads, rating).
func (mc *MarketplaceController) HandleList(c *fiber.Ctx) error {
	configs, err := mc.marketplace.List(c.UserContext(), repository.ConfigFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Sort:     c.Query("sort", repository.SortNewest),
		Limit:    c.QueryInt("limit", 0),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"configs": configs})
}

// HandleUpload accepts a multipart form with the metadata fields and the
// config in the "file" field.
func (mc *MarketplaceController) HandleUpload(c *fiber.Ctx) error {
	var req marketplace.UploadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid form data")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "File is required")
	}
	data, err := readFormFile(fh, upload.MaxConfigSize)
	if err != nil {
		return badRequest(c, "Could not read uploaded file")
	}

	cfg, err := mc.marketplace.Upload(c.UserContext(), usercontext.GetUserID(c), req, marketplace.File{
		Name: fh.Filename,
		Data: data,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"config": cfg})
}

// HandlePurchase buys (or claims, if free) the config in :id.
func (mc *MarketplaceController) HandlePurchase(c *fiber.Ctx) error {
	outcome, err := mc.marketplace.Purchase(c.UserContext(), usercontext.GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "outcome": outcome})
}

func (mc *MarketplaceController) HandleDelete(c *fiber.Ctx) error {
	u := usercontext.GetUserContext(c)
	if err := mc.marketplace.Delete(c.UserContext(), u.UserID, u.Roles, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandlePurchases lists the ids of configs the caller has bought.
func (mc *MarketplaceController) HandlePurchases(c *fiber.Ctx) error {
	ids, err := mc.marketplace.ListPurchased(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(fiber.Map{"config_ids": ids})
}

type officialRequest struct {
	Official bool `json:"official"`
}

func (mc *MarketplaceController) HandleSetOfficial(c *fiber.Ctx) error {
	var req officialRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	u := usercontext.GetUserContext(c)
	if err := mc.marketplace.SetOfficial(c.UserContext(), u.Roles, c.Params("id"), req.Official); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "official": req.Official})
}
