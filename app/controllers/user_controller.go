package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/HadesClient/hades-web/internal/pkg/profile"
	"github.com/HadesClient/hades-web/internal/pkg/upload"
	"github.com/HadesClient/hades-web/internal/pkg/usercontext"
)

// UserController serves the caller's own profile and public profiles.
type UserController struct {
	profiles *profile.Service
}

func NewUserController(svc *profile.Service) *UserController {
	return &UserController{profiles: svc}
}

func (uc *UserController) HandleProfile(c *fiber.Ctx) error {
	me, err := uc.profiles.Me(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(me)
}

type profileUpdate struct {
	Description string `json:"description"`
}

func (uc *UserController) HandleProfileUpdate(c *fiber.Ctx) error {
	var req profileUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	desc, err := uc.profiles.UpdateDescription(c.UserContext(), usercontext.GetUserID(c), req.Description)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "description": desc})
}

// HandleAvatarUpload expects the image in the multipart field "avatar".
func (uc *UserController) HandleAvatarUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("avatar")
	if err != nil {
		return badRequest(c, "Avatar file is required")
	}
	data, err := readFormFile(fh, upload.MaxAvatarSize)
	if err != nil {
		return badRequest(c, "Could not read uploaded file")
	}

	u := usercontext.GetUserContext(c)
	url, err := uc.profiles.UploadAvatar(c.UserContext(), u.UserID, u.Roles, data)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "avatar_url": url})
}

func (uc *UserController) HandlePublicProfile(c *fiber.Ctx) error {
	p, err := uc.profiles.Public(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}
