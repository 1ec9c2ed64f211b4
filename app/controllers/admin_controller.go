package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/HadesClient/hades-web/internal/pkg/admin"
	"github.com/HadesClient/hades-web/internal/pkg/statistics"
	"github.com/HadesClient/hades-web/internal/pkg/usercontext"
)

// AdminController handles the operator API. Capability checks happen in the
// router; the service re-checks role grants.
type AdminController struct {
	admin *admin.Service
	stats *statistics.Service
}

// NewAdminController creates a new admin controller with its service dependencies
func NewAdminController(svc *admin.Service, stats *statistics.Service) *AdminController {
	return &AdminController{admin: svc, stats: stats}
}

// HandleDashboard returns the operator counters.
func (ac *AdminController) HandleDashboard(c *fiber.Ctx) error {
	stats, err := ac.stats.Dashboard(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

type inviteKeyRequest struct {
	Prefix string `json:"prefix"`
}

func (ac *AdminController) HandleInviteKeyCreate(c *fiber.Ctx) error {
	var req inviteKeyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}
	key, err := ac.admin.CreateInviteKey(c.UserContext(), usercontext.GetUserID(c), req.Prefix)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"invite_key": key})
}

func (ac *AdminController) HandleInviteKeys(c *fiber.Ctx) error {
	keys, err := ac.admin.ListInviteKeys(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"invite_keys": keys})
}

func (ac *AdminController) HandleInviteKeyDelete(c *fiber.Ctx) error {
	if err := ac.admin.DeleteInviteKey(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (ac *AdminController) HandleUsers(c *fiber.Ctx) error {
	users, err := ac.admin.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

func (ac *AdminController) HandleBan(c *fiber.Ctx) error {
	return ac.setBanned(c, true)
}

func (ac *AdminController) HandleUnban(c *fiber.Ctx) error {
	return ac.setBanned(c, false)
}

func (ac *AdminController) setBanned(c *fiber.Ctx, banned bool) error {
	if err := ac.admin.SetBanned(c.UserContext(), usercontext.GetUserID(c), c.Params("id"), banned); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "banned": banned})
}

type coinsRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// HandleAdjustCoins credits a positive amount or debits a negative one.
func (ac *AdminController) HandleAdjustCoins(c *fiber.Ctx) error {
	var req coinsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	balance, err := ac.admin.AdjustCoins(c.UserContext(), usercontext.GetUserID(c), c.Params("id"), req.Amount, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "coins": balance})
}

type roleRequest struct {
	Role string `json:"role"`
}

func (ac *AdminController) HandleAssignRole(c *fiber.Ctx) error {
	var req roleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	u := usercontext.GetUserContext(c)
	if err := ac.admin.AssignRole(c.UserContext(), u.Roles, c.Params("id"), req.Role); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (ac *AdminController) HandleRemoveRole(c *fiber.Ctx) error {
	u := usercontext.GetUserContext(c)
	if err := ac.admin.RemoveRole(c.UserContext(), u.Roles, c.Params("id"), c.Params("role")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (ac *AdminController) HandleBadgeCreate(c *fiber.Ctx) error {
	var req admin.BadgeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	badge, err := ac.admin.AssignBadge(c.UserContext(), usercontext.GetUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"badge": badge})
}

func (ac *AdminController) HandleBadges(c *fiber.Ctx) error {
	badges, err := ac.admin.ListBadges(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"badges": badges})
}

func (ac *AdminController) HandleBadgeDelete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "Invalid badge id")
	}
	if err := ac.admin.DeleteBadge(c.UserContext(), uint(id)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (ac *AdminController) HandleSubscriptions(c *fiber.Ctx) error {
	subs, err := ac.admin.ListSubscriptions(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"subscriptions": subs})
}
