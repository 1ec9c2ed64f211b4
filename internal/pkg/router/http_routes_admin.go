package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/HadesClient/hades-web/internal/pkg/middleware"
	"github.com/HadesClient/hades-web/internal/pkg/rbac"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	ac := h.deps.Admin
	can := middleware.RequireCapability

	adminGroup := app.Group("/api/admin", h.deps.Auth.RequireUser())
	adminGroup.Get("/stats", can(rbac.ViewDashboard), ac.HandleDashboard)
	adminGroup.Get("/subscriptions", can(rbac.ViewDashboard), ac.HandleSubscriptions)

	// Invite keys
	adminGroup.Get("/invite-keys", can(rbac.ManageInviteKeys), ac.HandleInviteKeys)
	adminGroup.Post("/invite-keys", can(rbac.ManageInviteKeys), ac.HandleInviteKeyCreate)
	adminGroup.Delete("/invite-keys/:id", can(rbac.ManageInviteKeys), ac.HandleInviteKeyDelete)

	// Users
	adminGroup.Get("/users", can(rbac.ViewDashboard), ac.HandleUsers)
	adminGroup.Post("/users/:id/ban", can(rbac.BanUsers), ac.HandleBan)
	adminGroup.Post("/users/:id/unban", can(rbac.BanUsers), ac.HandleUnban)
	adminGroup.Post("/users/:id/coins", can(rbac.AdjustBalances), ac.HandleAdjustCoins)
	adminGroup.Post("/users/:id/roles", can(rbac.ManageRoles), ac.HandleAssignRole)
	adminGroup.Delete("/users/:id/roles/:role", can(rbac.ManageRoles), ac.HandleRemoveRole)

	// Badges
	adminGroup.Get("/badges", can(rbac.ManageBadges), ac.HandleBadges)
	adminGroup.Post("/badges", can(rbac.ManageBadges), ac.HandleBadgeCreate)
	adminGroup.Delete("/badges/:id", can(rbac.ManageBadges), ac.HandleBadgeDelete)

	// Moderation
	adminGroup.Patch("/configs/:id/official", can(rbac.ModerateConfigs), h.deps.Marketplace.HandleSetOfficial)
}
