package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/HadesClient/hades-web/internal/pkg/rbac"
)

// UserContext represents the authenticated caller of a request
type UserContext struct {
	UserID     string      `json:"user_id"`
	Email      string      `json:"email"`
	Username   string      `json:"username"`
	Roles      []rbac.Role `json:"roles"`
	IsLoggedIn bool        `json:"is_logged_in"`
}

// Can reports whether the caller holds cap through any of their roles
func (u UserContext) Can(cap rbac.Capability) bool {
	return u.IsLoggedIn && rbac.Can(u.Roles, cap)
}

// Set stores u for the rest of the request
func Set(c *fiber.Ctx, u UserContext) {
	c.Locals(LocalsKey, u)
	c.Locals(KeyUserID, u.UserID)
	c.Locals(KeyUsername, u.Username)
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(LocalsKey).(UserContext); ok {
		return ctx
	}
	return UserContext{}
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current user's ID, or "" if not logged in
func GetUserID(c *fiber.Ctx) string {
	return GetUserContext(c).UserID
}

// GetUsername returns the current user's username, or empty string if not logged in
func GetUsername(c *fiber.Ctx) string {
	return GetUserContext(c).Username
}
