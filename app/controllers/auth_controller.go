package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/HadesClient/hades-web/internal/pkg/identity"
	"github.com/HadesClient/hades-web/internal/pkg/registration"
	"github.com/HadesClient/hades-web/internal/pkg/usercontext"
)

// AuthController serves registration, sign in and the current session.
type AuthController struct {
	registration *registration.Service
	identity     *identity.Service
}

func NewAuthController(reg *registration.Service, id *identity.Service) *AuthController {
	return &AuthController{registration: reg, identity: id}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account against a single-use invite key.
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var req registration.Request
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.RemoteIP = ClientIP(c)

	res, err := ac.registration.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	log.Infof("register: account %s created from %s", res.UserID, req.RemoteIP)

	return c.JSON(fiber.Map{
		"success": true,
		"user_id": res.UserID,
		"message": "Account created successfully",
	})
}

// HandleLogin exchanges credentials for a bearer token.
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	session, err := ac.identity.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

// HandleSession echoes the authenticated caller.
func (ac *AuthController) HandleSession(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": usercontext.GetUserContext(c)})
}
