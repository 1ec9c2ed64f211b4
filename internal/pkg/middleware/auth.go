package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/repository"
	"github.com/HadesClient/hades-web/internal/pkg/identity"
	"github.com/HadesClient/hades-web/internal/pkg/rbac"
	"github.com/HadesClient/hades-web/internal/pkg/usercontext"
)

// TokenVerifier validates bearer tokens. identity.Service satisfies it.
type TokenVerifier interface {
	VerifyToken(token string) (*identity.Claims, error)
}

// Authenticator resolves a bearer token into a user context.
type Authenticator struct {
	tokens   TokenVerifier
	profiles repository.ProfileRepository
	roles    repository.RoleRepository
}

func NewAuthenticator(tokens TokenVerifier, profiles repository.ProfileRepository, roles repository.RoleRepository) *Authenticator {
	return &Authenticator{tokens: tokens, profiles: profiles, roles: roles}
}

var (
	errNoToken  = errors.New("missing bearer token")
	errBanned   = errors.New("account banned")
	errNoLookup = errors.New("user lookup failed")
)

// RequireUser rejects requests without a valid session: 401 for a missing
// or invalid token, 403 for a banned account.
func (a *Authenticator) RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := a.resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		switch {
		case err == nil:
		case errors.Is(err, errBanned):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account banned"})
		case errors.Is(err, errNoLookup):
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		case errors.Is(err, errNoToken):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		default:
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}
		usercontext.Set(c, u)
		return c.Next()
	}
}

// OptionalUser attaches the caller when a valid token is present and
// continues anonymously otherwise.
func (a *Authenticator) OptionalUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if u, err := a.resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization)); err == nil {
			usercontext.Set(c, u)
		}
		return c.Next()
	}
}

func (a *Authenticator) resolve(ctx context.Context, header string) (usercontext.UserContext, error) {
	token := bearerToken(header)
	if token == "" {
		return usercontext.UserContext{}, errNoToken
	}
	claims, err := a.tokens.VerifyToken(token)
	if err != nil {
		return usercontext.UserContext{}, err
	}

	profile, err := a.profiles.GetByUserID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return usercontext.UserContext{}, identity.ErrInvalidToken
		}
		log.Errorf("auth: profile lookup for %s: %v", claims.Subject, err)
		return usercontext.UserContext{}, errNoLookup
	}
	if profile.IsBanned() {
		return usercontext.UserContext{}, errBanned
	}
	roles, err := a.roles.ListByUser(ctx, profile.UserID)
	if err != nil {
		log.Errorf("auth: role lookup for %s: %v", profile.UserID, err)
		return usercontext.UserContext{}, errNoLookup
	}

	return usercontext.UserContext{
		UserID:     profile.UserID,
		Email:      claims.Email,
		Username:   profile.Username,
		Roles:      roles,
		IsLoggedIn: true,
	}, nil
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// RequireCapability lets the request through only if the caller's roles
// grant cap. It must run after RequireUser.
func RequireCapability(cap rbac.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := usercontext.GetUserContext(c)
		if !u.IsLoggedIn {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		if !u.Can(cap) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
		}
		return c.Next()
	}
}
