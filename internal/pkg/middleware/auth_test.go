package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HadesClient/hades-web/app/models"
	"github.com/HadesClient/hades-web/app/repository"
	"github.com/HadesClient/hades-web/internal/pkg/database/dbtest"
	"github.com/HadesClient/hades-web/internal/pkg/identity"
	"github.com/HadesClient/hades-web/internal/pkg/rbac"
	"github.com/HadesClient/hades-web/internal/pkg/usercontext"
)

func setupApp(t *testing.T) (*fiber.App, *identity.TokenIssuer) {
	t.Helper()
	db := dbtest.New(t)
	repos := repository.NewRepositories(db)
	tokens := identity.NewTokenIssuer("test-secret", time.Hour)

	banned := time.Now()
	require.NoError(t, db.Create(&models.Profile{UserID: "u1", Username: "neo"}).Error)
	require.NoError(t, db.Create(&models.Profile{UserID: "mod", Username: "trinity"}).Error)
	require.NoError(t, db.Create(&models.Profile{UserID: "bad", Username: "smith", BannedAt: &banned}).Error)
	require.NoError(t, db.Create(&models.UserRole{UserID: "mod", Role: string(rbac.RoleModerator)}).Error)

	auth := NewAuthenticator(tokens, repos.Profile, repos.Role)
	app := fiber.New()
	whoami := func(c *fiber.Ctx) error { return c.JSON(usercontext.GetUserContext(c)) }
	app.Get("/me", auth.RequireUser(), whoami)
	app.Get("/maybe", auth.OptionalUser(), whoami)
	app.Get("/mod", auth.RequireUser(), RequireCapability(rbac.ModerateConfigs), whoami)
	return app, tokens
}

func bearer(t *testing.T, tokens *identity.TokenIssuer, userID string) string {
	t.Helper()
	s, err := tokens.Issue(userID, userID+"@example.com", userID)
	require.NoError(t, err)
	return "Bearer " + s.AccessToken
}

func do(t *testing.T, app *fiber.App, path, auth string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestRequireUser(t *testing.T) {
	app, tokens := setupApp(t)

	status, body := do(t, app, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", body["error"])

	status, body = do(t, app, "/me", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", body["error"])

	other := identity.NewTokenIssuer("other-secret", time.Hour)
	status, _ = do(t, app, "/me", bearer(t, other, "u1"))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, app, "/me", bearer(t, tokens, "deleted-user"))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = do(t, app, "/me", bearer(t, tokens, "bad"))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Account banned", body["error"])

	status, body = do(t, app, "/me", bearer(t, tokens, "u1"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u1", body["user_id"])
	assert.Equal(t, "neo", body["username"])
	assert.Equal(t, "u1@example.com", body["email"])
	assert.Equal(t, true, body["is_logged_in"])
}

func TestOptionalUser(t *testing.T) {
	app, tokens := setupApp(t)

	status, body := do(t, app, "/maybe", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["is_logged_in"])

	status, body = do(t, app, "/maybe", "Bearer garbage")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["is_logged_in"])

	_, body = do(t, app, "/maybe", bearer(t, tokens, "u1"))
	assert.Equal(t, "u1", body["user_id"])
}

func TestRequireCapability(t *testing.T) {
	app, tokens := setupApp(t)

	status, body := do(t, app, "/mod", bearer(t, tokens, "u1"))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Insufficient permissions", body["error"])

	status, body = do(t, app, "/mod", bearer(t, tokens, "mod"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"moderator"}, body["roles"])
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer   abc "))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken("Bearer"))
	assert.Equal(t, "", bearerToken(""))
}
