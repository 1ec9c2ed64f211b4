package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/controllers"
	"github.com/HadesClient/hades-web/app/models"
	"github.com/HadesClient/hades-web/app/repository"
	"github.com/HadesClient/hades-web/internal/pkg/admin"
	"github.com/HadesClient/hades-web/internal/pkg/billing"
	"github.com/HadesClient/hades-web/internal/pkg/database/dbtest"
	"github.com/HadesClient/hades-web/internal/pkg/download"
	"github.com/HadesClient/hades-web/internal/pkg/identity"
	"github.com/HadesClient/hades-web/internal/pkg/marketplace"
	"github.com/HadesClient/hades-web/internal/pkg/middleware"
	"github.com/HadesClient/hades-web/internal/pkg/objectstore"
	"github.com/HadesClient/hades-web/internal/pkg/profile"
	"github.com/HadesClient/hades-web/internal/pkg/rbac"
	"github.com/HadesClient/hades-web/internal/pkg/registration"
	"github.com/HadesClient/hades-web/internal/pkg/statistics"
)

const webhookSecret = "whsec_router_test"

// offlineGateway verifies webhooks like the real gateway but never calls
// the Stripe API.
type offlineGateway struct {
	*billing.StripeGateway
	period billing.Period
}

func (g *offlineGateway) FindOrCreateCustomer(ctx context.Context, c billing.Customer) (string, error) {
	return "cus_" + c.UserID, nil
}

func (g *offlineGateway) CreateCheckoutSession(ctx context.Context, customerID string, c billing.Customer, origin string) (string, error) {
	return origin + "/checkout/" + customerID, nil
}

func (g *offlineGateway) SubscriptionPeriod(ctx context.Context, subscriptionID string) (billing.Period, error) {
	return g.period, nil
}

type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	tokens  *identity.TokenIssuer
	configs *objectstore.MemoryBucket
	seeded  int
}

func newTestEnv(t *testing.T, limiterMax int) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	repos := repository.NewRepositories(db)
	tokens := identity.NewTokenIssuer("router-test-secret", time.Hour)
	identitySvc := identity.NewService(db, tokens)
	configs := objectstore.NewMemoryBucket("configs")
	avatars := objectstore.NewMemoryBucket("avatars")

	now := time.Now().UTC()
	gateway := &offlineGateway{
		StripeGateway: billing.NewStripeGateway("sk_test", webhookSecret, billing.DefaultPlan),
		period:        billing.Period{Start: now.Add(-time.Hour), End: now.Add(30 * 24 * time.Hour)},
	}

	marketplaceSvc := marketplace.NewService(db, repos.Config, configs)
	stats := statistics.NewService(repos, nil)

	app := fiber.New()
	InstallRouter(app, &Dependencies{
		Auth:          middleware.NewAuthenticator(identitySvc, repos.Profile, repos.Role),
		Accounts:      controllers.NewAuthController(registration.NewService(repos.InviteKey, identitySvc, nil), identitySvc),
		Billing:       controllers.NewBillingController(billing.NewServiceFromDB(db, gateway, billing.DefaultPlan, "https://hades.test")),
		Downloads:     controllers.NewDownloadController(download.NewService(repos.Config, repos.Subscription, marketplaceSvc, configs, download.DefaultClientBinaryKey)),
		Marketplace:   controllers.NewMarketplaceController(marketplaceSvc),
		Users:         controllers.NewUserController(profile.NewService(repos, avatars)),
		Admin:         controllers.NewAdminController(admin.NewService(repos), stats),
		Main:          controllers.NewMainController(stats),
		LimiterMax:    limiterMax,
		LimiterWindow: time.Minute,
	})
	return &testEnv{app: app, db: db, tokens: tokens, configs: configs}
}

func (e *testEnv) bearer(t *testing.T, userID string) string {
	t.Helper()
	s, err := e.tokens.Issue(userID, userID+"@example.com", userID)
	require.NoError(t, err)
	return "Bearer " + s.AccessToken
}

type response struct {
	status int
	header http.Header
	raw    []byte
}

func (r response) json(t *testing.T) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(r.raw, &body), string(r.raw))
	return body
}

func (e *testEnv) do(t *testing.T, method, path, auth string, body interface{}) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, header: resp.Header, raw: raw}
}

func (e *testEnv) seedProfile(t *testing.T, userID string, coins int64, roles ...rbac.Role) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.Profile{UserID: userID, Username: userID, HadesCoins: coins}).Error)
	for _, r := range roles {
		require.NoError(t, e.db.Create(&models.UserRole{UserID: userID, Role: string(r)}).Error)
	}
}

func (e *testEnv) seedConfig(t *testing.T, ownerID string, price int64, data string) *models.Config {
	t.Helper()
	cfg := &models.Config{UserID: ownerID, Name: "legit cfg", Category: models.CategoryPvP, Price: price}
	if data != "" {
		e.seeded++
		cfg.FilePath = fmt.Sprintf("%s/%d_legit.json", ownerID, e.seeded)
		require.NoError(t, e.configs.Put(context.Background(), cfg.FilePath, []byte(data), "application/json"))
	}
	require.NoError(t, e.db.Create(cfg).Error)
	return cfg
}

func TestHealthAndPreflight(t *testing.T) {
	e := newTestEnv(t, 100)

	resp := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)

	req := httptest.NewRequest(http.MethodOptions, "/api/functions/configs", nil)
	req.Header.Set("Origin", "https://launcher.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp = e.send(t, req)
	assert.Equal(t, http.StatusNoContent, resp.status)
	assert.Equal(t, "*", resp.header.Get("Access-Control-Allow-Origin"))
}

func TestRegisterLoginSession(t *testing.T) {
	e := newTestEnv(t, 100)
	require.NoError(t, e.db.Create(&models.InviteKey{Key: "HADES-0A1B2C3D"}).Error)

	form := map[string]string{
		"email":      "neo@example.com",
		"password":   "followthewhiterabbit",
		"username":   "neo",
		"invite_key": "HADES-0A1B2C3D",
	}
	resp := e.do(t, http.MethodPost, "/api/functions/register", "", form)
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
	body := resp.json(t)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Account created successfully", body["message"])
	assert.NotEmpty(t, body["user_id"])

	form["email"] = "trinity@example.com"
	form["username"] = "trinity"
	resp = e.do(t, http.MethodPost, "/api/functions/register", "", form)
	assert.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "Invalid or already used invite key", resp.json(t)["error"])

	resp = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "neo@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "neo@example.com", "password": "followthewhiterabbit"})
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
	token, _ := resp.json(t)["access_token"].(string)
	require.NotEmpty(t, token)

	resp = e.do(t, http.MethodGet, "/api/auth/session", "Bearer "+token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	user, _ := resp.json(t)["user"].(map[string]interface{})
	assert.Equal(t, "neo", user["username"])

	resp = e.do(t, http.MethodGet, "/api/auth/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestLoginIsRateLimited(t *testing.T) {
	e := newTestEnv(t, 2)
	creds := map[string]string{"email": "nobody@example.com", "password": "secret123"}

	for i := 0; i < 2; i++ {
		resp := e.do(t, http.MethodPost, "/api/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, resp.status)
	}
	resp := e.do(t, http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, resp.status)
}

func TestPurchaseThenDownload(t *testing.T) {
	e := newTestEnv(t, 100)
	e.seedProfile(t, "seller", 0)
	e.seedProfile(t, "buyer", 500)
	cfg := e.seedConfig(t, "seller", 200, `{"aim":"legit"}`)
	pricey := e.seedConfig(t, "seller", 1000, `{}`)
	auth := e.bearer(t, "buyer")

	resp := e.do(t, http.MethodPost, "/api/functions/config-download", auth, map[string]string{"config_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = e.do(t, http.MethodPost, "/api/functions/config-download", auth, map[string]string{"config_id": cfg.ID})
	assert.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "Not purchased", resp.json(t)["error"])

	resp = e.do(t, http.MethodPost, "/api/marketplace/configs/"+cfg.ID+"/purchase", auth, nil)
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
	assert.Equal(t, "purchased", resp.json(t)["outcome"])

	resp = e.do(t, http.MethodPost, "/api/marketplace/configs/"+cfg.ID+"/purchase", auth, nil)
	assert.Equal(t, http.StatusConflict, resp.status)

	resp = e.do(t, http.MethodPost, "/api/marketplace/configs/"+pricey.ID+"/purchase", auth, nil)
	assert.Equal(t, http.StatusPaymentRequired, resp.status)
	assert.Equal(t, "Insufficient balance", resp.json(t)["error"])

	resp = e.do(t, http.MethodPost, "/api/functions/config-download", auth, map[string]string{"config_id": cfg.ID})
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, `{"aim":"legit"}`, string(resp.raw))
	assert.Equal(t, fiber.MIMEOctetStream, resp.header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="1_legit.json"`, resp.header.Get("Content-Disposition"))
	assert.NotEqual(t, cfg.FilePath, pricey.FilePath)

	resp = e.do(t, http.MethodGet, "/api/functions/configs", auth, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Len(t, resp.json(t)["configs"], 1)

	resp = e.do(t, http.MethodGet, "/api/marketplace/purchases", auth, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, []interface{}{cfg.ID}, resp.json(t)["config_ids"])
}

func TestSubscriptionUnlocksClientDownload(t *testing.T) {
	e := newTestEnv(t, 100)
	e.seedProfile(t, "buyer", 0)
	auth := e.bearer(t, "buyer")

	resp := e.do(t, http.MethodGet, "/api/functions/client-download", auth, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "No active subscription", resp.json(t)["error"])

	resp = e.do(t, http.MethodPost, "/api/functions/create-checkout", auth, map[string]string{"origin": "https://hades.gg"})
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
	assert.Equal(t, "https://hades.gg/checkout/cus_buyer", resp.json(t)["url"])

	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"object": "checkout.session",
			"customer": "cus_buyer",
			"subscription": "sub_1",
			"metadata": {"user_id": "buyer"}
		}}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/functions/stripe-webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=forged")
	resp = e.send(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	})
	req = httptest.NewRequest(http.MethodPost, "/api/functions/stripe-webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	resp = e.send(t, req)
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
	assert.Equal(t, true, resp.json(t)["received"])

	resp = e.do(t, http.MethodGet, "/api/functions/client-download", auth, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "Client file not found", resp.json(t)["error"])

	require.NoError(t, e.configs.Put(context.Background(), download.DefaultClientBinaryKey, []byte("MZ"), fiber.MIMEOctetStream))
	resp = e.do(t, http.MethodPost, "/api/functions/client-download", auth, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "MZ", string(resp.raw))
	assert.Equal(t, `attachment; filename="hades.dll"`, resp.header.Get("Content-Disposition"))
}

func TestAdminRoutesRequireCapability(t *testing.T) {
	e := newTestEnv(t, 100)
	e.seedProfile(t, "pleb", 0)
	e.seedProfile(t, "boss", 0, rbac.RoleAdmin)
	e.seedProfile(t, "mod", 0, rbac.RoleModerator)

	resp := e.do(t, http.MethodGet, "/api/admin/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = e.do(t, http.MethodGet, "/api/admin/stats", e.bearer(t, "pleb"), nil)
	assert.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "Insufficient permissions", resp.json(t)["error"])

	resp = e.do(t, http.MethodGet, "/api/admin/stats", e.bearer(t, "mod"), nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = e.do(t, http.MethodGet, "/api/admin/stats", e.bearer(t, "boss"), nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.EqualValues(t, 3, resp.json(t)["total_users"])

	resp = e.do(t, http.MethodPost, "/api/admin/invite-keys", e.bearer(t, "boss"), map[string]string{"prefix": "beta"})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	key, _ := resp.json(t)["invite_key"].(map[string]interface{})
	assert.Regexp(t, `^BETA-[0-9A-F]{8}$`, key["key"])

	resp = e.do(t, http.MethodPost, "/api/admin/users/pleb/ban", e.bearer(t, "boss"), nil)
	require.Equal(t, http.StatusOK, resp.status)
	resp = e.do(t, http.MethodGet, "/api/profile", e.bearer(t, "pleb"), nil)
	assert.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "Account banned", resp.json(t)["error"])

	cfg := e.seedConfig(t, "boss", 0, "")
	resp = e.do(t, http.MethodPatch, "/api/admin/configs/"+cfg.ID+"/official", e.bearer(t, "mod"), map[string]bool{"official": true})
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
}

func TestMarketplaceListAndPublicProfile(t *testing.T) {
	e := newTestEnv(t, 100)
	e.seedProfile(t, "seller", 0)
	e.seedConfig(t, "seller", 0, "")

	resp := e.do(t, http.MethodGet, "/api/marketplace/configs", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Len(t, resp.json(t)["configs"], 1)

	resp = e.do(t, http.MethodGet, "/api/marketplace/configs?category=Aimbot", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = e.do(t, http.MethodGet, "/api/users/seller", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "seller", resp.json(t)["username"])

	resp = e.do(t, http.MethodGet, "/api/users/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = e.do(t, http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.EqualValues(t, 1, resp.json(t)["total_configs"])
}
