package main

import (
	"context"
	"log"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/HadesClient/hades-web/app/controllers"
	"github.com/HadesClient/hades-web/app/repository"
	"github.com/HadesClient/hades-web/internal/pkg/admin"
	"github.com/HadesClient/hades-web/internal/pkg/billing"
	"github.com/HadesClient/hades-web/internal/pkg/cache"
	"github.com/HadesClient/hades-web/internal/pkg/config"
	"github.com/HadesClient/hades-web/internal/pkg/database"
	"github.com/HadesClient/hades-web/internal/pkg/download"
	"github.com/HadesClient/hades-web/internal/pkg/env"
	"github.com/HadesClient/hades-web/internal/pkg/hcaptcha"
	"github.com/HadesClient/hades-web/internal/pkg/identity"
	"github.com/HadesClient/hades-web/internal/pkg/marketplace"
	"github.com/HadesClient/hades-web/internal/pkg/middleware"
	"github.com/HadesClient/hades-web/internal/pkg/objectstore"
	"github.com/HadesClient/hades-web/internal/pkg/profile"
	"github.com/HadesClient/hades-web/internal/pkg/registration"
	"github.com/HadesClient/hades-web/internal/pkg/router"
	"github.com/HadesClient/hades-web/internal/pkg/statistics"
	"github.com/HadesClient/hades-web/internal/pkg/upload"
)

func main() {
	env.SetupEnvFile()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	app := NewApplication(cfg)
	log.Fatal(app.Listen(cfg.ListenAddr()))
}

func NewApplication(cfg *config.Config) *fiber.App {
	database.SetupDatabase(cfg)
	factory := repository.NewFactory(database.GetDB())
	db, repos := factory.DB(), factory.Repositories()
	store := cache.New(cfg)

	configBucket, avatarBucket := buckets(cfg)

	// services
	tokens := identity.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	identitySvc := identity.NewService(db, tokens)
	var captcha registration.CaptchaVerifier
	if cfg.HCaptchaSecret != "" {
		captcha = hcaptcha.NewVerifier(cfg.HCaptchaSecret)
	}
	registrationSvc := registration.NewService(repos.InviteKey, identitySvc, captcha)
	marketplaceSvc := marketplace.NewService(db, repos.Config, configBucket)
	downloadSvc := download.NewService(repos.Config, repos.Subscription, marketplaceSvc, configBucket, cfg.ClientBinaryKey)
	plan := billing.Plan{
		PriceCents:  cfg.StripePriceCents,
		Currency:    cfg.StripeCurrency,
		ProductName: cfg.StripeProductName,
		Interval:    cfg.StripeInterval,
	}
	gateway := billing.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, plan)
	billingSvc := billing.NewServiceFromDB(db, gateway, plan, cfg.PublicDomain)
	statsSvc := statistics.NewService(repos, store)
	profileSvc := profile.NewService(repos, avatarBucket)
	adminSvc := admin.NewService(repos)

	if cfg.StripeWebhookSecret == "" {
		log.Println("Warning: STRIPE_WEBHOOK_SECRET is not set, webhook signatures are not verified")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: upload.MaxAvatarSize + 1<<20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	if cfg.MetricsPassword != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{
				cfg.MetricsUser: cfg.MetricsPassword,
			},
		}), monitor.New())
	}

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}))

	// ROUTER
	router.InstallRouter(app, &router.Dependencies{
		Auth:           middleware.NewAuthenticator(identitySvc, repos.Profile, repos.Role),
		Accounts:       controllers.NewAuthController(registrationSvc, identitySvc),
		Billing:        controllers.NewBillingController(billingSvc),
		Downloads:      controllers.NewDownloadController(downloadSvc),
		Marketplace:    controllers.NewMarketplaceController(marketplaceSvc),
		Users:          controllers.NewUserController(profileSvc),
		Admin:          controllers.NewAdminController(adminSvc, statsSvc),
		Main:           controllers.NewMainController(statsSvc),
		LimiterStorage: cache.NewLimiterStorage(cfg),
		LimiterMax:     cfg.RateLimitMax,
		LimiterWindow:  cfg.RateLimitWindow,
	})

	return app
}

// buckets opens the configs and avatars buckets. In dev without S3
// credentials both live in memory.
func buckets(cfg *config.Config) (objectstore.Bucket, objectstore.Bucket) {
	if cfg.IsDev() && cfg.S3AccessKeyID == "" {
		log.Println("Warning: S3 credentials missing, using in-memory buckets")
		return objectstore.NewMemoryBucket(cfg.S3ConfigBucket), objectstore.NewMemoryBucket(cfg.S3AvatarBucket)
	}
	client, err := objectstore.NewClient(context.Background(), cfg)
	if err != nil {
		log.Fatalf("object storage: %v", err)
	}
	return client.Bucket(cfg.S3ConfigBucket), client.Bucket(cfg.S3AvatarBucket)
}
