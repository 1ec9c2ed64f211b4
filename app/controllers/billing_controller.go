package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/HadesClient/hades-web/internal/pkg/billing"
	"github.com/HadesClient/hades-web/internal/pkg/usercontext"
)

// stripeSignatureHeader carries the webhook signature.
const stripeSignatureHeader = "Stripe-Signature"

type BillingController struct {
	billing *billing.Service
}

func NewBillingController(svc *billing.Service) *BillingController {
	return &BillingController{billing: svc}
}

type checkoutRequest struct {
	Origin string `json:"origin"`
}

// HandleCreateCheckout starts a subscription checkout and returns its URL.
// Redirect targets are built from the "origin" body field, else the Origin
// header, else the configured public domain.
func (bc *BillingController) HandleCreateCheckout(c *fiber.Ctx) error {
	var req checkoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}
	origin := req.Origin
	if origin == "" {
		origin = c.Get(fiber.HeaderOrigin)
	}

	u := usercontext.GetUserContext(c)
	url, err := bc.billing.CreateCheckout(c.UserContext(), billing.Customer{
		UserID: u.UserID,
		Email:  u.Email,
	}, origin)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleStripeWebhook verifies and applies a gateway event. The body is
// passed on untouched since the signature covers the raw bytes.
func (bc *BillingController) HandleStripeWebhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	if err := bc.billing.HandleWebhook(c.UserContext(), payload, c.Get(stripeSignatureHeader)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"received": true})
}
