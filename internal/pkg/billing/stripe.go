package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/HadesClient/hades-web/internal/pkg/apperror"
)

var (
	ErrMissingSignature = apperror.Validation("Missing webhook signature")
	ErrInvalidSignature = apperror.Validation("Invalid webhook signature")
	ErrMalformedEvent   = apperror.Validation("Malformed webhook payload")
)

// Gateway is the payment provider as seen by the billing service.
type Gateway interface {
	FindOrCreateCustomer(ctx context.Context, c Customer) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID string, c Customer, origin string) (string, error)
	SubscriptionPeriod(ctx context.Context, subscriptionID string) (Period, error)
	ParseEvent(payload []byte, signature string) (*Event, error)
}

// StripeGateway talks to Stripe. Webhook payloads are verified against
// webhookSecret whenever it is set.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	plan          Plan
}

func NewStripeGateway(secretKey, webhookSecret string, plan Plan) *StripeGateway {
	return &StripeGateway{
		api:           client.New(secretKey, nil),
		webhookSecret: strings.TrimSpace(webhookSecret),
		plan:          plan.normalized(),
	}
}

// FindOrCreateCustomer reuses the first customer with the caller's email.
func (g *StripeGateway) FindOrCreateCustomer(ctx context.Context, c Customer) (string, error) {
	list := &stripe.CustomerListParams{Email: stripe.String(c.Email)}
	list.Context = ctx
	list.Limit = stripe.Int64(1)
	list.Single = true

	iter := g.api.Customers.List(list)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("stripe: list customers: %w", err)
	}

	params := &stripe.CustomerParams{Email: stripe.String(c.Email)}
	params.Context = ctx
	params.AddMetadata("user_id", c.UserID)
	cust, err := g.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create customer: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession opens a subscription checkout and returns its URL.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, customerID string, c Customer, origin string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.plan.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(g.plan.ProductName),
					},
					UnitAmount: stripe.Int64(g.plan.PriceCents),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(g.plan.Interval),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(origin + "/profile?checkout=success"),
		CancelURL:  stripe.String(origin + "/download?checkout=cancelled"),
	}
	params.Context = ctx
	params.AddMetadata("user_id", c.UserID)

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return sess.URL, nil
}

// SubscriptionPeriod fetches the current period of a subscription.
func (g *StripeGateway) SubscriptionPeriod(ctx context.Context, subscriptionID string) (Period, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := g.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return Period{}, fmt.Errorf("stripe: get subscription %s: %w", subscriptionID, err)
	}
	return periodOf(sub), nil
}

// ParseEvent verifies (when a secret is configured) and decodes a webhook
// delivery into an Event.
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*Event, error) {
	var (
		ev    stripe.Event
		valid bool
		err   error
	)
	if g.webhookSecret != "" {
		if strings.TrimSpace(signature) == "" {
			return nil, ErrMissingSignature
		}
		ev, err = webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
			Tolerance:                webhook.DefaultTolerance,
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		valid = true
	} else if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.Type == "" {
		return nil, ErrMalformedEvent
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type), SignatureValid: valid, Payload: payload}
	if err := decodeEventObject(&ev, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return out, nil
}

func decodeEventObject(ev *stripe.Event, out *Event) error {
	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		switch out.Type {
		case EventCheckoutCompleted, EventInvoicePaid, EventSubscriptionDeleted, EventSubscriptionUpdated:
			return fmt.Errorf("event %s carries no object", out.Type)
		}
		return nil
	}

	switch out.Type {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &sess); err != nil {
			return err
		}
		out.UserID = sess.Metadata["user_id"]
		if sess.Customer != nil {
			out.CustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			out.SubscriptionID = sess.Subscription.ID
		}
	case EventInvoicePaid:
		var inv stripe.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return err
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
	case EventSubscriptionDeleted, EventSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return err
		}
		out.SubscriptionID = sub.ID
		out.SubscriptionStatus = string(sub.Status)
		p := periodOf(&sub)
		out.Period = &p
	}
	return nil
}

func periodOf(sub *stripe.Subscription) Period {
	return Period{
		Start: time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		End:   time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}
}
