// Package billing sells the premium subscription and keeps local
// subscription state in step with the payment gateway's webhooks.
package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
	"github.com/HadesClient/hades-web/internal/pkg/apperror"
)

const subscriptionChargeDescription = "Premium subscription activated"

// Service provides checkout creation and webhook processing.
type Service struct {
	repo          Repository
	gateway       Gateway
	plan          Plan
	defaultOrigin string
}

// NewService creates a billing service from an injected repository and gateway.
func NewService(repo Repository, gateway Gateway, plan Plan, defaultOrigin string) *Service {
	return &Service{
		repo:          repo,
		gateway:       gateway,
		plan:          plan.normalized(),
		defaultOrigin: strings.TrimRight(strings.TrimSpace(defaultOrigin), "/"),
	}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, gateway Gateway, plan Plan, defaultOrigin string) *Service {
	return NewService(NewRepository(db), gateway, plan, defaultOrigin)
}

// CreateCheckout returns the URL of a hosted checkout page for c.
// An empty origin falls back to the public domain.
func (s *Service) CreateCheckout(ctx context.Context, c Customer, origin string) (string, error) {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		origin = s.defaultOrigin
	}
	if origin == "" {
		return "", apperror.Validation("origin is required")
	}

	customerID, err := s.gateway.FindOrCreateCustomer(ctx, c)
	if err != nil {
		log.Errorf("billing: customer for %s: %v", c.UserID, err)
		return "", apperror.Internal(err)
	}
	url, err := s.gateway.CreateCheckoutSession(ctx, customerID, c, origin)
	if err != nil {
		log.Errorf("billing: checkout for %s: %v", c.UserID, err)
		return "", apperror.Internal(err)
	}
	return url, nil
}

// HandleWebhook verifies, records and applies one webhook delivery.
//
// Every delivery is stored as an audit row. Replays are applied again: the
// subscription writes are keyed by user id or gateway subscription id and
// converge, while a replayed checkout completion appends another ledger row.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.gateway.ParseEvent(payload, signature)
	if err != nil {
		log.Warnf("billing: rejected webhook: %v", err)
		if apperror.KindOf(err) == apperror.KindInternal {
			return webhookFailure(err)
		}
		return err
	}

	audit := &models.BillingWebhookEvent{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: ev.ID,
		EventType:       ev.Type,
		PayloadJSON:     string(ev.Payload),
		SignatureValid:  ev.SignatureValid,
	}
	if err := s.repo.RecordWebhookEvent(ctx, audit); err != nil {
		log.Errorf("billing: record webhook %s: %v", ev.ID, err)
		return webhookFailure(err)
	}

	procErr := s.apply(ctx, ev)
	if err := s.repo.MarkWebhookProcessed(ctx, audit.ID, errorText(procErr)); err != nil {
		log.Warnf("billing: mark webhook %d processed: %v", audit.ID, err)
	}
	if procErr != nil {
		log.Errorf("billing: apply %s %s: %v", ev.Type, ev.ID, procErr)
		return webhookFailure(procErr)
	}
	return nil
}

// webhookFailure answers 400 for any failed delivery so the gateway retries
// it. The cause stays in the chain for logging.
func webhookFailure(err error) *apperror.Error {
	return &apperror.Error{Kind: apperror.KindValidation, Message: "Webhook processing failed", Err: err}
}

func (s *Service) apply(ctx context.Context, ev *Event) error {
	switch ev.Type {
	case EventCheckoutCompleted:
		return s.checkoutCompleted(ctx, ev)
	case EventInvoicePaid:
		if ev.SubscriptionID == "" {
			return nil
		}
		period, err := s.gateway.SubscriptionPeriod(ctx, ev.SubscriptionID)
		if err != nil {
			return err
		}
		return s.update(ctx, ev.SubscriptionID, map[string]interface{}{
			"status":               models.SubscriptionActive,
			"current_period_start": period.Start,
			"current_period_end":   period.End,
		})
	case EventSubscriptionDeleted:
		return s.update(ctx, ev.SubscriptionID, map[string]interface{}{
			"status": models.SubscriptionCancelled,
		})
	case EventSubscriptionUpdated:
		updates := map[string]interface{}{"status": localStatus(ev.SubscriptionStatus)}
		if ev.Period != nil {
			updates["current_period_start"] = ev.Period.Start
			updates["current_period_end"] = ev.Period.End
		}
		return s.update(ctx, ev.SubscriptionID, updates)
	default:
		log.Infof("billing: ignoring webhook event type %s", ev.Type)
		return nil
	}
}

func (s *Service) checkoutCompleted(ctx context.Context, ev *Event) error {
	if ev.UserID == "" {
		log.Warnf("billing: checkout %s has no user_id metadata, ignoring", ev.ID)
		return nil
	}
	if ev.SubscriptionID == "" {
		log.Warnf("billing: checkout %s for %s has no subscription, ignoring", ev.ID, ev.UserID)
		return nil
	}

	period, err := s.gateway.SubscriptionPeriod(ctx, ev.SubscriptionID)
	if err != nil {
		return err
	}
	sub := &models.Subscription{
		UserID:               ev.UserID,
		Status:               models.SubscriptionActive,
		StripeCustomerID:     ev.CustomerID,
		StripeSubscriptionID: ev.SubscriptionID,
		CurrentPeriodStart:   &period.Start,
		CurrentPeriodEnd:     &period.End,
	}
	charge := &models.Transaction{
		UserID:      ev.UserID,
		Type:        models.TransactionSubscription,
		Amount:      -s.plan.PriceCents,
		Description: subscriptionChargeDescription,
	}
	return s.repo.ActivateSubscription(ctx, sub, charge)
}

func (s *Service) update(ctx context.Context, subscriptionID string, updates map[string]interface{}) error {
	if subscriptionID == "" {
		return errors.New("event carries no subscription id")
	}
	matched, err := s.repo.UpdateSubscription(ctx, subscriptionID, updates)
	if err != nil {
		return err
	}
	if !matched {
		log.Infof("billing: no local subscription for %s", subscriptionID)
	}
	return nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
