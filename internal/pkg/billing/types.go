package billing

import "time"

// Event kinds the webhook acts on. Everything else is acknowledged and ignored.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventInvoicePaid         = "invoice.paid"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventSubscriptionUpdated = "customer.subscription.updated"
)

// Period holds the bounds of the current billing period.
type Period struct {
	Start time.Time
	End   time.Time
}

// Event is the gateway-neutral shape of one webhook delivery.
type Event struct {
	ID             string
	Type           string
	SignatureValid bool
	Payload        []byte

	// Set for EventCheckoutCompleted.
	UserID     string
	CustomerID string

	// Set for every handled kind except an incomplete checkout.
	SubscriptionID string

	// Set for EventSubscriptionUpdated from the event object itself.
	SubscriptionStatus string
	Period             *Period
}

// Customer is the caller a checkout session is created for.
type Customer struct {
	UserID string
	Email  string
}
