package billing

import (
	"strings"

	"github.com/HadesClient/hades-web/app/models"
)

// Plan is the single premium subscription sold through checkout.
type Plan struct {
	PriceCents  int64
	Currency    string
	ProductName string
	Interval    string
}

// DefaultPlan is EUR 10.00 per month.
var DefaultPlan = Plan{PriceCents: 1000, Currency: "eur", ProductName: "Hades Premium", Interval: "month"}

func (p Plan) normalized() Plan {
	if p.PriceCents <= 0 {
		p.PriceCents = DefaultPlan.PriceCents
	}
	p.Currency = strings.ToLower(strings.TrimSpace(p.Currency))
	if p.Currency == "" {
		p.Currency = DefaultPlan.Currency
	}
	if strings.TrimSpace(p.ProductName) == "" {
		p.ProductName = DefaultPlan.ProductName
	}
	p.Interval = normalizeInterval(p.Interval)
	return p
}

func normalizeInterval(interval string) string {
	i := strings.ToLower(strings.TrimSpace(interval))
	switch i {
	case "day", "week", "month", "year":
		return i
	default:
		return DefaultPlan.Interval
	}
}

// localStatus maps a gateway subscription status onto the two states a
// subscription update can produce locally.
func localStatus(gatewayStatus string) string {
	if strings.EqualFold(strings.TrimSpace(gatewayStatus), "active") {
		return models.SubscriptionActive
	}
	return models.SubscriptionInactive
}
