package models

import "time"

const BillingProviderStripe = "stripe"

// BillingWebhookEvent is an audit row per webhook delivery. Replays are
// stored again; the table is not used for de-duplication.
type BillingWebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"size:20;not null;index" json:"provider"`
	ProviderEventID string     `gorm:"size:191;not null;default:'';index" json:"provider_event_id"`
	EventType       string     `gorm:"size:100;not null;index" json:"event_type"`
	PayloadJSON     string     `gorm:"type:text;not null" json:"payload_json"`
	SignatureValid  bool       `gorm:"not null;default:false" json:"signature_valid"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
