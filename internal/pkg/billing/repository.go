package billing

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/HadesClient/hades-web/app/models"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	ActivateSubscription(ctx context.Context, sub *models.Subscription, charge *models.Transaction) error
	UpdateSubscription(ctx context.Context, stripeSubscriptionID string, updates map[string]interface{}) (bool, error)
	RecordWebhookEvent(ctx context.Context, event *models.BillingWebhookEvent) error
	MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// ActivateSubscription upserts the user's subscription row and appends the
// charge to the ledger in one transaction.
func (r *gormRepository) ActivateSubscription(ctx context.Context, sub *models.Subscription, charge *models.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status",
				"stripe_customer_id",
				"stripe_subscription_id",
				"current_period_start",
				"current_period_end",
				"updated_at",
			}),
		}).Create(sub).Error; err != nil {
			return err
		}
		if charge == nil {
			return nil
		}
		return tx.Create(charge).Error
	})
}

func (r *gormRepository) UpdateSubscription(ctx context.Context, stripeSubscriptionID string, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *gormRepository) RecordWebhookEvent(ctx context.Context, event *models.BillingWebhookEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *gormRepository) MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.WithContext(ctx).Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
