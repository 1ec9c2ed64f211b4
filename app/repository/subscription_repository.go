package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
)

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) List(ctx context.Context, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).Order("updated_at DESC").Limit(limit).Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("status = ? AND current_period_end > ?", models.SubscriptionActive, now).
		Count(&count).Error
	return count, err
}
