package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
)

type badgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) ListByUser(ctx context.Context, userID string) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&badges).Error
	return badges, err
}

func (r *badgeRepository) List(ctx context.Context, limit int) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&badges).Error
	return badges, err
}

func (r *badgeRepository) Create(ctx context.Context, badge *models.UserBadge) error {
	return r.db.WithContext(ctx).Create(badge).Error
}

func (r *badgeRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.UserBadge{}, id)
	return res.RowsAffected > 0, res.Error
}
