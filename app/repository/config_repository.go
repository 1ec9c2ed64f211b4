package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
)

const defaultConfigListLimit = 200

type configRepository struct {
	db *gorm.DB
}

// NewConfigRepository creates a new config repository instance
func NewConfigRepository(db *gorm.DB) ConfigRepository {
	return &configRepository{db: db}
}

func (r *configRepository) GetByID(ctx context.Context, id string) (*models.Config, error) {
	var config models.Config
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&config).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

// List returns marketplace configs matching the filter. Search is a case
// insensitive substring match on name and description.
func (r *configRepository) List(ctx context.Context, filter ConfigFilter) ([]models.Config, error) {
	q := r.db.WithContext(ctx).Model(&models.Config{})

	if s := strings.ToLower(strings.TrimSpace(filter.Search)); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		q = q.Where("(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!')", pattern, pattern)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	switch filter.Sort {
	case SortDownloads:
		q = q.Order("downloads DESC")
	case SortRating:
		q = q.Order("rating DESC").Order("rating_count DESC")
	case SortPriceAsc:
		q = q.Order("price ASC")
	case SortPriceDesc:
		q = q.Order("price DESC")
	}
	q = q.Order("created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > defaultConfigListLimit {
		limit = defaultConfigListLimit
	}

	var configs []models.Config
	err := q.Limit(limit).Find(&configs).Error
	return configs, err
}

func (r *configRepository) ListByOwner(ctx context.Context, userID string) ([]models.Config, error) {
	var configs []models.Config
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&configs).Error
	return configs, err
}

func (r *configRepository) ListPurchasedBy(ctx context.Context, userID string) ([]models.Config, error) {
	var configs []models.Config
	purchased := r.db.Model(&models.ConfigPurchase{}).Select("config_id").Where("user_id = ?", userID)
	err := r.db.WithContext(ctx).Where("id IN (?)", purchased).Order("created_at DESC").Find(&configs).Error
	return configs, err
}

func (r *configRepository) PurchasedIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.ConfigPurchase{}).Where("user_id = ?", userID).Pluck("config_id", &ids).Error
	return ids, err
}

func (r *configRepository) HasPurchase(ctx context.Context, userID, configID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ConfigPurchase{}).
		Where("user_id = ? AND config_id = ?", userID, configID).
		Count(&count).Error
	return count > 0, err
}

func (r *configRepository) Create(ctx context.Context, config *models.Config) error {
	return translateWriteError(r.db.WithContext(ctx).Create(config).Error)
}

// Delete removes the config together with its purchase rows.
func (r *configRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("config_id = ?", id).Delete(&models.ConfigPurchase{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Config{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *configRepository) SetOfficial(ctx context.Context, id string, official bool) (bool, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	err := r.db.WithContext(ctx).Model(&models.Config{}).Where("id = ?", id).Update("is_official", official).Error
	return err == nil, err
}

func (r *configRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Config{}).Count(&count).Error
	return count, err
}

func (r *configRepository) SumDownloads(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Config{}).Select("COALESCE(SUM(downloads), 0)").Scan(&total).Error
	return total, err
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
