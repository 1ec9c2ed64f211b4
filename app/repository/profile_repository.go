package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
)

// profileRepository implements the ProfileRepository interface
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository instance
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) UpdateDescription(ctx context.Context, userID, description string) error {
	return r.updateColumn(ctx, userID, "description", description)
}

func (r *profileRepository) UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error {
	return r.updateColumn(ctx, userID, "avatar_url", avatarURL)
}

// SetBanned sets or clears banned_at. A nil timestamp unbans.
func (r *profileRepository) SetBanned(ctx context.Context, userID string, bannedAt *time.Time) error {
	return r.updateColumn(ctx, userID, "banned_at", bannedAt)
}

func (r *profileRepository) updateColumn(ctx context.Context, userID, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero rows for no-op updates, so confirm the row exists.
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// AdjustCoins applies delta to a balance and appends the matching ledger row
// in one transaction. Debits are conditional on the balance covering them.
func (r *profileRepository) AdjustCoins(ctx context.Context, userID string, delta int64, txnType, description string) (int64, error) {
	var balance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Profile{}).Where("user_id = ?", userID)
		if delta < 0 {
			q = q.Where("hades_coins >= ?", -delta)
		}
		res := q.UpdateColumn("hades_coins", gorm.Expr("hades_coins + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Profile{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrBalanceTooLow
		}

		if err := tx.Create(&models.Transaction{
			UserID:      userID,
			Type:        txnType,
			Amount:      delta,
			Description: description,
		}).Error; err != nil {
			return err
		}

		var profile models.Profile
		if err := tx.Select("hades_coins").Where("user_id = ?", userID).First(&profile).Error; err != nil {
			return err
		}
		balance = profile.HadesCoins
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *profileRepository) List(ctx context.Context, limit int) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&profiles).Error
	return profiles, err
}

func (r *profileRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Count(&count).Error
	return count, err
}

func (r *profileRepository) CountBanned(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Where("banned_at IS NOT NULL").Count(&count).Error
	return count, err
}
