package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
)

// inviteKeyRepository implements InviteKeyRepository. The key column is a
// reserved word in MySQL, so lookups use map conditions which gorm quotes.
type inviteKeyRepository struct {
	db *gorm.DB
}

func NewInviteKeyRepository(db *gorm.DB) InviteKeyRepository {
	return &inviteKeyRepository{db: db}
}

func (r *inviteKeyRepository) FindUnused(ctx context.Context, key string) (*models.InviteKey, error) {
	var k models.InviteKey
	err := r.db.WithContext(ctx).
		Where(map[string]interface{}{"key": key, "is_used": false}).
		First(&k).Error
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// Consume marks the key used by userID if and only if it is still unused.
// It is a single conditional UPDATE; false means another caller won.
func (r *inviteKeyRepository) Consume(ctx context.Context, key, userID string) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.InviteKey{}).
		Where(map[string]interface{}{"key": key, "is_used": false}).
		Updates(map[string]interface{}{
			"is_used": true,
			"used_by": userID,
			"used_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *inviteKeyRepository) Create(ctx context.Context, key *models.InviteKey) error {
	return translateWriteError(r.db.WithContext(ctx).Create(key).Error)
}

func (r *inviteKeyRepository) List(ctx context.Context, limit int) ([]models.InviteKey, error) {
	var keys []models.InviteKey
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&keys).Error
	return keys, err
}

// DeleteUnused removes a key that has not been consumed. It returns
// gorm.ErrRecordNotFound for unknown ids and false for used keys.
func (r *inviteKeyRepository) DeleteUnused(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where(map[string]interface{}{"id": id, "is_used": false}).
		Delete(&models.InviteKey{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InviteKey{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, gorm.ErrRecordNotFound
	}
	return false, nil
}

func (r *inviteKeyRepository) Counts(ctx context.Context) (int64, int64, error) {
	var used, total int64
	if err := r.db.WithContext(ctx).Model(&models.InviteKey{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&models.InviteKey{}).Where("is_used = ?", true).Count(&used).Error; err != nil {
		return 0, 0, err
	}
	return used, total, nil
}
