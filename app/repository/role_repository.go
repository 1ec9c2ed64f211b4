package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
	"github.com/HadesClient/hades-web/internal/pkg/rbac"
)

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository instance
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// ListByUser returns the user's elevated roles. Unknown role strings in the
// table are skipped.
func (r *roleRepository) ListByUser(ctx context.Context, userID string) ([]rbac.Role, error) {
	var rows []models.UserRole
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	roles := make([]rbac.Role, 0, len(rows))
	for _, row := range rows {
		if role, err := rbac.ParseRole(row.Role); err == nil {
			roles = append(roles, role)
		}
	}
	return roles, nil
}

func (r *roleRepository) ListByUsers(ctx context.Context, userIDs []string) (map[string][]rbac.Role, error) {
	out := make(map[string][]rbac.Role, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []models.UserRole
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if role, err := rbac.ParseRole(row.Role); err == nil {
			out[row.UserID] = append(out[row.UserID], role)
		}
	}
	return out, nil
}

func (r *roleRepository) Assign(ctx context.Context, userID string, role rbac.Role) error {
	err := r.db.WithContext(ctx).Create(&models.UserRole{UserID: userID, Role: string(role)}).Error
	return translateWriteError(err)
}

func (r *roleRepository) Remove(ctx context.Context, userID string, role rbac.Role) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND role = ?", userID, string(role)).Delete(&models.UserRole{})
	return res.RowsAffected > 0, res.Error
}
