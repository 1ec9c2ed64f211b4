package models

import "time"

// UserRole grants an elevated role to a user. Plain users have no rows.
type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:ux_user_roles_user_role,priority:1" json:"user_id"`
	Role      string    `gorm:"size:20;not null;uniqueIndex:ux_user_roles_user_role,priority:2;index" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
