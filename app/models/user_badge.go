package models

import "time"

var BadgeIcons = []string{"award", "star", "zap", "flame", "heart", "gem", "trophy", "target"}

var BadgeColors = []string{"purple", "red", "green", "blue", "yellow", "orange", "pink"}

type UserBadge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	Name      string    `gorm:"size:30;not null" json:"name"`
	Icon      string    `gorm:"size:20;not null" json:"icon"`
	Color     string    `gorm:"size:20;not null" json:"color"`
	CreatedBy string    `gorm:"size:36" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
