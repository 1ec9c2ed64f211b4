package models

import "time"

// Profile is the public face of an account: 1:1 with UserAccount and
// created in the same transaction.
type Profile struct {
	UserID      string     `gorm:"primaryKey;size:36" json:"user_id"`
	Username    string     `gorm:"size:20;not null;uniqueIndex" json:"username"`
	HadesCoins  int64      `gorm:"not null;default:0" json:"hades_coins"`
	AvatarURL   string     `gorm:"size:512" json:"avatar_url"`
	Description string     `gorm:"size:200" json:"description"`
	BannedAt    *time.Time `json:"banned_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Profile) IsBanned() bool {
	return p.BannedAt != nil
}
