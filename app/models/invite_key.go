package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InviteKey gates registration. IsUsed flips false->true exactly once via a
// conditional update and never back.
type InviteKey struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Key       string     `gorm:"size:50;not null;uniqueIndex" json:"key"`
	IsUsed    bool       `gorm:"not null;default:false;index" json:"is_used"`
	UsedBy    *string    `gorm:"size:36" json:"used_by,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedBy *string    `gorm:"size:36" json:"created_by,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (k *InviteKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}
