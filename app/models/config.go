package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CategoryPvP      = "PvP"
	CategoryBypass   = "Bypass"
	CategoryMovement = "Movement"
	CategoryHvH      = "HvH"
	CategoryUtility  = "Utility"
)

var ConfigCategories = []string{CategoryPvP, CategoryBypass, CategoryMovement, CategoryHvH, CategoryUtility}

// Config is a user-uploaded cheat configuration sold on the marketplace.
// Price is in hades coins; zero means free.
type Config struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;not null;index" json:"user_id"`
	Name        string    `gorm:"size:50;not null" json:"name"`
	Description string    `gorm:"size:300" json:"description"`
	Category    string    `gorm:"size:20;not null;index" json:"category"`
	Price       int64     `gorm:"not null;default:0" json:"price"`
	IsOfficial  bool      `gorm:"not null;default:false" json:"is_official"`
	FilePath    string    `gorm:"size:512" json:"file_path"`
	Downloads   int64     `gorm:"not null;default:0" json:"downloads"`
	Rating      float64   `gorm:"not null;default:0" json:"rating"`
	RatingCount int64     `gorm:"not null;default:0" json:"rating_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Config) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *Config) IsFree() bool {
	return c.Price == 0
}

// ConfigPurchase is the entitlement proof for a config download.
type ConfigPurchase struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"size:36;not null;uniqueIndex:ux_config_purchases_user_config,priority:1" json:"user_id"`
	ConfigID    string    `gorm:"size:36;not null;uniqueIndex:ux_config_purchases_user_config,priority:2;index" json:"config_id"`
	PurchasedAt time.Time `gorm:"autoCreateTime" json:"purchased_at"`
}
