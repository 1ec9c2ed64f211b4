package database

import (
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
	"github.com/HadesClient/hades-web/internal/pkg/config"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// SetupDatabase connects to MySQL, retrying while the server comes up, and
// migrates the schema.
func SetupDatabase(cfg *config.Config) {
	var err error

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       cfg.DatabaseDSN(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{TranslateError: true})
		if err == nil {
			if err = AutoMigrate(DB); err != nil {
				log.Printf("Failed to migrate database schema: %v", err)
				panic(err)
			}
			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// AutoMigrate brings every table of the application up to date.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserAccount{},
		&models.Profile{},
		&models.UserRole{},
		&models.UserBadge{},
		&models.InviteKey{},
		&models.Config{},
		&models.ConfigPurchase{},
		&models.Transaction{},
		&models.Subscription{},
		&models.BillingWebhookEvent{},
	)
}

func GetDB() *gorm.DB {
	return DB
}
