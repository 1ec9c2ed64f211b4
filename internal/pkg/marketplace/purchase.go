package marketplace

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
	"github.com/HadesClient/hades-web/internal/pkg/apperror"
)

// Outcome describes what a successful Purchase did.
type Outcome string

const (
	// OutcomePurchased means a new ConfigPurchase row was written.
	OutcomePurchased Outcome = "purchased"
	// OutcomeAlreadyOwned means nothing changed: the buyer is the owner or
	// already holds a free config.
	OutcomeAlreadyOwned Outcome = "already_owned"
)

var (
	ErrConfigNotFound      = apperror.NotFound("Config not found")
	ErrBuyerNotFound       = apperror.NotFound("Profile not found")
	ErrInsufficientBalance = apperror.New(apperror.KindInsufficientBalance, "Insufficient balance")
	ErrAlreadyPurchased    = apperror.Conflict("Config already purchased")
)

var errDuplicatePurchase = errors.New("marketplace: duplicate purchase row")

// Purchase grants buyerID download rights to configID.
//
// Everything happens in one database transaction: the buyer debit is a
// conditional update on the balance, followed by the seller credit, both
// ledger rows, the purchase row and the download counter. Any failure rolls
// the whole unit back.
func (s *Service) Purchase(ctx context.Context, buyerID, configID string) (Outcome, error) {
	var (
		outcome Outcome
		price   int64
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cfg models.Config
		if err := tx.Where("id = ?", configID).First(&cfg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConfigNotFound
			}
			return err
		}
		price = cfg.Price

		if cfg.UserID == buyerID {
			outcome = OutcomeAlreadyOwned
			return nil
		}

		var existing int64
		if err := tx.Model(&models.ConfigPurchase{}).
			Where("user_id = ? AND config_id = ?", buyerID, cfg.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			if cfg.IsFree() {
				outcome = OutcomeAlreadyOwned
				return nil
			}
			return ErrAlreadyPurchased
		}

		if !cfg.IsFree() {
			if err := transferCoins(tx, buyerID, &cfg); err != nil {
				return err
			}
		}

		if err := tx.Create(&models.ConfigPurchase{UserID: buyerID, ConfigID: cfg.ID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicatePurchase
			}
			return err
		}
		if err := tx.Model(&models.Config{}).Where("id = ?", cfg.ID).
			UpdateColumn("downloads", gorm.Expr("downloads + 1")).Error; err != nil {
			return err
		}

		outcome = OutcomePurchased
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, errDuplicatePurchase):
			// a concurrent request recorded the same purchase first
			if price == 0 {
				return OutcomeAlreadyOwned, nil
			}
			return "", ErrAlreadyPurchased
		case apperror.KindOf(err) != apperror.KindInternal:
			return "", err
		}
		log.Errorf("marketplace: purchase of %s by %s failed: %v", configID, buyerID, err)
		return "", apperror.Internal(err)
	}
	return outcome, nil
}

// transferCoins moves cfg.Price from buyer to seller and appends both ledger rows.
func transferCoins(tx *gorm.DB, buyerID string, cfg *models.Config) error {
	res := tx.Model(&models.Profile{}).
		Where("user_id = ? AND hades_coins >= ?", buyerID, cfg.Price).
		UpdateColumn("hades_coins", gorm.Expr("hades_coins - ?", cfg.Price))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.Profile{}).Where("user_id = ?", buyerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrBuyerNotFound
		}
		return ErrInsufficientBalance
	}

	if err := tx.Model(&models.Profile{}).Where("user_id = ?", cfg.UserID).
		UpdateColumn("hades_coins", gorm.Expr("hades_coins + ?", cfg.Price)).Error; err != nil {
		return err
	}

	ledger := []models.Transaction{
		{
			UserID:      buyerID,
			Type:        models.TransactionConfigBuy,
			Amount:      -cfg.Price,
			Description: fmt.Sprintf("Purchased config: %s", cfg.Name),
		},
		{
			UserID:      cfg.UserID,
			Type:        models.TransactionConfigSale,
			Amount:      cfg.Price,
			Description: fmt.Sprintf("Sold config: %s", cfg.Name),
		},
	}
	return tx.Create(&ledger).Error
}
