package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/HadesClient/hades-web/app/models"
)

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&txns).Error
	return txns, err
}
