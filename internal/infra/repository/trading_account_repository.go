package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

type GormTradingAccountRepository struct {
	db *gorm.DB
}

func NewGormTradingAccountRepository(db *gorm.DB) (*GormTradingAccountRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &GormTradingAccountRepository{db: db}, nil
}

func (r *GormTradingAccountRepository) Get(ctx context.Context, id string) (domain.TradingAccount, error) {
	var model TradingAccountModel
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TradingAccount{}, domain.ErrNotFound
		}
		return domain.TradingAccount{}, err
	}
	return model.toDomain(), nil
}

// UpdateBalance writes only the broker-derived fields of the account.
func (r *GormTradingAccountRepository) UpdateBalance(ctx context.Context, id string, balance, equity float64, currency string) error {
	result := r.db.WithContext(ctx).Model(&TradingAccountModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_balance": balance,
			"current_equity":  equity,
			"currency":        currency,
			"updated_at":      gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Save creates or replaces a trading account. Accounts are owned by account
// management; the server uses this for seeding and tests.
func (r *GormTradingAccountRepository) Save(ctx context.Context, account domain.TradingAccount) error {
	model := toTradingAccountModel(account)

	assignments := clause.Assignments(map[string]interface{}{
		"user_id":    gorm.Expr("EXCLUDED.user_id"),
		"name":       gorm.Expr("EXCLUDED.name"),
		"broker":     gorm.Expr("EXCLUDED.broker"),
		"is_active":  gorm.Expr("EXCLUDED.is_active"),
		"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
	})

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: assignments,
		}).
		Create(&model).Error
}
