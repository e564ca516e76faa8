package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

type GormTradeRepository struct {
	db *gorm.DB
}

func NewGormTradeRepository(db *gorm.DB) (*GormTradeRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &GormTradeRepository{db: db}, nil
}

func (r *GormTradeRepository) FindOpenByExternalID(ctx context.Context, tradingAccountID, externalID string) (domain.Trade, error) {
	var model TradeModel
	err := r.db.WithContext(ctx).
		Where("external_id = ? AND trading_account_id = ? AND status = ?", externalID, tradingAccountID, domain.TradeStatusOpen).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Trade{}, domain.ErrNotFound
		}
		return domain.Trade{}, err
	}
	return model.toDomain(), nil
}

func (r *GormTradeRepository) ExistsByExternalID(ctx context.Context, tradingAccountID, externalID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&TradeModel{}).
		Where("external_id = ? AND trading_account_id = ?", externalID, tradingAccountID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormTradeRepository) Create(ctx context.Context, trade domain.Trade) error {
	model := toTradeModel(trade)
	model.ID = 0
	return r.db.WithContext(ctx).Create(&model).Error
}

// UpdateOpenMetrics refreshes the running figures of an open trade. Entry
// attributes are never touched.
func (r *GormTradeRepository) UpdateOpenMetrics(ctx context.Context, id int64, pnl, commission, swap float64) error {
	result := r.db.WithContext(ctx).Model(&TradeModel{}).
		Where("id = ? AND status = ?", id, domain.TradeStatusOpen).
		Updates(map[string]interface{}{
			"pnl":        pnl,
			"commission": commission,
			"swap":       swap,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormTradeRepository) ListByTradingAccount(ctx context.Context, tradingAccountID string, status domain.TradeStatus) ([]domain.Trade, error) {
	var models []TradeModel
	query := r.db.WithContext(ctx).
		Where("trading_account_id = ?", tradingAccountID).
		Order("entry_date DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, len(models))
	for i, model := range models {
		trades[i] = model.toDomain()
	}
	return trades, nil
}
