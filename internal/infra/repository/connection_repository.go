package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

type GormConnectionRepository struct {
	db *gorm.DB
}

func NewGormConnectionRepository(db *gorm.DB) (*GormConnectionRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &GormConnectionRepository{db: db}, nil
}

// GetByTradingAccount returns the most recently updated connection of the account.
func (r *GormConnectionRepository) GetByTradingAccount(ctx context.Context, tradingAccountID string) (domain.Connection, error) {
	var model ConnectionModel
	err := r.db.WithContext(ctx).
		Where("trading_account_id = ?", tradingAccountID).
		Order("updated_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Connection{}, domain.ErrNotConnected
		}
		return domain.Connection{}, err
	}

	return model.toDomain(), nil
}

func (r *GormConnectionRepository) GetByID(ctx context.Context, id int64) (domain.Connection, error) {
	var model ConnectionModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Connection{}, domain.ErrNotConnected
		}
		return domain.Connection{}, err
	}

	return model.toDomain(), nil
}

// Upsert stores the connection keyed by (trading_account_id, account_number).
// Re-authorizing replaces the owner and the token set; last_sync is preserved.
func (r *GormConnectionRepository) Upsert(ctx context.Context, conn domain.Connection) (domain.Connection, error) {
	model := toConnectionModel(conn)
	model.ID = 0

	assignments := clause.Assignments(map[string]interface{}{
		"user_id":       gorm.Expr("EXCLUDED.user_id"),
		"access_token":  gorm.Expr("EXCLUDED.access_token"),
		"refresh_token": gorm.Expr("EXCLUDED.refresh_token"),
		"expires_at":    gorm.Expr("EXCLUDED.expires_at"),
		"updated_at":    gorm.Expr("CURRENT_TIMESTAMP"),
	})

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "trading_account_id"}, {Name: "account_number"}},
			DoUpdates: assignments,
		}).
		Create(&model).Error
	if err != nil {
		return domain.Connection{}, err
	}

	var stored ConnectionModel
	if err := r.db.WithContext(ctx).
		Where("trading_account_id = ? AND account_number = ?", conn.TradingAccountID, conn.AccountNumber).
		First(&stored).Error; err != nil {
		return domain.Connection{}, err
	}

	return stored.toDomain(), nil
}

func (r *GormConnectionRepository) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&ConnectionModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"expires_at":    expiresAt.UTC(),
			"updated_at":    gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotConnected
	}
	return nil
}

func (r *GormConnectionRepository) TouchLastSync(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&ConnectionModel{}).
		Where("id = ?", id).
		Update("last_sync", at.UTC()).Error
}

// ListActive returns connections whose trading account is active, in id order.
func (r *GormConnectionRepository) ListActive(ctx context.Context) ([]domain.Connection, error) {
	var models []ConnectionModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN trading_accounts ON trading_accounts.id = ctrader_connections.trading_account_id").
		Where("trading_accounts.is_active = ?", true).
		Order("ctrader_connections.id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list active connections: %w", err)
	}

	conns := make([]domain.Connection, len(models))
	for i, model := range models {
		conns[i] = model.toDomain()
	}

	return conns, nil
}
