package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

type GormAuthStateRepository struct {
	db *gorm.DB
}

func NewGormAuthStateRepository(db *gorm.DB) (*GormAuthStateRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &GormAuthStateRepository{db: db}, nil
}

func (r *GormAuthStateRepository) Create(ctx context.Context, state domain.AuthState) error {
	model := toAuthStateModel(state)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Consume reads and deletes the state in one transaction. A concurrent
// consumer that loses the delete gets ErrInvalidState.
func (r *GormAuthStateRepository) Consume(ctx context.Context, state string) (domain.AuthState, error) {
	var model AuthStateModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("state = ?", state).First(&model).Error; err != nil {
			return err
		}
		result := tx.Where("state = ?", state).Delete(&AuthStateModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return domain.ErrInvalidState
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AuthState{}, domain.ErrInvalidState
		}
		return domain.AuthState{}, err
	}
	return model.toDomain(), nil
}

func (r *GormAuthStateRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&AuthStateModel{})
	return result.RowsAffected, result.Error
}
