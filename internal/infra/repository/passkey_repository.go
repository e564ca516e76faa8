package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

type GormPasskeyRepository struct {
	db *gorm.DB
}

func NewGormPasskeyRepository(db *gorm.DB) (*GormPasskeyRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &GormPasskeyRepository{db: db}, nil
}

func (r *GormPasskeyRepository) AddPasskey(ctx context.Context, passkey domain.Passkey) error {
	model := toPasskeyModel(passkey)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *GormPasskeyRepository) UpdatePasskeyStatus(ctx context.Context, passkeyID string, enabled bool) error {
	result := r.db.WithContext(ctx).
		Model(&PasskeyModel{}).
		Where("passkey_id = ?", passkeyID).
		Update("enabled", enabled)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *GormPasskeyRepository) PasskeyExists(ctx context.Context, passkeyID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&PasskeyModel{}).
		Where("passkey_id = ?", passkeyID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *GormPasskeyRepository) GetPasskey(ctx context.Context, passkeyID string) (domain.Passkey, error) {
	var model PasskeyModel
	err := r.db.WithContext(ctx).
		Where("passkey_id = ?", passkeyID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Passkey{}, domain.ErrNotFound
		}
		return domain.Passkey{}, err
	}
	return model.toDomain(), nil
}
