package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/arjunn06/the-trade-zero-sub001/internal/infra/repository"
)

func ApplyMigrations(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(repository.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}
