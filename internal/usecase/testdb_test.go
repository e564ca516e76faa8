package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
	"github.com/arjunn06/the-trade-zero-sub001/internal/infra/repository"
)

type testStore struct {
	db       *gorm.DB
	conns    *repository.GormConnectionRepository
	accounts *repository.GormTradingAccountRepository
	trades   *repository.GormTradeRepository
	states   *repository.GormAuthStateRepository
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	dsn := fmt.Sprintf("file:usecase_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(repository.Models()...))

	conns, err := repository.NewGormConnectionRepository(db)
	require.NoError(t, err)
	accounts, err := repository.NewGormTradingAccountRepository(db)
	require.NoError(t, err)
	trades, err := repository.NewGormTradeRepository(db)
	require.NoError(t, err)
	states, err := repository.NewGormAuthStateRepository(db)
	require.NoError(t, err)

	return &testStore{db: db, conns: conns, accounts: accounts, trades: trades, states: states}
}

func (s *testStore) seedAccount(t *testing.T, id, userID string) {
	t.Helper()
	require.NoError(t, s.accounts.Save(context.Background(), domain.TradingAccount{
		ID:       id,
		UserID:   userID,
		Name:     "Main " + id,
		Broker:   "ctrader",
		IsActive: true,
	}))
}
