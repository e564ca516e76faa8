package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applogger "github.com/arjunn06/the-trade-zero-sub001/internal/infra/logger"
)

// zerologWriter adapts zerolog.Logger to gorm logger.Writer interface
type zerologWriter struct {
	logger zerolog.Logger
}

func (w *zerologWriter) Printf(format string, v ...interface{}) {
	w.logger.Warn().Msg(fmt.Sprintf(format, v...))
}

// Connect opens postgres for postgres URLs and key/value DSNs, sqlite for everything else.
func Connect(ctx context.Context, dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database dsn required")
	}

	if IsPostgresDSN(dsn) {
		return connectPostgres(ctx, dsn)
	}
	return connectSQLite(ctx, dsn)
}

func IsPostgresDSN(dsn string) bool {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(lower, "postgres://") ||
		strings.HasPrefix(lower, "postgresql://") ||
		strings.HasPrefix(lower, "host=")
}

func gormLogger() logger.Interface {
	gormLog := applogger.Component("gorm")
	return logger.New(
		&zerologWriter{logger: gormLog},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func ping(ctx context.Context, sqlDB *sql.DB, timeout time.Duration, retries int) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var err error
	for i := 0; i < retries; i++ {
		if err = sqlDB.PingContext(pingCtx); err == nil {
			return nil
		}
		if i < retries-1 {
			time.Sleep(time.Duration(i+1) * 500 * time.Millisecond)
		}
	}
	return fmt.Errorf("ping database: failed after %d retries: %w", retries, err)
}
