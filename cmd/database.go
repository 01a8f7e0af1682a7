package cmd

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	internal "github.com/frahmantamala/expense-tracker/internal"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
)

// database shares one connection pool between gorm, used by the
// repositories that write, and sqlx, used by the reporting scans.
type database struct {
	Gorm   *gorm.DB
	SQL    *sqlx.DB
	Driver string
}

func (d *database) Close() error {
	return d.SQL.Close()
}

// initDB opens the configured database. sqlite databases get their schema
// from the datamodels; postgres is expected to be migrated with goose.
func initDB(ctx context.Context, cfg internal.DatabaseConfig, logger *slog.Logger) (*database, error) {
	var (
		dialector  gorm.Dialector
		sqlxDriver string
	)
	switch cfg.Driver {
	case internal.DriverSQLite:
		dialector = sqlite.Open(cfg.Source)
		sqlxDriver = "sqlite3"
	default:
		dialector = postgres.Open(cfg.Source)
		sqlxDriver = "pgx"
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	if cfg.Driver == internal.DriverSQLite {
		// one writer avoids "database is locked" under concurrent requests
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := internal.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == internal.DriverSQLite {
		if err := gormDB.WithContext(ctx).AutoMigrate(&userDatamodel.User{}, &expenseDatamodel.Expense{}); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
		logger.Info("sqlite schema ready", "source", cfg.Source)
	}

	return &database{
		Gorm:   gormDB,
		SQL:    sqlx.NewDb(sqlDB, sqlxDriver),
		Driver: cfg.Driver,
	}, nil
}
