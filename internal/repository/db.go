package repository

import (
	"context"
	"log/slog"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tradedocs/tradedocs/internal/common"
	"github.com/tradedocs/tradedocs/internal/entity"
)

// Open creates a pgx pool, wraps it for GORM, and returns both.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*gorm.DB, *pgxpool.Pool, error) {
	logger.Info("connecting to database", "dsn", cfg.DSN)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "tradedocs"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		pool.Close()
		return nil, nil, err
	}

	// Wrap pool as *sql.DB for GORM
	db := stdlib.OpenDBFromPool(pool)
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Error("failed to open gorm", "error", err)
		pool.Close()
		return nil, nil, err
	}

	logger.Info("successfully connected to database")
	return gdb, pool, nil
}

// OpenInMemory opens an in-memory SQLite database and migrates the schema.
// Used by the batch CLI's -inmem mode and by tests.
func OpenInMemory(logger *slog.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(gdb); err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("opened in-memory database")
	}
	return gdb, nil
}

// AutoMigrate creates or updates the schema for all persistent records.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Document{},
		&entity.Tender{},
		&entity.TenderItem{},
		&entity.Delivery{},
		&entity.DeliveryItem{},
		&entity.Invoice{},
		&entity.InvoiceItem{},
		&entity.BatchDraft{},
	)
}
