package psql

import (
	"context"
	"fmt"

	"crguide/crguide/config"
	"crguide/crguide/sources/psql/models"
	"crguide/crguide/utils/logging"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(ctx context.Context, cfg config.Config) (*Database, error) {
	// Build connection string
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
	)
	logging.AppLogger.Info("connecting to database", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	return Open(ctx, postgres.Open(connStr))
}

// Open connects with any gorm dialector and migrates the schema.
func Open(ctx context.Context, dialector gorm.Dialector) (*Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		// Logger: logger.Default.LogMode(logger.Info), // Enable SQL logging for debugging
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate models (automatic schema creation)
	if err := db.WithContext(ctx).AutoMigrate(&models.User{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate: %w", err)
	}

	return &Database{DB: db}, nil
}

func (db *Database) Close() {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return
	}
	sqlDB.Close()
}
