package repository

import (
	"fmt"

	"github.com/scentboard/scentboard/internal/config"
	"github.com/scentboard/scentboard/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	*gorm.DB
}

func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	db, err := Open(postgres.Open(cfg.DSN()), cfg.LogQueries)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	return db, nil
}

// Open connects with any gorm dialector. Tests use it with SQLite.
func Open(dialector gorm.Dialector, logQueries bool) (*Database, error) {
	level := logger.Warn
	if logQueries {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Database{db}, nil
}

func (db *Database) AutoMigrate() error {
	if err := db.DB.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Follow{},
		&models.Post{},
		&models.Fragrance{},
		&models.FragranceNote{},
		&models.FragranceTag{},
		&models.FragranceAccord{},
		&models.Ratings{},
		&models.Seasons{},
		&models.Comment{},
		&models.PostLike{},
		&models.CommentLike{},
		&models.SavedPost{},
		&models.Notification{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (db *Database) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
