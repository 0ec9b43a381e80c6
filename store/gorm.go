package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/kasuganosora/scriptrpg/config"
)

// SaveBlob is the single table behind the sqlite and mysql modes.
type SaveBlob struct {
	Key       string         `gorm:"primaryKey;size:128"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt int64          `gorm:"autoUpdateTime:milli"`
}

func (SaveBlob) TableName() string { return "save_blobs" }

type gormStore struct {
	db *gorm.DB
}

func openGorm(cfg config.StoreConfig) (Store, error) {
	var dial gorm.Dialector
	switch cfg.Mode {
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = "scriptrpg.db"
		}
		dial = sqlite.Open(path)
	case "mysql":
		dial = mysql.Open(cfg.MySQLDSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.Mode, err)
	}
	if cfg.Mode == "mysql" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("store: mysql pool: %w", err)
		}
		if cfg.MySQLMaxOpen > 0 {
			sqlDB.SetMaxOpenConns(cfg.MySQLMaxOpen)
		}
		if cfg.MySQLMaxIdle > 0 {
			sqlDB.SetMaxIdleConns(cfg.MySQLMaxIdle)
		}
		if cfg.MySQLMaxLife > 0 {
			sqlDB.SetConnMaxLifetime(cfg.MySQLMaxLife)
		}
	}
	if err := db.AutoMigrate(&SaveBlob{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &gormStore{db: db}, nil
}

func (s *gormStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var blob SaveBlob
	err := s.db.WithContext(ctx).First(&blob, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get %s: %w", key, err)
	}
	return []byte(blob.Value), true, nil
}

func (s *gormStore) Set(ctx context.Context, key string, value []byte) error {
	blob := SaveBlob{Key: key, Value: datatypes.JSON(value)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&blob).Error
	if err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}

func (s *gormStore) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&SaveBlob{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("store: remove %s: %w", key, err)
	}
	return nil
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
