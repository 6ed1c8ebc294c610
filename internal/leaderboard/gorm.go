package leaderboard

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormStore struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the leaderboard table.
func OpenPostgres(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewGormStore(db)
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate leaderboard: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Submit(ctx context.Context, name string, score int) (Entry, error) {
	name, err := Validate(name, score)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Name: name, Score: score}
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return Entry{}, fmt.Errorf("insert score: %w", err)
	}
	return e, nil
}

func (s *GormStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	var out []Entry
	err := s.db.WithContext(ctx).
		Order("score desc").
		Order("id asc").
		Limit(clampLimit(limit)).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	return out, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
