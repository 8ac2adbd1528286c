package blacklist

import (
	"context"
	"fmt"
	"time"

	"drink-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore 用关系库保存吊销的 token，适用于没有 Redis 的部署。
// 过期行在读取时被忽略，在写入时顺带清理。
type DBStore struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{DB: db, Now: time.Now}
}

func (s *DBStore) Exists(ctx context.Context, token string) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).
		Model(&models.BlacklistedToken{}).
		Where("token = ? AND expires_at > ?", token, s.Now()).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("query blacklist: %w", err)
	}
	return count > 0, nil
}

func (s *DBStore) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	now := s.Now()
	db := s.DB.WithContext(ctx)

	if err := db.Where("expires_at <= ?", now).Delete(&models.BlacklistedToken{}).Error; err != nil {
		return fmt.Errorf("purge blacklist: %w", err)
	}

	entry := models.BlacklistedToken{Token: token, ExpiresAt: now.Add(ttl)}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"expires_at"}),
	}).Create(&entry).Error; err != nil {
		return fmt.Errorf("insert blacklist: %w", err)
	}
	return nil
}
