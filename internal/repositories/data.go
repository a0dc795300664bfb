package repositories

import (
	"context"
	"time"

	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage is the durable key/value area of the background process.
type Storage struct {
	db *gorm.DB
}

func NewStorageRepository(db *gorm.DB) *Storage {
	return &Storage{db: db}
}

func (repo *Storage) Save(ctx context.Context, item models.StorageItem) error {
	item = inUTC(item)
	return repo.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&item).Error
}

func (repo *Storage) LoadAll(ctx context.Context) ([]models.StorageItem, error) {
	var items []models.StorageItem
	if err := repo.db.WithContext(ctx).Order("key").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (repo *Storage) Remove(ctx context.Context, key string) error {
	return repo.db.WithContext(ctx).Delete(&models.StorageItem{}, "key = ?", key).Error
}

// ReplaceAll drops every stored key and writes items in one transaction.
func (repo *Storage) ReplaceAll(ctx context.Context, items []models.StorageItem) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.StorageItem{}).Error; err != nil {
			return errors.Wrap(err, "failed to clear storage")
		}
		if len(items) == 0 {
			return nil
		}
		normalized := make([]models.StorageItem, len(items))
		for i, item := range items {
			normalized[i] = inUTC(item)
		}
		return errors.Wrap(tx.Create(&normalized).Error, "failed to write items")
	})
}

func (repo *Storage) RemoveExpired(ctx context.Context, now time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).Delete(&models.StorageItem{}, "expires_at IS NOT NULL AND expires_at < ?", now.UTC())
	return res.RowsAffected, res.Error
}

// expiry columns are compared as text by sqlite, so every stored time uses one zone
func inUTC(item models.StorageItem) models.StorageItem {
	if item.ExpiresAt != nil {
		expiresAt := item.ExpiresAt.UTC()
		item.ExpiresAt = &expiresAt
	}
	return item
}
