package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"expiry-tracker/internal/models"
	"gorm.io/gorm"
)

// Cache TTL constants
const (
	// ItemListCacheTTL keeps the full item list hot between mutations.
	// Classification happens on read, so cached rows never go stale by
	// themselves; only writes invalidate.
	ItemListCacheTTL = 2 * time.Minute
)

const itemListCacheKey = "expiry-tracker:items:all"

// ErrDuplicateProductID is returned when an insert would reuse an
// existing productId. The collection is left untouched.
var ErrDuplicateProductID = errors.New("product ID already exists")

// ItemRepositoryInterface is the persistence contract the handlers depend
// on; tests substitute a mock.
type ItemRepositoryInterface interface {
	CreateItem(ctx context.Context, item *models.InventoryItem) error
	GetItemByProductID(ctx context.Context, productID string) (*models.InventoryItem, error)
	ListItems(ctx context.Context) ([]models.InventoryItem, error)
	UpdateItem(ctx context.Context, item *models.InventoryItem) error
	DeleteItemByProductID(ctx context.Context, productID string) error
	ClearItems(ctx context.Context) error
	ImportState(ctx context.Context, items []models.InventoryItem, settings *models.ThresholdConfig) error

	GetSettings(ctx context.Context) (*models.ThresholdConfig, error)
	SaveSettings(ctx context.Context, cfg *models.ThresholdConfig) error
	ResetSettings(ctx context.Context) (*models.ThresholdConfig, error)
}

type ItemRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

var _ ItemRepositoryInterface = (*ItemRepository)(nil)

func NewItemRepository(db *gorm.DB, redisClient *redis.Client) *ItemRepository {
	return &ItemRepository{
		db:    db,
		redis: redisClient,
	}
}

// invalidateItemCaches drops the cached item list after any mutation.
// Cache failures are ignored; the database remains the source of truth.
func (r *ItemRepository) invalidateItemCaches(ctx context.Context) {
	if r.redis == nil {
		return
	}
	_ = r.redis.Del(ctx, itemListCacheKey).Err()
}

// RedisHealth returns the health status of the Redis connection.
func (r *ItemRepository) RedisHealth(ctx context.Context) error {
	if r.redis == nil {
		return fmt.Errorf("redis not configured")
	}
	return r.redis.Ping(ctx).Err()
}

// ========== Item Operations ==========

// CreateItem appends a new item. ProductID uniqueness is checked up front
// so the caller gets a stable error code instead of a driver error; the
// unique index backs it up against races.
func (r *ItemRepository) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("product_id = ?", item.ProductID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateProductID
	}

	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()

	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return err
	}
	r.invalidateItemCaches(ctx)
	return nil
}

// GetItemByProductID retrieves a single item by its productId.
func (r *ItemRepository) GetItemByProductID(ctx context.Context, productID string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).
		First(&item).Error
	return &item, err
}

// ListItems retrieves the full collection in insertion order, serving from
// the Redis cache when possible.
func (r *ItemRepository) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	if r.redis != nil {
		if data, err := r.redis.Get(ctx, itemListCacheKey).Bytes(); err == nil {
			var cached []models.InventoryItem
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).Order("seq ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(items); err == nil {
			_ = r.redis.Set(ctx, itemListCacheKey, data, ItemListCacheTTL).Err()
		}
	}
	return items, nil
}

// UpdateItem replaces an item's mutable fields. DateAdded and Seq are
// carried over from the existing row by the caller; productId is the key
// and never changes.
func (r *ItemRepository) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	item.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return err
	}
	r.invalidateItemCaches(ctx)
	return nil
}

// DeleteItemByProductID removes a single item.
func (r *ItemRepository) DeleteItemByProductID(ctx context.Context, productID string) error {
	result := r.db.WithContext(ctx).Where("product_id = ?", productID).
		Delete(&models.InventoryItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateItemCaches(ctx)
	return nil
}

// ClearItems removes the whole collection.
func (r *ItemRepository) ClearItems(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.InventoryItem{}).Error; err != nil {
		return err
	}
	r.invalidateItemCaches(ctx)
	return nil
}

// ImportState atomically applies an import payload. A nil items slice
// leaves the collection untouched, a nil settings pointer leaves the
// configuration untouched; a non-nil items slice replaces the collection
// wholesale. Any failure rolls the whole import back.
func (r *ItemRepository) ImportState(ctx context.Context, items []models.InventoryItem, settings *models.ThresholdConfig) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if items != nil {
			if err := tx.Where("1 = 1").Delete(&models.InventoryItem{}).Error; err != nil {
				return err
			}
			for i := range items {
				items[i].CreatedAt = time.Now()
				items[i].UpdatedAt = time.Now()
				if err := tx.Create(&items[i]).Error; err != nil {
					return err
				}
			}
		}
		if settings != nil {
			settings.ID = models.SettingsRowID
			settings.UpdatedAt = time.Now()
			if err := tx.Save(settings).Error; err != nil {
				return err
			}
		}
		r.invalidateItemCaches(ctx)
		return nil
	})
}

// ========== Settings Operations ==========

// GetSettings returns the configuration row, falling back to defaults
// when none has been saved yet.
func (r *ItemRepository) GetSettings(ctx context.Context) (*models.ThresholdConfig, error) {
	var cfg models.ThresholdConfig
	err := r.db.WithContext(ctx).First(&cfg, models.SettingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		defaults := models.DefaultThresholds()
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveSettings upserts the single configuration row.
func (r *ItemRepository) SaveSettings(ctx context.Context, cfg *models.ThresholdConfig) error {
	cfg.ID = models.SettingsRowID
	cfg.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(cfg).Error
}

// ResetSettings restores and persists the default configuration.
func (r *ItemRepository) ResetSettings(ctx context.Context) (*models.ThresholdConfig, error) {
	defaults := models.DefaultThresholds()
	if err := r.SaveSettings(ctx, &defaults); err != nil {
		return nil, err
	}
	return &defaults, nil
}
