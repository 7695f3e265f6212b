package stores

import (
	"context"

	"github.com/basketwise/basketwise-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles store persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new store row.
func (r *Repository) Create(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// List returns every store ordered by distance.
func (r *Repository) List(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).Order("distance ASC, id ASC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// ListWithinDistance returns stores whose precomputed distance is <= maxDistance.
func (r *Repository) ListWithinDistance(ctx context.Context, maxDistance float64) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).
		Where("distance <= ?", maxDistance).
		Order("distance ASC, id ASC").
		Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// ListPreferred returns the user's saved stores with the store rows preloaded.
func (r *Repository) ListPreferred(ctx context.Context, userID string) ([]models.PreferredStore, error) {
	var rows []models.PreferredStore
	if err := r.db.WithContext(ctx).
		Preload("Store").
		Where("user_id = ?", userID).
		Order("is_favorite DESC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AddPreferred saves a store for the user.
func (r *Repository) AddPreferred(ctx context.Context, pref *models.PreferredStore) error {
	return r.db.WithContext(ctx).Create(pref).Error
}

// SetFavorite flips the favorite flag on a saved store.
func (r *Repository) SetFavorite(ctx context.Context, userID string, storeID uuid.UUID, favorite bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.PreferredStore{}).
		Where("user_id = ? AND store_id = ?", userID, storeID).
		Update("is_favorite", favorite)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RemovePreferred deletes a saved store.
func (r *Repository) RemovePreferred(ctx context.Context, userID string, storeID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND store_id = ?", userID, storeID).
		Delete(&models.PreferredStore{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
