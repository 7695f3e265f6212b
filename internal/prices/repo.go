package prices

import (
	"context"
	"strings"
	"time"

	"github.com/basketwise/basketwise-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles price and price history persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to price operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetPrice returns the current price of productName at storeID, or nil when the
// store does not carry the product. The name match is exact and case-sensitive.
func (r *Repository) GetPrice(ctx context.Context, storeID uuid.UUID, productName string) (*models.Price, error) {
	return findPrice(r.db.WithContext(ctx), storeID, productName)
}

// ListByProductName returns every store's current price for productName.
func (r *Repository) ListByProductName(ctx context.Context, productName string) ([]models.Price, error) {
	var rows []models.Price
	if err := r.db.WithContext(ctx).
		Where("product_name = ?", productName).
		Order("price ASC, store_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SearchByProductName matches prices whose product name contains query, ignoring case.
func (r *Repository) SearchByProductName(ctx context.Context, query string, limit int) ([]models.Price, error) {
	var rows []models.Price
	pattern := "%" + strings.ToLower(query) + "%"
	if err := r.db.WithContext(ctx).
		Where("LOWER(product_name) LIKE ?", pattern).
		Order("product_name ASC, price ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByStore returns the store's current prices ordered by product name.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Price, error) {
	var rows []models.Price
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("product_name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListHistory returns observations for (storeID, productName) in ascending date order.
func (r *Repository) ListHistory(ctx context.Context, storeID uuid.UUID, productName string, since *time.Time) ([]models.PriceHistory, error) {
	q := r.db.WithContext(ctx).
		Where("store_id = ? AND product_name = ?", storeID, productName)
	if since != nil {
		q = q.Where("recorded_at >= ?", *since)
	}
	var rows []models.PriceHistory
	if err := q.Order("recorded_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindWithTx loads the current price row inside tx, nil when absent.
func (r *Repository) FindWithTx(tx *gorm.DB, storeID uuid.UUID, productName string) (*models.Price, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	return findPrice(tx, storeID, productName)
}

// SaveWithTx inserts or updates the price row.
func (r *Repository) SaveWithTx(tx *gorm.DB, price *models.Price) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Save(price).Error
}

// AppendHistoryWithTx records a history point.
func (r *Repository) AppendHistoryWithTx(tx *gorm.DB, point *models.PriceHistory) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(point).Error
}

func findPrice(q *gorm.DB, storeID uuid.UUID, productName string) (*models.Price, error) {
	var rows []models.Price
	if err := q.
		Where("store_id = ? AND product_name = ?", storeID, productName).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
