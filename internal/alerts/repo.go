package alerts

import (
	"context"
	"time"

	"github.com/basketwise/basketwise-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists price alerts.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, alert *models.PriceAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]models.PriceAlert, error) {
	var rows []models.PriceAlert
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.PriceAlert{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListDue returns up to limit alerts that never fired or last fired before
// cutoff, ordered by id and starting after the given id. Pass uuid.Nil for the
// first page.
func (r *Repository) ListDue(ctx context.Context, cutoff time.Time, after uuid.UUID, limit int) ([]models.PriceAlert, error) {
	var rows []models.PriceAlert
	if err := r.db.WithContext(ctx).
		Where("last_triggered_at IS NULL OR last_triggered_at < ?", cutoff).
		Where("id > ?", after).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkTriggered stamps the alert so the cooldown applies.
func (r *Repository) MarkTriggered(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.PriceAlert{}).
		Where("id = ?", id).
		Update("last_triggered_at", at).Error
}
