package lists

import (
	"context"

	"github.com/basketwise/basketwise-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists shopping lists and their items.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func itemsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("list_items.created_at ASC, list_items.id ASC")
}

// ListByUser returns the user's lists, newest first, with items preloaded.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]models.ShoppingList, error) {
	var rows []models.ShoppingList
	if err := r.db.WithContext(ctx).
		Preload("Items", itemsInOrder).
		Where("user_id = ?", userID).
		Order("created_at DESC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindForUser loads one list owned by userID. Lists owned by someone else are
// reported as not found.
func (r *Repository) FindForUser(ctx context.Context, userID string, listID uuid.UUID) (*models.ShoppingList, error) {
	var list models.ShoppingList
	if err := r.db.WithContext(ctx).
		Preload("Items", itemsInOrder).
		Where("id = ? AND user_id = ?", listID, userID).
		First(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *Repository) CreateWithTx(tx *gorm.DB, list *models.ShoppingList) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(list).Error
}

func (r *Repository) Rename(ctx context.Context, userID string, listID uuid.UUID, name string) error {
	res := r.db.WithContext(ctx).
		Model(&models.ShoppingList{}).
		Where("id = ? AND user_id = ?", listID, userID).
		Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteWithTx removes the list and its items.
func (r *Repository) DeleteWithTx(tx *gorm.DB, userID string, listID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	res := tx.Where("id = ? AND user_id = ?", listID, userID).Delete(&models.ShoppingList{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return tx.Where("list_id = ?", listID).Delete(&models.ListItem{}).Error
}

func (r *Repository) AddItem(ctx context.Context, item *models.ListItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// FindItem loads an item only if its list belongs to userID.
func (r *Repository) FindItem(ctx context.Context, userID string, listID, itemID uuid.UUID) (*models.ListItem, error) {
	var item models.ListItem
	if err := r.db.WithContext(ctx).
		Joins("JOIN shopping_lists ON shopping_lists.id = list_items.list_id").
		Where("list_items.id = ? AND list_items.list_id = ? AND shopping_lists.user_id = ?", itemID, listID, userID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) SaveItem(ctx context.Context, item *models.ListItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *Repository) DeleteItem(ctx context.Context, listID, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND list_id = ?", itemID, listID).Delete(&models.ListItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
