package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShoppingList struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string     `gorm:"column:user_id;not null;index"`
	Name      string     `gorm:"column:name;not null"`
	Items     []ListItem `gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *ShoppingList) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}

// ListItem is one line of a shopping list. Quantity is always >= 1 once persisted.
type ListItem struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ListID      uuid.UUID `gorm:"column:list_id;type:uuid;not null;index"`
	ProductName string    `gorm:"column:product_name;not null"`
	Quantity    int       `gorm:"column:quantity;not null;default:1"`
	Checked     bool      `gorm:"column:checked;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *ListItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
