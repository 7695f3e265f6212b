package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PreferredStore struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID     string    `gorm:"column:user_id;not null;uniqueIndex:preferred_stores_user_store_key"`
	StoreID    uuid.UUID `gorm:"column:store_id;type:uuid;not null;uniqueIndex:preferred_stores_user_store_key"`
	IsFavorite bool      `gorm:"column:is_favorite;not null;default:false"`
	Store      *Store    `gorm:"foreignKey:StoreID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (p *PreferredStore) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
