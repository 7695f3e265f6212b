package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog entry used for search. Prices join on Name, not ID.
type Product struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	Category  string    `gorm:"column:category;not null;default:''"`
	Barcode   *string   `gorm:"column:barcode"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
