package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Price is the current shelf price of a product at a store. At most one row
// exists per (store, product name).
type Price struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	StoreID     uuid.UUID       `gorm:"column:store_id;type:uuid;not null;uniqueIndex:prices_store_product_key"`
	ProductName string          `gorm:"column:product_name;not null;uniqueIndex:prices_store_product_key;index"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	IsOnSale    bool            `gorm:"column:is_on_sale;not null;default:false"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Price) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// PriceHistory is an append-only observation of a price at a point in time.
type PriceHistory struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	StoreID     uuid.UUID       `gorm:"column:store_id;type:uuid;not null;index:price_history_lookup"`
	ProductName string          `gorm:"column:product_name;not null;index:price_history_lookup"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	RecordedAt  time.Time       `gorm:"column:recorded_at;not null"`
}

func (PriceHistory) TableName() string { return "price_history" }

func (p *PriceHistory) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
