package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceAlert fires when the product's price drops to or below TargetPrice.
// A nil StoreID watches every store.
type PriceAlert struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID          string          `gorm:"column:user_id;not null;index"`
	ProductName     string          `gorm:"column:product_name;not null"`
	TargetPrice     decimal.Decimal `gorm:"column:target_price;type:numeric(10,2);not null"`
	StoreID         *uuid.UUID      `gorm:"column:store_id;type:uuid"`
	EmailAlert      bool            `gorm:"column:email_alert;not null"`
	PushAlert       bool            `gorm:"column:push_alert;not null;default:false"`
	LastTriggeredAt *time.Time      `gorm:"column:last_triggered_at"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (a *PriceAlert) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}
