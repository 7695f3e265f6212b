package alerts

import (
	"time"

	"github.com/basketwise/basketwise-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AlertDTO is a user's price alert.
type AlertDTO struct {
	ID              uuid.UUID       `json:"id"`
	ProductName     string          `json:"product_name"`
	TargetPrice     decimal.Decimal `json:"target_price"`
	StoreID         *uuid.UUID      `json:"store_id,omitempty"`
	EmailAlert      bool            `json:"email_alert"`
	PushAlert       bool            `json:"push_alert"`
	LastTriggeredAt *time.Time      `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CreateAlertInput registers interest in a price drop. A nil StoreID watches every store.
type CreateAlertInput struct {
	ProductName string          `json:"product_name" validate:"required,max=200"`
	TargetPrice decimal.Decimal `json:"target_price"`
	StoreID     *uuid.UUID      `json:"store_id,omitempty"`
	EmailAlert  *bool           `json:"email_alert,omitempty"`
	PushAlert   *bool           `json:"push_alert,omitempty"`
}

func fromModel(m *models.PriceAlert) AlertDTO {
	return AlertDTO{
		ID:              m.ID,
		ProductName:     m.ProductName,
		TargetPrice:     m.TargetPrice,
		StoreID:         m.StoreID,
		EmailAlert:      m.EmailAlert,
		PushAlert:       m.PushAlert,
		LastTriggeredAt: m.LastTriggeredAt,
		CreatedAt:       m.CreatedAt,
	}
}
