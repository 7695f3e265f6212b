package prices

import (
	"time"

	"github.com/basketwise/basketwise-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceDTO is the public shape of a current price record.
type PriceDTO struct {
	ID          uuid.UUID       `json:"id"`
	StoreID     uuid.UUID       `json:"store_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	IsOnSale    bool            `json:"is_on_sale"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HistoryPointDTO is one observation in a price history series.
type HistoryPointDTO struct {
	StoreID     uuid.UUID       `json:"store_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Date        time.Time       `json:"date"`
}

// UpsertPriceInput sets the current price of a product at a store.
type UpsertPriceInput struct {
	StoreID     uuid.UUID       `json:"store_id" validate:"required"`
	ProductName string          `json:"product_name" validate:"required,max=200"`
	Price       decimal.Decimal `json:"price"`
	IsOnSale    bool            `json:"is_on_sale"`
}

// UpsertResult reports what an upsert did.
type UpsertResult struct {
	Price   PriceDTO `json:"price"`
	Created bool     `json:"created"`
	Changed bool     `json:"changed"`
}

// BulkResult summarizes a batch of upserts.
type BulkResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// Add folds a single upsert outcome into the batch totals.
func (b *BulkResult) Add(res UpsertResult) {
	switch {
	case res.Created:
		b.Created++
	case res.Changed:
		b.Updated++
	default:
		b.Unchanged++
	}
}

func fromModel(m *models.Price) PriceDTO {
	return PriceDTO{
		ID:          m.ID,
		StoreID:     m.StoreID,
		ProductName: m.ProductName,
		Price:       m.Price,
		IsOnSale:    m.IsOnSale,
		UpdatedAt:   m.UpdatedAt,
	}
}

func fromModels(rows []models.Price) []PriceDTO {
	out := make([]PriceDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out
}

func historyFromModels(rows []models.PriceHistory) []HistoryPointDTO {
	out := make([]HistoryPointDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, HistoryPointDTO{
			StoreID:     row.StoreID,
			ProductName: row.ProductName,
			Price:       row.Price,
			Date:        row.RecordedAt,
		})
	}
	return out
}
