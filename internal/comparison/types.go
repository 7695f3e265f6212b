package comparison

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is one shopping-list line handed to the engine.
type Item struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// ItemPriceDetail is the per-item pricing inside a store breakdown. Items a
// store does not carry are kept with NotAvailable set and zero amounts.
type ItemPriceDetail struct {
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Total        decimal.Decimal `json:"total"`
	Savings      decimal.Decimal `json:"savings"`
	IsOnSale     bool            `json:"is_on_sale"`
	NotAvailable bool            `json:"not_available"`
}

// StorePriceBreakdown is the cost of a whole list at one store.
// TotalPrice always equals the sum of PriceDetails totals.
type StorePriceBreakdown struct {
	StoreID        uuid.UUID         `json:"store_id"`
	StoreName      string            `json:"store_name"`
	Chain          string            `json:"chain"`
	Distance       float64           `json:"distance"`
	TotalPrice     decimal.Decimal   `json:"total_price"`
	Savings        decimal.Decimal   `json:"savings"`
	ItemsTotal     int               `json:"items_total"`
	ItemsAvailable int               `json:"items_available"`
	PriceDetails   []ItemPriceDetail `json:"price_details"`
}

// Complete reports whether the store carries every item on the list.
func (b StorePriceBreakdown) Complete() bool {
	return b.ItemsAvailable == b.ItemsTotal
}

// Status tells callers why a result looks the way it does.
type Status string

const (
	StatusOK       Status = "ok"
	StatusNoStores Status = "no_stores"
	StatusNoItems  Status = "no_items"
)

// Diagnostics describe how a comparison was assembled.
type Diagnostics struct {
	CandidateStores int    `json:"candidate_stores"`
	DroppedStores   int    `json:"dropped_stores"`
	Status          Status `json:"status"`
}

// Result is the ranked output of Engine.Compare.
type Result struct {
	Breakdowns  []StorePriceBreakdown `json:"breakdowns"`
	Diagnostics Diagnostics           `json:"diagnostics"`
}

// SavingsPolicy selects how per-item savings are computed. The policies are
// alternatives and never combined.
type SavingsPolicy string

const (
	// SavingsAverageDeviation credits max(0, average - price) * quantity, where
	// the average is taken over the candidate stores carrying the product.
	SavingsAverageDeviation SavingsPolicy = "average_deviation"
	// SavingsSaleDiscount credits 10% of the line total for items on sale.
	SavingsSaleDiscount SavingsPolicy = "sale_discount"
)

// ParseSavingsPolicy maps a config value to a policy, defaulting to average deviation.
func ParseSavingsPolicy(value string) SavingsPolicy {
	switch SavingsPolicy(value) {
	case SavingsSaleDiscount:
		return SavingsSaleDiscount
	default:
		return SavingsAverageDeviation
	}
}
