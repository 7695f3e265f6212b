package comparison

import "github.com/shopspring/decimal"

const weeksPerYear = 52

var hundred = decimal.NewFromInt(100)

// Summary is the headline savings for a ranked comparison.
type Summary struct {
	BestSavings decimal.Decimal `json:"best_savings"`
	// HighestPrice is the most expensive store total.
	HighestPrice decimal.Decimal `json:"highest_price"`
	// SavingsPercentage is BestSavings relative to HighestPrice, unclamped.
	SavingsPercentage decimal.Decimal `json:"savings_percentage"`
	// DisplayPercentage is SavingsPercentage clamped to [0, 100] and rounded to cents.
	DisplayPercentage decimal.Decimal `json:"display_percentage"`
	AnnualSavings     decimal.Decimal `json:"annual_savings"`
}

// Summarize reports the largest per-store savings, the highest total, and
// what the best savings would add up to over a year of weekly shops.
func Summarize(breakdowns []StorePriceBreakdown) Summary {
	summary := Summary{
		BestSavings:       decimal.Zero,
		HighestPrice:      decimal.Zero,
		SavingsPercentage: decimal.Zero,
		DisplayPercentage: decimal.Zero,
		AnnualSavings:     decimal.Zero,
	}
	if len(breakdowns) == 0 {
		return summary
	}

	for i, b := range breakdowns {
		if i == 0 || b.Savings.GreaterThan(summary.BestSavings) {
			summary.BestSavings = b.Savings
		}
		if i == 0 || b.TotalPrice.GreaterThan(summary.HighestPrice) {
			summary.HighestPrice = b.TotalPrice
		}
	}

	if summary.HighestPrice.IsPositive() {
		summary.SavingsPercentage = summary.BestSavings.Mul(hundred).Div(summary.HighestPrice)
	}
	summary.DisplayPercentage = clamp(summary.SavingsPercentage, decimal.Zero, hundred).Round(2)
	summary.AnnualSavings = summary.BestSavings.Mul(decimal.NewFromInt(weeksPerYear))
	return summary
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
