package comparison

import (
	"sort"
	"strings"
)

// SortKey names a presentation ordering for breakdowns.
type SortKey string

const (
	SortByPrice    SortKey = "price"
	SortByDistance SortKey = "distance"
	SortBySavings  SortKey = "savings"
)

// ParseSortKey accepts an empty value as price.
func ParseSortKey(value string) (SortKey, bool) {
	switch SortKey(strings.ToLower(strings.TrimSpace(value))) {
	case "", SortByPrice:
		return SortByPrice, true
	case SortByDistance:
		return SortByDistance, true
	case SortBySavings:
		return SortBySavings, true
	default:
		return "", false
	}
}

// Sort orders breakdowns in place. Price and distance sort ascending, savings
// descending; every ordering falls back to the store id so results never
// depend on the order stores finished pricing.
func Sort(breakdowns []StorePriceBreakdown, by SortKey) {
	sort.SliceStable(breakdowns, func(i, j int) bool {
		a, b := breakdowns[i], breakdowns[j]
		switch by {
		case SortByDistance:
			if a.Distance != b.Distance {
				return a.Distance < b.Distance
			}
		case SortBySavings:
			if !a.Savings.Equal(b.Savings) {
				return a.Savings.GreaterThan(b.Savings)
			}
		default:
			if !a.TotalPrice.Equal(b.TotalPrice) {
				return a.TotalPrice.LessThan(b.TotalPrice)
			}
		}
		return a.StoreID.String() < b.StoreID.String()
	})
}

// FilterComplete keeps only stores that carry every item.
func FilterComplete(breakdowns []StorePriceBreakdown) []StorePriceBreakdown {
	out := make([]StorePriceBreakdown, 0, len(breakdowns))
	for _, b := range breakdowns {
		if b.Complete() {
			out = append(out, b)
		}
	}
	return out
}
