package seed

import "github.com/basketwise/basketwise-backend/internal/stores"

func coord(v float64) *float64 { return &v }

var demoStores = []stores.CreateStoreInput{
	{Name: "SaveMart Downtown", Chain: "SaveMart", Address: "123 Main St", City: "San Francisco", State: "CA", ZipCode: "94103", Latitude: coord(37.781234), Longitude: coord(-122.412345), Distance: 2.3},
	{Name: "ValuMart 4th & Howard", Chain: "ValuMart", Address: "456 Howard St", City: "San Francisco", State: "CA", ZipCode: "94105", Latitude: coord(37.785678), Longitude: coord(-122.408765), Distance: 1.1},
	{Name: "FreshMarket 2nd & Folsom", Chain: "FreshMarket", Address: "789 Folsom St", City: "San Francisco", State: "CA", ZipCode: "94107", Latitude: coord(37.784321), Longitude: coord(-122.396543), Distance: 0.8},
	{Name: "SuperShop SOMA", Chain: "SuperShop", Address: "321 Brannan St", City: "San Francisco", State: "CA", ZipCode: "94107", Latitude: coord(37.782345), Longitude: coord(-122.391234), Distance: 4.2},
	{Name: "GroceryMaster Union Square", Chain: "GroceryMaster", Address: "567 Powell St", City: "San Francisco", State: "CA", ZipCode: "94108", Latitude: coord(37.788765), Longitude: coord(-122.409876), Distance: 5.5},
	{Name: "BulkBuy Warehouse", Chain: "BulkBuy", Address: "987 Industrial Blvd", City: "South San Francisco", State: "CA", ZipCode: "94080", Latitude: coord(37.654321), Longitude: coord(-122.433456), Distance: 12.7},
}

type demoProduct struct {
	name     string
	category string
}

var demoProducts = []demoProduct{
	{"Organic Milk (1 gallon)", "Dairy"},
	{"Eggs (Dozen, Large)", "Dairy"},
	{"Whole Wheat Bread", "Bakery"},
	{"Bananas (lb)", "Produce"},
	{"Ground Beef (lb)", "Meat"},
	{"Chicken Breast (lb)", "Meat"},
	{"Apples (lb)", "Produce"},
	{"Pasta (16oz)", "Pantry"},
	{"Tomato Sauce (24oz)", "Pantry"},
	{"Ice Cream (1 quart)", "Frozen"},
}

type shelfPrice struct {
	amount string
	sale   bool
}

// demoPrices is indexed [store][product] in the order of demoStores and demoProducts.
var demoPrices = [][]shelfPrice{
	{{"3.99", true}, {"4.49", true}, {"2.99", false}, {"0.59", true}, {"5.99", false}, {"3.99", true}, {"1.79", false}, {"1.29", false}, {"2.49", false}, {"4.99", true}},
	{{"4.29", false}, {"4.99", false}, {"2.49", true}, {"0.69", false}, {"5.49", true}, {"4.29", false}, {"1.59", true}, {"1.49", false}, {"2.29", true}, {"5.49", false}},
	{{"5.49", false}, {"5.99", false}, {"3.29", false}, {"0.79", false}, {"7.99", false}, {"5.99", false}, {"2.29", false}, {"1.99", false}, {"3.49", false}, {"6.99", false}},
	{{"4.49", false}, {"4.79", false}, {"2.79", false}, {"0.65", false}, {"6.49", false}, {"4.49", false}, {"1.89", false}, {"1.39", false}, {"2.69", false}, {"5.29", false}},
	{{"4.19", true}, {"4.69", false}, {"2.89", false}, {"0.63", true}, {"6.29", false}, {"4.19", true}, {"1.69", false}, {"1.35", true}, {"2.59", false}, {"5.19", false}},
	{{"3.79", true}, {"3.99", true}, {"2.39", true}, {"0.55", true}, {"5.29", true}, {"3.49", true}, {"1.49", true}, {"0.99", true}, {"1.99", true}, {"4.49", true}},
}
