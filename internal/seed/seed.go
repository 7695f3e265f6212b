// Package seed loads the demo San Francisco catalog used in development.
package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/basketwise/basketwise-backend/internal/prices"
	"github.com/basketwise/basketwise-backend/internal/products"
	"github.com/basketwise/basketwise-backend/internal/stores"
)

type storeCreator interface {
	List(ctx context.Context, maxDistance *float64) ([]stores.StoreDTO, error)
	Create(ctx context.Context, input stores.CreateStoreInput) (*stores.StoreDTO, error)
}

type productCreator interface {
	Create(ctx context.Context, input products.CreateProductInput) (*products.ProductDTO, error)
}

type priceUpserter interface {
	Upsert(ctx context.Context, input prices.UpsertPriceInput) (*prices.UpsertResult, error)
}

// Params wire the services the seeder writes through.
type Params struct {
	Stores   storeCreator
	Products productCreator
	Prices   priceUpserter
}

// Report counts what a seed run created.
type Report struct {
	Skipped  bool
	Stores   int
	Products int
	Prices   int
}

// Run loads the demo catalog. A database that already has stores is left alone.
func Run(ctx context.Context, params Params) (*Report, error) {
	if params.Stores == nil || params.Products == nil || params.Prices == nil {
		return nil, fmt.Errorf("catalog services required")
	}

	existing, err := params.Stores.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	if len(existing) > 0 {
		return &Report{Skipped: true}, nil
	}

	report := &Report{}
	for _, p := range demoProducts {
		if _, err := params.Products.Create(ctx, products.CreateProductInput{Name: p.name, Category: p.category}); err != nil {
			return report, fmt.Errorf("create product %q: %w", p.name, err)
		}
		report.Products++
	}

	for i, input := range demoStores {
		store, err := params.Stores.Create(ctx, input)
		if err != nil {
			return report, fmt.Errorf("create store %q: %w", input.Name, err)
		}
		report.Stores++

		for j, shelf := range demoPrices[i] {
			if _, err := params.Prices.Upsert(ctx, prices.UpsertPriceInput{
				StoreID:     store.ID,
				ProductName: demoProducts[j].name,
				Price:       decimal.RequireFromString(shelf.amount),
				IsOnSale:    shelf.sale,
			}); err != nil {
				return report, fmt.Errorf("price %q at %q: %w", demoProducts[j].name, input.Name, err)
			}
			report.Prices++
		}
	}
	return report, nil
}
