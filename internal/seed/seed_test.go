package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basketwise/basketwise-backend/internal/prices"
	"github.com/basketwise/basketwise-backend/internal/products"
	"github.com/basketwise/basketwise-backend/internal/stores"
	"github.com/basketwise/basketwise-backend/pkg/db"
	"github.com/basketwise/basketwise-backend/pkg/db/dbtest"
)

func newParams(t *testing.T) (Params, stores.Service, prices.Service) {
	t.Helper()
	conn := dbtest.Open(t)
	storeRepo := stores.NewRepository(conn)
	storeSvc, err := stores.NewService(storeRepo)
	require.NoError(t, err)
	productSvc, err := products.NewService(products.NewRepository(conn))
	require.NoError(t, err)
	priceSvc, err := prices.NewService(prices.NewRepository(conn), storeRepo, db.Wrap(conn))
	require.NoError(t, err)
	return Params{Stores: storeSvc, Products: productSvc, Prices: priceSvc}, storeSvc, priceSvc
}

func TestRunLoadsDemoCatalog(t *testing.T) {
	params, storeSvc, priceSvc := newParams(t)
	ctx := context.Background()

	report, err := Run(ctx, params)
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, 6, report.Stores)
	assert.Equal(t, 10, report.Products)
	assert.Equal(t, 60, report.Prices)

	limit := 5.0
	nearby, err := storeSvc.List(ctx, &limit)
	require.NoError(t, err)
	assert.Len(t, nearby, 4)

	milk, err := priceSvc.ListByProduct(ctx, "Organic Milk (1 gallon)")
	require.NoError(t, err)
	assert.Len(t, milk, 6)
}

func TestRunSkipsPopulatedDatabase(t *testing.T) {
	params, _, _ := newParams(t)
	ctx := context.Background()

	_, err := Run(ctx, params)
	require.NoError(t, err)

	again, err := Run(ctx, params)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Zero(t, again.Stores)
}

func TestDemoPriceMatrixMatchesCatalog(t *testing.T) {
	require.Len(t, demoPrices, len(demoStores))
	for i, row := range demoPrices {
		assert.Len(t, row, len(demoProducts), "store %s", demoStores[i].Name)
	}
}

func TestRunRequiresServices(t *testing.T) {
	_, err := Run(context.Background(), Params{})
	assert.Error(t, err)
}
