package comparison

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/basketwise/basketwise-backend/pkg/config"
	"github.com/basketwise/basketwise-backend/pkg/db/models"
	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/basketwise/basketwise-backend/pkg/logger"
	"github.com/basketwise/basketwise-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	defaultStoreTimeout = 2 * time.Second
	defaultConcurrency  = 8
)

var saleDiscountRate = decimal.RequireFromString("0.10")

// StoreRepository lists the stores a comparison may consider.
type StoreRepository interface {
	ListWithinDistance(ctx context.Context, maxDistance float64) ([]models.Store, error)
}

// PriceRepository answers price lookups. GetPrice returns nil, nil when the
// store does not carry the product.
type PriceRepository interface {
	GetPrice(ctx context.Context, storeID uuid.UUID, productName string) (*models.Price, error)
	ListByProductName(ctx context.Context, productName string) ([]models.Price, error)
}

// Options tune the engine.
type Options struct {
	StoreTimeout  time.Duration
	Concurrency   int
	SavingsPolicy SavingsPolicy
	MaxItems      int
}

// OptionsFromConfig converts comparison config into engine options.
func OptionsFromConfig(cfg config.ComparisonConfig) Options {
	return Options{
		StoreTimeout:  cfg.StoreTimeout,
		Concurrency:   cfg.Concurrency,
		SavingsPolicy: ParseSavingsPolicy(strings.ToLower(strings.TrimSpace(cfg.SavingsPolicy))),
		MaxItems:      cfg.MaxItems,
	}
}

// EngineParams wire the engine's collaborators.
type EngineParams struct {
	Stores  StoreRepository
	Prices  PriceRepository
	Logger  *logger.Logger
	Metrics *metrics.ComparisonMetrics
	Options Options
}

// Engine compares the cost of a shopping list across nearby stores. It only
// reads from its repositories and keeps no state between calls.
type Engine struct {
	stores  StoreRepository
	prices  PriceRepository
	logg    *logger.Logger
	metrics *metrics.ComparisonMetrics
	opts    Options
}

// NewEngine validates the collaborators and fills option defaults.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if params.Prices == nil {
		return nil, fmt.Errorf("price repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	opts := params.Options
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.SavingsPolicy == "" {
		opts.SavingsPolicy = SavingsAverageDeviation
	}
	return &Engine{
		stores:  params.Stores,
		prices:  params.Prices,
		logg:    params.Logger,
		metrics: params.Metrics,
		opts:    opts,
	}, nil
}

// Policy returns the savings policy in effect.
func (e *Engine) Policy() SavingsPolicy {
	return e.opts.SavingsPolicy
}

// Compare prices items at every store within maxDistance and returns the
// breakdowns ordered by total price, ties broken by store id.
//
// A store whose lookups fail or exceed the per-store timeout is left out and
// counted in Diagnostics.DroppedStores. When every candidate store fails the
// call returns a dependency error instead of an empty ranking.
func (e *Engine) Compare(ctx context.Context, items []Item, maxDistance *float64) (*Result, error) {
	start := time.Now()
	ctx = e.logg.WithComponent(ctx, "comparison")

	if err := e.validate(items, maxDistance); err != nil {
		return nil, err
	}

	stores, err := e.stores.ListWithinDistance(ctx, *maxDistance)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list candidate stores")
	}

	result := &Result{
		Breakdowns:  []StorePriceBreakdown{},
		Diagnostics: Diagnostics{CandidateStores: len(stores), Status: StatusOK},
	}
	switch {
	case len(stores) == 0:
		result.Diagnostics.Status = StatusNoStores
		e.observe(result, start)
		return result, nil
	case len(items) == 0:
		result.Diagnostics.Status = StatusNoItems
		for i := range stores {
			result.Breakdowns = append(result.Breakdowns, newBreakdown(&stores[i], 0))
		}
		Sort(result.Breakdowns, SortByPrice)
		e.observe(result, start)
		return result, nil
	}

	var averages map[string]decimal.Decimal
	if e.opts.SavingsPolicy == SavingsAverageDeviation {
		averages, err = e.averagePrices(ctx, items, stores)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load average prices")
		}
	}

	slots := make([]*StorePriceBreakdown, len(stores))
	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)
	for i := range stores {
		store := &stores[i]
		idx := i
		g.Go(func() error {
			breakdown, err := e.priceStore(ctx, store, items, averages)
			if err != nil {
				logCtx := e.logg.WithStoreID(ctx, store.ID.String())
				e.logg.Warn(e.logg.WithField(logCtx, "error", err.Error()), "store dropped from comparison")
				return nil
			}
			slots[idx] = breakdown
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "comparison canceled")
	}

	for _, b := range slots {
		if b == nil {
			result.Diagnostics.DroppedStores++
			continue
		}
		result.Breakdowns = append(result.Breakdowns, *b)
	}
	if len(result.Breakdowns) == 0 {
		e.metrics.Observe("failed", time.Since(start), len(stores), result.Diagnostics.DroppedStores)
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "price lookups failed for every candidate store").
			WithDetails(map[string]any{"candidate_stores": len(stores)})
	}

	Sort(result.Breakdowns, SortByPrice)
	e.observe(result, start)
	return result, nil
}

func (e *Engine) validate(items []Item, maxDistance *float64) error {
	if maxDistance == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "max distance is required")
	}
	if math.IsNaN(*maxDistance) || math.IsInf(*maxDistance, 0) || *maxDistance < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "max distance must be a non-negative number")
	}
	if e.opts.MaxItems > 0 && len(items) > e.opts.MaxItems {
		return pkgerrors.New(pkgerrors.CodeValidation, "too many list items").
			WithDetails(map[string]any{"max_items": e.opts.MaxItems, "items": len(items)})
	}
	for i, item := range items {
		if strings.TrimSpace(item.ProductName) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "product name is required").
				WithDetails(map[string]any{"index": i})
		}
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]any{"index": i, "quantity": item.Quantity})
		}
	}
	return nil
}

// priceStore looks up every item at one store under the per-store deadline.
// The first failed lookup cancels the rest and drops the store. The deadline
// holds even when the repository ignores cancellation: lookups still in flight
// are abandoned and only ever write into their own result slice.
func (e *Engine) priceStore(ctx context.Context, store *models.Store, items []Item, averages map[string]decimal.Decimal) (*StorePriceBreakdown, error) {
	storeCtx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()

	type lookupResult struct {
		found []*models.Price
		err   error
	}
	done := make(chan lookupResult, 1)
	go func() {
		found := make([]*models.Price, len(items))
		g, lookupCtx := errgroup.WithContext(storeCtx)
		g.SetLimit(e.opts.Concurrency)
		for i := range items {
			idx := i
			g.Go(func() error {
				price, err := e.prices.GetPrice(lookupCtx, store.ID, items[idx].ProductName)
				if err != nil {
					return fmt.Errorf("price %q: %w", items[idx].ProductName, err)
				}
				found[idx] = price
				return nil
			})
		}
		err := g.Wait()
		done <- lookupResult{found: found, err: err}
	}()

	var found []*models.Price
	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		if err := storeCtx.Err(); err != nil {
			return nil, err
		}
		found = res.found
	case <-storeCtx.Done():
		return nil, fmt.Errorf("store %s: %w", store.ID, storeCtx.Err())
	}

	breakdown := newBreakdown(store, len(items))
	for i, item := range items {
		detail := e.detailFor(item, found[i], averages)
		breakdown.PriceDetails = append(breakdown.PriceDetails, detail)
		breakdown.TotalPrice = breakdown.TotalPrice.Add(detail.Total)
		breakdown.Savings = breakdown.Savings.Add(detail.Savings)
		if !detail.NotAvailable {
			breakdown.ItemsAvailable++
		}
	}
	return &breakdown, nil
}

func (e *Engine) detailFor(item Item, price *models.Price, averages map[string]decimal.Decimal) ItemPriceDetail {
	detail := ItemPriceDetail{
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		Price:       decimal.Zero,
		Total:       decimal.Zero,
		Savings:     decimal.Zero,
	}
	if price == nil {
		detail.NotAvailable = true
		return detail
	}

	qty := decimal.NewFromInt(int64(item.Quantity))
	detail.Price = price.Price
	detail.IsOnSale = price.IsOnSale
	detail.Total = price.Price.Mul(qty)

	switch e.opts.SavingsPolicy {
	case SavingsSaleDiscount:
		if price.IsOnSale {
			detail.Savings = detail.Total.Mul(saleDiscountRate).Round(2)
		}
	default:
		if avg, ok := averages[item.ProductName]; ok && avg.GreaterThan(price.Price) {
			detail.Savings = avg.Sub(price.Price).Mul(qty).Round(2)
		}
	}
	return detail
}

// averagePrices computes, once per distinct product, the mean current price
// across candidate stores that carry it.
func (e *Engine) averagePrices(ctx context.Context, items []Item, stores []models.Store) (map[string]decimal.Decimal, error) {
	candidates := make(map[uuid.UUID]struct{}, len(stores))
	for _, s := range stores {
		candidates[s.ID] = struct{}{}
	}

	names := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, item := range items {
		if _, ok := seen[item.ProductName]; ok {
			continue
		}
		seen[item.ProductName] = struct{}{}
		names = append(names, item.ProductName)
	}

	means := make([]*decimal.Decimal, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i := range names {
		idx := i
		g.Go(func() error {
			rows, err := e.prices.ListByProductName(gctx, names[idx])
			if err != nil {
				return fmt.Errorf("prices for %q: %w", names[idx], err)
			}
			sum := decimal.Zero
			n := 0
			for _, row := range rows {
				if _, ok := candidates[row.StoreID]; !ok {
					continue
				}
				sum = sum.Add(row.Price)
				n++
			}
			if n > 0 {
				mean := sum.Div(decimal.NewFromInt(int64(n)))
				means[idx] = &mean
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal, len(names))
	for i, name := range names {
		if means[i] != nil {
			out[name] = *means[i]
		}
	}
	return out, nil
}

func (e *Engine) observe(result *Result, start time.Time) {
	e.metrics.Observe(string(result.Diagnostics.Status), time.Since(start), result.Diagnostics.CandidateStores, result.Diagnostics.DroppedStores)
}

func newBreakdown(store *models.Store, itemCount int) StorePriceBreakdown {
	return StorePriceBreakdown{
		StoreID:        store.ID,
		StoreName:      store.Name,
		Chain:          store.Chain,
		Distance:       store.Distance,
		TotalPrice:     decimal.Zero,
		Savings:        decimal.Zero,
		ItemsTotal:     itemCount,
		ItemsAvailable: 0,
		PriceDetails:   make([]ItemPriceDetail, 0, itemCount),
	}
}
