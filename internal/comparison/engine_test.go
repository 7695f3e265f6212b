package comparison

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/basketwise/basketwise-backend/pkg/db/models"
	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/basketwise/basketwise-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeStores struct {
	stores []models.Store
	err    error
}

func (f *fakeStores) ListWithinDistance(_ context.Context, maxDistance float64) ([]models.Store, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Store{}
	for _, s := range f.stores {
		if s.Distance <= maxDistance {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakePrices struct {
	mu       sync.Mutex
	rows     []models.Price
	failFor  map[uuid.UUID]error
	slowFor  map[uuid.UUID]time.Duration
	// stuckFor delays lookups without watching the context.
	stuckFor map[uuid.UUID]time.Duration
	listErr  error
	lookups  int
}

func (f *fakePrices) set(storeID uuid.UUID, name, price string, onSale bool) {
	f.rows = append(f.rows, models.Price{
		ID:          uuid.New(),
		StoreID:     storeID,
		ProductName: name,
		Price:       decimal.RequireFromString(price),
		IsOnSale:    onSale,
	})
}

func (f *fakePrices) GetPrice(ctx context.Context, storeID uuid.UUID, productName string) (*models.Price, error) {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()
	if d, ok := f.slowFor[storeID]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d, ok := f.stuckFor[storeID]; ok {
		time.Sleep(d)
	}
	if err, ok := f.failFor[storeID]; ok {
		return nil, err
	}
	for i := range f.rows {
		if f.rows[i].StoreID == storeID && f.rows[i].ProductName == productName {
			row := f.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (f *fakePrices) ListByProductName(_ context.Context, productName string) ([]models.Price, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Price
	for _, row := range f.rows {
		if row.ProductName == productName {
			out = append(out, row)
		}
	}
	return out, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "comparison-test", Output: io.Discard})
}

func newTestEngine(t *testing.T, stores *fakeStores, prices *fakePrices, opts Options) *Engine {
	t.Helper()
	engine, err := NewEngine(EngineParams{Stores: stores, Prices: prices, Logger: testLogger(), Options: opts})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func store(id string, name string, distance float64) models.Store {
	return models.Store{ID: uuid.MustParse(id), Name: name, Chain: name, Distance: distance}
}

func dist(v float64) *float64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

const (
	storeXID = "00000000-0000-0000-0000-00000000000a"
	storeYID = "00000000-0000-0000-0000-00000000000b"
	storeZID = "00000000-0000-0000-0000-00000000000c"
)

func TestNewEngineRequiresCollaborators(t *testing.T) {
	if _, err := NewEngine(EngineParams{Prices: &fakePrices{}, Logger: testLogger()}); err == nil {
		t.Fatal("expected error without stores")
	}
	if _, err := NewEngine(EngineParams{Stores: &fakeStores{}, Logger: testLogger()}); err == nil {
		t.Fatal("expected error without prices")
	}
	if _, err := NewEngine(EngineParams{Stores: &fakeStores{}, Prices: &fakePrices{}}); err == nil {
		t.Fatal("expected error without logger")
	}
	engine, err := NewEngine(EngineParams{Stores: &fakeStores{}, Prices: &fakePrices{}, Logger: testLogger()})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if engine.Policy() != SavingsAverageDeviation {
		t.Fatalf("expected default policy, got %s", engine.Policy())
	}
}

func TestCompareTotalsAndOrdersByPrice(t *testing.T) {
	x := store(storeXID, "X", 5)
	y := store(storeYID, "Y", 8)
	prices := &fakePrices{}
	prices.set(y.ID, "milk", "4.29", false)
	prices.set(x.ID, "milk", "3.99", false)

	engine := newTestEngine(t, &fakeStores{stores: []models.Store{y, x}}, prices, Options{})
	res, err := engine.Compare(context.Background(), []Item{{ProductName: "milk", Quantity: 2}}, dist(10))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(res.Breakdowns) != 2 {
		t.Fatalf("expected 2 breakdowns, got %d", len(res.Breakdowns))
	}
	if res.Breakdowns[0].StoreID != x.ID || res.Breakdowns[1].StoreID != y.ID {
		t.Fatalf("unexpected order: %s, %s", res.Breakdowns[0].StoreName, res.Breakdowns[1].StoreName)
	}
	if !res.Breakdowns[0].TotalPrice.Equal(dec("7.98")) {
		t.Fatalf("expected X total 7.98, got %s", res.Breakdowns[0].TotalPrice)
	}
	if !res.Breakdowns[1].TotalPrice.Equal(dec("8.58")) {
		t.Fatalf("expected Y total 8.58, got %s", res.Breakdowns[1].TotalPrice)
	}
	// average 4.14: X saves 0.15 per unit, Y is above average
	if !res.Breakdowns[0].Savings.Equal(dec("0.30")) {
		t.Fatalf("expected X savings 0.30, got %s", res.Breakdowns[0].Savings)
	}
	if !res.Breakdowns[1].Savings.IsZero() {
		t.Fatalf("expected Y savings 0, got %s", res.Breakdowns[1].Savings)
	}
	if res.Diagnostics.Status != StatusOK || res.Diagnostics.CandidateStores != 2 || res.Diagnostics.DroppedStores != 0 {
		t.Fatalf("unexpected diagnostics %+v", res.Diagnostics)
	}
}

func TestCompareMarksMissingItemsNotAvailable(t *testing.T) {
	x := store(storeXID, "X", 1)
	y := store(storeYID, "Y", 2)
	prices := &fakePrices{}
	prices.set(x.ID, "milk", "3.99", false)
	prices.set(x.ID, "bread", "2.50", false)
	prices.set(y.ID, "milk", "3.49", false)

	engine := newTestEngine(t, &fakeStores{stores: []models.Store{x, y}}, prices, Options{})
	res, err := engine.Compare(context.Background(), []Item{
		{ProductName: "milk", Quantity: 1},
		{ProductName: "bread", Quantity: 3},
	}, dist(5))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	var yb StorePriceBreakdown
	for _, b := range res.Breakdowns {
		if b.StoreID == y.ID {
			yb = b
		}
	}
	if yb.StoreID != y.ID {
		t.Fatal("store Y must be kept despite the missing item")
	}
	bread := yb.PriceDetails[1]
	if !bread.NotAvailable || !bread.Total.IsZero() || !bread.Price.IsZero() {
		t.Fatalf("expected bread unavailable with zero amounts, got %+v", bread)
	}
	if !yb.TotalPrice.Equal(dec("3.49")) {
		t.Fatalf("expected Y total 3.49, got %s", yb.TotalPrice)
	}
	if yb.ItemsTotal != 2 || yb.ItemsAvailable != 1 || yb.Complete() {
		t.Fatalf("unexpected availability counts %d/%d", yb.ItemsAvailable, yb.ItemsTotal)
	}
	if got := FilterComplete(res.Breakdowns); len(got) != 1 || got[0].StoreID != x.ID {
		t.Fatalf("expected only X to be complete, got %d", len(got))
	}
}

func TestCompareZeroDistanceWithNoStoreAtZero(t *testing.T) {
	prices := &fakePrices{}
	engine := newTestEngine(t, &fakeStores{stores: []models.Store{store(storeXID, "X", 0.4)}}, prices, Options{})

	res, err := engine.Compare(context.Background(), []Item{{ProductName: "milk", Quantity: 1}}, dist(0))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if res.Breakdowns == nil || len(res.Breakdowns) != 0 {
		t.Fatalf("expected empty non-nil breakdowns, got %v", res.Breakdowns)
	}
	if res.Diagnostics.Status != StatusNoStores {
		t.Fatalf("expected no_stores status, got %s", res.Diagnostics.Status)
	}
	if prices.lookups != 0 {
		t.Fatalf("expected no price lookups, got %d", prices.lookups)
	}
}

func TestCompareEmptyListReturnsZeroTotals(t *testing.T) {
	x := store(storeXID, "X", 1)
	y := store(storeYID, "Y", 2)
	engine := newTestEngine(t, &fakeStores{stores: []models.Store{y, x}}, &fakePrices{}, Options{})

	res, err := engine.Compare(context.Background(), nil, dist(10))
	if err != nil {
		t.Fatalf("empty list must be accepted, got %v", err)
	}
	if res.Diagnostics.Status != StatusNoItems {
		t.Fatalf("expected no_items status, got %s", res.Diagnostics.Status)
	}
	if len(res.Breakdowns) != 2 || res.Breakdowns[0].StoreID != x.ID {
		t.Fatalf("expected both stores ordered by id, got %+v", res.Breakdowns)
	}
	for _, b := range res.Breakdowns {
		if !b.TotalPrice.IsZero() || !b.Savings.IsZero() || len(b.PriceDetails) != 0 {
			t.Fatalf("expected zero breakdown, got %+v", b)
		}
	}
}

func TestSavingsPoliciesAreAlternatives(t *testing.T) {
	x := store(storeXID, "X", 1)
	y := store(storeYID, "Y", 1)
	z := store(storeZID, "Z", 1)
	prices := &fakePrices{}
	prices.set(x.ID, "cheese", "5.00", true)
	prices.set(y.ID, "cheese", "5.00", false)
	prices.set(z.ID, "cheese", "8.00", false)
	stores := &fakeStores{stores: []models.Store{x, y, z}}
	items := []Item{{ProductName: "cheese", Quantity: 1}}

	avg := newTestEngine(t, stores, prices, Options{SavingsPolicy: SavingsAverageDeviation})
	res, err := avg.Compare(context.Background(), items, dist(5))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	byID := map[uuid.UUID]StorePriceBreakdown{}
	for _, b := range res.Breakdowns {
		byID[b.StoreID] = b
	}
	if !byID[x.ID].Savings.Equal(dec("1.00")) || !byID[y.ID].Savings.Equal(dec("1.00")) {
		t.Fatalf("sale flag must not change average deviation savings: x=%s y=%s", byID[x.ID].Savings, byID[y.ID].Savings)
	}

	sale := newTestEngine(t, stores, prices, Options{SavingsPolicy: SavingsSaleDiscount})
	res, err = sale.Compare(context.Background(), items, dist(5))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	for _, b := range res.Breakdowns {
		byID[b.StoreID] = b
	}
	if !byID[x.ID].Savings.GreaterThan(byID[y.ID].Savings) {
		t.Fatalf("expected on-sale store to save more: x=%s y=%s", byID[x.ID].Savings, byID[y.ID].Savings)
	}
	if !byID[x.ID].Savings.Equal(dec("0.50")) || !byID[y.ID].Savings.IsZero() {
		t.Fatalf("unexpected sale discount savings x=%s y=%s", byID[x.ID].Savings, byID[y.ID].Savings)
	}
}

func TestAverageIgnoresStoresOutsideDistance(t *testing.T) {
	near := store(storeXID, "Near", 1)
	far := store(storeYID, "Far", 50)
	prices := &fakePrices{}
	prices.set(near.ID, "milk", "3.00", false)
	prices.set(far.ID, "milk", "9.00", false)

	engine := newTestEngine(t, &fakeStores{stores: []models.Store{near, far}}, prices, Options{})
	res, err := engine.Compare(context.Background(), []Item{{ProductName: "milk", Quantity: 1}}, dist(10))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(res.Breakdowns) != 1 || !res.Breakdowns[0].Savings.IsZero() {
		t.Fatalf("expected sole candidate to have zero savings, got %+v", res.Breakdowns)
	}
}

func TestCompareRejectsInvalidInput(t *testing.T) {
	engine := newTestEngine(t, &fakeStores{}, &fakePrices{}, Options{MaxItems: 2})
	cases := map[string]struct {
		items []Item
		dist  *float64
	}{
		"nil distance":      {items: []Item{{ProductName: "milk", Quantity: 1}}},
		"negative distance": {items: []Item{{ProductName: "milk", Quantity: 1}}, dist: dist(-1)},
		"nan distance":      {items: []Item{{ProductName: "milk", Quantity: 1}}, dist: dist(math.NaN())},
		"blank name":        {items: []Item{{ProductName: "  ", Quantity: 1}}, dist: dist(5)},
		"zero quantity":     {items: []Item{{ProductName: "milk", Quantity: 0}}, dist: dist(5)},
		"negative quantity": {items: []Item{{ProductName: "milk", Quantity: -3}}, dist: dist(5)},
		"too many items": {items: []Item{
			{ProductName: "a", Quantity: 1}, {ProductName: "b", Quantity: 1}, {ProductName: "c", Quantity: 1},
		}, dist: dist(5)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := engine.Compare(context.Background(), tc.items, tc.dist)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCompareStoreListFailureIsDependencyError(t *testing.T) {
	engine := newTestEngine(t, &fakeStores{err: errors.New("connection refused")}, &fakePrices{}, Options{})
	_, err := engine.Compare(context.Background(), []Item{{ProductName: "milk", Quantity: 1}}, dist(5))
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestCompareDropsFailingAndSlowStores(t *testing.T) {
	x := store(storeXID, "X", 1)
	y := store(storeYID, "Y", 1)
	z := store(storeZID, "Z", 1)
	prices := &fakePrices{
		failFor: map[uuid.UUID]error{y.ID: errors.New("timeout talking to shard")},
		slowFor: map[uuid.UUID]time.Duration{z.ID: time.Second},
	}
	prices.set(x.ID, "milk", "3.99", false)
	prices.set(z.ID, "milk", "2.99", false)

	engine := newTestEngine(t, &fakeStores{stores: []models.Store{x, y, z}}, prices, Options{StoreTimeout: 50 * time.Millisecond})
	start := time.Now()
	res, err := engine.Compare(context.Background(), []Item{{ProductName: "milk", Quantity: 1}}, dist(5))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("slow store blocked the comparison for %s", elapsed)
	}
	if len(res.Breakdowns) != 1 || res.Breakdowns[0].StoreID != x.ID {
		t.Fatalf("expected only X to survive, got %+v", res.Breakdowns)
	}
	if res.Diagnostics.DroppedStores != 2 || res.Diagnostics.CandidateStores != 3 {
		t.Fatalf("unexpected diagnostics %+v", res.Diagnostics)
	}
}

func TestCompareDeadlineHoldsWhenRepositoryIgnoresCancel(t *testing.T) {
	x := store(storeXID, "X", 1)
	y := store(storeYID, "Y", 2)
	prices := &fakePrices{stuckFor: map[uuid.UUID]time.Duration{y.ID: time.Second}}
	prices.set(x.ID, "milk", "3.99", false)
	prices.set(y.ID, "milk", "1.99", false)

	engine := newTestEngine(t, &fakeStores{stores: []models.Store{x, y}}, prices, Options{StoreTimeout: 50 * time.Millisecond})
	start := time.Now()
	res, err := engine.Compare(context.Background(), []Item{{ProductName: "milk", Quantity: 1}}, dist(5))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("stuck store held the comparison for %s", elapsed)
	}
	if len(res.Breakdowns) != 1 || res.Breakdowns[0].StoreID != x.ID {
		t.Fatalf("expected only X, got %+v", res.Breakdowns)
	}
	if res.Diagnostics.DroppedStores != 1 {
		t.Fatalf("expected one dropped store, got %+v", res.Diagnostics)
	}
}

func TestCompareIsIdempotent(t *testing.T) {
	x := store(storeXID, "X", 1)
	y := store(storeYID, "Y", 2)
	z := store(storeZID, "Z", 3)
	prices := &fakePrices{}
	prices.set(x.ID, "milk", "3.99", true)
	prices.set(x.ID, "bread", "2.50", false)
	prices.set(y.ID, "milk", "3.49", false)
	prices.set(z.ID, "milk", "3.49", false)
	prices.set(z.ID, "bread", "1.99", true)
	items := []Item{{ProductName: "milk", Quantity: 2}, {ProductName: "bread", Quantity: 1}}

	engine := newTestEngine(t, &fakeStores{stores: []models.Store{x, y, z}}, prices, Options{})
	first, err := engine.Compare(context.Background(), items, dist(5))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	second, err := engine.Compare(context.Background(), items, dist(5))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(first.Breakdowns) != len(second.Breakdowns) {
		t.Fatalf("breakdown count changed: %d vs %d", len(first.Breakdowns), len(second.Breakdowns))
	}
	for i := range first.Breakdowns {
		a, b := first.Breakdowns[i], second.Breakdowns[i]
		if a.StoreID != b.StoreID || !a.TotalPrice.Equal(b.TotalPrice) || !a.Savings.Equal(b.Savings) {
			t.Fatalf("position %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestCompareMonotonicInDistance(t *testing.T) {
	var stores []models.Store
	prices := &fakePrices{}
	for i := 0; i < 12; i++ {
		s := models.Store{ID: uuid.New(), Name: "S", Distance: float64(i) * 0.75}
		stores = append(stores, s)
		prices.set(s.ID, "milk", decimal.NewFromInt(int64(250+i*13%9)).Shift(-2).String(), false)
	}
	engine := newTestEngine(t, &fakeStores{stores: stores}, prices, Options{})
	items := []Item{{ProductName: "milk", Quantity: 1}}

	distances := []float64{0, 0.5, 1.5, 3, 4.5, 6, 9}
	var previous map[uuid.UUID]struct{}
	for _, d := range distances {
		res, err := engine.Compare(context.Background(), items, dist(d))
		if err != nil {
			t.Fatalf("Compare(%v): %v", d, err)
		}
		current := make(map[uuid.UUID]struct{}, len(res.Breakdowns))
		for _, b := range res.Breakdowns {
			if b.Distance > d {
				t.Fatalf("store at %v returned for max distance %v", b.Distance, d)
			}
			current[b.StoreID] = struct{}{}
		}
		for id := range previous {
			if _, ok := current[id]; !ok {
				t.Fatalf("store %s present at a smaller distance but missing at %v", id, d)
			}
		}
		previous = current
	}
}

func TestCompareAllStoresFailing(t *testing.T) {
	x := store(storeXID, "X", 1)
	prices := &fakePrices{failFor: map[uuid.UUID]error{x.ID: errors.New("down")}}
	engine := newTestEngine(t, &fakeStores{stores: []models.Store{x}}, prices, Options{})

	_, err := engine.Compare(context.Background(), []Item{{ProductName: "milk", Quantity: 1}}, dist(5))
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestCompareAverageLookupFailure(t *testing.T) {
	x := store(storeXID, "X", 1)
	prices := &fakePrices{listErr: errors.New("down")}
	engine := newTestEngine(t, &fakeStores{stores: []models.Store{x}}, prices, Options{})

	_, err := engine.Compare(context.Background(), []Item{{ProductName: "milk", Quantity: 1}}, dist(5))
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}

	sale := newTestEngine(t, &fakeStores{stores: []models.Store{x}}, prices, Options{SavingsPolicy: SavingsSaleDiscount})
	if _, err := sale.Compare(context.Background(), []Item{{ProductName: "milk", Quantity: 1}}, dist(5)); err != nil {
		t.Fatalf("sale discount policy must not need averages, got %v", err)
	}
}

func TestCompareInvariantsHoldForManyStores(t *testing.T) {
	var stores []models.Store
	prices := &fakePrices{}
	items := []Item{{ProductName: "milk", Quantity: 2}, {ProductName: "eggs", Quantity: 1}, {ProductName: "rice", Quantity: 3}}
	for i := 0; i < 20; i++ {
		s := models.Store{ID: uuid.New(), Name: "S", Distance: float64(i % 7)}
		stores = append(stores, s)
		prices.set(s.ID, "milk", decimal.NewFromInt(int64(300+i*7%11)).Shift(-2).String(), i%2 == 0)
		if i%3 != 0 {
			prices.set(s.ID, "eggs", "4.49", false)
		}
		prices.set(s.ID, "rice", decimal.NewFromInt(int64(150+i%4)).Shift(-2).String(), false)
	}

	engine := newTestEngine(t, &fakeStores{stores: stores}, prices, Options{Concurrency: 3})
	res, err := engine.Compare(context.Background(), items, dist(4))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	for i, b := range res.Breakdowns {
		if b.Distance > 4 {
			t.Fatalf("store beyond max distance included: %v", b.Distance)
		}
		sum := decimal.Zero
		for _, d := range b.PriceDetails {
			sum = sum.Add(d.Total)
		}
		if !sum.Equal(b.TotalPrice) {
			t.Fatalf("total %s does not match detail sum %s", b.TotalPrice, sum)
		}
		if b.Savings.IsNegative() {
			t.Fatalf("negative savings %s", b.Savings)
		}
		if i > 0 {
			prev := res.Breakdowns[i-1]
			if prev.TotalPrice.GreaterThan(b.TotalPrice) {
				t.Fatalf("sort violated at %d", i)
			}
			if prev.TotalPrice.Equal(b.TotalPrice) && prev.StoreID.String() > b.StoreID.String() {
				t.Fatalf("tie-break violated at %d", i)
			}
		}
	}
}
