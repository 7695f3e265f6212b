package comparison

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/basketwise/basketwise-backend/pkg/redis"
)

type fakeCache struct {
	values map[string]string
	getErr error
	setErr error
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	f.values[key] = string(value.([]byte))
	return nil
}

func (f *fakeCache) CompareCacheKey(fingerprint string) string {
	return "bw:compare:" + fingerprint
}

type countingComparer struct {
	calls  int
	result *Result
	err    error
}

func (c *countingComparer) Compare(context.Context, []Item, *float64) (*Result, error) {
	c.calls++
	return c.result, c.err
}

func newCached(t *testing.T, next Comparer, cache *fakeCache, ttl time.Duration) *CachedComparer {
	t.Helper()
	c, err := NewCachedComparer(CacheParams{Next: next, Cache: cache, TTL: ttl, Policy: SavingsAverageDeviation, Logger: testLogger()})
	if err != nil {
		t.Fatalf("NewCachedComparer: %v", err)
	}
	return c
}

func TestCachedComparerServesRepeatRequests(t *testing.T) {
	next := &countingComparer{result: &Result{
		Breakdowns:  []StorePriceBreakdown{breakdown("7.98", "0.30")},
		Diagnostics: Diagnostics{CandidateStores: 1, Status: StatusOK},
	}}
	cache := newFakeCache()
	cached := newCached(t, next, cache, time.Minute)
	items := []Item{{ProductName: "milk", Quantity: 2}}

	first, err := cached.Compare(context.Background(), items, dist(10))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	second, err := cached.Compare(context.Background(), items, dist(10))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected one engine call, got %d", next.calls)
	}
	if !second.Breakdowns[0].TotalPrice.Equal(first.Breakdowns[0].TotalPrice) {
		t.Fatalf("cached total %s differs from %s", second.Breakdowns[0].TotalPrice, first.Breakdowns[0].TotalPrice)
	}

	if _, err := cached.Compare(context.Background(), items, dist(11)); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("different distance must miss the cache, calls=%d", next.calls)
	}
}

func TestCachedComparerSkipsDegradedResultsAndCacheErrors(t *testing.T) {
	next := &countingComparer{result: &Result{Diagnostics: Diagnostics{CandidateStores: 2, DroppedStores: 1}}}
	cache := newFakeCache()
	cached := newCached(t, next, cache, time.Minute)

	if _, err := cached.Compare(context.Background(), nil, dist(1)); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cache.sets != 0 {
		t.Fatal("degraded result must not be cached")
	}

	cache.getErr = errors.New("redis down")
	next.result = &Result{Diagnostics: Diagnostics{Status: StatusOK}}
	if _, err := cached.Compare(context.Background(), nil, dist(1)); err != nil {
		t.Fatalf("cache failure must fall through, got %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("expected engine to be called, calls=%d", next.calls)
	}
}

func TestCachedComparerDisabledWithoutTTL(t *testing.T) {
	next := &countingComparer{result: &Result{}}
	cache := newFakeCache()
	cached := newCached(t, next, cache, 0)
	_, _ = cached.Compare(context.Background(), nil, dist(1))
	_, _ = cached.Compare(context.Background(), nil, dist(1))
	if next.calls != 2 || cache.sets != 0 {
		t.Fatalf("expected cache bypass, calls=%d sets=%d", next.calls, cache.sets)
	}
}

func TestFingerprintIsOrderSensitive(t *testing.T) {
	a := Fingerprint(SavingsAverageDeviation, []Item{{"milk", 1}, {"eggs", 2}}, 5)
	b := Fingerprint(SavingsAverageDeviation, []Item{{"eggs", 2}, {"milk", 1}}, 5)
	c := Fingerprint(SavingsSaleDiscount, []Item{{"milk", 1}, {"eggs", 2}}, 5)
	if a == b || a == c {
		t.Fatal("fingerprints must differ")
	}
	if a != Fingerprint(SavingsAverageDeviation, []Item{{"milk", 1}, {"eggs", 2}}, 5) {
		t.Fatal("fingerprint must be stable")
	}
}
