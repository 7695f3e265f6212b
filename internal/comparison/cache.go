package comparison

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/basketwise/basketwise-backend/pkg/logger"
	"github.com/basketwise/basketwise-backend/pkg/metrics"
	"github.com/basketwise/basketwise-backend/pkg/redis"
)

// Comparer is satisfied by Engine and by CachedComparer.
type Comparer interface {
	Compare(ctx context.Context, items []Item, maxDistance *float64) (*Result, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CompareCacheKey(fingerprint string) string
}

// CachedComparer serves repeated identical comparisons from redis for a short
// TTL. Cache failures are logged and fall through to the engine.
type CachedComparer struct {
	next    Comparer
	cache   cacheStore
	ttl     time.Duration
	policy  SavingsPolicy
	logg    *logger.Logger
	metrics *metrics.ComparisonMetrics
}

// CacheParams wire a CachedComparer.
type CacheParams struct {
	Next    Comparer
	Cache   cacheStore
	TTL     time.Duration
	Policy  SavingsPolicy
	Logger  *logger.Logger
	Metrics *metrics.ComparisonMetrics
}

func NewCachedComparer(params CacheParams) (*CachedComparer, error) {
	if params.Next == nil {
		return nil, fmt.Errorf("comparer required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("cache store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &CachedComparer{
		next:    params.Next,
		cache:   params.Cache,
		ttl:     params.TTL,
		policy:  params.Policy,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

func (c *CachedComparer) Compare(ctx context.Context, items []Item, maxDistance *float64) (*Result, error) {
	if c.ttl <= 0 || maxDistance == nil {
		return c.next.Compare(ctx, items, maxDistance)
	}

	key := c.cache.CompareCacheKey(Fingerprint(c.policy, items, *maxDistance))
	raw, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var cached Result
		if uerr := json.Unmarshal([]byte(raw), &cached); uerr == nil {
			c.metrics.CacheLookup("hit")
			return &cached, nil
		}
		c.metrics.CacheLookup("error")
	case errors.Is(err, redis.Nil):
		c.metrics.CacheLookup("miss")
	default:
		c.metrics.CacheLookup("error")
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "comparison cache read failed")
	}

	result, err := c.next.Compare(ctx, items, maxDistance)
	if err != nil {
		return nil, err
	}
	// degraded results are not worth replaying
	if result.Diagnostics.DroppedStores > 0 {
		return result, nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return result, nil
	}
	if err := c.cache.Set(ctx, key, payload, c.ttl); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "comparison cache write failed")
	}
	return result, nil
}

// Fingerprint identifies a comparison request. Item order is significant
// because breakdown details follow it.
func Fingerprint(policy SavingsPolicy, items []Item, maxDistance float64) string {
	h := sha256.New()
	h.Write([]byte(policy))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(maxDistance, 'f', -1, 64)))
	for _, item := range items {
		h.Write([]byte{0})
		h.Write([]byte(item.ProductName))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(item.Quantity)))
	}
	return hex.EncodeToString(h.Sum(nil))
}
