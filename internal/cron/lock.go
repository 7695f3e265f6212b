package cron

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/basketwise/basketwise-backend/pkg/redis"
)

// A price refresh walks every store feed; two hours covers the slowest run
// seen so far with room to spare.
const defaultJobLockTTL = 2 * time.Hour

// Lock keeps a scheduled run exclusive across replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// holderReporter is implemented by locks that can name the replica blocking
// a cycle.
type holderReporter interface {
	Holder(ctx context.Context) (string, error)
}

type lockStore interface {
	LockKey(name string) string
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// JobLock is the replica lock for one named job. The stored value is
// "<hostname>/<token>" so operators can tell which worker holds a refresh.
type JobLock struct {
	store lockStore
	job   string
	key   string
	ttl   time.Duration
	host  string
	held  string
}

func NewJobLock(store lockStore, job string, ttl time.Duration) (*JobLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for job lock")
	}
	job = strings.TrimSpace(job)
	if job == "" {
		return nil, errors.New("job name is required")
	}
	if ttl <= 0 {
		ttl = defaultJobLockTTL
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown-host"
	}
	return &JobLock{store: store, job: job, key: store.LockKey(job), ttl: ttl, host: host}, nil
}

func (l *JobLock) Job() string { return l.job }

// Acquire claims the job for this replica. It reports false without error
// when another replica holds it.
func (l *JobLock) Acquire(ctx context.Context) (bool, error) {
	value := l.host + "/" + uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, value, l.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s lock: %w", l.job, err)
	}
	if ok {
		l.held = value
	}
	return ok, nil
}

// Holder returns the hostname of the replica holding the job, or "" when the
// job is free.
func (l *JobLock) Holder(ctx context.Context) (string, error) {
	value, err := l.store.Get(ctx, l.key)
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s lock: %w", l.job, err)
	}
	host, _, _ := strings.Cut(value, "/")
	return host, nil
}

// Release frees the job if this replica still holds it. A claim that expired
// and was taken by another replica is left untouched.
func (l *JobLock) Release(ctx context.Context) error {
	if l.held == "" {
		return nil
	}
	held := l.held
	l.held = ""

	value, err := l.store.Get(ctx, l.key)
	if errors.Is(err, redis.Nil) || (err == nil && value != held) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s lock: %w", l.job, err)
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("free %s lock: %w", l.job, err)
	}
	return nil
}
