package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/basketwise/basketwise-backend/pkg/logger"
	"github.com/basketwise/basketwise-backend/pkg/redis"
)

const statusTTL = 7 * 24 * time.Hour

// ErrAlreadyRunning is returned when a refresh is already in progress.
var ErrAlreadyRunning = errors.New("price refresh already running")

type ingestor interface {
	Run(ctx context.Context) (*Report, error)
}

// Lock guards refreshes across processes.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type statusStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	RefreshStatusKey() string
}

// Status is what the admin status endpoint reports.
type Status struct {
	Running bool    `json:"running"`
	Last    *Report `json:"last,omitempty"`
}

// RunnerParams wire a Runner. Lock and Store are optional.
type RunnerParams struct {
	Ingestor ingestor
	Lock     Lock
	Store    statusStore
	Logger   *logger.Logger
	Timeout  time.Duration
}

// Runner serializes refresh runs and remembers the last report.
type Runner struct {
	ingestor ingestor
	lock     Lock
	store    statusStore
	logg     *logger.Logger
	timeout  time.Duration

	mu      sync.Mutex
	running bool
	last    *Report
}

func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Ingestor == nil {
		return nil, fmt.Errorf("ingestor required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Runner{
		ingestor: params.Ingestor,
		lock:     params.Lock,
		store:    params.Store,
		logg:     params.Logger,
		timeout:  params.Timeout,
	}, nil
}

// Trigger runs a refresh now unless one is already in progress here or, when a
// lock is configured, in another process.
func (r *Runner) Trigger(ctx context.Context) (*Report, error) {
	if !r.begin() {
		return nil, ErrAlreadyRunning
	}
	defer r.end()

	if r.lock != nil {
		acquired, err := r.lock.Acquire(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire refresh lock")
		}
		if !acquired {
			return nil, ErrAlreadyRunning
		}
		defer func() {
			if err := r.lock.Release(ctx); err != nil {
				r.logg.Error(ctx, "failed to release refresh lock", err)
			}
		}()
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	report, err := r.ingestor.Run(runCtx)
	if report != nil {
		r.remember(ctx, report)
	}
	return report, err
}

// Status reports whether a run is active and the most recent report, read from
// the shared store when one is configured.
func (r *Runner) Status(ctx context.Context) Status {
	r.mu.Lock()
	status := Status{Running: r.running, Last: r.last}
	r.mu.Unlock()

	if r.store == nil {
		return status
	}
	raw, err := r.store.Get(ctx, r.store.RefreshStatusKey())
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "refresh status read failed")
		}
		return status
	}
	var shared Report
	if err := json.Unmarshal([]byte(raw), &shared); err != nil {
		return status
	}
	if status.Last == nil || shared.FinishedAt.After(status.Last.FinishedAt) {
		status.Last = &shared
	}
	return status
}

func (r *Runner) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Runner) end() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

func (r *Runner) remember(ctx context.Context, report *Report) {
	r.mu.Lock()
	r.last = report
	r.mu.Unlock()

	if r.store == nil {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := r.store.Set(ctx, r.store.RefreshStatusKey(), payload, statusTTL); err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "refresh status write failed")
	}
}
