package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/basketwise/basketwise-backend/internal/refresh"
	"github.com/basketwise/basketwise-backend/pkg/logger"
)

const priceRefreshJobName = "price-refresh"

type refreshTrigger interface {
	Trigger(ctx context.Context) (*refresh.Report, error)
}

type PriceRefreshJobParams struct {
	Logger *logger.Logger
	Runner refreshTrigger
}

// priceRefreshJob pulls the configured price feed into the catalog.
type priceRefreshJob struct {
	logg   *logger.Logger
	runner refreshTrigger
}

func NewPriceRefreshJob(params PriceRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Runner == nil {
		return nil, fmt.Errorf("refresh runner required")
	}
	return &priceRefreshJob{logg: params.Logger, runner: params.Runner}, nil
}

func (j *priceRefreshJob) Name() string { return priceRefreshJobName }

func (j *priceRefreshJob) Run(ctx context.Context) error {
	report, err := j.runner.Trigger(ctx)
	if errors.Is(err, refresh.ErrAlreadyRunning) {
		j.logg.Info(ctx, "price refresh already in progress")
		return ErrSkipped
	}
	if err != nil {
		return err
	}
	ctx = j.logg.WithFields(ctx, map[string]any{
		"provider":  report.Provider,
		"fetched":   report.Fetched,
		"malformed": report.Malformed,
		"created":   report.Created,
		"updated":   report.Updated,
		"unchanged": report.Unchanged,
	})
	j.logg.Info(ctx, "price refresh applied")
	return nil
}
