package cron

import (
	"context"
	"fmt"

	"github.com/basketwise/basketwise-backend/internal/alerts"
	"github.com/basketwise/basketwise-backend/pkg/logger"
)

const priceAlertJobName = "price-alert-scan"

type alertScanner interface {
	Scan(ctx context.Context) (alerts.ScanResult, error)
}

type PriceAlertJobParams struct {
	Logger  *logger.Logger
	Scanner alertScanner
}

type priceAlertJob struct {
	logg    *logger.Logger
	scanner alertScanner
}

func NewPriceAlertJob(params PriceAlertJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Scanner == nil {
		return nil, fmt.Errorf("alert scanner required")
	}
	return &priceAlertJob{logg: params.Logger, scanner: params.Scanner}, nil
}

func (j *priceAlertJob) Name() string { return priceAlertJobName }

// Run fails the cycle when any alert could not be delivered; delivered alerts
// stay marked so the next cycle only retries the failures.
func (j *priceAlertJob) Run(ctx context.Context) error {
	result, err := j.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan price alerts (%d of %d failed): %w", result.Failed, result.Checked, err)
	}
	return nil
}
