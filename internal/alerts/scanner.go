package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/basketwise/basketwise-backend/pkg/db/models"
	"github.com/basketwise/basketwise-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	defaultCooldown  = 24 * time.Hour
	defaultBatchSize = 500
)

type dueRepository interface {
	ListDue(ctx context.Context, cutoff time.Time, after uuid.UUID, limit int) ([]models.PriceAlert, error)
	MarkTriggered(ctx context.Context, id uuid.UUID, at time.Time) error
}

type priceLookup interface {
	GetPrice(ctx context.Context, storeID uuid.UUID, productName string) (*models.Price, error)
	ListByProductName(ctx context.Context, productName string) ([]models.Price, error)
}

// ScannerParams wire the alert scanner.
type ScannerParams struct {
	Alerts    dueRepository
	Prices    priceLookup
	Publisher Publisher
	Logger    *logger.Logger
	Cooldown  time.Duration
	BatchSize int
}

// Scanner fires alerts whose watched price has dropped to or below target.
type Scanner struct {
	alerts    dueRepository
	prices    priceLookup
	publisher Publisher
	logg      *logger.Logger
	cooldown  time.Duration
	batchSize int
	now       func() time.Time
}

// ScanResult counts what one pass did.
type ScanResult struct {
	Checked   int
	Triggered int
	Failed    int
}

func NewScanner(params ScannerParams) (*Scanner, error) {
	if params.Alerts == nil {
		return nil, fmt.Errorf("alert repository required")
	}
	if params.Prices == nil {
		return nil, fmt.Errorf("price lookup required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	cooldown := params.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Scanner{
		alerts:    params.Alerts,
		prices:    params.Prices,
		publisher: params.Publisher,
		logg:      params.Logger,
		cooldown:  cooldown,
		batchSize: batch,
		now:       time.Now,
	}, nil
}

// Scan evaluates every alert outside its cooldown, one page of batchSize at a
// time. Per-alert failures are collected and returned together after the pass.
func (s *Scanner) Scan(ctx context.Context) (ScanResult, error) {
	var result ScanResult
	now := s.now().UTC()
	cutoff := now.Add(-s.cooldown)

	var errs []error
	after := uuid.Nil
	for {
		due, err := s.alerts.ListDue(ctx, cutoff, after, s.batchSize)
		if err != nil {
			errs = append(errs, fmt.Errorf("list due alerts: %w", err))
			break
		}
		if s.checkPage(ctx, due, now, &result, &errs) || len(due) < s.batchSize {
			break
		}
		after = due[len(due)-1].ID
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"checked":   result.Checked,
		"triggered": result.Triggered,
		"failed":    result.Failed,
	}), "alert scan finished")
	return result, multierr.Combine(errs...)
}

// checkPage evaluates one page of alerts and reports whether ctx ended the pass.
func (s *Scanner) checkPage(ctx context.Context, due []models.PriceAlert, now time.Time, result *ScanResult, errs *[]error) bool {
	for i := range due {
		if err := ctx.Err(); err != nil {
			*errs = append(*errs, err)
			return true
		}
		alert := &due[i]
		result.Checked++

		triggered, err := s.checkAlert(ctx, alert, now)
		if err != nil {
			result.Failed++
			*errs = append(*errs, err)
			continue
		}
		if triggered {
			result.Triggered++
		}
	}
	return false
}

func (s *Scanner) checkAlert(ctx context.Context, alert *models.PriceAlert, now time.Time) (bool, error) {
	match, err := s.bestPrice(ctx, alert)
	if err != nil {
		return false, fmt.Errorf("alert %s: %w", alert.ID, err)
	}
	if match == nil || match.Price.GreaterThan(alert.TargetPrice) {
		return false, nil
	}

	event := TriggeredEvent{
		AlertID:     alert.ID,
		UserID:      alert.UserID,
		ProductName: alert.ProductName,
		TargetPrice: alert.TargetPrice,
		StoreID:     match.StoreID,
		Price:       match.Price,
		IsOnSale:    match.IsOnSale,
		EmailAlert:  alert.EmailAlert,
		PushAlert:   alert.PushAlert,
		TriggeredAt: now,
	}
	if err := s.publisher.PublishTriggered(ctx, event); err != nil {
		return false, fmt.Errorf("publish alert %s: %w", alert.ID, err)
	}
	if err := s.alerts.MarkTriggered(ctx, alert.ID, now); err != nil {
		return false, fmt.Errorf("mark alert %s: %w", alert.ID, err)
	}
	return true, nil
}

// bestPrice returns the alert store's price, or the lowest price anywhere when
// the alert is not tied to a store.
func (s *Scanner) bestPrice(ctx context.Context, alert *models.PriceAlert) (*models.Price, error) {
	if alert.StoreID != nil {
		return s.prices.GetPrice(ctx, *alert.StoreID, alert.ProductName)
	}
	rows, err := s.prices.ListByProductName(ctx, alert.ProductName)
	if err != nil {
		return nil, err
	}
	var best *models.Price
	for i := range rows {
		if best == nil || rows[i].Price.LessThan(best.Price) {
			best = &rows[i]
		}
	}
	return best, nil
}
