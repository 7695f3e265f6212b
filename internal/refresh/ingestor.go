package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/basketwise/basketwise-backend/internal/prices"
	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/basketwise/basketwise-backend/pkg/logger"
)

const maxReportedRejects = 20

type priceWriter interface {
	BulkUpsert(ctx context.Context, records []prices.NormalizedPrice) (*prices.BulkResult, error)
}

// Rejected describes a feed record that failed normalization.
type Rejected struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Report summarizes one refresh run.
type Report struct {
	Provider   string     `json:"provider"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Fetched    int        `json:"fetched"`
	Malformed  int        `json:"malformed"`
	Created    int        `json:"created"`
	Updated    int        `json:"updated"`
	Unchanged  int        `json:"unchanged"`
	Rejected   []Rejected `json:"rejected,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Ingestor pulls records from a provider and stores the well-formed ones.
type Ingestor struct {
	provider Provider
	writer   priceWriter
	logg     *logger.Logger
	now      func() time.Time
}

func NewIngestor(provider Provider, writer priceWriter, logg *logger.Logger) (*Ingestor, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider required")
	}
	if writer == nil {
		return nil, fmt.Errorf("price writer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Ingestor{provider: provider, writer: writer, logg: logg, now: time.Now}, nil
}

// Run performs one fetch-normalize-store pass. Malformed records are counted,
// logged and skipped; a fetch or storage failure fails the run.
func (i *Ingestor) Run(ctx context.Context) (*Report, error) {
	ctx = i.logg.WithComponent(ctx, "refresh")
	report := &Report{Provider: i.provider.Name(), StartedAt: i.now().UTC()}
	finish := func(err error) (*Report, error) {
		report.FinishedAt = i.now().UTC()
		if err != nil {
			report.Error = err.Error()
		}
		return report, err
	}

	raw, err := i.provider.Fetch(ctx)
	if err != nil {
		return finish(err)
	}
	report.Fetched = len(raw)

	records := make([]prices.NormalizedPrice, 0, len(raw))
	for idx, rec := range raw {
		normalized, err := prices.NormalizeRecord(rec)
		if err != nil {
			report.Malformed++
			if len(report.Rejected) < maxReportedRejects {
				report.Rejected = append(report.Rejected, Rejected{Index: idx, Reason: rejectReason(err)})
			}
			continue
		}
		records = append(records, normalized)
	}
	if report.Malformed > 0 {
		i.logg.Warn(i.logg.WithFields(ctx, map[string]any{
			"provider":  report.Provider,
			"malformed": report.Malformed,
			"fetched":   report.Fetched,
		}), "price feed contained malformed records")
	}

	res, err := i.writer.BulkUpsert(ctx, records)
	if err != nil {
		return finish(err)
	}
	report.Created = res.Created
	report.Updated = res.Updated
	report.Unchanged = res.Unchanged

	i.logg.Info(i.logg.WithFields(ctx, map[string]any{
		"provider":  report.Provider,
		"fetched":   report.Fetched,
		"created":   report.Created,
		"updated":   report.Updated,
		"unchanged": report.Unchanged,
	}), "price refresh stored")
	return finish(nil)
}

func rejectReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		if details, ok := typed.Details().(map[string]any); ok {
			if field, ok := details["field"].(string); ok {
				return typed.Message() + " (" + field + ")"
			}
		}
		return typed.Message()
	}
	return err.Error()
}
