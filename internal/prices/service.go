package prices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/basketwise/basketwise-backend/pkg/db"
	"github.com/basketwise/basketwise-backend/pkg/db/models"
	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type priceRepository interface {
	GetPrice(ctx context.Context, storeID uuid.UUID, productName string) (*models.Price, error)
	ListByProductName(ctx context.Context, productName string) ([]models.Price, error)
	SearchByProductName(ctx context.Context, query string, limit int) ([]models.Price, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Price, error)
	ListHistory(ctx context.Context, storeID uuid.UUID, productName string, since *time.Time) ([]models.PriceHistory, error)
	FindWithTx(tx *gorm.DB, storeID uuid.UUID, productName string) (*models.Price, error)
	SaveWithTx(tx *gorm.DB, price *models.Price) error
	AppendHistoryWithTx(tx *gorm.DB, point *models.PriceHistory) error
}

type storeLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

const (
	defaultSearchLimit = 50
	// A second attempt sees the row a concurrent writer inserted and takes
	// the update path.
	upsertAttempts = 2
)

// Service exposes current prices, their history and the write paths that keep both in step.
type Service interface {
	Get(ctx context.Context, storeID uuid.UUID, productName string) (*PriceDTO, error)
	ListByProduct(ctx context.Context, productName string) ([]PriceDTO, error)
	Search(ctx context.Context, query string) ([]PriceDTO, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]PriceDTO, error)
	History(ctx context.Context, storeID uuid.UUID, productName string, since *time.Time) ([]HistoryPointDTO, error)
	Upsert(ctx context.Context, input UpsertPriceInput) (*UpsertResult, error)
	BulkUpsert(ctx context.Context, records []NormalizedPrice) (*BulkResult, error)
}

type service struct {
	repo   priceRepository
	stores storeLookup
	tx     txRunner
	now    func() time.Time
}

// NewService wires the price repository, a store lookup and the transaction runner.
func NewService(repo priceRepository, stores storeLookup, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("price repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, stores: stores, tx: tx, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, storeID uuid.UUID, productName string) (*PriceDTO, error) {
	productName = strings.TrimSpace(productName)
	if productName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	row, err := s.repo.GetPrice(ctx, storeID, productName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "price not found")
	}
	dto := fromModel(row)
	return &dto, nil
}

func (s *service) ListByProduct(ctx context.Context, productName string) ([]PriceDTO, error) {
	productName = strings.TrimSpace(productName)
	if productName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	rows, err := s.repo.ListByProductName(ctx, productName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list prices")
	}
	return fromModels(rows), nil
}

func (s *service) Search(ctx context.Context, query string) ([]PriceDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	rows, err := s.repo.SearchByProductName(ctx, query, defaultSearchLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search prices")
	}
	return fromModels(rows), nil
}

func (s *service) ListByStore(ctx context.Context, storeID uuid.UUID) ([]PriceDTO, error) {
	if err := s.requireStore(ctx, storeID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store prices")
	}
	return fromModels(rows), nil
}

func (s *service) History(ctx context.Context, storeID uuid.UUID, productName string, since *time.Time) ([]HistoryPointDTO, error) {
	productName = strings.TrimSpace(productName)
	if productName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	rows, err := s.repo.ListHistory(ctx, storeID, productName, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list price history")
	}
	return historyFromModels(rows), nil
}

func (s *service) Upsert(ctx context.Context, input UpsertPriceInput) (*UpsertResult, error) {
	record, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.requireStore(ctx, record.StoreID); err != nil {
		return nil, err
	}

	var result UpsertResult
	err = s.withUpsertRetry(ctx, func(tx *gorm.DB) error {
		res, err := s.upsertWithTx(tx, record)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, upsertError(err, "upsert price")
	}
	return &result, nil
}

// BulkUpsert applies already-normalized records in a single transaction. Any
// unknown store rejects the whole batch.
func (s *service) BulkUpsert(ctx context.Context, records []NormalizedPrice) (*BulkResult, error) {
	result := &BulkResult{}
	if len(records) == 0 {
		return result, nil
	}

	checked := map[uuid.UUID]struct{}{}
	for _, rec := range records {
		if _, ok := checked[rec.StoreID]; ok {
			continue
		}
		if err := s.requireStore(ctx, rec.StoreID); err != nil {
			return nil, err
		}
		checked[rec.StoreID] = struct{}{}
	}

	err := s.withUpsertRetry(ctx, func(tx *gorm.DB) error {
		*result = BulkResult{}
		for _, rec := range records {
			res, err := s.upsertWithTx(tx, rec)
			if err != nil {
				return fmt.Errorf("%s @ %s: %w", rec.ProductName, rec.StoreID, err)
			}
			result.Add(res)
		}
		return nil
	})
	if err != nil {
		return nil, upsertError(err, "bulk upsert prices")
	}
	return result, nil
}

// withUpsertRetry reruns fn in a fresh transaction when a concurrent writer
// inserted the same (store, product) row first.
func (s *service) withUpsertRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		err = s.tx.WithTx(ctx, fn)
		if !db.IsUniqueViolation(err, "") {
			return err
		}
	}
	return err
}

func upsertError(err error, msg string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "price was written concurrently; retry")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

// upsertWithTx writes the current price and appends a history point whenever
// the row is new or its amount moved. Sale-flag-only changes update the row
// without a history point.
func (s *service) upsertWithTx(tx *gorm.DB, rec NormalizedPrice) (UpsertResult, error) {
	observedAt := s.now().UTC()
	if rec.ObservedAt != nil {
		observedAt = *rec.ObservedAt
	}

	existing, err := s.repo.FindWithTx(tx, rec.StoreID, rec.ProductName)
	if err != nil {
		return UpsertResult{}, err
	}

	var res UpsertResult
	row := existing
	switch {
	case row == nil:
		row = &models.Price{
			StoreID:     rec.StoreID,
			ProductName: rec.ProductName,
			Price:       rec.Price,
			IsOnSale:    rec.IsOnSale,
		}
		res.Created = true
		res.Changed = true
	case !row.Price.Equal(rec.Price):
		row.Price = rec.Price
		row.IsOnSale = rec.IsOnSale
		res.Changed = true
	case row.IsOnSale != rec.IsOnSale:
		row.IsOnSale = rec.IsOnSale
	default:
		res.Price = fromModel(row)
		return res, nil
	}

	if err := s.repo.SaveWithTx(tx, row); err != nil {
		return UpsertResult{}, err
	}
	if res.Changed {
		if err := s.repo.AppendHistoryWithTx(tx, &models.PriceHistory{
			StoreID:     row.StoreID,
			ProductName: row.ProductName,
			Price:       row.Price,
			RecordedAt:  observedAt,
		}); err != nil {
			return UpsertResult{}, err
		}
	}
	res.Price = fromModel(row)
	return res, nil
}

func (s *service) requireStore(ctx context.Context, storeID uuid.UUID) error {
	if storeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if _, err := s.stores.FindByID(ctx, storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "store not found").WithDetails(map[string]any{"store_id": storeID})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return nil
}

func normalizeInput(input UpsertPriceInput) (NormalizedPrice, error) {
	name := strings.TrimSpace(input.ProductName)
	if name == "" {
		return NormalizedPrice{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.IsNegative() {
		return NormalizedPrice{}, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if !input.Price.Equal(input.Price.Round(2)) {
		return NormalizedPrice{}, pkgerrors.New(pkgerrors.CodeValidation, "price has more than two decimal places")
	}
	return NormalizedPrice{
		StoreID:     input.StoreID,
		ProductName: name,
		Price:       input.Price,
		IsOnSale:    input.IsOnSale,
	}, nil
}
