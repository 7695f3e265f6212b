package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/basketwise/basketwise-backend/pkg/db/models"
	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type alertRepository interface {
	Create(ctx context.Context, alert *models.PriceAlert) error
	ListByUser(ctx context.Context, userID string) ([]models.PriceAlert, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

type storeLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service manages a user's price alerts.
type Service interface {
	List(ctx context.Context, userID string) ([]AlertDTO, error)
	Create(ctx context.Context, userID string, input CreateAlertInput) (*AlertDTO, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

type service struct {
	repo   alertRepository
	stores storeLookup
}

func NewService(repo alertRepository, stores storeLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("alert repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	return &service{repo: repo, stores: stores}, nil
}

func (s *service) List(ctx context.Context, userID string) ([]AlertDTO, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list alerts")
	}
	out := make([]AlertDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, userID string, input CreateAlertInput) (*AlertDTO, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	name := strings.TrimSpace(input.ProductName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if !input.TargetPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target price must be greater than zero")
	}
	if input.StoreID != nil {
		if _, err := s.stores.FindByID(ctx, *input.StoreID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
		}
	}

	alert := &models.PriceAlert{
		UserID:      userID,
		ProductName: name,
		TargetPrice: input.TargetPrice.Round(2),
		StoreID:     input.StoreID,
		EmailAlert:  boolOr(input.EmailAlert, true),
		PushAlert:   boolOr(input.PushAlert, false),
	}
	if err := s.repo.Create(ctx, alert); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create alert")
	}
	dto := fromModel(alert)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete alert")
	}
	return nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
