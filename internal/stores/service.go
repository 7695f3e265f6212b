package stores

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/basketwise/basketwise-backend/pkg/db"
	"github.com/basketwise/basketwise-backend/pkg/db/models"
	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type storeRepository interface {
	Create(ctx context.Context, store *models.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	List(ctx context.Context) ([]models.Store, error)
	ListWithinDistance(ctx context.Context, maxDistance float64) ([]models.Store, error)
	ListPreferred(ctx context.Context, userID string) ([]models.PreferredStore, error)
	AddPreferred(ctx context.Context, pref *models.PreferredStore) error
	SetFavorite(ctx context.Context, userID string, storeID uuid.UUID, favorite bool) error
	RemovePreferred(ctx context.Context, userID string, storeID uuid.UUID) error
}

// Service exposes store lookups and a user's preferred stores.
type Service interface {
	List(ctx context.Context, maxDistance *float64) ([]StoreDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	Create(ctx context.Context, input CreateStoreInput) (*StoreDTO, error)

	ListPreferred(ctx context.Context, userID string) ([]PreferredStoreDTO, error)
	AddPreferred(ctx context.Context, userID string, storeID uuid.UUID, favorite bool) (*PreferredStoreDTO, error)
	SetFavorite(ctx context.Context, userID string, storeID uuid.UUID, favorite bool) error
	RemovePreferred(ctx context.Context, userID string, storeID uuid.UUID) error
}

type service struct {
	repo storeRepository
}

// NewService builds a store service with the provided repository.
func NewService(repo storeRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, maxDistance *float64) ([]StoreDTO, error) {
	var (
		rows []models.Store
		err  error
	)
	if maxDistance == nil {
		rows, err = s.repo.List(ctx)
	} else {
		if *maxDistance < 0 || math.IsNaN(*maxDistance) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max distance must be a non-negative number")
		}
		rows, err = s.repo.ListWithinDistance(ctx, *maxDistance)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	return fromModels(rows), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return FromModel(store), nil
}

func (s *service) Create(ctx context.Context, input CreateStoreInput) (*StoreDTO, error) {
	if input.Distance < 0 || math.IsNaN(input.Distance) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distance must be a non-negative number")
	}
	store := input.toModel()
	if err := s.repo.Create(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}
	return FromModel(store), nil
}

func (s *service) ListPreferred(ctx context.Context, userID string) ([]PreferredStoreDTO, error) {
	rows, err := s.repo.ListPreferred(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list preferred stores")
	}
	out := make([]PreferredStoreDTO, 0, len(rows))
	for i := range rows {
		out = append(out, preferredFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) AddPreferred(ctx context.Context, userID string, storeID uuid.UUID, favorite bool) (*PreferredStoreDTO, error) {
	store, err := s.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	pref := &models.PreferredStore{UserID: userID, StoreID: storeID, IsFavorite: favorite}
	if err := s.repo.AddPreferred(ctx, pref); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "store already saved")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save preferred store")
	}
	dto := preferredFromModel(pref)
	dto.Store = store
	return &dto, nil
}

func (s *service) SetFavorite(ctx context.Context, userID string, storeID uuid.UUID, favorite bool) error {
	return mapMutationErr(s.repo.SetFavorite(ctx, userID, storeID, favorite), "update preferred store")
}

func (s *service) RemovePreferred(ctx context.Context, userID string, storeID uuid.UUID) error {
	return mapMutationErr(s.repo.RemovePreferred(ctx, userID, storeID), "remove preferred store")
}

func mapMutationErr(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "preferred store not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
