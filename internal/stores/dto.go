package stores

import (
	"time"

	"github.com/basketwise/basketwise-backend/pkg/db/models"
	"github.com/google/uuid"
)

// StoreDTO is the public shape of a store.
type StoreDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Chain     string    `json:"chain"`
	Distance  float64   `json:"distance"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zip_code"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateStoreInput holds the admin payload for a new store.
type CreateStoreInput struct {
	Name      string   `json:"name" validate:"required,max=120"`
	Chain     string   `json:"chain" validate:"required,max=80"`
	Distance  float64  `json:"distance" validate:"gte=0"`
	Address   string   `json:"address" validate:"required"`
	City      string   `json:"city" validate:"required"`
	State     string   `json:"state" validate:"required,len=2"`
	ZipCode   string   `json:"zip_code" validate:"required"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// PreferredStoreDTO pairs a user's saved store with its details.
type PreferredStoreDTO struct {
	ID         uuid.UUID `json:"id"`
	StoreID    uuid.UUID `json:"store_id"`
	IsFavorite bool      `json:"is_favorite"`
	Store      *StoreDTO `json:"store,omitempty"`
}

func (in CreateStoreInput) toModel() *models.Store {
	return &models.Store{
		Name:      in.Name,
		Chain:     in.Chain,
		Distance:  in.Distance,
		Address:   in.Address,
		City:      in.City,
		State:     in.State,
		ZipCode:   in.ZipCode,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
	}
}

// FromModel maps a persisted store into its DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:        m.ID,
		Name:      m.Name,
		Chain:     m.Chain,
		Distance:  m.Distance,
		Address:   m.Address,
		City:      m.City,
		State:     m.State,
		ZipCode:   m.ZipCode,
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		CreatedAt: m.CreatedAt,
	}
}

func fromModels(rows []models.Store) []StoreDTO {
	out := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func preferredFromModel(m *models.PreferredStore) PreferredStoreDTO {
	return PreferredStoreDTO{
		ID:         m.ID,
		StoreID:    m.StoreID,
		IsFavorite: m.IsFavorite,
		Store:      FromModel(m.Store),
	}
}
