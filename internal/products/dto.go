package products

import (
	"time"

	"github.com/basketwise/basketwise-backend/pkg/db/models"
	"github.com/google/uuid"
)

// ProductDTO is the catalog shape returned to clients.
type ProductDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Barcode   *string   `json:"barcode,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateProductInput is the admin payload for a catalog entry.
type CreateProductInput struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Category string  `json:"category" validate:"max=80"`
	Barcode  *string `json:"barcode,omitempty" validate:"omitempty,max=32"`
}

// SearchInput narrows a catalog search.
type SearchInput struct {
	Query    string
	Category string
	Limit    int
}

func fromModel(m *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:        m.ID,
		Name:      m.Name,
		Category:  m.Category,
		Barcode:   m.Barcode,
		CreatedAt: m.CreatedAt,
	}
}
