package lists

import (
	"time"

	"github.com/basketwise/basketwise-backend/pkg/db/models"
	"github.com/google/uuid"
)

// ListDTO is a shopping list with its items.
type ListDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Items     []ItemDTO `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemDTO is one shopping list line.
type ItemDTO struct {
	ID          uuid.UUID `json:"id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Checked     bool      `json:"checked"`
}

// CreateListInput names a new list and optionally seeds it with items.
type CreateListInput struct {
	Name  string      `json:"name" validate:"required,max=120"`
	Items []ItemInput `json:"items" validate:"omitempty,max=200,dive"`
}

// ItemInput adds a line to a list. Quantities below 1 are stored as 1.
type ItemInput struct {
	ProductName string `json:"product_name" validate:"required,max=200"`
	Quantity    int    `json:"quantity"`
	Checked     bool   `json:"checked"`
}

// UpdateItemInput patches a line; nil fields are left alone.
type UpdateItemInput struct {
	ProductName *string `json:"product_name,omitempty" validate:"omitempty,min=1,max=200"`
	Quantity    *int    `json:"quantity,omitempty"`
	Checked     *bool   `json:"checked,omitempty"`
}

// RenameListInput carries a new list name.
type RenameListInput struct {
	Name string `json:"name" validate:"required,max=120"`
}

func fromModel(m *models.ShoppingList) ListDTO {
	items := make([]ItemDTO, 0, len(m.Items))
	for i := range m.Items {
		items = append(items, itemFromModel(&m.Items[i]))
	}
	return ListDTO{
		ID:        m.ID,
		Name:      m.Name,
		Items:     items,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func itemFromModel(m *models.ListItem) ItemDTO {
	return ItemDTO{
		ID:          m.ID,
		ProductName: m.ProductName,
		Quantity:    m.Quantity,
		Checked:     m.Checked,
	}
}
