package lists

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/basketwise/basketwise-backend/internal/comparison"
	"github.com/basketwise/basketwise-backend/pkg/db/models"
	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const minQuantity = 1

type listRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.ShoppingList, error)
	FindForUser(ctx context.Context, userID string, listID uuid.UUID) (*models.ShoppingList, error)
	CreateWithTx(tx *gorm.DB, list *models.ShoppingList) error
	Rename(ctx context.Context, userID string, listID uuid.UUID, name string) error
	DeleteWithTx(tx *gorm.DB, userID string, listID uuid.UUID) error
	AddItem(ctx context.Context, item *models.ListItem) error
	FindItem(ctx context.Context, userID string, listID, itemID uuid.UUID) (*models.ListItem, error)
	SaveItem(ctx context.Context, item *models.ListItem) error
	DeleteItem(ctx context.Context, listID, itemID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a user's shopping lists.
type Service interface {
	List(ctx context.Context, userID string) ([]ListDTO, error)
	Get(ctx context.Context, userID string, listID uuid.UUID) (*ListDTO, error)
	Create(ctx context.Context, userID string, input CreateListInput) (*ListDTO, error)
	Rename(ctx context.Context, userID string, listID uuid.UUID, input RenameListInput) (*ListDTO, error)
	Delete(ctx context.Context, userID string, listID uuid.UUID) error

	AddItem(ctx context.Context, userID string, listID uuid.UUID, input ItemInput) (*ItemDTO, error)
	UpdateItem(ctx context.Context, userID string, listID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	DeleteItem(ctx context.Context, userID string, listID, itemID uuid.UUID) error

	// ComparisonItems returns the list lines in the shape the comparison engine takes.
	ComparisonItems(ctx context.Context, userID string, listID uuid.UUID) ([]comparison.Item, error)
}

type service struct {
	repo listRepository
	tx   txRunner
}

func NewService(repo listRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("list repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID string) ([]ListDTO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shopping lists")
	}
	out := make([]ListDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID string, listID uuid.UUID) (*ListDTO, error) {
	list, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	dto := fromModel(list)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, userID string, input CreateListInput) (*ListDTO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "list name is required")
	}

	list := &models.ShoppingList{UserID: userID, Name: name}
	for i, in := range input.Items {
		item, err := newItem(in)
		if err != nil {
			return nil, err.WithDetails(map[string]any{"index": i})
		}
		list.Items = append(list.Items, item)
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.CreateWithTx(tx, list)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shopping list")
	}
	dto := fromModel(list)
	return &dto, nil
}

func (s *service) Rename(ctx context.Context, userID string, listID uuid.UUID, input RenameListInput) (*ListDTO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "list name is required")
	}
	if err := s.repo.Rename(ctx, userID, listID, name); err != nil {
		return nil, mapRepoErr(err, "rename shopping list", "list not found")
	}
	return s.Get(ctx, userID, listID)
}

func (s *service) Delete(ctx context.Context, userID string, listID uuid.UUID) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.DeleteWithTx(tx, userID, listID)
	})
	if err != nil {
		return mapRepoErr(err, "delete shopping list", "list not found")
	}
	return nil
}

func (s *service) AddItem(ctx context.Context, userID string, listID uuid.UUID, input ItemInput) (*ItemDTO, error) {
	if _, err := s.load(ctx, userID, listID); err != nil {
		return nil, err
	}
	item, verr := newItem(input)
	if verr != nil {
		return nil, verr
	}
	item.ListID = listID
	if err := s.repo.AddItem(ctx, &item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add list item")
	}
	dto := itemFromModel(&item)
	return &dto, nil
}

func (s *service) UpdateItem(ctx context.Context, userID string, listID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, userID, listID, itemID)
	if err != nil {
		return nil, mapRepoErr(err, "load list item", "list item not found")
	}

	if input.ProductName != nil {
		name := strings.TrimSpace(*input.ProductName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		item.ProductName = name
	}
	if input.Quantity != nil {
		item.Quantity = clampQuantity(*input.Quantity)
	}
	if input.Checked != nil {
		item.Checked = *input.Checked
	}

	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update list item")
	}
	dto := itemFromModel(item)
	return &dto, nil
}

func (s *service) DeleteItem(ctx context.Context, userID string, listID, itemID uuid.UUID) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if _, err := s.repo.FindItem(ctx, userID, listID, itemID); err != nil {
		return mapRepoErr(err, "load list item", "list item not found")
	}
	if err := s.repo.DeleteItem(ctx, listID, itemID); err != nil {
		return mapRepoErr(err, "delete list item", "list item not found")
	}
	return nil
}

func (s *service) ComparisonItems(ctx context.Context, userID string, listID uuid.UUID) ([]comparison.Item, error) {
	list, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	items := make([]comparison.Item, 0, len(list.Items))
	for _, it := range list.Items {
		items = append(items, comparison.Item{
			ProductName: it.ProductName,
			Quantity:    clampQuantity(it.Quantity),
		})
	}
	return items, nil
}

func (s *service) load(ctx context.Context, userID string, listID uuid.UUID) (*models.ShoppingList, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	list, err := s.repo.FindForUser(ctx, userID, listID)
	if err != nil {
		return nil, mapRepoErr(err, "load shopping list", "list not found")
	}
	return list, nil
}

func newItem(in ItemInput) (models.ListItem, *pkgerrors.Error) {
	name := strings.TrimSpace(in.ProductName)
	if name == "" {
		return models.ListItem{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	return models.ListItem{
		ProductName: name,
		Quantity:    clampQuantity(in.Quantity),
		Checked:     in.Checked,
	}, nil
}

// clampQuantity is the only place quantities are coerced; the comparison
// engine rejects anything below 1.
func clampQuantity(q int) int {
	if q < minQuantity {
		return minQuantity
	}
	return q
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return nil
}

func mapRepoErr(err error, op, notFoundMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
