package lists

import (
	"context"
	"testing"

	"github.com/basketwise/basketwise-backend/pkg/db"
	"github.com/basketwise/basketwise-backend/pkg/db/dbtest"
	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "user-alice"
	bob   = "user-bob"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn))
	require.NoError(t, err)
	return svc
}

func intPtr(v int) *int { return &v }

func TestNewServiceRequiresDependencies(t *testing.T) {
	conn := dbtest.Open(t)
	_, err := NewService(nil, db.Wrap(conn))
	assert.Error(t, err)
	_, err = NewService(NewRepository(conn), nil)
	assert.Error(t, err)
}

func TestCreateClampsQuantities(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	list, err := svc.Create(ctx, alice, CreateListInput{
		Name:  " Weekly ",
		Items: []ItemInput{{ProductName: "Milk", Quantity: 0}, {ProductName: "Eggs", Quantity: -4}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Weekly", list.Name)
	require.Len(t, list.Items, 2)
	for _, item := range list.Items {
		assert.Equal(t, 1, item.Quantity)
	}

	_, err = svc.Create(ctx, alice, CreateListInput{Name: "Bad", Items: []ItemInput{{ProductName: " "}}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, "", CreateListInput{Name: "Anon"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListsAreScopedToOwner(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	list, err := svc.Create(ctx, alice, CreateListInput{Name: "Party"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, list.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Rename(ctx, bob, list.ID, RenameListInput{Name: "Mine"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, bob, list.ID), pkgerrors.CodeNotFound))
	_, err = svc.AddItem(ctx, bob, list.ID, ItemInput{ProductName: "Chips"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	bobs, err := svc.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, bobs)

	alices, err := svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, alices, 1)
}

func TestItemLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	list, err := svc.Create(ctx, alice, CreateListInput{Name: "Groceries"})
	require.NoError(t, err)

	item, err := svc.AddItem(ctx, alice, list.ID, ItemInput{ProductName: "Bread", Quantity: 2})
	require.NoError(t, err)

	checked := true
	updated, err := svc.UpdateItem(ctx, alice, list.ID, item.ID, UpdateItemInput{Quantity: intPtr(0), Checked: &checked})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)
	assert.True(t, updated.Checked)

	_, err = svc.UpdateItem(ctx, bob, list.ID, item.ID, UpdateItemInput{Quantity: intPtr(3)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	items, err := svc.ComparisonItems(ctx, alice, list.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Bread", items[0].ProductName)
	assert.Equal(t, 1, items[0].Quantity)

	require.NoError(t, svc.DeleteItem(ctx, alice, list.ID, item.ID))
	assert.True(t, pkgerrors.IsCode(svc.DeleteItem(ctx, alice, list.ID, item.ID), pkgerrors.CodeNotFound))

	renamed, err := svc.Rename(ctx, alice, list.ID, RenameListInput{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Name)
	assert.Empty(t, renamed.Items)

	require.NoError(t, svc.Delete(ctx, alice, list.ID))
	_, err = svc.Get(ctx, alice, list.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Get(ctx, alice, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
