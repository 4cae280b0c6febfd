package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddIncrements(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.user(t, "seller")
	buyer := e.user(t, "buyer")
	it := e.item(t, seller, "Paracetamol", "25.50", 3)

	first, err := e.carts.Add(ctx, buyer, it.ID)
	require.NoError(t, err)
	second, err := e.carts.Add(ctx, buyer, it.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 2, second.Quantity)
	assert.Equal(t, "Paracetamol", second.ItemDetails.Description)
	assert.EqualValues(t, 3, second.ItemDetails.StockCount)
	// cart does not reserve stock
	assert.EqualValues(t, 3, e.stock(t, it))
}

func TestCart_AddBeyondStock(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.user(t, "seller")
	buyer := e.user(t, "buyer")
	it := e.item(t, seller, "Rare", "10", 1)
	empty := e.item(t, seller, "Empty", "10", 0)

	e.addN(t, buyer, it, 1)
	_, err := e.carts.Add(ctx, buyer, it.ID)
	assert.ErrorIs(t, err, ErrStockExceeded)

	_, err = e.carts.Add(ctx, buyer, empty.ID)
	assert.ErrorIs(t, err, ErrStockExceeded)
}

func TestCart_AddUnknownOrInactive(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.user(t, "seller")
	buyer := e.user(t, "buyer")
	it := e.item(t, seller, "Gone", "10", 5)
	off := false
	_, err := e.catalog.UpdateItem(ctx, seller, it.ID, ItemPatch{IsActive: &off})
	require.NoError(t, err)

	_, err = e.carts.Add(ctx, buyer, it.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.carts.Add(ctx, buyer, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.carts.Add(ctx, buyer, uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCart_SetQuantity(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.user(t, "seller")
	buyer := e.user(t, "buyer")
	it := e.item(t, seller, "A", "10", 4)
	line, err := e.carts.Add(ctx, buyer, it.ID)
	require.NoError(t, err)

	updated, err := e.carts.SetQuantity(ctx, buyer, line.ID, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 4, updated.Quantity)

	_, err = e.carts.SetQuantity(ctx, buyer, line.ID, 5)
	assert.ErrorIs(t, err, ErrStockExceeded)
	_, err = e.carts.SetQuantity(ctx, buyer, line.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCart_OtherUsersLine(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.user(t, "seller")
	buyer := e.user(t, "buyer")
	intruder := e.user(t, "intruder")
	it := e.item(t, seller, "A", "10", 4)
	line, err := e.carts.Add(ctx, buyer, it.ID)
	require.NoError(t, err)

	_, err = e.carts.SetQuantity(ctx, intruder, line.ID, 2)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, e.carts.Remove(ctx, intruder, line.ID), ErrForbidden)
	assert.ErrorIs(t, e.carts.Remove(ctx, buyer, uuid.New()), ErrNotFound)

	require.NoError(t, e.carts.Remove(ctx, buyer, line.ID))
	lines, err := e.carts.ListForUser(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCart_ListAll(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.user(t, "seller")
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	it := e.item(t, seller, "A", "10", 10)
	e.addN(t, alice, it, 2)
	e.addN(t, bob, it, 1)

	_, err := e.carts.ListAll(ctx, alice)
	assert.ErrorIs(t, err, ErrForbidden)

	all, err := e.carts.ListAll(ctx, e.admin(t))
	require.NoError(t, err)
	require.Len(t, all, 2)
	owners := map[string]int64{}
	for _, l := range all {
		require.NotNil(t, l.User)
		owners[l.User.Username] = l.Quantity
	}
	assert.Equal(t, map[string]int64{"alice": 2, "bob": 1}, owners)

	mine, err := e.carts.ListForUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Nil(t, mine[0].User)
}
