package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPlaceOrder_TotalsStocksAndCart(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.admin(t)
	buyer := e.user(t, "john")
	e.address(t, buyer)

	a := e.item(t, seller, "Pen", "10.0", 5)
	b := e.item(t, seller, "Notebook", "20.0", 1)
	e.addN(t, buyer, a, 3)
	e.addN(t, buyer, b, 1)

	o, err := e.orders.PlaceOrder(ctx, buyer, PlaceOrderInput{})
	require.NoError(t, err)

	assert.True(t, o.TotalAmount.Equal(dec("50")), "total %s", o.TotalAmount)
	assert.True(t, o.PayableAmount.Equal(dec("50")))
	assert.True(t, o.DiscountAmount.IsZero())
	assert.False(t, o.IsPaid)
	assert.Len(t, o.Code(), 8)

	got, err := e.orders.GetOrder(ctx, buyer, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	sum := decimal.Zero
	lineTotals := map[uuid.UUID]decimal.Decimal{}
	for _, it := range got.Items {
		sum = sum.Add(it.LineTotal)
		lineTotals[it.ItemID] = it.LineTotal
	}
	assert.True(t, sum.Equal(got.TotalAmount))
	assert.True(t, lineTotals[a.ID].Equal(dec("30")))
	assert.True(t, lineTotals[b.ID].Equal(dec("20")))

	assert.EqualValues(t, 2, e.stock(t, a))
	assert.EqualValues(t, 0, e.stock(t, b))

	lines, err := e.carts.ListForUser(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestPlaceOrder_StockDroppedAfterAdd(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.admin(t)
	buyer := e.user(t, "john")
	e.address(t, buyer)

	it := e.item(t, seller, "Pen", "10", 5)
	e.addN(t, buyer, it, 5)

	// another process consumed stock
	stock := int64(3)
	_, err := e.catalog.UpdateItem(ctx, seller, it.ID, ItemPatch{StockCount: &stock})
	require.NoError(t, err)

	_, err = e.orders.PlaceOrder(ctx, buyer, PlaceOrderInput{})
	require.ErrorIs(t, err, ErrInsufficientStock)
	var se *InsufficientStockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, it.ID, se.ItemID)
	assert.EqualValues(t, 5, se.Requested)
	assert.EqualValues(t, 3, se.Available)

	assert.EqualValues(t, 3, e.stock(t, it))
	orders, err := e.orders.ListOrders(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, orders)
	lines, _ := e.carts.ListForUser(ctx, buyer)
	assert.Len(t, lines, 1)
}

func TestPlaceOrder_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.admin(t)
	buyer := e.user(t, "john")
	e.address(t, buyer)

	ok := e.item(t, seller, "Pen", "10", 5)
	short := e.item(t, seller, "Ink", "3.50", 4)
	e.addN(t, buyer, ok, 2)
	e.addN(t, buyer, short, 4)

	one := int64(1)
	_, err := e.catalog.UpdateItem(ctx, seller, short.ID, ItemPatch{StockCount: &one})
	require.NoError(t, err)

	_, err = e.orders.PlaceOrder(ctx, buyer, PlaceOrderInput{})
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.EqualValues(t, 5, e.stock(t, ok))
	assert.EqualValues(t, 1, e.stock(t, short))
	all, err := e.stores.Orders.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
	lines, _ := e.carts.ListForUser(ctx, buyer)
	assert.Len(t, lines, 2)
}

func TestPlaceOrder_RetryAfterSuccessIsEmptyCart(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.admin(t)
	buyer := e.user(t, "john")
	e.address(t, buyer)
	e.addN(t, buyer, e.item(t, seller, "Pen", "10", 5), 1)

	_, err := e.orders.PlaceOrder(ctx, buyer, PlaceOrderInput{})
	require.NoError(t, err)
	_, err = e.orders.PlaceOrder(ctx, buyer, PlaceOrderInput{})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_EmptyCartWithoutCart(t *testing.T) {
	e := newEnv(t)
	buyer := e.user(t, "john")
	e.address(t, buyer)
	_, err := e.orders.PlaceOrder(context.Background(), buyer, PlaceOrderInput{})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_Address(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.admin(t)
	buyer := e.user(t, "john")
	other := e.user(t, "jane")
	e.addN(t, buyer, e.item(t, seller, "Pen", "10", 5), 1)

	_, err := e.orders.PlaceOrder(ctx, buyer, PlaceOrderInput{})
	assert.ErrorIs(t, err, ErrNoAddress)

	foreign := e.address(t, other)
	_, err = e.orders.PlaceOrder(ctx, buyer, PlaceOrderInput{AddressID: &foreign.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	e.address(t, buyer)
	second, err := e.addresses.Create(ctx, buyer, domain.Address{AddressLine: "2 Lake Road", City: "Pune", Country: "India"})
	require.NoError(t, err)
	o, err := e.orders.PlaceOrder(ctx, buyer, PlaceOrderInput{AddressID: &second.ID})
	require.NoError(t, err)
	assert.Equal(t, second.ID, o.AddressID)
}

func TestPlaceOrder_RateFrozenAtCheckout(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.admin(t)
	buyer := e.user(t, "john")
	e.address(t, buyer)
	it := e.item(t, seller, "Pen", "10", 5)
	e.addN(t, buyer, it, 2)

	o, err := e.orders.PlaceOrder(ctx, buyer, PlaceOrderInput{})
	require.NoError(t, err)

	rate := dec("99")
	_, err = e.catalog.UpdateItem(ctx, seller, it.ID, ItemPatch{Rate: &rate})
	require.NoError(t, err)

	got, err := e.orders.GetOrder(ctx, buyer, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Rate.Equal(dec("10")))
	assert.True(t, got.TotalAmount.Equal(dec("20")))
}

func TestPlaceOrder_WithCoupon(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	admin := e.admin(t)
	buyer := e.user(t, "john")
	e.address(t, buyer)
	it := e.item(t, admin, "Pen", "10", 5)
	c := e.coupon(t, admin, "SAVE10", "10", e.now.Add(-time.Hour), e.now.Add(time.Hour), 0)
	e.addN(t, buyer, it, 5)

	o, err := e.orders.PlaceOrder(ctx, buyer, PlaceOrderInput{CouponCode: "SAVE10"})
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(dec("50")))
	assert.True(t, o.DiscountAmount.Equal(dec("5")))
	assert.True(t, o.PayableAmount.Equal(dec("45")))
	require.NotNil(t, o.CouponID)
	assert.Equal(t, c.ID, *o.CouponID)

	stored, err := e.stores.Coupons.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stored.UsageCount)
}

func TestPlaceOrder_BadCouponRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	admin := e.admin(t)
	buyer := e.user(t, "john")
	e.address(t, buyer)
	it := e.item(t, admin, "Pen", "10", 5)
	e.addN(t, buyer, it, 2)

	_, err := e.orders.PlaceOrder(ctx, buyer, PlaceOrderInput{CouponCode: "NOPE"})
	require.ErrorIs(t, err, ErrInvalidCode)

	assert.EqualValues(t, 5, e.stock(t, it))
	all, _ := e.stores.Orders.List(ctx, nil)
	assert.Empty(t, all)
	lines, _ := e.carts.ListForUser(ctx, buyer)
	assert.Len(t, lines, 1)
}

func TestPlaceOrder_ConcurrentBuyersNeverOversell(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.admin(t)
	it := e.item(t, seller, "Pen", "10", 3)

	const buyers = 6
	ps := make([]domain.Principal, buyers)
	for i := range ps {
		ps[i] = e.user(t, "buyer"+string(rune('a'+i)))
		e.address(t, ps[i])
		e.addN(t, ps[i], it, 2)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for _, p := range ps {
		wg.Add(1)
		go func(p domain.Principal) {
			defer wg.Done()
			_, err := e.orders.PlaceOrder(ctx, p, PlaceOrderInput{})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}(p)
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.EqualValues(t, 1, e.stock(t, it))
}

func TestPlaceOrder_SameCartTwiceInParallel(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seller := e.admin(t)
	it := e.item(t, seller, "Pen", "10", 100)
	buyer := e.user(t, "buyer")
	e.address(t, buyer)
	e.addN(t, buyer, it, 1)

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.orders.PlaceOrder(ctx, buyer, PlaceOrderInput{})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrEmptyCart)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.EqualValues(t, 99, e.stock(t, it))
	orders, err := e.orders.ListOrders(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestOrders_VisibilityPaymentAndInvoice(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	admin := e.admin(t)
	buyer := e.user(t, "john")
	other := e.user(t, "jane")
	addr := e.address(t, buyer)
	e.addN(t, buyer, e.item(t, admin, "Pen", "12.50", 5), 2)

	o, err := e.orders.PlaceOrder(ctx, buyer, PlaceOrderInput{})
	require.NoError(t, err)

	_, err = e.orders.GetOrder(ctx, other, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.orders.GetOrder(ctx, admin, o.ID)
	assert.NoError(t, err)

	mine, _ := e.orders.ListOrders(ctx, buyer)
	assert.Len(t, mine, 1)
	theirs, _ := e.orders.ListOrders(ctx, other)
	assert.Empty(t, theirs)
	all, _ := e.orders.ListOrders(ctx, admin)
	assert.Len(t, all, 1)

	inv, err := e.orders.Invoice(ctx, buyer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "UNPAID", inv.PaymentStatus)
	assert.Equal(t, "john", inv.Customer)
	assert.Equal(t, addr.String(), inv.ShippingTo)
	assert.Equal(t, o.Code(), inv.OrderCode)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "Pen", inv.Lines[0].Description)
	assert.True(t, inv.GrandTotal.Equal(dec("25")))
	assert.True(t, inv.AmountDue.Equal(dec("25")))

	_, err = e.orders.MarkPaid(ctx, buyer, o.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	paid, err := e.orders.MarkPaid(ctx, admin, o.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)

	inv, err = e.orders.Invoice(ctx, buyer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAID", inv.PaymentStatus)

	_, err = e.orders.Invoice(ctx, other, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
