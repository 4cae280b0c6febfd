package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type env struct {
	stores    *repository.Stores
	users     *UserService
	catalog   *CatalogService
	carts     *CartService
	addresses *AddressService
	orders    *OrderService
	coupons   *CouponService
	now       time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	stores := repository.NewMemoryStores()
	e := &env{stores: stores, now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	e.users = NewUserService(stores.Users).WithCost(bcrypt.MinCost)
	e.catalog = NewCatalogService(stores.Categories, stores.Items)
	e.carts = NewCartService(stores.Carts, stores.Items, stores.Users)
	e.addresses = NewAddressService(stores.Addresses, stores.Tx)
	e.coupons = NewCouponService(stores.Coupons, stores.Tx).WithClock(func() time.Time { return e.now })
	e.orders = NewOrderService(stores, e.coupons)
	return e
}

func principalOf(u *domain.User) domain.Principal {
	return domain.Principal{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

func (e *env) user(t *testing.T, name string) domain.Principal {
	t.Helper()
	u, err := e.users.Register(context.Background(), name, name+"@example.com", "secret-password")
	require.NoError(t, err)
	return principalOf(u)
}

func (e *env) admin(t *testing.T) domain.Principal {
	t.Helper()
	u, err := e.users.EnsureAdmin(context.Background(), "root", "root@example.com", "secret-password")
	require.NoError(t, err)
	return principalOf(u)
}

// item creates an active item in a fresh category owned by p
func (e *env) item(t *testing.T, p domain.Principal, desc string, rate string, stock int64) *domain.Item {
	t.Helper()
	ctx := context.Background()
	cat, err := e.catalog.CreateCategory(ctx, p, domain.Category{Name: desc + " category", IsActive: true})
	require.NoError(t, err)
	it, err := e.catalog.CreateItem(ctx, p, domain.Item{
		CategoryID:  cat.ID,
		Description: desc,
		Rate:        decimal.RequireFromString(rate),
		StockCount:  stock,
		IsActive:    true,
	})
	require.NoError(t, err)
	return it
}

func (e *env) address(t *testing.T, p domain.Principal) *domain.Address {
	t.Helper()
	a, err := e.addresses.Create(context.Background(), p, domain.Address{
		AddressLine: "12 Park Street",
		City:        "Kolkata",
		State:       "WB",
		PostalCode:  "700016",
		Country:     "India",
	})
	require.NoError(t, err)
	return a
}

// addN adds the item to p's cart n times
func (e *env) addN(t *testing.T, p domain.Principal, it *domain.Item, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := e.carts.Add(context.Background(), p, it.ID)
		require.NoError(t, err)
	}
}

func (e *env) stock(t *testing.T, it *domain.Item) int64 {
	t.Helper()
	cur, err := e.stores.Items.GetByID(context.Background(), it.ID)
	require.NoError(t, err)
	return cur.StockCount
}

func (e *env) coupon(t *testing.T, admin domain.Principal, code string, percent string, from, to time.Time, limit int64) *domain.Coupon {
	t.Helper()
	c, err := e.coupons.Create(context.Background(), admin, domain.Coupon{
		Code:            code,
		DiscountPercent: decimal.RequireFromString(percent),
		ValidFrom:       from,
		ValidTo:         to,
		UsageLimit:      limit,
		IsActive:        true,
	})
	require.NoError(t, err)
	return c
}
