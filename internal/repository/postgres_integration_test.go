package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"
)

// pgStores connects to STOREFRONT_TEST_POSTGRES_DSN, skips the test when it is unset
func pgStores(t *testing.T) *repository.Stores {
	t.Helper()
	dsn := os.Getenv("STOREFRONT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := repository.Connect(ctx, dsn, 8)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	store := repository.NewPgStore(pool)
	require.NoError(t, store.Migrate(ctx))
	return repository.NewPgStores(store)
}

func register(t *testing.T, users *service.UserService, prefix string) domain.Principal {
	t.Helper()
	name := prefix + "-" + uuid.NewString()[:8]
	u, err := users.Register(context.Background(), name, "", "secret-password")
	require.NoError(t, err)
	return domain.Principal{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

func TestPostgres_LastUnitSoldOnce(t *testing.T) {
	stores := pgStores(t)
	ctx := context.Background()
	users := service.NewUserService(stores.Users).WithCost(bcrypt.MinCost)
	catalog := service.NewCatalogService(stores.Categories, stores.Items)
	carts := service.NewCartService(stores.Carts, stores.Items, stores.Users)
	addresses := service.NewAddressService(stores.Addresses, stores.Tx)
	orders := service.NewOrderService(stores, service.NewCouponService(stores.Coupons, stores.Tx))

	seller := register(t, users, "seller")
	cat, err := catalog.CreateCategory(ctx, seller, domain.Category{Name: "Pg", IsActive: true})
	require.NoError(t, err)
	it, err := catalog.CreateItem(ctx, seller, domain.Item{CategoryID: cat.ID, Description: "Last one", Rate: decimal.NewFromInt(7), StockCount: 1, IsActive: true})
	require.NoError(t, err)

	buyers := make([]domain.Principal, 4)
	for i := range buyers {
		buyers[i] = register(t, users, "buyer")
		_, err := carts.Add(ctx, buyers[i], it.ID)
		require.NoError(t, err)
		_, err = addresses.Create(ctx, buyers[i], domain.Address{AddressLine: "1 Test St", City: "X", Country: "IN"})
		require.NoError(t, err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		placed  int
		refused int
	)
	for _, b := range buyers {
		wg.Add(1)
		go func(p domain.Principal) {
			defer wg.Done()
			_, err := orders.PlaceOrder(ctx, p, service.PlaceOrderInput{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case errors.Is(err, service.ErrInsufficientStock):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(b)
	}
	wg.Wait()

	assert.Equal(t, 1, placed)
	assert.Equal(t, len(buyers)-1, refused)
	cur, err := stores.Items.GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, cur.StockCount)
}

func TestPostgres_SameCartCheckedOutOnce(t *testing.T) {
	stores := pgStores(t)
	ctx := context.Background()
	users := service.NewUserService(stores.Users).WithCost(bcrypt.MinCost)
	catalog := service.NewCatalogService(stores.Categories, stores.Items)
	carts := service.NewCartService(stores.Carts, stores.Items, stores.Users)
	addresses := service.NewAddressService(stores.Addresses, stores.Tx)
	orders := service.NewOrderService(stores, service.NewCouponService(stores.Coupons, stores.Tx))

	seller := register(t, users, "seller")
	cat, err := catalog.CreateCategory(ctx, seller, domain.Category{Name: "Pg", IsActive: true})
	require.NoError(t, err)
	it, err := catalog.CreateItem(ctx, seller, domain.Item{CategoryID: cat.ID, Description: "Plenty", Rate: decimal.NewFromInt(3), StockCount: 100, IsActive: true})
	require.NoError(t, err)

	buyer := register(t, users, "buyer")
	_, err = carts.Add(ctx, buyer, it.ID)
	require.NoError(t, err)
	_, err = addresses.Create(ctx, buyer, domain.Address{AddressLine: "1 Test St", City: "X", Country: "IN"})
	require.NoError(t, err)

	const n = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		placed int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orders.PlaceOrder(ctx, buyer, service.PlaceOrderInput{})
			if err == nil {
				mu.Lock()
				placed++
				mu.Unlock()
				return
			}
			if !errors.Is(err, service.ErrEmptyCart) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, placed)
	list, err := orders.ListOrders(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	cur, err := stores.Items.GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 99, cur.StockCount)
}

func TestPostgres_CouponLimitUnderContention(t *testing.T) {
	stores := pgStores(t)
	ctx := context.Background()
	users := service.NewUserService(stores.Users).WithCost(bcrypt.MinCost)
	coupons := service.NewCouponService(stores.Coupons, stores.Tx)

	admin := register(t, users, "admin")
	admin.IsAdmin = true
	code := "PG-" + uuid.NewString()[:8]
	now := time.Now().UTC()
	c, err := coupons.Create(ctx, admin, domain.Coupon{
		Code: code, DiscountPercent: decimal.NewFromInt(5),
		ValidFrom: now.Add(-time.Hour), ValidTo: now.Add(time.Hour),
		UsageLimit: 2, IsActive: true,
	})
	require.NoError(t, err)

	const n = 6
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < n; i++ {
		p := register(t, users, "user")
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := coupons.Redeem(ctx, p, code); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else if !errors.Is(err, service.ErrLimitReached) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	stored, err := stores.Coupons.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stored.UsageCount)
}
