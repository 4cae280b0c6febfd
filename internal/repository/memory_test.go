package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

func TestMemoryStore_ItemCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	it := domain.Item{Description: "A", Rate: decimal.NewFromInt(10), StockCount: 5, IsActive: true}
	if err := store.Create(ctx, &it); err != nil {
		t.Fatalf("create: %v", err)
	}
	if it.ID == uuid.Nil {
		t.Fatalf("no id")
	}

	got, err := store.GetByID(ctx, it.ID)
	if err != nil || got.ID != it.ID {
		t.Fatalf("get: %v", err)
	}

	it.Rate = decimal.NewFromInt(12)
	if err := store.Update(ctx, &it); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := store.Delete(ctx, it.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByID(ctx, it.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	it := domain.Item{Description: "A", StockCount: 5}
	if err := store.Create(ctx, &it); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetByID(ctx, it.ID)
	got.StockCount = 0

	again, _ := store.GetByID(ctx, it.ID)
	if again.StockCount != 5 {
		t.Fatalf("mutation leaked into store: %v", again.StockCount)
	}
}

func TestMemoryTx_TransactionalUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)
	orders := NewMemoryOrders(store)

	it := domain.Item{Description: "A", Rate: decimal.NewFromInt(10), StockCount: 5}
	if err := store.Create(ctx, &it); err != nil {
		t.Fatal(err)
	}

	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		cur, err := store.GetByID(ctx, it.ID)
		if err != nil {
			return err
		}
		cur.StockCount -= 3
		if err := store.Update(ctx, cur); err != nil {
			return err
		}
		o := domain.Order{UserID: uuid.New()}
		return orders.Create(ctx, &o)
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	cur, _ := store.GetByID(ctx, it.ID)
	if cur.StockCount != 2 {
		t.Fatalf("stock expected 2, got %v", cur.StockCount)
	}
	list, _ := orders.List(ctx, nil)
	if len(list) != 1 {
		t.Fatalf("expected 1 order, got %d", len(list))
	}
}

func TestMemoryTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)
	orders := NewMemoryOrders(store)

	it := domain.Item{Description: "A", StockCount: 5}
	if err := store.Create(ctx, &it); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		cur, _ := store.GetByID(ctx, it.ID)
		cur.StockCount = 0
		if err := store.Update(ctx, cur); err != nil {
			return err
		}
		o := domain.Order{UserID: uuid.New()}
		if err := orders.Create(ctx, &o); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	cur, _ := store.GetByID(ctx, it.ID)
	if cur.StockCount != 5 {
		t.Fatalf("stock not restored: %v", cur.StockCount)
	}
	list, _ := orders.List(ctx, nil)
	if len(list) != 0 {
		t.Fatalf("order survived rollback")
	}
}

func TestMemoryTx_RollbackOnPanic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)

	it := domain.Item{Description: "A", StockCount: 5}
	if err := store.Create(ctx, &it); err != nil {
		t.Fatal(err)
	}

	func() {
		defer func() { _ = recover() }()
		_ = tx.WithTransaction(ctx, func(ctx context.Context) error {
			cur, _ := store.GetByID(ctx, it.ID)
			cur.StockCount = 1
			_ = store.Update(ctx, cur)
			panic("boom")
		})
	}()

	cur, err := store.GetByID(ctx, it.ID)
	if err != nil {
		t.Fatalf("store locked or broken after panic: %v", err)
	}
	if cur.StockCount != 5 {
		t.Fatalf("stock not restored: %v", cur.StockCount)
	}
}

func TestMemoryTx_NestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)

	it := domain.Item{Description: "A", StockCount: 5}
	if err := store.Create(ctx, &it); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		// inner commit must not survive the outer rollback
		if err := tx.WithTransaction(ctx, func(ctx context.Context) error {
			cur, _ := store.GetByID(ctx, it.ID)
			cur.StockCount = 1
			return store.Update(ctx, cur)
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	cur, _ := store.GetByID(ctx, it.ID)
	if cur.StockCount != 5 {
		t.Fatalf("inner write survived: %v", cur.StockCount)
	}
}

func TestList_Filtering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	catA, catB := uuid.New(), uuid.New()
	seed := []domain.Item{
		{CategoryID: catA, Description: "in stock", StockCount: 5, IsActive: true},
		{CategoryID: catA, Description: "sold out", StockCount: 0, IsActive: true},
		{CategoryID: catB, Description: "hidden", StockCount: 3, IsActive: false},
	}
	for i := range seed {
		if err := store.Create(ctx, &seed[i]); err != nil {
			t.Fatal(err)
		}
	}

	list, _ := store.List(ctx, ItemFilter{ActiveOnly: true, InStockOnly: true})
	if len(list) != 1 || list[0].Description != "in stock" {
		t.Fatalf("active in-stock filter failed: %+v", list)
	}
	list, _ = store.List(ctx, ItemFilter{CategoryID: &catA})
	if len(list) != 2 {
		t.Fatalf("category filter failed: %d", len(list))
	}
	n, _ := store.CountActiveInCategory(ctx, catB)
	if n != 0 {
		t.Fatalf("inactive item counted")
	}
}

func TestMemoryCarts_UniqueLine(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	carts := NewMemoryCarts(store)
	userID := uuid.New()

	cart, err := carts.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	again, _ := carts.GetOrCreate(ctx, userID)
	if again.ID != cart.ID {
		t.Fatalf("second cart created for the same user")
	}

	itemID := uuid.New()
	if err := carts.CreateLine(ctx, &domain.CartItem{CartID: cart.ID, ItemID: itemID, Quantity: 1}); err != nil {
		t.Fatal(err)
	}
	if err := carts.CreateLine(ctx, &domain.CartItem{CartID: cart.ID, ItemID: itemID, Quantity: 1}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := carts.ClearLines(ctx, cart.ID); err != nil {
		t.Fatal(err)
	}
	lines, _ := carts.ListLines(ctx, cart.ID)
	if len(lines) != 0 {
		t.Fatalf("lines not cleared")
	}
}

func TestMemoryAddresses_DefaultAndInUse(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	addrs := NewMemoryAddresses(store)
	orders := NewMemoryOrders(store)
	userID := uuid.New()

	if _, err := addrs.GetDefault(ctx, userID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	a := domain.Address{UserID: userID, AddressLine: "1 Main", City: "X", Country: "IN", IsDefault: true}
	if err := addrs.Create(ctx, &a); err != nil {
		t.Fatal(err)
	}
	def, err := addrs.GetDefault(ctx, userID)
	if err != nil || def.ID != a.ID {
		t.Fatalf("default not found: %v", err)
	}

	o := domain.Order{UserID: userID, AddressID: a.ID}
	if err := orders.Create(ctx, &o); err != nil {
		t.Fatal(err)
	}
	if err := addrs.Delete(ctx, a.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for address in use, got %v", err)
	}
}

func TestMemoryCoupons_LatestActiveByCode(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	coupons := NewMemoryCoupons(store)
	now := time.Now().UTC()

	// same created_at on purpose: insertion order decides
	old := domain.Coupon{Code: "SAVE10", IsActive: true, ValidFrom: now.Add(-48 * time.Hour), ValidTo: now.Add(-24 * time.Hour), CreatedAt: now}
	fresh := domain.Coupon{Code: "SAVE10", IsActive: true, ValidFrom: now.Add(-time.Hour), ValidTo: now.Add(time.Hour), CreatedAt: now}
	off := domain.Coupon{Code: "SAVE10", IsActive: false, ValidFrom: now, ValidTo: now.Add(time.Hour), CreatedAt: now}
	for _, c := range []*domain.Coupon{&old, &fresh, &off} {
		if err := coupons.Create(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	got, err := coupons.LatestActiveByCode(ctx, "SAVE10")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != fresh.ID {
		t.Fatalf("expected fresh row, got %v", got.ID)
	}
	if _, err := coupons.LatestActiveByCode(ctx, "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	all, _ := coupons.ListByCode(ctx, "SAVE10")
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}
}

func TestMemoryCoupons_UsageUnique(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	coupons := NewMemoryCoupons(store)
	userID, couponID := uuid.New(), uuid.New()

	if err := coupons.CreateUsage(ctx, &domain.CouponUsage{UserID: userID, CouponID: couponID}); err != nil {
		t.Fatal(err)
	}
	if err := coupons.CreateUsage(ctx, &domain.CouponUsage{UserID: userID, CouponID: couponID}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	used, _ := coupons.HasUsage(ctx, userID, couponID)
	if !used {
		t.Fatalf("usage not recorded")
	}
}

func TestMemoryUsers_UsernameCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryUsers(NewMemoryStore())
	if err := users.Create(ctx, &domain.User{Username: "Alice"}); err != nil {
		t.Fatal(err)
	}
	if err := users.Create(ctx, &domain.User{Username: "alice"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
