package repository

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// CouponRepository implementation on wrapper type
type MemoryCoupons struct{ store *MemoryStore }

func NewMemoryCoupons(store *MemoryStore) *MemoryCoupons { return &MemoryCoupons{store: store} }

var _ CouponRepository = (*MemoryCoupons)(nil)

func (mc *MemoryCoupons) Create(ctx context.Context, c *domain.Coupon) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	newID(&c.ID)
	stamp(&c.CreatedAt)
	mc.store.t.seq++
	mc.store.t.coupons[c.ID] = *c
	mc.store.t.rowSeq[c.ID] = mc.store.t.seq
	return nil
}

func (mc *MemoryCoupons) GetByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.t.coupons[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := c
	return &cp, nil
}

// GetForUpdate inside a MemoryTx the whole store is already write-locked
func (mc *MemoryCoupons) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	return mc.GetByID(ctx, id)
}

func (mc *MemoryCoupons) Update(ctx context.Context, c *domain.Coupon) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	if _, ok := mc.store.t.coupons[c.ID]; !ok {
		return ErrNotFound
	}
	mc.store.t.coupons[c.ID] = *c
	return nil
}

// sorted returns coupons ordered by creation time, insertion order breaking ties
func (mc *MemoryCoupons) sorted(keep func(domain.Coupon) bool) []domain.Coupon {
	out := make([]domain.Coupon, 0)
	for _, c := range mc.store.t.coupons {
		if keep(c) {
			out = append(out, c)
		}
	}
	seq := mc.store.t.rowSeq
	slices.SortFunc(out, func(a, b domain.Coupon) int {
		if n := a.CreatedAt.Compare(b.CreatedAt); n != 0 {
			return n
		}
		return int(seq[a.ID] - seq[b.ID])
	})
	return out
}

func (mc *MemoryCoupons) List(ctx context.Context, activeOnly bool) ([]domain.Coupon, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	return mc.sorted(func(c domain.Coupon) bool { return !activeOnly || c.IsActive }), nil
}

func (mc *MemoryCoupons) LatestActiveByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	list := mc.sorted(func(c domain.Coupon) bool { return c.IsActive && c.Code == code })
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	latest := list[len(list)-1]
	return &latest, nil
}

func (mc *MemoryCoupons) ListByCode(ctx context.Context, code string) ([]domain.Coupon, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	return mc.sorted(func(c domain.Coupon) bool { return c.Code == code }), nil
}

// LockCode no-op: a MemoryTx already serializes all writers
func (mc *MemoryCoupons) LockCode(ctx context.Context, code string) error {
	return nil
}

func (mc *MemoryCoupons) CreateUsage(ctx context.Context, u *domain.CouponUsage) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	for _, existing := range mc.store.t.couponUsages {
		if existing.UserID == u.UserID && existing.CouponID == u.CouponID {
			return ErrConflict
		}
	}
	newID(&u.ID)
	stamp(&u.CreatedAt)
	mc.store.t.couponUsages[u.ID] = *u
	return nil
}

func (mc *MemoryCoupons) HasUsage(ctx context.Context, userID, couponID uuid.UUID) (bool, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	for _, u := range mc.store.t.couponUsages {
		if u.UserID == userID && u.CouponID == couponID {
			return true, nil
		}
	}
	return false, nil
}
