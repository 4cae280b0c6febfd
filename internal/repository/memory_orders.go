package repository

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// OrderRepository implementation on wrapper type
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	newID(&o.ID)
	stamp(&o.CreatedAt)
	row := *o
	row.Items = nil
	mo.store.t.orders[o.ID] = row
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.t.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	return &cp, nil
}

func (mo *MemoryOrders) Update(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.t.orders[o.ID]; !ok {
		return ErrNotFound
	}
	row := *o
	row.Items = nil
	mo.store.t.orders[o.ID] = row
	return nil
}

func (mo *MemoryOrders) List(ctx context.Context, userID *uuid.UUID) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0)
	for _, o := range mo.store.t.orders {
		if userID != nil && o.UserID != *userID {
			continue
		}
		out = append(out, o)
	}
	sortByCreated(out, func(o domain.Order) time.Time { return o.CreatedAt })
	return out, nil
}

func (mo *MemoryOrders) CreateItem(ctx context.Context, it *domain.OrderItem) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.t.orders[it.OrderID]; !ok {
		return ErrNotFound
	}
	newID(&it.ID)
	stamp(&it.CreatedAt)
	mo.store.t.seq++
	mo.store.t.orderItems[it.ID] = *it
	mo.store.t.rowSeq[it.ID] = mo.store.t.seq
	return nil
}

func (mo *MemoryOrders) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.OrderItem, 0)
	for _, it := range mo.store.t.orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	seq := mo.store.t.rowSeq
	slices.SortFunc(out, func(a, b domain.OrderItem) int { return int(seq[a.ID] - seq[b.ID]) })
	return out, nil
}
