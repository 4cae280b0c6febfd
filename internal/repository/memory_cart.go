package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// CartRepository implementation on wrapper type
type MemoryCarts struct{ store *MemoryStore }

func NewMemoryCarts(store *MemoryStore) *MemoryCarts { return &MemoryCarts{store: store} }

var _ CartRepository = (*MemoryCarts)(nil)

func (mc *MemoryCarts) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	for _, c := range mc.store.t.carts {
		if c.UserID == userID {
			cp := c
			return &cp, nil
		}
	}
	c := domain.Cart{ID: uuid.New(), UserID: userID, CreatedAt: time.Now().UTC()}
	mc.store.t.carts[c.ID] = c
	return &c, nil
}

func (mc *MemoryCarts) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	for _, c := range mc.store.t.carts {
		if c.UserID == userID {
			cp := c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// GetByUserForUpdate inside a MemoryTx the whole store is already write-locked
func (mc *MemoryCarts) GetByUserForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return mc.GetByUser(ctx, userID)
}

func (mc *MemoryCarts) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.t.carts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := c
	return &cp, nil
}

func (mc *MemoryCarts) GetLine(ctx context.Context, cartID, itemID uuid.UUID) (*domain.CartItem, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	for _, l := range mc.store.t.cartItems {
		if l.CartID == cartID && l.ItemID == itemID {
			cp := l
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (mc *MemoryCarts) GetLineByID(ctx context.Context, id uuid.UUID) (*domain.CartItem, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	l, ok := mc.store.t.cartItems[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := l
	return &cp, nil
}

func (mc *MemoryCarts) CreateLine(ctx context.Context, l *domain.CartItem) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	for _, existing := range mc.store.t.cartItems {
		if existing.CartID == l.CartID && existing.ItemID == l.ItemID {
			return ErrConflict
		}
	}
	newID(&l.ID)
	stamp(&l.CreatedAt)
	mc.store.t.cartItems[l.ID] = *l
	return nil
}

func (mc *MemoryCarts) UpdateLine(ctx context.Context, l *domain.CartItem) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	if _, ok := mc.store.t.cartItems[l.ID]; !ok {
		return ErrNotFound
	}
	mc.store.t.cartItems[l.ID] = *l
	return nil
}

func (mc *MemoryCarts) DeleteLine(ctx context.Context, id uuid.UUID) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	if _, ok := mc.store.t.cartItems[id]; !ok {
		return ErrNotFound
	}
	delete(mc.store.t.cartItems, id)
	return nil
}

func (mc *MemoryCarts) ListLines(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	out := make([]domain.CartItem, 0)
	for _, l := range mc.store.t.cartItems {
		if l.CartID == cartID {
			out = append(out, l)
		}
	}
	sortByCreated(out, func(l domain.CartItem) time.Time { return l.CreatedAt })
	return out, nil
}

func (mc *MemoryCarts) ListAllLines(ctx context.Context) ([]domain.CartItem, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	out := make([]domain.CartItem, 0, len(mc.store.t.cartItems))
	for _, l := range mc.store.t.cartItems {
		out = append(out, l)
	}
	sortByCreated(out, func(l domain.CartItem) time.Time { return l.CreatedAt })
	return out, nil
}

func (mc *MemoryCarts) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	for id, l := range mc.store.t.cartItems {
		if l.CartID == cartID {
			delete(mc.store.t.cartItems, id)
		}
	}
	return nil
}

// AddressRepository implementation on wrapper type
type MemoryAddresses struct{ store *MemoryStore }

func NewMemoryAddresses(store *MemoryStore) *MemoryAddresses {
	return &MemoryAddresses{store: store}
}

var _ AddressRepository = (*MemoryAddresses)(nil)

func (ma *MemoryAddresses) Create(ctx context.Context, a *domain.Address) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	newID(&a.ID)
	stamp(&a.CreatedAt)
	ma.store.t.addresses[a.ID] = *a
	return nil
}

func (ma *MemoryAddresses) GetByID(ctx context.Context, id uuid.UUID) (*domain.Address, error) {
	ma.store.rlock(ctx)
	defer ma.store.runlock(ctx)
	a, ok := ma.store.t.addresses[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := a
	return &cp, nil
}

func (ma *MemoryAddresses) Update(ctx context.Context, a *domain.Address) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	if _, ok := ma.store.t.addresses[a.ID]; !ok {
		return ErrNotFound
	}
	ma.store.t.addresses[a.ID] = *a
	return nil
}

func (ma *MemoryAddresses) Delete(ctx context.Context, id uuid.UUID) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	if _, ok := ma.store.t.addresses[id]; !ok {
		return ErrNotFound
	}
	for _, o := range ma.store.t.orders {
		if o.AddressID == id {
			return ErrConflict
		}
	}
	delete(ma.store.t.addresses, id)
	return nil
}

func (ma *MemoryAddresses) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	ma.store.rlock(ctx)
	defer ma.store.runlock(ctx)
	out := make([]domain.Address, 0)
	for _, a := range ma.store.t.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sortByCreated(out, func(a domain.Address) time.Time { return a.CreatedAt })
	return out, nil
}

// GetDefault первый по времени создания адрес с флагом по умолчанию
func (ma *MemoryAddresses) GetDefault(ctx context.Context, userID uuid.UUID) (*domain.Address, error) {
	list, err := ma.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, a := range list {
		if a.IsDefault {
			cp := a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (ma *MemoryAddresses) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	for id, a := range ma.store.t.addresses {
		if a.UserID == userID && a.IsDefault {
			a.IsDefault = false
			ma.store.t.addresses[id] = a
		}
	}
	return nil
}
