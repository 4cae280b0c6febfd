package repository

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// memTables все таблицы in-memory хранилища
type memTables struct {
	users        map[uuid.UUID]domain.User
	categories   map[uuid.UUID]domain.Category
	items        map[uuid.UUID]domain.Item
	carts        map[uuid.UUID]domain.Cart
	cartItems    map[uuid.UUID]domain.CartItem
	addresses    map[uuid.UUID]domain.Address
	orders       map[uuid.UUID]domain.Order
	orderItems   map[uuid.UUID]domain.OrderItem
	coupons      map[uuid.UUID]domain.Coupon
	rowSeq       map[uuid.UUID]int64
	couponUsages map[uuid.UUID]domain.CouponUsage
	seq          int64
}

func newMemTables() *memTables {
	return &memTables{
		users:        make(map[uuid.UUID]domain.User),
		categories:   make(map[uuid.UUID]domain.Category),
		items:        make(map[uuid.UUID]domain.Item),
		carts:        make(map[uuid.UUID]domain.Cart),
		cartItems:    make(map[uuid.UUID]domain.CartItem),
		addresses:    make(map[uuid.UUID]domain.Address),
		orders:       make(map[uuid.UUID]domain.Order),
		orderItems:   make(map[uuid.UUID]domain.OrderItem),
		coupons:      make(map[uuid.UUID]domain.Coupon),
		rowSeq:       make(map[uuid.UUID]int64),
		couponUsages: make(map[uuid.UUID]domain.CouponUsage),
	}
}

// clone shallow-copies every table; rows are values so this is a full snapshot
func (t *memTables) clone() *memTables {
	return &memTables{
		users:        maps.Clone(t.users),
		categories:   maps.Clone(t.categories),
		items:        maps.Clone(t.items),
		carts:        maps.Clone(t.carts),
		cartItems:    maps.Clone(t.cartItems),
		addresses:    maps.Clone(t.addresses),
		orders:       maps.Clone(t.orders),
		orderItems:   maps.Clone(t.orderItems),
		coupons:      maps.Clone(t.coupons),
		rowSeq:       maps.Clone(t.rowSeq),
		couponUsages: maps.Clone(t.couponUsages),
		seq:          t.seq,
	}
}

// MemoryStore объединённое in-memory хранилище
type MemoryStore struct {
	mu sync.RWMutex
	t  *memTables
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{t: newMemTables()}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

func sortByCreated[T any](list []T, created func(T) time.Time) {
	slices.SortStableFunc(list, func(a, b T) int {
		return created(a).Compare(created(b))
	})
}

// Ensure interfaces
var _ ItemRepository = (*MemoryStore)(nil)

// ItemRepository implementation
func (m *MemoryStore) Create(ctx context.Context, it *domain.Item) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	newID(&it.ID)
	stamp(&it.CreatedAt)
	m.t.items[it.ID] = *it
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	it, ok := m.t.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := it
	return &cp, nil
}

func (m *MemoryStore) Update(ctx context.Context, it *domain.Item) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.t.items[it.ID]; !ok {
		return ErrNotFound
	}
	m.t.items[it.ID] = *it
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.t.items[id]; !ok {
		return ErrNotFound
	}
	// order lines keep a reference to the item
	for _, oi := range m.t.orderItems {
		if oi.ItemID == id {
			return ErrConflict
		}
	}
	delete(m.t.items, id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f ItemFilter) ([]domain.Item, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Item, 0)
	for _, it := range m.t.items {
		if f.CategoryID != nil && it.CategoryID != *f.CategoryID {
			continue
		}
		if f.ActiveOnly && !it.IsActive {
			continue
		}
		if f.InStockOnly && it.StockCount <= 0 {
			continue
		}
		out = append(out, it)
	}
	sortByCreated(out, func(it domain.Item) time.Time { return it.CreatedAt })
	return out, nil
}

func (m *MemoryStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Item, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make(map[uuid.UUID]domain.Item, len(ids))
	for _, id := range ids {
		if it, ok := m.t.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

// GetForUpdate inside a MemoryTx the whole store is already write-locked
func (m *MemoryStore) GetForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Item, error) {
	return m.GetByIDs(ctx, ids)
}

func (m *MemoryStore) CountActiveInCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	n := 0
	for _, it := range m.t.items {
		if it.CategoryID == categoryID && it.IsActive {
			n++
		}
	}
	return n, nil
}

// Tx manager using write lock to emulate transaction boundary
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

// WithTransaction держит блокировку записи на всё время fn и откатывает
// таблицы к снимку, если fn вернула ошибку или запаниковала.
func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if isTx(ctx) {
		return fn(ctx)
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	snapshot := tx.store.t.clone()
	committed := false
	defer func() {
		if !committed {
			tx.store.t = snapshot
		}
	}()

	ctx = context.WithValue(ctx, txKey{}, true)
	if err = fn(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}
