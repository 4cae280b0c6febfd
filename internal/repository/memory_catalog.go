package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// CategoryRepository implementation on wrapper type
type MemoryCategories struct{ store *MemoryStore }

func NewMemoryCategories(store *MemoryStore) *MemoryCategories {
	return &MemoryCategories{store: store}
}

var _ CategoryRepository = (*MemoryCategories)(nil)

func (mc *MemoryCategories) Create(ctx context.Context, c *domain.Category) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	newID(&c.ID)
	stamp(&c.CreatedAt)
	mc.store.t.categories[c.ID] = *c
	return nil
}

func (mc *MemoryCategories) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.t.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := c
	return &cp, nil
}

func (mc *MemoryCategories) Update(ctx context.Context, c *domain.Category) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	if _, ok := mc.store.t.categories[c.ID]; !ok {
		return ErrNotFound
	}
	mc.store.t.categories[c.ID] = *c
	return nil
}

func (mc *MemoryCategories) Delete(ctx context.Context, id uuid.UUID) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	if _, ok := mc.store.t.categories[id]; !ok {
		return ErrNotFound
	}
	delete(mc.store.t.categories, id)
	return nil
}

func (mc *MemoryCategories) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	out := make([]domain.Category, 0, len(mc.store.t.categories))
	for _, c := range mc.store.t.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sortByCreated(out, func(c domain.Category) time.Time { return c.CreatedAt })
	return out, nil
}

// UserRepository implementation on wrapper type
type MemoryUsers struct{ store *MemoryStore }

func NewMemoryUsers(store *MemoryStore) *MemoryUsers { return &MemoryUsers{store: store} }

var _ UserRepository = (*MemoryUsers)(nil)

func (mu *MemoryUsers) Create(ctx context.Context, u *domain.User) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	for _, existing := range mu.store.t.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return ErrConflict
		}
	}
	newID(&u.ID)
	stamp(&u.CreatedAt)
	mu.store.t.users[u.ID] = *u
	return nil
}

func (mu *MemoryUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	u, ok := mu.store.t.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (mu *MemoryUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	for _, u := range mu.store.t.users {
		if strings.EqualFold(u.Username, username) {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (mu *MemoryUsers) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	out := make(map[uuid.UUID]domain.User, len(ids))
	for _, id := range ids {
		if u, ok := mu.store.t.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}
