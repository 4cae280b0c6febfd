package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront/internal/domain"
)

const itemColumns = `id, owner_id, category_id, description, rate, is_active, stock_count, created_at`

func scanItem(row pgx.Row) (domain.Item, error) {
	var it domain.Item
	var owner *uuid.UUID
	err := row.Scan(&it.ID, &owner, &it.CategoryID, &it.Description, &it.Rate, &it.IsActive, &it.StockCount, &it.CreatedAt)
	if owner != nil {
		it.OwnerID = *owner
	}
	return it, err
}

func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// PgItems ItemRepository поверх PostgreSQL
type PgItems struct{ store *PgStore }

func NewPgItems(store *PgStore) *PgItems { return &PgItems{store: store} }

var _ ItemRepository = (*PgItems)(nil)

func (r *PgItems) Create(ctx context.Context, it *domain.Item) error {
	newID(&it.ID)
	stamp(&it.CreatedAt)
	_, err := r.store.q(ctx).Exec(ctx, `
INSERT INTO items (`+itemColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		it.ID, nullableID(it.OwnerID), it.CategoryID, it.Description, it.Rate, it.IsActive, it.StockCount, it.CreatedAt)
	return mapErr(err)
}

func (r *PgItems) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	it, err := scanItem(r.store.q(ctx).QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &it, nil
}

func (r *PgItems) Update(ctx context.Context, it *domain.Item) error {
	return affected(r.store.q(ctx).Exec(ctx, `
UPDATE items SET category_id=$2, description=$3, rate=$4, is_active=$5, stock_count=$6
WHERE id=$1`,
		it.ID, it.CategoryID, it.Description, it.Rate, it.IsActive, it.StockCount))
}

func (r *PgItems) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.store.q(ctx).Exec(ctx, `DELETE FROM items WHERE id=$1`, id))
}

func (r *PgItems) List(ctx context.Context, f ItemFilter) ([]domain.Item, error) {
	var (
		where []string
		args  []any
	)
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		where = append(where, "category_id=$1")
	}
	if f.ActiveOnly {
		where = append(where, "is_active")
	}
	if f.InStockOnly {
		where = append(where, "stock_count > 0")
	}
	sql := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY created_at`
	rows, err := r.store.q(ctx).Query(ctx, sql, args...)
	return collect(rows, err, scanItem)
}

func (r *PgItems) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Item, error) {
	rows, err := r.store.q(ctx).Query(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ANY($1)`, ids)
	return indexItems(collect(rows, err, scanItem))
}

// GetForUpdate locks rows in id order so concurrent checkouts cannot deadlock
func (r *PgItems) GetForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Item, error) {
	rows, err := r.store.q(ctx).Query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	return indexItems(collect(rows, err, scanItem))
}

func indexItems(list []domain.Item, err error) (map[uuid.UUID]domain.Item, error) {
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]domain.Item, len(list))
	for _, it := range list {
		out[it.ID] = it
	}
	return out, nil
}

func (r *PgItems) CountActiveInCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var n int
	err := r.store.q(ctx).QueryRow(ctx,
		`SELECT count(*) FROM items WHERE category_id=$1 AND is_active`, categoryID).Scan(&n)
	return n, mapErr(err)
}

const categoryColumns = `id, owner_id, name, is_active, created_at`

func scanCategory(row pgx.Row) (domain.Category, error) {
	var c domain.Category
	var owner *uuid.UUID
	err := row.Scan(&c.ID, &owner, &c.Name, &c.IsActive, &c.CreatedAt)
	if owner != nil {
		c.OwnerID = *owner
	}
	return c, err
}

// PgCategories CategoryRepository поверх PostgreSQL
type PgCategories struct{ store *PgStore }

func NewPgCategories(store *PgStore) *PgCategories { return &PgCategories{store: store} }

var _ CategoryRepository = (*PgCategories)(nil)

func (r *PgCategories) Create(ctx context.Context, c *domain.Category) error {
	newID(&c.ID)
	stamp(&c.CreatedAt)
	_, err := r.store.q(ctx).Exec(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES ($1,$2,$3,$4,$5)`,
		c.ID, nullableID(c.OwnerID), c.Name, c.IsActive, c.CreatedAt)
	return mapErr(err)
}

func (r *PgCategories) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	c, err := scanCategory(r.store.q(ctx).QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *PgCategories) Update(ctx context.Context, c *domain.Category) error {
	return affected(r.store.q(ctx).Exec(ctx,
		`UPDATE categories SET name=$2, is_active=$3 WHERE id=$1`, c.ID, c.Name, c.IsActive))
}

func (r *PgCategories) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.store.q(ctx).Exec(ctx, `DELETE FROM categories WHERE id=$1`, id))
}

func (r *PgCategories) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	rows, err := r.store.q(ctx).Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE ($1 = false OR is_active) ORDER BY created_at`, activeOnly)
	return collect(rows, err, scanCategory)
}

const userColumns = `id, username, email, password_hash, is_admin, created_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

// PgUsers UserRepository поверх PostgreSQL
type PgUsers struct{ store *PgStore }

func NewPgUsers(store *PgStore) *PgUsers { return &PgUsers{store: store} }

var _ UserRepository = (*PgUsers)(nil)

func (r *PgUsers) Create(ctx context.Context, u *domain.User) error {
	newID(&u.ID)
	stamp(&u.CreatedAt)
	_, err := r.store.q(ctx).Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.IsAdmin, u.CreatedAt)
	return mapErr(err)
}

func (r *PgUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := scanUser(r.store.q(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *PgUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(r.store.q(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username)=lower($1)`, username))
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *PgUsers) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.User, error) {
	rows, err := r.store.q(ctx).Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	list, err := collect(rows, err, scanUser)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]domain.User, len(list))
	for _, u := range list {
		out[u.ID] = u
	}
	return out, nil
}
