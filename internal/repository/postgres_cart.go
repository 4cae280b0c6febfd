package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront/internal/domain"
)

// PgCarts CartRepository поверх PostgreSQL
type PgCarts struct{ store *PgStore }

func NewPgCarts(store *PgStore) *PgCarts { return &PgCarts{store: store} }

var _ CartRepository = (*PgCarts)(nil)

func scanCart(row pgx.Row) (domain.Cart, error) {
	var c domain.Cart
	err := row.Scan(&c.ID, &c.UserID, &c.CreatedAt)
	return c, err
}

func (r *PgCarts) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	_, err := r.store.q(ctx).Exec(ctx, `
INSERT INTO carts (id, user_id, created_at) VALUES ($1, $2, now())
ON CONFLICT (user_id) DO NOTHING`, uuid.New(), userID)
	if err != nil {
		return nil, mapErr(err)
	}
	return r.GetByUser(ctx, userID)
}

func (r *PgCarts) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	c, err := scanCart(r.store.q(ctx).QueryRow(ctx,
		`SELECT id, user_id, created_at FROM carts WHERE user_id=$1`, userID))
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

// GetByUserForUpdate serializes checkouts of the same cart
func (r *PgCarts) GetByUserForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	c, err := scanCart(r.store.q(ctx).QueryRow(ctx,
		`SELECT id, user_id, created_at FROM carts WHERE user_id=$1 FOR UPDATE`, userID))
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *PgCarts) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	c, err := scanCart(r.store.q(ctx).QueryRow(ctx,
		`SELECT id, user_id, created_at FROM carts WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

const cartItemColumns = `id, cart_id, item_id, quantity, created_at`

func scanCartItem(row pgx.Row) (domain.CartItem, error) {
	var l domain.CartItem
	err := row.Scan(&l.ID, &l.CartID, &l.ItemID, &l.Quantity, &l.CreatedAt)
	return l, err
}

func (r *PgCarts) GetLine(ctx context.Context, cartID, itemID uuid.UUID) (*domain.CartItem, error) {
	l, err := scanCartItem(r.store.q(ctx).QueryRow(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id=$1 AND item_id=$2`, cartID, itemID))
	if err != nil {
		return nil, mapErr(err)
	}
	return &l, nil
}

func (r *PgCarts) GetLineByID(ctx context.Context, id uuid.UUID) (*domain.CartItem, error) {
	l, err := scanCartItem(r.store.q(ctx).QueryRow(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &l, nil
}

func (r *PgCarts) CreateLine(ctx context.Context, l *domain.CartItem) error {
	newID(&l.ID)
	stamp(&l.CreatedAt)
	_, err := r.store.q(ctx).Exec(ctx,
		`INSERT INTO cart_items (`+cartItemColumns+`) VALUES ($1,$2,$3,$4,$5)`,
		l.ID, l.CartID, l.ItemID, l.Quantity, l.CreatedAt)
	return mapErr(err)
}

func (r *PgCarts) UpdateLine(ctx context.Context, l *domain.CartItem) error {
	return affected(r.store.q(ctx).Exec(ctx,
		`UPDATE cart_items SET quantity=$2 WHERE id=$1`, l.ID, l.Quantity))
}

func (r *PgCarts) DeleteLine(ctx context.Context, id uuid.UUID) error {
	return affected(r.store.q(ctx).Exec(ctx, `DELETE FROM cart_items WHERE id=$1`, id))
}

func (r *PgCarts) ListLines(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	rows, err := r.store.q(ctx).Query(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id=$1 ORDER BY created_at`, cartID)
	return collect(rows, err, scanCartItem)
}

func (r *PgCarts) ListAllLines(ctx context.Context) ([]domain.CartItem, error) {
	rows, err := r.store.q(ctx).Query(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items ORDER BY created_at`)
	return collect(rows, err, scanCartItem)
}

func (r *PgCarts) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	_, err := r.store.q(ctx).Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID)
	return mapErr(err)
}

const addressColumns = `id, user_id, address_line, city, state, postal_code, country, is_default, created_at`

func scanAddress(row pgx.Row) (domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.UserID, &a.AddressLine, &a.City, &a.State, &a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt)
	return a, err
}

// PgAddresses AddressRepository поверх PostgreSQL
type PgAddresses struct{ store *PgStore }

func NewPgAddresses(store *PgStore) *PgAddresses { return &PgAddresses{store: store} }

var _ AddressRepository = (*PgAddresses)(nil)

func (r *PgAddresses) Create(ctx context.Context, a *domain.Address) error {
	newID(&a.ID)
	stamp(&a.CreatedAt)
	_, err := r.store.q(ctx).Exec(ctx,
		`INSERT INTO addresses (`+addressColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.UserID, a.AddressLine, a.City, a.State, a.PostalCode, a.Country, a.IsDefault, a.CreatedAt)
	return mapErr(err)
}

func (r *PgAddresses) GetByID(ctx context.Context, id uuid.UUID) (*domain.Address, error) {
	a, err := scanAddress(r.store.q(ctx).QueryRow(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (r *PgAddresses) Update(ctx context.Context, a *domain.Address) error {
	return affected(r.store.q(ctx).Exec(ctx, `
UPDATE addresses SET address_line=$2, city=$3, state=$4, postal_code=$5, country=$6, is_default=$7
WHERE id=$1`,
		a.ID, a.AddressLine, a.City, a.State, a.PostalCode, a.Country, a.IsDefault))
}

func (r *PgAddresses) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.store.q(ctx).Exec(ctx, `DELETE FROM addresses WHERE id=$1`, id))
}

func (r *PgAddresses) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	rows, err := r.store.q(ctx).Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id=$1 ORDER BY created_at`, userID)
	return collect(rows, err, scanAddress)
}

func (r *PgAddresses) GetDefault(ctx context.Context, userID uuid.UUID) (*domain.Address, error) {
	a, err := scanAddress(r.store.q(ctx).QueryRow(ctx, `
SELECT `+addressColumns+` FROM addresses
WHERE user_id=$1 AND is_default
ORDER BY created_at LIMIT 1`, userID))
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (r *PgAddresses) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	_, err := r.store.q(ctx).Exec(ctx,
		`UPDATE addresses SET is_default=false WHERE user_id=$1 AND is_default`, userID)
	return mapErr(err)
}
