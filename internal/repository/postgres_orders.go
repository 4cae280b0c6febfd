package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront/internal/domain"
)

const orderColumns = `id, user_id, cart_id, address_id, total_amount, coupon_id, discount_percent,
discount_amount, payable_amount, is_paid, created_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.CartID, &o.AddressID, &o.TotalAmount, &o.CouponID,
		&o.DiscountPercent, &o.DiscountAmount, &o.PayableAmount, &o.IsPaid, &o.CreatedAt)
	return o, err
}

// PgOrders OrderRepository поверх PostgreSQL
type PgOrders struct{ store *PgStore }

func NewPgOrders(store *PgStore) *PgOrders { return &PgOrders{store: store} }

var _ OrderRepository = (*PgOrders)(nil)

func (r *PgOrders) Create(ctx context.Context, o *domain.Order) error {
	newID(&o.ID)
	stamp(&o.CreatedAt)
	_, err := r.store.q(ctx).Exec(ctx, `
INSERT INTO orders (`+orderColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		o.ID, o.UserID, o.CartID, o.AddressID, o.TotalAmount, o.CouponID, o.DiscountPercent,
		o.DiscountAmount, o.PayableAmount, o.IsPaid, o.CreatedAt)
	return mapErr(err)
}

func (r *PgOrders) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, err := scanOrder(r.store.q(ctx).QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (r *PgOrders) Update(ctx context.Context, o *domain.Order) error {
	return affected(r.store.q(ctx).Exec(ctx, `
UPDATE orders SET total_amount=$2, coupon_id=$3, discount_percent=$4, discount_amount=$5,
    payable_amount=$6, is_paid=$7
WHERE id=$1`,
		o.ID, o.TotalAmount, o.CouponID, o.DiscountPercent, o.DiscountAmount, o.PayableAmount, o.IsPaid))
}

func (r *PgOrders) List(ctx context.Context, userID *uuid.UUID) ([]domain.Order, error) {
	rows, err := r.store.q(ctx).Query(ctx, `
SELECT `+orderColumns+` FROM orders
WHERE ($1::uuid IS NULL OR user_id=$1)
ORDER BY created_at`, userID)
	return collect(rows, err, scanOrder)
}

const orderItemColumns = `id, order_id, item_id, description, quantity, rate, line_total, created_at`

func scanOrderItem(row pgx.Row) (domain.OrderItem, error) {
	var it domain.OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.ItemID, &it.Description, &it.Quantity, &it.Rate, &it.LineTotal, &it.CreatedAt)
	return it, err
}

func (r *PgOrders) CreateItem(ctx context.Context, it *domain.OrderItem) error {
	newID(&it.ID)
	stamp(&it.CreatedAt)
	_, err := r.store.q(ctx).Exec(ctx,
		`INSERT INTO order_items (`+orderItemColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		it.ID, it.OrderID, it.ItemID, it.Description, it.Quantity, it.Rate, it.LineTotal, it.CreatedAt)
	return mapErr(err)
}

func (r *PgOrders) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.store.q(ctx).Query(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE order_id=$1 ORDER BY created_at`, orderID)
	return collect(rows, err, scanOrderItem)
}
