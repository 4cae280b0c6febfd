package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront/internal/domain"
)

const couponColumns = `id, code, discount_percent, valid_from, valid_to, usage_limit, usage_count, is_active, created_at`

func scanCoupon(row pgx.Row) (domain.Coupon, error) {
	var c domain.Coupon
	err := row.Scan(&c.ID, &c.Code, &c.DiscountPercent, &c.ValidFrom, &c.ValidTo,
		&c.UsageLimit, &c.UsageCount, &c.IsActive, &c.CreatedAt)
	return c, err
}

// PgCoupons CouponRepository поверх PostgreSQL
type PgCoupons struct{ store *PgStore }

func NewPgCoupons(store *PgStore) *PgCoupons { return &PgCoupons{store: store} }

var _ CouponRepository = (*PgCoupons)(nil)

func (r *PgCoupons) Create(ctx context.Context, c *domain.Coupon) error {
	newID(&c.ID)
	stamp(&c.CreatedAt)
	_, err := r.store.q(ctx).Exec(ctx,
		`INSERT INTO coupons (`+couponColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.Code, c.DiscountPercent, c.ValidFrom, c.ValidTo, c.UsageLimit, c.UsageCount, c.IsActive, c.CreatedAt)
	return mapErr(err)
}

func (r *PgCoupons) one(ctx context.Context, sql string, args ...any) (*domain.Coupon, error) {
	c, err := scanCoupon(r.store.q(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *PgCoupons) GetByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	return r.one(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id=$1`, id)
}

func (r *PgCoupons) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	return r.one(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id=$1 FOR UPDATE`, id)
}

func (r *PgCoupons) Update(ctx context.Context, c *domain.Coupon) error {
	return affected(r.store.q(ctx).Exec(ctx, `
UPDATE coupons SET code=$2, discount_percent=$3, valid_from=$4, valid_to=$5,
    usage_limit=$6, usage_count=$7, is_active=$8
WHERE id=$1`,
		c.ID, c.Code, c.DiscountPercent, c.ValidFrom, c.ValidTo, c.UsageLimit, c.UsageCount, c.IsActive))
}

func (r *PgCoupons) List(ctx context.Context, activeOnly bool) ([]domain.Coupon, error) {
	rows, err := r.store.q(ctx).Query(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE ($1 = false OR is_active) ORDER BY created_at`, activeOnly)
	return collect(rows, err, scanCoupon)
}

func (r *PgCoupons) LatestActiveByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	return r.one(ctx, `
SELECT `+couponColumns+` FROM coupons
WHERE code=$1 AND is_active
ORDER BY created_at DESC
LIMIT 1`, code)
}

func (r *PgCoupons) ListByCode(ctx context.Context, code string) ([]domain.Coupon, error) {
	rows, err := r.store.q(ctx).Query(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code=$1 ORDER BY created_at`, code)
	return collect(rows, err, scanCoupon)
}

// LockCode takes a transaction-scoped advisory lock keyed by the code
func (r *PgCoupons) LockCode(ctx context.Context, code string) error {
	_, err := r.store.q(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, code)
	return mapErr(err)
}

func (r *PgCoupons) CreateUsage(ctx context.Context, u *domain.CouponUsage) error {
	newID(&u.ID)
	stamp(&u.CreatedAt)
	_, err := r.store.q(ctx).Exec(ctx,
		`INSERT INTO coupon_usages (id, user_id, coupon_id, created_at) VALUES ($1,$2,$3,$4)`,
		u.ID, u.UserID, u.CouponID, u.CreatedAt)
	return mapErr(err)
}

func (r *PgCoupons) HasUsage(ctx context.Context, userID, couponID uuid.UUID) (bool, error) {
	var exists bool
	err := r.store.q(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM coupon_usages WHERE user_id=$1 AND coupon_id=$2)`,
		userID, couponID).Scan(&exists)
	return exists, mapErr(err)
}
