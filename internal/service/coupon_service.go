package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// CouponService выдача, проверка и погашение купонов
type CouponService struct {
	coupons repository.CouponRepository
	tx      repository.TxManager
	now     func() time.Time
}

func NewCouponService(coupons repository.CouponRepository, tx repository.TxManager) *CouponService {
	return &CouponService{
		coupons: coupons,
		tx:      tx,
		now:     time.Now,
	}
}

// WithClock подменяет источник времени
func (s *CouponService) WithClock(now func() time.Time) *CouponService {
	s.now = now
	return s
}

// CouponPatch частичное обновление купона
type CouponPatch struct {
	Code            *string
	DiscountPercent *decimal.Decimal
	ValidFrom       *time.Time
	ValidTo         *time.Time
	UsageLimit      *int64
	IsActive        *bool
}

func validCoupon(c domain.Coupon) bool {
	if c.Code == "" || c.UsageLimit < 0 || c.UsageCount < 0 {
		return false
	}
	if !c.DiscountPercent.IsPositive() || c.DiscountPercent.GreaterThan(hundred) {
		return false
	}
	return !c.ValidTo.Before(c.ValidFrom)
}

// ensureNoLive проверяет, что кроме except нет живой записи с тем же кодом.
// Вызывается под LockCode внутри транзакции.
func (s *CouponService) ensureNoLive(ctx context.Context, code string, except uuid.UUID) error {
	if err := s.coupons.LockCode(ctx, code); err != nil {
		return err
	}
	rows, err := s.coupons.ListByCode(ctx, code)
	if err != nil {
		return err
	}
	now := s.now()
	for _, c := range rows {
		if c.ID != except && c.Live(now) {
			return ErrConflict
		}
	}
	return nil
}

// Create новый купон, только для администратора
func (s *CouponService) Create(ctx context.Context, p domain.Principal, c domain.Coupon) (*domain.Coupon, error) {
	if !p.IsAdmin {
		return nil, ErrForbidden
	}
	c.Code = strings.TrimSpace(c.Code)
	c.ID = uuid.Nil
	c.UsageCount = 0
	if !validCoupon(c) {
		return nil, ErrInvalidInput
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if c.IsActive {
			if err := s.ensureNoLive(ctx, c.Code, uuid.Nil); err != nil {
				return err
			}
		}
		return s.coupons.Create(ctx, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Update правит купон; активация или смена кода проходят ту же проверку, что и Create
func (s *CouponService) Update(ctx context.Context, p domain.Principal, id uuid.UUID, patch CouponPatch) (*domain.Coupon, error) {
	if !p.IsAdmin {
		return nil, ErrForbidden
	}
	var updated *domain.Coupon
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.coupons.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if patch.Code != nil {
			c.Code = strings.TrimSpace(*patch.Code)
		}
		if patch.DiscountPercent != nil {
			c.DiscountPercent = *patch.DiscountPercent
		}
		if patch.ValidFrom != nil {
			c.ValidFrom = *patch.ValidFrom
		}
		if patch.ValidTo != nil {
			c.ValidTo = *patch.ValidTo
		}
		if patch.UsageLimit != nil {
			c.UsageLimit = *patch.UsageLimit
		}
		if patch.IsActive != nil {
			c.IsActive = *patch.IsActive
		}
		if !validCoupon(*c) {
			return ErrInvalidInput
		}
		if c.IsActive {
			if err := s.ensureNoLive(ctx, c.Code, c.ID); err != nil {
				return err
			}
		}
		if err := s.coupons.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// List администратор видит все купоны, остальные только активные
func (s *CouponService) List(ctx context.Context, p domain.Principal) ([]domain.Coupon, error) {
	return s.coupons.List(ctx, !p.IsAdmin)
}

// check classifies why c cannot be redeemed by userID right now
func (s *CouponService) check(ctx context.Context, c *domain.Coupon, userID uuid.UUID) error {
	now := s.now()
	if !c.InWindow(now) {
		return ErrExpired
	}
	if c.Exhausted() {
		return ErrLimitReached
	}
	used, err := s.coupons.HasUsage(ctx, userID, c.ID)
	if err != nil {
		return err
	}
	if used {
		return ErrAlreadyUsed
	}
	return nil
}

func (s *CouponService) latest(ctx context.Context, code string) (*domain.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCode
	}
	c, err := s.coupons.LatestActiveByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCode
	}
	return c, err
}

// Validate проверяет, может ли пользователь применить код, ничего не списывая
func (s *CouponService) Validate(ctx context.Context, p domain.Principal, code string) (*domain.Coupon, error) {
	c, err := s.latest(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.check(ctx, c, p.UserID); err != nil {
		return nil, err
	}
	return c, nil
}

// Redeem погашает код. При вызове из оформления заказа присоединяется к его транзакции.
func (s *CouponService) Redeem(ctx context.Context, p domain.Principal, code string) (*domain.CouponUsage, error) {
	_, usage, err := s.redeem(ctx, p, code)
	return usage, err
}

func (s *CouponService) redeem(ctx context.Context, p domain.Principal, code string) (*domain.Coupon, *domain.CouponUsage, error) {
	var (
		coupon *domain.Coupon
		usage  *domain.CouponUsage
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.latest(ctx, code)
		if err != nil {
			return err
		}
		// re-read under the row lock; the unlocked read only picked the row
		c, err = s.coupons.GetForUpdate(ctx, c.ID)
		if err != nil {
			return err
		}
		if !c.IsActive {
			return ErrInvalidCode
		}
		if err := s.check(ctx, c, p.UserID); err != nil {
			return err
		}
		u := domain.CouponUsage{UserID: p.UserID, CouponID: c.ID}
		if err := s.coupons.CreateUsage(ctx, &u); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrAlreadyUsed
			}
			return err
		}
		c.UsageCount++
		if err := s.coupons.Update(ctx, c); err != nil {
			return err
		}
		coupon, usage = c, &u
		return nil
	})

	l := logging.FromCtx(ctx)
	if err != nil {
		metrics.CouponRedemptions.WithLabelValues(redemptionResult(err)).Inc()
		l.Info("coupon redemption rejected", "user_id", p.UserID, "code", code, "err", err)
		return nil, nil, err
	}
	metrics.CouponRedemptions.WithLabelValues(metrics.ResultSuccess).Inc()
	l.Info("coupon redeemed", "user_id", p.UserID, "coupon_id", coupon.ID, "usage_count", coupon.UsageCount)
	return coupon, usage, nil
}

func redemptionResult(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCode), errors.Is(err, ErrExpired),
		errors.Is(err, ErrLimitReached), errors.Is(err, ErrAlreadyUsed):
		return metrics.ResultRejected
	default:
		return metrics.ResultError
	}
}
