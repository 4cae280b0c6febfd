package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon скидочный купон. Код не уникален во времени: у одного кода
// может быть несколько исторических записей.
type Coupon struct {
	ID              uuid.UUID       `json:"id"`
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	ValidFrom       time.Time       `json:"valid_from"`
	ValidTo         time.Time       `json:"valid_to"`
	UsageLimit      int64           `json:"usage_limit"` // 0 = unlimited
	UsageCount      int64           `json:"usage_count"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// InWindow сообщает, попадает ли момент now в окно действия
func (c Coupon) InWindow(now time.Time) bool {
	return !now.Before(c.ValidFrom) && !now.After(c.ValidTo)
}

// Exhausted лимит использований исчерпан
func (c Coupon) Exhausted() bool {
	return c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit
}

// IsValid active AND valid_from <= now <= valid_to AND (limit == 0 OR count < limit)
func (c Coupon) IsValid(now time.Time) bool {
	return c.IsActive && c.InWindow(now) && !c.Exhausted()
}

// Live запись ещё может быть выбрана по коду: активна, не истекла и не исчерпана.
// Используется для запрета конфликтующих кодов.
func (c Coupon) Live(now time.Time) bool {
	return c.IsActive && !now.After(c.ValidTo) && !c.Exhausted()
}

// CouponUsage факт погашения купона пользователем, уникален по (user, coupon)
type CouponUsage struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CouponID  uuid.UUID `json:"coupon_id"`
	CreatedAt time.Time `json:"created_at"`
}
