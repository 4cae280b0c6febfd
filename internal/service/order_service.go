package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/repository"
)

// OrderService оформление заказа из корзины и чтение заказов
type OrderService struct {
	items     repository.ItemRepository
	carts     repository.CartRepository
	addresses repository.AddressRepository
	orders    repository.OrderRepository
	users     repository.UserRepository
	coupons   *CouponService
	tx        repository.TxManager
}

func NewOrderService(stores *repository.Stores, coupons *CouponService) *OrderService {
	return &OrderService{
		items:     stores.Items,
		carts:     stores.Carts,
		addresses: stores.Addresses,
		orders:    stores.Orders,
		users:     stores.Users,
		coupons:   coupons,
		tx:        stores.Tx,
	}
}

// PlaceOrderInput необязательные параметры оформления
type PlaceOrderInput struct {
	AddressID  *uuid.UUID
	CouponCode string
}

func (s *OrderService) resolveAddress(ctx context.Context, userID uuid.UUID, id *uuid.UUID) (*domain.Address, error) {
	if id != nil {
		a, err := s.addresses.GetByID(ctx, *id)
		if err != nil {
			return nil, err
		}
		if a.UserID != userID {
			return nil, ErrNotFound
		}
		return a, nil
	}
	a, err := s.addresses.GetDefault(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoAddress
	}
	return a, err
}

// PlaceOrder превращает корзину в заказ: перепроверяет остатки, списывает их,
// фиксирует цены позиций, при необходимости гасит купон и очищает корзину.
// Всё выполняется в одной транзакции.
func (s *OrderService) PlaceOrder(ctx context.Context, p domain.Principal, in PlaceOrderInput) (*domain.Order, error) {
	order, err := s.placeOrder(ctx, p, in)
	l := logging.FromCtx(ctx)
	if err != nil {
		metrics.Checkouts.WithLabelValues(checkoutResult(err)).Inc()
		l.Warn("checkout failed", "user_id", p.UserID, "err", err)
		return nil, err
	}
	metrics.Checkouts.WithLabelValues(metrics.ResultSuccess).Inc()
	l.Info("order placed",
		"user_id", p.UserID,
		"order_id", order.ID,
		"code", order.Code(),
		"total", order.TotalAmount.StringFixed(2),
		"payable", order.PayableAmount.StringFixed(2),
	)
	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, p domain.Principal, in PlaceOrderInput) (*domain.Order, error) {
	addr, err := s.resolveAddress(ctx, p.UserID, in.AddressID)
	if err != nil {
		return nil, err
	}

	var created *domain.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		// a concurrent checkout of the same cart waits here and then sees no lines
		cart, err := s.carts.GetByUserForUpdate(ctx, p.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}
		lines, err := s.carts.ListLines(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		o := domain.Order{
			UserID:    p.UserID,
			CartID:    cart.ID,
			AddressID: addr.ID,
		}
		if err := s.orders.Create(ctx, &o); err != nil {
			return err
		}

		ids := make([]uuid.UUID, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ItemID)
		}
		items, err := s.items.GetForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		// recheck everything before the first write
		for _, l := range lines {
			it, ok := items[l.ItemID]
			if !ok {
				return ErrNotFound
			}
			if it.StockCount < l.Quantity {
				return &InsufficientStockError{
					ItemID:      it.ID,
					Description: it.Description,
					Requested:   l.Quantity,
					Available:   it.StockCount,
				}
			}
		}

		total := decimal.Zero
		for _, l := range lines {
			it := items[l.ItemID]
			it.StockCount -= l.Quantity
			if err := s.items.Update(ctx, &it); err != nil {
				return err
			}
			items[l.ItemID] = it

			oi := domain.OrderItem{
				OrderID:     o.ID,
				ItemID:      it.ID,
				Description: it.Description,
				Quantity:    l.Quantity,
				Rate:        it.Rate,
				LineTotal:   it.Rate.Mul(decimal.NewFromInt(l.Quantity)),
			}
			if err := s.orders.CreateItem(ctx, &oi); err != nil {
				return err
			}
			o.Items = append(o.Items, oi)
			total = total.Add(oi.LineTotal)
		}

		o.TotalAmount = total
		o.DiscountAmount = decimal.Zero
		o.PayableAmount = total
		if in.CouponCode != "" {
			coupon, _, err := s.coupons.redeem(ctx, p, in.CouponCode)
			if err != nil {
				return err
			}
			applyDiscount(&o, coupon)
		}

		if err := s.orders.Update(ctx, &o); err != nil {
			return err
		}
		if err := s.carts.ClearLines(ctx, cart.ID); err != nil {
			return err
		}
		created = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// applyDiscount записывает скидку отдельной строкой, TotalAmount не меняется
func applyDiscount(o *domain.Order, c *domain.Coupon) {
	id := c.ID
	o.CouponID = &id
	o.DiscountPercent = c.DiscountPercent
	o.DiscountAmount = o.TotalAmount.Mul(c.DiscountPercent).Div(hundred).Round(2)
	o.PayableAmount = o.TotalAmount.Sub(o.DiscountAmount)
}

func checkoutResult(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrNoAddress),
		errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrNotFound):
		return metrics.ResultRejected
	case errors.Is(err, ErrInvalidCode), errors.Is(err, ErrExpired),
		errors.Is(err, ErrLimitReached), errors.Is(err, ErrAlreadyUsed):
		return metrics.ResultRejected
	default:
		return metrics.ResultError
	}
}

// visible заказ доступен владельцу и администратору; чужой выглядит как отсутствующий
func visible(p domain.Principal, o *domain.Order) bool {
	return p.IsAdmin || o.UserID == p.UserID
}

// GetOrder возвращает заказ вместе с позициями
func (s *OrderService) GetOrder(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Order, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidInput
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(p, o) {
		return nil, ErrNotFound
	}
	items, err := s.orders.ListItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// ListOrders свои заказы, администратор видит все
func (s *OrderService) ListOrders(ctx context.Context, p domain.Principal) ([]domain.Order, error) {
	if p.IsAdmin {
		return s.orders.List(ctx, nil)
	}
	uid := p.UserID
	return s.orders.List(ctx, &uid)
}

// MarkPaid отмечает заказ оплаченным, повторный вызов ничего не меняет
func (s *OrderService) MarkPaid(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Order, error) {
	if !p.IsAdmin {
		return nil, ErrForbidden
	}
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !o.IsPaid {
			o.IsPaid = true
			if err := s.orders.Update(ctx, o); err != nil {
				return err
			}
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Invoice проекция заказа для счёта: покупатель, адрес и позиции по зафиксированным ценам
func (s *OrderService) Invoice(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Invoice, error) {
	o, err := s.GetOrder(ctx, p, id)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, o.UserID)
	if err != nil {
		return nil, err
	}
	addr, err := s.addresses.GetByID(ctx, o.AddressID)
	if err != nil {
		return nil, err
	}

	status := "UNPAID"
	if o.IsPaid {
		status = "PAID"
	}
	inv := &domain.Invoice{
		OrderID:        o.ID,
		OrderCode:      o.Code(),
		Customer:       u.Username,
		ShippingTo:     addr.String(),
		OrderDate:      o.CreatedAt.Truncate(time.Minute),
		PaymentStatus:  status,
		Lines:          make([]domain.InvoiceLine, 0, len(o.Items)),
		GrandTotal:     o.TotalAmount,
		DiscountAmount: o.DiscountAmount,
		AmountDue:      o.PayableAmount,
	}
	for _, it := range o.Items {
		inv.Lines = append(inv.Lines, domain.InvoiceLine{
			Description: it.Description,
			Quantity:    it.Quantity,
			Rate:        it.Rate,
			LineTotal:   it.LineTotal,
		})
	}
	return inv, nil
}
