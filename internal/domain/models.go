package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User учётная запись покупателя или администратора
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal идентичность автора запроса, передаётся явно в каждую операцию
type Principal struct {
	UserID   uuid.UUID
	Username string
	IsAdmin  bool
}

// Category категория каталога
type Category struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryView категория вместе с её товарами
type CategoryView struct {
	Category
	Items []Item `json:"items"`
}

// Item товар каталога. StockCount никогда не бывает отрицательным
type Item struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Description string          `json:"description"`
	Rate        decimal.Decimal `json:"rate"`
	IsActive    bool            `json:"is_active"`
	StockCount  int64           `json:"stock_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Cart корзина пользователя (1:1), создаётся лениво
type Cart struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CartItem строка корзины, уникальна по паре (cart, item)
type CartItem struct {
	ID        uuid.UUID `json:"id"`
	CartID    uuid.UUID `json:"cart_id"`
	ItemID    uuid.UUID `json:"item"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemDetails read-only проекция товара внутри строки корзины
type ItemDetails struct {
	Description string          `json:"description"`
	Rate        decimal.Decimal `json:"rate"`
	StockCount  int64           `json:"stock_count"`
}

// UserRef краткие данные владельца для привилегированного списка
type UserRef struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// CartLine строка корзины вместе с товаром
type CartLine struct {
	CartItem
	ItemDetails ItemDetails `json:"item_details"`
	User        *UserRef    `json:"user,omitempty"`
}

// Address адрес доставки
type Address struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user"`
	AddressLine string    `json:"address_line"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	PostalCode  string    `json:"postal_code"`
	Country     string    `json:"country"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
}

// String однострочное представление для счёта
func (a Address) String() string {
	parts := []string{a.AddressLine, a.City, a.State, a.PostalCode, a.Country}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// Order неизменяемый снимок оформленного заказа.
// TotalAmount равен сумме LineTotal позиций; скидка учитывается отдельно.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	CartID          uuid.UUID       `json:"cart_id"`
	AddressID       uuid.UUID       `json:"address_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	CouponID        *uuid.UUID      `json:"coupon_id,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	PayableAmount   decimal.Decimal `json:"payable_amount"`
	IsPaid          bool            `json:"is_paid"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []OrderItem     `json:"items,omitempty"`
}

// Code короткий код заказа для отображения
func (o Order) Code() string {
	return ShortCode(o.ID)
}

// ShortCode первые 8 символов идентификатора в верхнем регистре
func ShortCode(id uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

// OrderItem неизменяемая позиция заказа, цена фиксируется на момент оформления
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ItemID      uuid.UUID       `json:"item_id"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	LineTotal   decimal.Decimal `json:"line_total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Invoice проекция заказа для счёта
type Invoice struct {
	OrderID        uuid.UUID       `json:"order_id"`
	OrderCode      string          `json:"order_code"`
	Customer       string          `json:"customer"`
	ShippingTo     string          `json:"shipping_address"`
	OrderDate      time.Time       `json:"order_date"`
	PaymentStatus  string          `json:"payment_status"`
	Lines          []InvoiceLine   `json:"lines"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	AmountDue      decimal.Decimal `json:"amount_due"`
}

// InvoiceLine строка счёта
type InvoiceLine struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	LineTotal   decimal.Decimal `json:"line_total"`
}
