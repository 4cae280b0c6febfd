package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

var (
	// ErrNotFound возвращается, когда сущность не найдена
	ErrNotFound = errors.New("not found")
	// ErrConflict нарушение ограничения уникальности
	ErrConflict = errors.New("conflict")
	// ErrUnavailable хранилище недоступно (соединение, таймаут)
	ErrUnavailable = errors.New("storage unavailable")
)

// ItemFilter параметры фильтрации списка товаров
type ItemFilter struct {
	CategoryID  *uuid.UUID
	ActiveOnly  bool
	InStockOnly bool
}

// UserRepository интерфейс репозитория пользователей
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.User, error)
}

// CategoryRepository интерфейс репозитория категорий
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool) ([]domain.Category, error)
}

// ItemRepository интерфейс каталога товаров
type ItemRepository interface {
	Create(ctx context.Context, it *domain.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	Update(ctx context.Context, it *domain.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ItemFilter) ([]domain.Item, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Item, error)
	// GetForUpdate загружает товары и блокирует их строки до конца транзакции
	GetForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Item, error)
	CountActiveInCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
}

// CartRepository интерфейс корзин и их строк
type CartRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	// GetByUserForUpdate блокирует корзину пользователя до конца транзакции
	GetByUserForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error)

	GetLine(ctx context.Context, cartID, itemID uuid.UUID) (*domain.CartItem, error)
	GetLineByID(ctx context.Context, id uuid.UUID) (*domain.CartItem, error)
	CreateLine(ctx context.Context, l *domain.CartItem) error
	UpdateLine(ctx context.Context, l *domain.CartItem) error
	DeleteLine(ctx context.Context, id uuid.UUID) error
	ListLines(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error)
	ListAllLines(ctx context.Context) ([]domain.CartItem, error)
	ClearLines(ctx context.Context, cartID uuid.UUID) error
}

// AddressRepository интерфейс адресной книги
type AddressRepository interface {
	Create(ctx context.Context, a *domain.Address) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Address, error)
	Update(ctx context.Context, a *domain.Address) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Address, error)
	GetDefault(ctx context.Context, userID uuid.UUID) (*domain.Address, error)
	ClearDefault(ctx context.Context, userID uuid.UUID) error
}

// OrderRepository интерфейс репозитория заказов
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	// List возвращает заказы пользователя либо все заказы при userID == nil
	List(ctx context.Context, userID *uuid.UUID) ([]domain.Order, error)
	CreateItem(ctx context.Context, it *domain.OrderItem) error
	ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error)
}

// CouponRepository интерфейс купонов и фактов их использования
type CouponRepository interface {
	Create(ctx context.Context, c *domain.Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error)
	// GetForUpdate блокирует строку купона до конца транзакции
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Coupon, error)
	Update(ctx context.Context, c *domain.Coupon) error
	List(ctx context.Context, activeOnly bool) ([]domain.Coupon, error)
	// LatestActiveByCode самая свежая активная запись с данным кодом
	LatestActiveByCode(ctx context.Context, code string) (*domain.Coupon, error)
	ListByCode(ctx context.Context, code string) ([]domain.Coupon, error)
	// LockCode сериализует создание/активацию купонов с одним кодом
	LockCode(ctx context.Context, code string) error

	CreateUsage(ctx context.Context, u *domain.CouponUsage) error
	HasUsage(ctx context.Context, userID, couponID uuid.UUID) (bool, error)
}

// TxManager абстракция транзакции. Вложенные вызовы присоединяются к внешней транзакции.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stores набор репозиториев одного хранилища
type Stores struct {
	Users      UserRepository
	Categories CategoryRepository
	Items      ItemRepository
	Carts      CartRepository
	Addresses  AddressRepository
	Orders     OrderRepository
	Coupons    CouponRepository
	Tx         TxManager
}

func NewMemoryStores() *Stores {
	store := NewMemoryStore()
	return &Stores{
		Users:      NewMemoryUsers(store),
		Categories: NewMemoryCategories(store),
		Items:      store,
		Carts:      NewMemoryCarts(store),
		Addresses:  NewMemoryAddresses(store),
		Orders:     NewMemoryOrders(store),
		Coupons:    NewMemoryCoupons(store),
		Tx:         NewMemoryTx(store),
	}
}

func NewPgStores(store *PgStore) *Stores {
	return &Stores{
		Users:      NewPgUsers(store),
		Categories: NewPgCategories(store),
		Items:      NewPgItems(store),
		Carts:      NewPgCarts(store),
		Addresses:  NewPgAddresses(store),
		Orders:     NewPgOrders(store),
		Coupons:    NewPgCoupons(store),
		Tx:         NewPgTx(store),
	}
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
