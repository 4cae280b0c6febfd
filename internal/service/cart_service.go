package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// CartService корзина пользователя. Проверки остатка читают текущий stock_count
// без резервирования: две параллельные операции могут обе пройти проверку,
// окончательная проверка выполняется при оформлении заказа.
type CartService struct {
	carts repository.CartRepository
	items repository.ItemRepository
	users repository.UserRepository
}

func NewCartService(carts repository.CartRepository, items repository.ItemRepository, users repository.UserRepository) *CartService {
	return &CartService{carts: carts, items: items, users: users}
}

// Add добавляет товар в корзину или увеличивает количество на единицу
func (s *CartService) Add(ctx context.Context, p domain.Principal, itemID uuid.UUID) (*domain.CartLine, error) {
	if itemID == uuid.Nil {
		return nil, ErrInvalidInput
	}
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, ErrNotFound
	}
	cart, err := s.carts.GetOrCreate(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	line, err := s.carts.GetLine(ctx, cart.ID, itemID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if item.StockCount < 1 {
			return nil, ErrStockExceeded
		}
		line = &domain.CartItem{CartID: cart.ID, ItemID: itemID, Quantity: 1}
		if err := s.carts.CreateLine(ctx, line); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if line.Quantity+1 > item.StockCount {
			return nil, ErrStockExceeded
		}
		line.Quantity++
		if err := s.carts.UpdateLine(ctx, line); err != nil {
			return nil, err
		}
	}
	return withDetails(*line, *item), nil
}

// ownedLine загружает строку и проверяет, что она принадлежит корзине p
func (s *CartService) ownedLine(ctx context.Context, p domain.Principal, lineID uuid.UUID) (*domain.CartItem, error) {
	if lineID == uuid.Nil {
		return nil, ErrInvalidInput
	}
	line, err := s.carts.GetLineByID(ctx, lineID)
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.GetByID(ctx, line.CartID)
	if err != nil {
		return nil, err
	}
	if cart.UserID != p.UserID {
		return nil, ErrForbidden
	}
	return line, nil
}

// SetQuantity перезаписывает количество, не превышая текущий остаток
func (s *CartService) SetQuantity(ctx context.Context, p domain.Principal, lineID uuid.UUID, qty int64) (*domain.CartLine, error) {
	if qty < 1 {
		return nil, ErrInvalidInput
	}
	line, err := s.ownedLine(ctx, p, lineID)
	if err != nil {
		return nil, err
	}
	item, err := s.items.GetByID(ctx, line.ItemID)
	if err != nil {
		return nil, err
	}
	if qty > item.StockCount {
		return nil, ErrStockExceeded
	}
	line.Quantity = qty
	if err := s.carts.UpdateLine(ctx, line); err != nil {
		return nil, err
	}
	return withDetails(*line, *item), nil
}

func (s *CartService) Remove(ctx context.Context, p domain.Principal, lineID uuid.UUID) error {
	if _, err := s.ownedLine(ctx, p, lineID); err != nil {
		return err
	}
	return s.carts.DeleteLine(ctx, lineID)
}

// ListForUser строки корзины пользователя; пустой список, если корзины ещё нет
func (s *CartService) ListForUser(ctx context.Context, p domain.Principal) ([]domain.CartLine, error) {
	cart, err := s.carts.GetOrCreate(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	lines, err := s.carts.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, lines, false)
}

// ListAll все строки всех корзин с владельцем, только для администратора
func (s *CartService) ListAll(ctx context.Context, p domain.Principal) ([]domain.CartLine, error) {
	if !p.IsAdmin {
		return nil, ErrForbidden
	}
	lines, err := s.carts.ListAllLines(ctx)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, lines, true)
}

// project batch-loads items (and owners) for the lines
func (s *CartService) project(ctx context.Context, lines []domain.CartItem, withUser bool) ([]domain.CartLine, error) {
	itemIDs := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		itemIDs = append(itemIDs, l.ItemID)
	}
	items, err := s.items.GetByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	var owners map[uuid.UUID]domain.UserRef
	if withUser {
		if owners, err = s.cartOwners(ctx, lines); err != nil {
			return nil, err
		}
	}

	out := make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		cl := withDetails(l, items[l.ItemID])
		if ref, ok := owners[l.CartID]; ok {
			cl.User = &ref
		}
		out = append(out, *cl)
	}
	return out, nil
}

// cartOwners maps cart id to its owner
func (s *CartService) cartOwners(ctx context.Context, lines []domain.CartItem) (map[uuid.UUID]domain.UserRef, error) {
	cartUser := make(map[uuid.UUID]uuid.UUID)
	userIDs := make([]uuid.UUID, 0)
	for _, l := range lines {
		if _, ok := cartUser[l.CartID]; ok {
			continue
		}
		cart, err := s.carts.GetByID(ctx, l.CartID)
		if err != nil {
			return nil, err
		}
		cartUser[l.CartID] = cart.UserID
		userIDs = append(userIDs, cart.UserID)
	}
	users, err := s.users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]domain.UserRef, len(cartUser))
	for cartID, userID := range cartUser {
		u := users[userID]
		out[cartID] = domain.UserRef{ID: userID, Username: u.Username, Email: u.Email}
	}
	return out, nil
}

func withDetails(l domain.CartItem, it domain.Item) *domain.CartLine {
	return &domain.CartLine{
		CartItem: l,
		ItemDetails: domain.ItemDetails{
			Description: it.Description,
			Rate:        it.Rate,
			StockCount:  it.StockCount,
		},
	}
}
