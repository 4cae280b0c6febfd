package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// CatalogService инкапсулирует бизнес-логику вокруг категорий и товаров
type CatalogService struct {
	categories repository.CategoryRepository
	items      repository.ItemRepository
}

func NewCatalogService(categories repository.CategoryRepository, items repository.ItemRepository) *CatalogService {
	return &CatalogService{categories: categories, items: items}
}

// CategoryPatch частичное обновление категории
type CategoryPatch struct {
	Name     *string
	IsActive *bool
}

// ItemPatch частичное обновление товара
type ItemPatch struct {
	CategoryID  *uuid.UUID
	Description *string
	Rate        *decimal.Decimal
	IsActive    *bool
	StockCount  *int64
}

func canManage(p domain.Principal, ownerID uuid.UUID) bool {
	return p.IsAdmin || (ownerID != uuid.Nil && p.UserID == ownerID)
}

func (s *CatalogService) CreateCategory(ctx context.Context, p domain.Principal, c domain.Category) (*domain.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, ErrInvalidInput
	}
	cp := c
	cp.ID = uuid.Nil
	cp.OwnerID = p.UserID
	if err := s.categories.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, p domain.Principal, id uuid.UUID, patch CategoryPatch) (*domain.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(p, c.OwnerID) {
		return nil, ErrForbidden
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		c.Name = name
	}
	if patch.IsActive != nil {
		c.IsActive = *patch.IsActive
	}
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory запрещено, пока в категории есть активные товары
func (s *CatalogService) DeleteCategory(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(p, c.OwnerID) {
		return ErrForbidden
	}
	n, err := s.items.CountActiveInCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	return s.categories.Delete(ctx, id)
}

// ListCategories активные категории вместе с активными товарами
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.CategoryView, error) {
	cats, err := s.categories.List(ctx, true)
	if err != nil {
		return nil, err
	}
	items, err := s.items.List(ctx, repository.ItemFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	byCategory := make(map[uuid.UUID][]domain.Item)
	for _, it := range items {
		byCategory[it.CategoryID] = append(byCategory[it.CategoryID], it)
	}
	out := make([]domain.CategoryView, 0, len(cats))
	for _, c := range cats {
		list := byCategory[c.ID]
		if list == nil {
			list = []domain.Item{}
		}
		out = append(out, domain.CategoryView{Category: c, Items: list})
	}
	return out, nil
}

func (s *CatalogService) CreateItem(ctx context.Context, p domain.Principal, it domain.Item) (*domain.Item, error) {
	if it.CategoryID == uuid.Nil || it.Rate.IsNegative() || it.StockCount < 0 {
		return nil, ErrInvalidInput
	}
	if _, err := s.categories.GetByID(ctx, it.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}
	cp := it
	cp.ID = uuid.Nil
	cp.OwnerID = p.UserID
	if err := s.items.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *CatalogService) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidInput
	}
	return s.items.GetByID(ctx, id)
}

func (s *CatalogService) UpdateItem(ctx context.Context, p domain.Principal, id uuid.UUID, patch ItemPatch) (*domain.Item, error) {
	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(p, it.OwnerID) {
		return nil, ErrForbidden
	}
	if patch.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *patch.CategoryID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrInvalidInput
			}
			return nil, err
		}
		it.CategoryID = *patch.CategoryID
	}
	if patch.Description != nil {
		it.Description = *patch.Description
	}
	if patch.Rate != nil {
		if patch.Rate.IsNegative() {
			return nil, ErrInvalidInput
		}
		it.Rate = *patch.Rate
	}
	if patch.IsActive != nil {
		it.IsActive = *patch.IsActive
	}
	if patch.StockCount != nil {
		if *patch.StockCount < 0 {
			return nil, ErrInvalidInput
		}
		it.StockCount = *patch.StockCount
	}
	if err := s.items.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// DeleteItem товар с ненулевым остатком удалить нельзя
func (s *CatalogService) DeleteItem(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(p, it.OwnerID) {
		return ErrForbidden
	}
	if it.StockCount > 0 {
		return ErrConflict
	}
	return s.items.Delete(ctx, id)
}

// ListItems активные товары в наличии
func (s *CatalogService) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.items.List(ctx, repository.ItemFilter{ActiveOnly: true, InStockOnly: true})
}
