package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/service"
)

type createCategoryReq struct {
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body createCategoryReq true "Category"
// @Success 201 {object} domain.Category
// @Failure 400 {object} map[string]string
// @Router /categories [post]
func (s *Server) createCategory(c *gin.Context) {
	var req createCategoryReq
	if !bindJSON(c, &req) {
		return
	}
	cat := domain.Category{Name: req.Name, IsActive: true}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}
	out, err := s.svc.Catalog.CreateCategory(c, principal(c), cat)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

type updateCategoryReq struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// @Summary Update category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param input body updateCategoryReq true "Patch"
// @Success 200 {object} domain.Category
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /categories/{id} [patch]
func (s *Server) updateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateCategoryReq
	if !bindJSON(c, &req) {
		return
	}
	out, err := s.svc.Catalog.UpdateCategory(c, principal(c), id, service.CategoryPatch{Name: req.Name, IsActive: req.IsActive})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Delete category
// @Tags categories
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /categories/{id} [delete]
func (s *Server) deleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Catalog.DeleteCategory(c, principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List active categories with their items
// @Tags categories
// @Produce json
// @Success 200 {array} domain.CategoryView
// @Router /categories [get]
func (s *Server) listCategories(c *gin.Context) {
	list, err := s.svc.Catalog.ListCategories(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type createItemReq struct {
	CategoryID  uuid.UUID       `json:"category_id"`
	Description string          `json:"description"`
	Rate        decimal.Decimal `json:"rate"`
	IsActive    *bool           `json:"is_active"`
	StockCount  int64           `json:"stock_count"`
}

// @Summary Create item
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body createItemReq true "Item"
// @Success 201 {object} domain.Item
// @Failure 400 {object} map[string]string
// @Router /items [post]
func (s *Server) createItem(c *gin.Context) {
	var req createItemReq
	if !bindJSON(c, &req) {
		return
	}
	it := domain.Item{
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Rate:        req.Rate,
		IsActive:    true,
		StockCount:  req.StockCount,
	}
	if req.IsActive != nil {
		it.IsActive = *req.IsActive
	}
	out, err := s.svc.Catalog.CreateItem(c, principal(c), it)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// @Summary Get item by id
// @Tags items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} domain.Item
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /items/{id} [get]
func (s *Server) getItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	it, err := s.svc.Catalog.GetItem(c, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

type updateItemReq struct {
	CategoryID  *uuid.UUID       `json:"category_id"`
	Description *string          `json:"description"`
	Rate        *decimal.Decimal `json:"rate"`
	IsActive    *bool            `json:"is_active"`
	StockCount  *int64           `json:"stock_count"`
}

// @Summary Update item
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Param input body updateItemReq true "Patch"
// @Success 200 {object} domain.Item
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /items/{id} [patch]
func (s *Server) updateItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateItemReq
	if !bindJSON(c, &req) {
		return
	}
	out, err := s.svc.Catalog.UpdateItem(c, principal(c), id, service.ItemPatch{
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Rate:        req.Rate,
		IsActive:    req.IsActive,
		StockCount:  req.StockCount,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Delete item
// @Tags items
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /items/{id} [delete]
func (s *Server) deleteItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Catalog.DeleteItem(c, principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List active items in stock
// @Tags items
// @Produce json
// @Success 200 {array} domain.Item
// @Router /items [get]
func (s *Server) listItems(c *gin.Context) {
	list, err := s.svc.Catalog.ListItems(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
