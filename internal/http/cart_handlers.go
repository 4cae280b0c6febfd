package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// @Summary List cart lines
// @Description Own lines; for an admin every cart line with its owner.
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.CartLine
// @Router /cart [get]
func (s *Server) listCart(c *gin.Context) {
	p := principal(c)
	var (
		lines any
		err   error
	)
	if p.IsAdmin {
		lines, err = s.svc.Carts.ListAll(c, p)
	} else {
		lines, err = s.svc.Carts.ListForUser(c, p)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

type addToCartReq struct {
	ItemID uuid.UUID `json:"item"`
}

// @Summary Add item to cart
// @Description Creates the line with quantity 1 or increments an existing one.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body addToCartReq true "Item"
// @Success 201 {object} domain.CartLine
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /cart [post]
func (s *Server) addToCart(c *gin.Context) {
	var req addToCartReq
	if !bindJSON(c, &req) {
		return
	}
	line, err := s.svc.Carts.Add(c, principal(c), req.ItemID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, line)
}

type setQuantityReq struct {
	Quantity int64 `json:"quantity"`
}

// @Summary Set cart line quantity
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart line ID"
// @Param input body setQuantityReq true "Quantity"
// @Success 200 {object} domain.CartLine
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /cart/items/{id} [patch]
func (s *Server) setQuantity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req setQuantityReq
	if !bindJSON(c, &req) {
		return
	}
	line, err := s.svc.Carts.SetQuantity(c, principal(c), id, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

// @Summary Remove cart line
// @Tags cart
// @Security BearerAuth
// @Param id path string true "Cart line ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /cart/items/{id} [delete]
func (s *Server) removeFromCart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Carts.Remove(c, principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
