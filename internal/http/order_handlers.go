package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/service"
)

type orderResp struct {
	domain.Order
	Code string `json:"code"`
}

func newOrderResp(o *domain.Order) orderResp {
	return orderResp{Order: *o, Code: o.Code()}
}

type placeOrderReq struct {
	AddressID  *uuid.UUID `json:"address_id"`
	CouponCode string     `json:"coupon_code"`
}

// @Summary Place order from cart
// @Description Converts the caller's cart into an order. Honours the Idempotency-Key header.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Idempotency key"
// @Param input body placeOrderReq false "Options"
// @Success 201 {object} orderResp
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /orders [post]
func (s *Server) placeOrder(c *gin.Context) {
	var req placeOrderReq
	// an empty body means "default address, no coupon"
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p := principal(c)
	in := service.PlaceOrderInput{AddressID: req.AddressID, CouponCode: req.CouponCode}

	key := idempotencyKey(c)
	if s.idem == nil || key == "" {
		s.placeOrderOnce(c, p, in)
		return
	}

	log := logging.From(c)
	scope := "orders:" + p.UserID.String()
	body, found, err := s.idem.Recall(c, scope, key)
	if err != nil {
		log.Warn("idempotency recall failed", "err", err)
		s.placeOrderOnce(c, p, in)
		return
	}
	if found {
		c.Header("Idempotent-Replayed", "true")
		c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(body))
		return
	}

	locked, err := s.idem.TryLock(c, scope, key)
	if err != nil {
		log.Warn("idempotency lock failed", "err", err)
		s.placeOrderOnce(c, p, in)
		return
	}
	if !locked {
		c.JSON(http.StatusConflict, gin.H{"error": "request with this Idempotency-Key is in progress"})
		return
	}

	o, err := s.svc.Orders.PlaceOrder(c, p, in)
	if err != nil {
		// failed attempts may be retried with the same key
		if rerr := s.idem.Release(c, scope, key); rerr != nil {
			log.Warn("idempotency release failed", "err", rerr)
		}
		writeError(c, err)
		return
	}
	raw, err := json.Marshal(newOrderResp(o))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.idem.Remember(c, scope, key, string(raw)); err != nil {
		log.Warn("idempotency remember failed", "err", err)
	}
	c.Data(http.StatusCreated, "application/json; charset=utf-8", raw)
}

func (s *Server) placeOrderOnce(c *gin.Context, p domain.Principal, in service.PlaceOrderInput) {
	o, err := s.svc.Orders.PlaceOrder(c, p, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newOrderResp(o))
}

// @Summary List orders
// @Description Own orders; an admin sees every order.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} orderResp
// @Router /orders [get]
func (s *Server) listOrders(c *gin.Context) {
	list, err := s.svc.Orders.ListOrders(c, principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]orderResp, 0, len(list))
	for i := range list {
		out = append(out, newOrderResp(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Get order by id
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} orderResp
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	o, err := s.svc.Orders.GetOrder(c, principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResp(o))
}

// @Summary Mark order paid
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} orderResp
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/pay [post]
func (s *Server) markPaid(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	o, err := s.svc.Orders.MarkPaid(c, principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResp(o))
}

// @Summary Order invoice
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Invoice
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/invoice [get]
func (s *Server) invoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	inv, err := s.svc.Orders.Invoice(c, principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}
