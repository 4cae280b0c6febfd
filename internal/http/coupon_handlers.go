package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/service"
)

// @Summary List coupons
// @Description Admin sees every coupon, other users only active ones.
// @Tags coupons
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Coupon
// @Router /coupons [get]
func (s *Server) listCoupons(c *gin.Context) {
	list, err := s.svc.Coupons.List(c, principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type createCouponReq struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	ValidFrom       time.Time       `json:"valid_from"`
	ValidTo         time.Time       `json:"valid_to"`
	UsageLimit      int64           `json:"usage_limit"`
	IsActive        *bool           `json:"is_active"`
}

// @Summary Create coupon
// @Tags coupons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body createCouponReq true "Coupon"
// @Success 201 {object} domain.Coupon
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /coupons [post]
func (s *Server) createCoupon(c *gin.Context) {
	var req createCouponReq
	if !bindJSON(c, &req) {
		return
	}
	cp := domain.Coupon{
		Code:            req.Code,
		DiscountPercent: req.DiscountPercent,
		ValidFrom:       req.ValidFrom,
		ValidTo:         req.ValidTo,
		UsageLimit:      req.UsageLimit,
		IsActive:        true,
	}
	if req.IsActive != nil {
		cp.IsActive = *req.IsActive
	}
	out, err := s.svc.Coupons.Create(c, principal(c), cp)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

type updateCouponReq struct {
	Code            *string          `json:"code"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	ValidFrom       *time.Time       `json:"valid_from"`
	ValidTo         *time.Time       `json:"valid_to"`
	UsageLimit      *int64           `json:"usage_limit"`
	IsActive        *bool            `json:"is_active"`
}

// @Summary Update coupon
// @Tags coupons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Coupon ID"
// @Param input body updateCouponReq true "Patch"
// @Success 200 {object} domain.Coupon
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /coupons/{id} [patch]
func (s *Server) updateCoupon(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateCouponReq
	if !bindJSON(c, &req) {
		return
	}
	out, err := s.svc.Coupons.Update(c, principal(c), id, service.CouponPatch{
		Code:            req.Code,
		DiscountPercent: req.DiscountPercent,
		ValidFrom:       req.ValidFrom,
		ValidTo:         req.ValidTo,
		UsageLimit:      req.UsageLimit,
		IsActive:        req.IsActive,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type couponCodeReq struct {
	Code string `json:"code"`
}

// @Summary Validate coupon code
// @Description Checks the code for the caller without consuming it.
// @Tags coupons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body couponCodeReq true "Code"
// @Success 200 {object} domain.Coupon
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /coupons/validate [post]
func (s *Server) validateCoupon(c *gin.Context) {
	var req couponCodeReq
	if !bindJSON(c, &req) {
		return
	}
	cp, err := s.svc.Coupons.Validate(c, principal(c), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

// @Summary Redeem coupon code
// @Tags coupons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body couponCodeReq true "Code"
// @Success 201 {object} domain.CouponUsage
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /coupons/redeem [post]
func (s *Server) redeemCoupon(c *gin.Context) {
	var req couponCodeReq
	if !bindJSON(c, &req) {
		return
	}
	u, err := s.svc.Coupons.Redeem(c, principal(c), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}
