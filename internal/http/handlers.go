package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/service"
)

const requestIDHeader = "X-Request-ID"

// Services прикладные сервисы, которые обслуживает HTTP слой
type Services struct {
	Users     *service.UserService
	Catalog   *service.CatalogService
	Carts     *service.CartService
	Addresses *service.AddressService
	Orders    *service.OrderService
	Coupons   *service.CouponService
}

type Server struct {
	engine *gin.Engine
	svc    Services
	tokens *auth.Issuer
	idem   IdempotencyStore
}

// NewServer собирает gin engine. idem может быть nil, тогда Idempotency-Key игнорируется.
func NewServer(svc Services, tokens *auth.Issuer, idem IdempotencyStore) *Server {
	r := gin.New()
	// services receive *gin.Context as context.Context and must see request-scoped values
	r.ContextWithFallback = true
	r.Use(requestLogger(), gin.Recovery(), metrics.Middleware())
	s := &Server{engine: r, svc: svc, tokens: tokens, idem: idem}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	user := auth.RequireUser(s.tokens)
	admin := auth.RequireAdmin()

	v1 := s.engine.Group("/api/v1")
	{
		a := v1.Group("/auth")
		a.POST("/register", s.register)
		a.POST("/login", s.login)

		categories := v1.Group("/categories")
		categories.GET("", s.listCategories)
		categories.POST("", user, s.createCategory)
		categories.PATCH(":id", user, s.updateCategory)
		categories.DELETE(":id", user, s.deleteCategory)

		items := v1.Group("/items")
		items.GET("", s.listItems)
		items.GET(":id", s.getItem)
		items.POST("", user, s.createItem)
		items.PATCH(":id", user, s.updateItem)
		items.DELETE(":id", user, s.deleteItem)

		cart := v1.Group("/cart", user)
		cart.GET("", s.listCart)
		cart.POST("", s.addToCart)
		cart.PATCH("/items/:id", s.setQuantity)
		cart.DELETE("/items/:id", s.removeFromCart)

		addresses := v1.Group("/addresses", user)
		addresses.GET("", s.listAddresses)
		addresses.POST("", s.createAddress)
		addresses.PATCH(":id", s.updateAddress)
		addresses.DELETE(":id", s.deleteAddress)

		orders := v1.Group("/orders", user)
		orders.POST("", s.placeOrder)
		orders.GET("", s.listOrders)
		orders.GET(":id", s.getOrder)
		orders.POST(":id/pay", admin, s.markPaid)
		orders.GET(":id/invoice", s.invoice)

		coupons := v1.Group("/coupons", user)
		coupons.GET("", s.listCoupons)
		coupons.POST("", admin, s.createCoupon)
		coupons.PATCH(":id", admin, s.updateCoupon)
		coupons.POST("/validate", s.validateCoupon)
		coupons.POST("/redeem", s.redeemCoupon)
	}
}

// requestLogger присваивает запросу id и пишет одну строку лога на запрос
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(requestIDHeader, rid)
		l := logging.Base().With("request_id", rid)
		logging.Bind(c, l)

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", redactQuery(c.Request.URL.Query()),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logging.From(c).Log(c.Request.Context(), level, "http request", attrs...)
	}
}

var sensitiveParams = map[string]struct{}{
	"password":      {},
	"token":         {},
	"access_token":  {},
	"refresh_token": {},
}

func redactQuery(q url.Values) string {
	for k := range q {
		if _, ok := sensitiveParams[strings.ToLower(k)]; ok {
			q.Set(k, "***")
		}
	}
	return q.Encode()
}

func principal(c *gin.Context) domain.Principal {
	p, _ := auth.PrincipalFrom(c)
	return p
}

func parseID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// pathID разбирает :id, при ошибке сам отвечает 400
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	if status >= http.StatusInternalServerError {
		logging.From(c).Error("request failed", "err", err)
	}
	body := gin.H{"error": err.Error()}
	switch status {
	case http.StatusInternalServerError:
		body["error"] = "internal error"
	case http.StatusServiceUnavailable:
		body["error"] = "service unavailable"
	}
	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		body["item_id"] = stockErr.ItemID
		body["requested"] = stockErr.Requested
		body["available"] = stockErr.Available
	}
	c.JSON(status, body)
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrAlreadyUsed):
		return http.StatusConflict
	case errors.Is(err, service.ErrStockExceeded),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrNoAddress),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrExpired),
		errors.Is(err, service.ErrLimitReached):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
