package api

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is a dependency checked by /ready
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the handler to its services
type Options struct {
	Auth     *service.AuthService
	Catalog  *service.CatalogService
	Cart     *service.CartService
	Wishlist *service.WishlistService
	Orders   *service.OrderService

	// Limiter guards register and login; nil disables rate limiting
	Limiter        *RateLimiter
	AllowedOrigins []string
	Readiness      map[string]Pinger
}

// Handler contains HTTP handlers
type Handler struct {
	auth     *service.AuthService
	catalog  *service.CatalogService
	cart     *service.CartService
	wishlist *service.WishlistService
	orders   *service.OrderService

	limiter   *RateLimiter
	origins   []string
	readiness map[string]Pinger
}

// NewHandler creates a new HTTP handler
func NewHandler(opts Options) *Handler {
	return &Handler{
		auth:      opts.Auth,
		catalog:   opts.Catalog,
		cart:      opts.Cart,
		wishlist:  opts.Wishlist,
		orders:    opts.Orders,
		limiter:   opts.Limiter,
		origins:   opts.AllowedOrigins,
		readiness: opts.Readiness,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(corsMiddleware(h.origins))
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/register", h.rateLimited("register"), h.register)
		v1.POST("/auth/login", h.rateLimited("login"), h.login)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/categories", h.listCategories)
	}

	user := v1.Group("", h.authRequired())
	{
		user.GET("/auth/me", h.me)
		user.POST("/auth/logout", h.logout)

		user.GET("/cart", h.fetchCart)
		user.POST("/cart/add", h.addToCart)
		user.DELETE("/cart/remove/:productId", h.removeFromCart)
		user.DELETE("/cart", h.clearCart)

		user.GET("/wishlist", h.fetchWishlist)
		user.POST("/wishlist/add", h.addToWishlist)
		user.DELETE("/wishlist/remove/:productId", h.removeFromWishlist)
		user.POST("/wishlist/move/:productId", h.moveToCart)
		user.DELETE("/wishlist", h.clearWishlist)

		user.POST("/orders", h.createOrder)
		user.GET("/orders", h.listOrders)
		user.GET("/orders/:id", h.getOrder)
	}

	admin := v1.Group("", h.authRequired(), adminRequired())
	{
		admin.POST("/products", h.createProduct)
		admin.PUT("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)

		admin.POST("/categories", h.createCategory)
		admin.DELETE("/categories/:id", h.deleteCategory)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every backing dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, p := range h.readiness {
		if err := p.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createOrder handles checkout
func (h *Handler) createOrder(c *gin.Context) {
	var req service.PlaceOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// listOrders returns the caller's orders, newest first
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	details, err := h.orders.GetOrder(c.Request.Context(), currentUserID(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}
