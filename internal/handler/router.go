package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carcraze/marketplace-api/internal/metrics"
	"github.com/carcraze/marketplace-api/internal/middleware"
	"github.com/carcraze/marketplace-api/internal/model"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth   *AuthHandler
	Car    *CarHandler
	Cart   *CartHandler
	Order  *OrderHandler
	Rental *RentalHandler
	Ledger *LedgerHandler
	Health *HealthHandler
}

type RouterConfig struct {
	JWTSecret   string
	CORSOrigins []string
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestLogger(cfg.Logger),
		middleware.Metrics(cfg.Metrics),
		middleware.CORS(cfg.CORSOrigins),
		middleware.ErrorHandler(cfg.Logger),
		gin.Recovery(),
	)

	router.GET("/healthz", h.Health.Healthz)
	router.GET("/readyz", h.Health.Readyz)
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	authed := middleware.AuthMiddleware(cfg.JWTSecret)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/signin", h.Auth.Signin)
		auth.GET("/profile", authed, h.Auth.Profile)

		cars := v1.Group("/cars")
		cars.GET("", h.Car.List)
		cars.GET("/:id", h.Car.GetByID)

		seller := v1.Group("/seller", authed, middleware.RequireRole(model.RoleSeller))
		seller.GET("/cars", h.Car.ListMine)
		seller.POST("/cars", h.Car.Create)
		seller.PUT("/cars/:id", h.Car.Update)
		seller.DELETE("/cars/:id", h.Car.Delete)
		seller.GET("/transactions", h.Ledger.ListMine)

		cart := v1.Group("/cart", authed)
		cart.GET("", h.Cart.GetCart)
		cart.POST("", h.Cart.AddItem)
		cart.POST("/checkout", h.Order.Checkout)
		cart.DELETE("/:carId", h.Cart.RemoveItem)

		orders := v1.Group("/orders", authed)
		orders.GET("", h.Order.ListOrders)
		orders.GET("/:id", h.Order.GetOrder)

		rentals := v1.Group("/rentals", authed, middleware.RequireRole(model.RoleCustomer))
		rentals.POST("", h.Rental.Book)
		rentals.GET("", h.Rental.List)

		admin := v1.Group("/admin", authed, middleware.AdminOnly())
		admin.GET("/users", h.Auth.ListUsers)
	}

	return router
}
