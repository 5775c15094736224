// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"tickethub/internal/catalog"
	"tickethub/internal/orders"
	"tickethub/internal/payments"
	"tickethub/internal/shared/config"
	"tickethub/internal/shared/database"
	"tickethub/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config       *config.Config
	db           *database.DB
	publisher    orders.EventPublisher
	orderService orders.Service
}

// NewRouter creates a new router instance. The publisher may be nil
// when Kafka is disabled.
func NewRouter(cfg *config.Config, db *database.DB, publisher orders.EventPublisher) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		publisher: publisher,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// Shared dependencies
	cacheService := cache.Service(nil)
	if r.db.Redis != nil {
		cacheService = cache.NewService(r.db.Redis)
	}

	catalogRepo := catalog.NewRepository(r.db.GetPostgreSQL())
	catalogService := catalog.NewService(catalogRepo, cacheService)

	orderRepo := orders.NewRepository(r.db.GetPostgreSQL())
	orderService := orders.NewService(orderRepo, catalogRepo, orders.Config{
		HoldTTL:          r.config.Checkout.HoldTTL,
		MaxSeatsPerOrder: r.config.Checkout.MaxSeatsPerOrder,
		QRSecret:         r.config.Payment.QRSecret,
	})
	if r.publisher != nil {
		orderService.SetPublisher(r.publisher)
	}
	catalogService.SetOccupancyProvider(orderService)
	r.orderService = orderService

	gateway := payments.NewRedirectGateway(payments.Config{
		BaseURL:      r.config.Payment.GatewayURL,
		MerchantCode: r.config.Payment.MerchantCode,
		Secret:       r.config.Payment.Secret,
		ReturnURL:    r.config.Payment.ReturnURL,
	})
	paymentService := payments.NewService(orderRepo, orderService, gateway)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		catalog.SetupCatalogRoutes(api, catalog.NewController(catalogService))
		orders.SetupOrderRoutes(api, orders.NewController(orderService))
		payments.SetupPaymentRoutes(api, payments.NewController(paymentService))
	}
}

// OrderService exposes the wired order service so the expiry sweeper
// can share it. Valid after SetupRoutes.
func (r *Router) OrderService() orders.Service {
	return r.orderService
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "tickethub-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "tickethub-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}
