package orders

import (
	"tickethub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupOrderRoutes configures the checkout routes
func SetupOrderRoutes(rg *gin.RouterGroup, controller *Controller) {
	ordersGroup := rg.Group("/orders")
	{
		// Advisory availability check, no auth needed
		ordersGroup.POST("/availability", controller.CheckAvailability) // POST /api/v1/orders/availability
	}

	checkout := rg.Group("/orders")
	checkout.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		checkout.POST("", controller.CreateOrder)   // POST /api/v1/orders
		checkout.GET("/:id", controller.GetOrder)   // GET /api/v1/orders/:id
	}
}
