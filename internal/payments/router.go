package payments

import (
	"tickethub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes configures payment routes. The callback must stay
// public: the gateway has no user token.
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller) {
	payments := rg.Group("/payments")
	{
		payments.GET("/callback", controller.Callback) // GET /api/v1/payments/callback
	}

	authed := rg.Group("/payments")
	authed.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		authed.POST("/orders/:orderId/url", controller.CreatePaymentURL) // POST /api/v1/payments/orders/:orderId/url
	}
}
