package catalog

import (
	"github.com/gin-gonic/gin"
)

// SetupCatalogRoutes configures the public event/seat-map routes.
// These are read-only and unauthenticated.
func SetupCatalogRoutes(rg *gin.RouterGroup, controller Controller) {
	events := rg.Group("/events")
	{
		events.GET("/:eventId", controller.GetEvent)         // GET /api/v1/events/:eventId
		events.GET("/:eventId/seats", controller.GetSeatMap) // GET /api/v1/events/:eventId/seats
	}
}
