package orders

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CheckAvailability handles POST /api/v1/orders/availability
func (c *Controller) CheckAvailability(ctx *gin.Context) {
	var req AvailabilityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}
	seatIDs, err := parseSeatIDs(req.SeatIDs)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid seat ID"})
		return
	}

	availability, err := c.service.CheckAvailability(ctx.Request.Context(), eventID, seatIDs)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to check availability",
			"details": err.Error(),
		})
		return
	}

	resp := AvailabilityResponse{EventID: req.EventID}
	for _, id := range req.SeatIDs {
		seatID, _ := uuid.Parse(id)
		resp.Seats = append(resp.Seats, SeatAvailability{
			SeatID:    id,
			Available: availability[seatID],
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Availability checked successfully",
		"data":    resp,
	})
}

// CreateOrder handles POST /api/v1/orders
func (c *Controller) CreateOrder(ctx *gin.Context) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}
	seatIDs, err := parseSeatIDs(req.SeatIDs)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid seat ID"})
		return
	}

	order, err := c.service.CreateHoldsAndOrder(ctx.Request.Context(), userID, eventID, seatIDs)
	if err != nil {
		var unavailable *SeatsUnavailableError
		if errors.As(err, &unavailable) {
			ctx.JSON(http.StatusConflict, gin.H{
				"error":             "Seats unavailable",
				"unavailable_seats": seatIDStrings(unavailable.SeatIDs),
			})
			return
		}
		if errors.Is(err, ErrNoSeatsSelected) || errors.Is(err, ErrTooManySeats) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create order",
			"details": err.Error(),
		})
		return
	}

	resp := order.ToResponse()
	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"data":    resp,
	})
}

// GetOrder handles GET /api/v1/orders/:id
func (c *Controller) GetOrder(ctx *gin.Context) {
	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	userID, ok := userIDFromContext(ctx)
	if !ok {
		return
	}

	order, err := c.service.GetOrder(ctx.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get order",
			"details": err.Error(),
		})
		return
	}

	roleInterface, _ := ctx.Get("user_role")
	role, _ := roleInterface.(string)
	if role != "ADMIN" && order.UserID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	resp := order.ToResponse()
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    resp,
	})
}

func userIDFromContext(ctx *gin.Context) (uuid.UUID, bool) {
	userIDInterface, exists := ctx.Get("user_id")
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return uuid.Nil, false
	}

	userIDStr, ok := userIDInterface.(string)
	if !ok {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return uuid.Nil, false
	}
	return userID, true
}

func parseSeatIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seatIDStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
